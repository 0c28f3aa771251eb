package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the storefront collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	reg             *prometheus.Registry
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	orders          *prometheus.CounterVec
	stockUnits      *prometheus.CounterVec
}

// New builds a private registry with process and Go collectors plus the
// storefront metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		reg: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "petshop_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "petshop_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: []float64{0.005, 0.025, 0.1, 0.5, 1, 2, 5},
		}, []string{"method", "path"}),
		orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "petshop_order_transitions_total",
			Help: "Order placement and cancellation attempts by outcome.",
		}, []string{"transition", "outcome"}),
		stockUnits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "petshop_stock_units_total",
			Help: "Pet stock units moved by order transitions.",
		}, []string{"direction"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.requestDuration, m.orders, m.stockUnits,
	)
	return m
}

// Registry exposes the registry for tests and custom collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

// Order records one transition attempt. Outcome is "ok" or an error code.
func (m *Metrics) Order(transition, outcome string) {
	if m == nil {
		return
	}
	if outcome == "" {
		outcome = "unknown"
	}
	m.orders.WithLabelValues(transition, outcome).Inc()
}

// StockMoved records units sold (negative) or restored (positive).
func (m *Metrics) StockMoved(delta int) {
	if m == nil || delta == 0 {
		return
	}
	dir := "restored"
	if delta < 0 {
		dir, delta = "sold", -delta
	}
	m.stockUnits.WithLabelValues(dir).Add(float64(delta))
}

// Middleware counts requests by matched route.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if m == nil {
			return c.Next()
		}
		start := time.Now()
		err := c.Next()

		path := c.Route().Path
		if path == "" {
			path = "unknown"
		}
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		m.requests.WithLabelValues(c.Method(), path, strconv.Itoa(status)).Inc()
		m.requestDuration.WithLabelValues(c.Method(), path).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{}))
}
