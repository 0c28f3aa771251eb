// Package server assembles the fiber application: views, middleware and
// routes over the handler set.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"petshop/internal/config"
	"petshop/internal/http/handlers"
	applog "petshop/internal/log"
	"petshop/internal/metrics"
	"petshop/internal/ratelimit"
	"petshop/web"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/multierr"
)

const bodyLimit = 1 << 20

type App struct {
	Fiber   *fiber.App
	Deps    *handlers.Deps
	Metrics *metrics.Metrics

	cfg     config.Config
	db      *sqlx.DB
	storage fiber.Storage
	closers []io.Closer
}

// New wires the application over an open database. The database itself is
// owned by the caller.
func New(ctx context.Context, cfg config.Config, db *sqlx.DB) (*App, error) {
	a := &App{cfg: cfg, db: db}
	if cfg.MetricsEnabled {
		a.Metrics = metrics.New()
	}

	deps, err := handlers.NewDeps(db, cfg, a.Metrics)
	if err != nil {
		return nil, err
	}
	a.Deps = deps

	if cfg.RedisURL != "" {
		s, err := ratelimit.New(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("rate limit storage: %w", err)
		}
		a.storage = s
		a.closers = append(a.closers, s)
	}

	a.Fiber = fiber.New(fiber.Config{
		AppName:      "petshop",
		Views:        web.Engine(cfg.TemplateReload, "./web/templates"),
		BodyLimit:    bodyLimit,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		ErrorHandler: errorHandler,
	})
	a.middleware()
	a.routes()
	return a, nil
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Something went wrong. Please try again."
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		if code < fiber.StatusInternalServerError {
			msg = fe.Message
		}
	}
	if code == fiber.StatusNotFound {
		msg = "Page not found"
	}
	if code >= fiber.StatusInternalServerError {
		applog.Error(c, "server.error", err, nil)
	}
	// Avoid leaking internals; best-effort render
	if rerr := c.Status(code).Render("notfound", fiber.Map{"Message": msg}); rerr != nil {
		return c.Status(code).SendString(msg)
	}
	return nil
}

func (a *App) middleware() {
	app := a.Fiber
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "${status} ${method} ${path} ${latency} req_id=${locals:requestid}\n",
		Output: applog.AccessWriter(),
	}))
	app.Use(helmet.New())
	if a.Metrics != nil {
		app.Use(a.Metrics.Middleware())
	}
	app.Use(limiter.New(limiter.Config{
		Max:        a.cfg.RateLimitMax,
		Expiration: a.cfg.RateLimitWindow,
		Storage:    a.storage,
		Next: func(c *fiber.Ctx) bool {
			p := c.Path()
			return strings.HasPrefix(p, "/static/") || p == "/healthz" || p == "/metrics"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.global.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).SendString("Too many requests. Please slow down.")
		},
	}))
	app.Use(handlers.AttachUser(a.Deps.Auth))
	if a.cfg.CSRFEnabled {
		app.Use(csrf.New(csrf.Config{
			CookieName:     "csrf_",
			CookieSameSite: "Lax",
			CookieSecure:   a.cfg.CookieSecure,
			CookieHTTPOnly: true,
			Expiration:     2 * time.Hour,
			ContextKey:     "CSRFToken",
			Extractor:      csrfToken,
			ErrorHandler: func(c *fiber.Ctx, err error) error {
				applog.Security(c, "csrf.fail", map[string]any{"error": err.Error()})
				return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
			},
		}))
	}
}

var errNoCSRF = errors.New("missing csrf token")

// csrfToken reads the token from the X-CSRF-Token header sent by app.js, or
// from the "csrf" field of a plain form post.
func csrfToken(c *fiber.Ctx) (string, error) {
	if tok := c.Get("X-CSRF-Token"); tok != "" {
		return tok, nil
	}
	if tok := c.FormValue("csrf"); tok != "" {
		return tok, nil
	}
	return "", errNoCSRF
}

// loginLimiter throttles credential guessing per client address.
func (a *App) loginLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        a.cfg.LoginLimitMax,
		Expiration: 10 * time.Minute,
		Storage:    a.storage,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|login"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).Render("login", fiber.Map{"Err": "Too many attempts. Please try again later."})
		},
	})
}

func staticFiles() fiber.Handler {
	return filesystem.New(filesystem.Config{Root: web.Static(), MaxAge: 3600})
}

func (a *App) Listen(addr string) error { return a.Fiber.Listen(addr) }

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx expires.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Fiber.ShutdownWithContext(ctx)
}

// Close releases resources the app opened itself.
func (a *App) Close() error {
	var err error
	for _, c := range a.closers {
		err = multierr.Append(err, c.Close())
	}
	return err
}
