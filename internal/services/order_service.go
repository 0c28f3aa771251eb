package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"petshop/internal/apperr"
	"petshop/internal/domain"
	"petshop/internal/metrics"
	"petshop/internal/repos"
	"petshop/internal/validate"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

const OrdersPageSize = 10

type CheckoutForm struct {
	ShippingName    string `form:"shipping_name" validate:"required,max=100"`
	ShippingPhone   string `form:"shipping_phone" validate:"required,phone"`
	ShippingAddress string `form:"shipping_address" validate:"required,max=500"`
	Notes           string `form:"notes" validate:"max=500"`
	PaymentMethod   string `form:"payment_method" validate:"required,paymethod"`
}

func (f CheckoutForm) trimmed() CheckoutForm {
	f.ShippingName = strings.TrimSpace(f.ShippingName)
	f.ShippingPhone = strings.TrimSpace(f.ShippingPhone)
	f.ShippingAddress = strings.TrimSpace(f.ShippingAddress)
	f.Notes = strings.TrimSpace(f.Notes)
	f.PaymentMethod = strings.TrimSpace(f.PaymentMethod)
	return f
}

type OrderService struct {
	DB      *sqlx.DB
	Carts   *repos.CartRepo
	Inv     *repos.InventoryRepo
	Orders  *repos.OrderRepo
	Numbers *OrderNumbers
	TaxRate decimal.Decimal
	Metrics *metrics.Metrics
	Now     func() time.Time
}

func NewOrderService(db *sqlx.DB, numbers *OrderNumbers, taxRate decimal.Decimal) *OrderService {
	return &OrderService{
		DB:      db,
		Carts:   repos.NewCartRepo(db),
		Inv:     repos.NewInventoryRepo(db),
		Orders:  repos.NewOrderRepo(db),
		Numbers: numbers,
		TaxRate: taxRate,
		Now:     func() time.Time { return time.Now().UTC() },
	}
}

// PlaceOrder turns the user's cart into a Pending order. Order header,
// details, stock decrements and the cart clear commit together or not at
// all.
func (s *OrderService) PlaceOrder(ctx context.Context, userID string, form CheckoutForm) (*domain.Order, error) {
	items, err := s.Carts.Items(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, err, "load cart")
	}
	if len(items) == 0 {
		s.Metrics.Order("place", string(apperr.CodeEmptyCart))
		return nil, apperr.New(apperr.CodeEmptyCart, "Your cart is empty.")
	}

	form = form.trimmed()
	if err := validate.Struct(&form); err != nil {
		s.Metrics.Order("place", string(apperr.CodeValidation))
		return nil, err
	}
	method, _ := domain.ParsePaymentMethod(form.PaymentMethod)

	now := s.Now()
	totals := ComputeTotals(items, s.TaxRate)
	order := domain.Order{
		OrderNumber:     s.Numbers.Next(),
		UserID:          userID,
		OrderDate:       now,
		Status:          domain.OrderPending,
		SubTotal:        totals.SubTotal,
		ShippingFee:     totals.ShippingFee,
		TotalAmount:     totals.Total,
		ShippingName:    form.ShippingName,
		ShippingPhone:   form.ShippingPhone,
		ShippingAddress: form.ShippingAddress,
		Notes:           form.Notes,
		PaymentMethod:   method,
		PaymentStatus:   domain.PaymentPending,
		CreatedAt:       now,
	}

	err = repos.WithTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		orders := s.Orders.WithTx(tx)
		ledger := stockLedger{inv: s.Inv.WithTx(tx)}

		id, err := orders.Create(ctx, order)
		if err != nil {
			return err
		}
		order.ID = id

		for _, it := range items {
			d := domain.OrderDetail{
				OrderID:    id,
				PetID:      it.PetID,
				PetName:    it.PetName,
				PetImage:   it.PetImage,
				Quantity:   it.Quantity,
				UnitPrice:  it.UnitPrice,
				TotalPrice: it.TotalPrice().Round(2),
			}
			if err := orders.InsertDetail(ctx, d); err != nil {
				return err
			}
			if _, err := ledger.sell(ctx, it.PetID, it.PetName, it.Quantity); err != nil {
				return err
			}
			order.Details = append(order.Details, d)
		}
		// The snapshot was read outside the tx; a concurrent checkout of the
		// same cart shows up here as a short delete.
		n, err := s.Carts.WithTx(tx).Clear(ctx, userID)
		if err != nil {
			return err
		}
		switch {
		case n == 0:
			return apperr.New(apperr.CodeEmptyCart, "Your cart is empty.")
		case n != int64(len(items)):
			return apperr.New(apperr.CodeInvalidState, "Your cart changed during checkout. Please review it and try again.")
		}
		return nil
	})
	if err != nil {
		if ae := apperr.As(err); ae != nil {
			s.Metrics.Order("place", string(ae.Code()))
			return nil, ae
		}
		s.Metrics.Order("place", string(apperr.CodeTransaction))
		return nil, apperr.Wrap(apperr.CodeTransaction, err, "place order")
	}

	s.Metrics.Order("place", "ok")
	s.Metrics.StockMoved(-totals.Units)
	return &order, nil
}

// CancelOrder cancels one of the user's Pending orders and puts its stock
// back. Foreign and missing orders both report NotFound.
func (s *OrderService) CancelOrder(ctx context.Context, userID string, orderID int64) error {
	units := 0
	err := repos.WithTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		orders := s.Orders.WithTx(tx)
		ledger := stockLedger{inv: s.Inv.WithTx(tx)}

		o, err := orders.GetForUser(ctx, userID, orderID)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.New(apperr.CodeNotFound, "Order not found.")
		}
		if err != nil {
			return err
		}
		if !o.Cancellable() {
			return apperr.New(apperr.CodeInvalidState, "Only pending orders can be cancelled.")
		}

		for _, d := range o.Details {
			if err := ledger.restore(ctx, d.PetID, d.Quantity); err != nil {
				return err
			}
			units += d.Quantity
		}

		ok, err := orders.TransitionStatus(ctx, o.ID, domain.OrderPending, domain.OrderCancelled)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.New(apperr.CodeInvalidState, "Only pending orders can be cancelled.")
		}
		return nil
	})
	if err != nil {
		if ae := apperr.As(err); ae != nil {
			s.Metrics.Order("cancel", string(ae.Code()))
			return ae
		}
		s.Metrics.Order("cancel", string(apperr.CodeTransaction))
		return apperr.Wrap(apperr.CodeTransaction, err, "cancel order")
	}

	s.Metrics.Order("cancel", "ok")
	s.Metrics.StockMoved(units)
	return nil
}

type OrderPage struct {
	Orders     []domain.Order
	Page       int
	TotalPages int
	Total      int
}

func (s *OrderService) ListForUser(ctx context.Context, userID string, page int) (OrderPage, error) {
	if page < 1 {
		page = 1
	}
	orders, total, err := s.Orders.ListForUser(ctx, userID, page, OrdersPageSize)
	if err != nil {
		return OrderPage{}, apperr.Wrap(apperr.CodeInternal, err, "list orders")
	}
	return OrderPage{Orders: orders, Page: page, Total: total, TotalPages: totalPages(total, OrdersPageSize)}, nil
}

func (s *OrderService) GetForUser(ctx context.Context, userID string, orderID int64) (*domain.Order, error) {
	o, err := s.Orders.GetForUser(ctx, userID, orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.New(apperr.CodeNotFound, "Order not found.")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, err, "load order")
	}
	return &o, nil
}

func totalPages(total, size int) int {
	if total == 0 {
		return 1
	}
	return (total + size - 1) / size
}
