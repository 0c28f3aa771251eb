package repos

import (
	"context"
	"strings"
	"time"

	"petshop/internal/domain"

	"github.com/jmoiron/sqlx"
)

type OrderRepo struct{ db sqlx.ExtContext }

func NewOrderRepo(db sqlx.ExtContext) *OrderRepo { return &OrderRepo{db: db} }

func (r *OrderRepo) WithTx(tx *sqlx.Tx) *OrderRepo { return &OrderRepo{db: tx} }

const orderColumns = `
    o.id, o.order_number, o.user_id, o.order_date, o.status, o.subtotal, o.shipping_fee,
    o.total_amount, o.shipping_name, o.shipping_phone, o.shipping_address, o.notes,
    o.payment_method, o.payment_status, o.payment_date, o.created_at, o.updated_at
  FROM orders o`

const detailColumns = `
    d.id, d.order_id, d.pet_id, p.name AS pet_name, p.main_image_url AS pet_image,
    d.quantity, d.unit_price, d.total_price
  FROM order_details d
  JOIN pets p ON p.id = d.pet_id`

// Create inserts the order header and returns its id.
func (r *OrderRepo) Create(ctx context.Context, o domain.Order) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
	  INSERT INTO orders(
	    order_number, user_id, order_date, status, subtotal, shipping_fee, total_amount,
	    shipping_name, shipping_phone, shipping_address, notes, payment_method,
	    payment_status, created_at
	  ) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)
	`, o.OrderNumber, o.UserID, o.OrderDate, o.Status, o.SubTotal, o.ShippingFee, o.TotalAmount,
		o.ShippingName, o.ShippingPhone, o.ShippingAddress, o.Notes, o.PaymentMethod,
		o.PaymentStatus, o.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// InsertDetail inserts a single line item.
func (r *OrderRepo) InsertDetail(ctx context.Context, d domain.OrderDetail) error {
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO order_details(order_id, pet_id, quantity, unit_price, total_price)
	  VALUES (?, ?, ?, ?, ?)
	`, d.OrderID, d.PetID, d.Quantity, d.UnitPrice, d.TotalPrice)
	return err
}

// GetForUser loads an order with its details only when userID owns it.
func (r *OrderRepo) GetForUser(ctx context.Context, userID string, orderID int64) (domain.Order, error) {
	var o domain.Order
	if err := sqlx.GetContext(ctx, r.db, &o, `SELECT `+orderColumns+` WHERE o.id = ? AND o.user_id = ?`,
		orderID, userID); err != nil {
		return domain.Order{}, err
	}
	return r.withDetails(ctx, o)
}

// Get loads any order with its details. Back-office only.
func (r *OrderRepo) Get(ctx context.Context, orderID int64) (domain.Order, error) {
	var o domain.Order
	if err := sqlx.GetContext(ctx, r.db, &o, `SELECT `+orderColumns+` WHERE o.id = ?`, orderID); err != nil {
		return domain.Order{}, err
	}
	return r.withDetails(ctx, o)
}

func (r *OrderRepo) withDetails(ctx context.Context, o domain.Order) (domain.Order, error) {
	o.Details = []domain.OrderDetail{}
	err := sqlx.SelectContext(ctx, r.db, &o.Details, `SELECT `+detailColumns+` WHERE d.order_id = ? ORDER BY d.id`, o.ID)
	return o, err
}

func (r *OrderRepo) attachDetails(ctx context.Context, orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]int64, len(orders))
	idx := make(map[int64]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		idx[o.ID] = i
	}
	q, args, err := sqlx.In(`SELECT `+detailColumns+` WHERE d.order_id IN (?) ORDER BY d.id`, ids)
	if err != nil {
		return err
	}
	var details []domain.OrderDetail
	if err := sqlx.SelectContext(ctx, r.db, &details, r.db.Rebind(q), args...); err != nil {
		return err
	}
	for _, d := range details {
		i := idx[d.OrderID]
		orders[i].Details = append(orders[i].Details, d)
	}
	return nil
}

// ListForUser returns one page of the user's orders, newest first, with
// details attached.
func (r *OrderRepo) ListForUser(ctx context.Context, userID string, pageNo, size int) ([]domain.Order, int, error) {
	var total int
	if err := sqlx.GetContext(ctx, r.db, &total, `SELECT COUNT(*) FROM orders WHERE user_id = ?`, userID); err != nil {
		return nil, 0, err
	}
	limit, offset := page(pageNo, size)
	out := []domain.Order{}
	if err := sqlx.SelectContext(ctx, r.db, &out, `SELECT `+orderColumns+`
  WHERE o.user_id = ?
  ORDER BY o.order_date DESC, o.id DESC
  LIMIT ? OFFSET ?`, userID, limit, offset); err != nil {
		return nil, 0, err
	}
	return out, total, r.attachDetails(ctx, out)
}

type OrderFilter struct {
	// Search matches order number, shipping name or phone.
	Search   string
	Status   domain.OrderStatus
	Page     int
	PageSize int
}

// List is the back-office order listing.
func (r *OrderRepo) List(ctx context.Context, f OrderFilter) ([]domain.Order, int, error) {
	conds := []string{"1=1"}
	var args []any
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		like := "%" + q + "%"
		conds = append(conds, "(LOWER(o.order_number) LIKE ? OR LOWER(o.shipping_name) LIKE ? OR o.shipping_phone LIKE ?)")
		args = append(args, like, like, like)
	}
	if f.Status != "" {
		conds = append(conds, "o.status = ?")
		args = append(args, f.Status)
	}
	where := strings.Join(conds, " AND ")

	var total int
	if err := sqlx.GetContext(ctx, r.db, &total, `SELECT COUNT(*) FROM orders o WHERE `+where, args...); err != nil {
		return nil, 0, err
	}
	size := f.PageSize
	if size <= 0 {
		size = 10
	}
	limit, offset := page(f.Page, size)
	out := []domain.Order{}
	if err := sqlx.SelectContext(ctx, r.db, &out, `SELECT `+orderColumns+` WHERE `+where+`
  ORDER BY o.order_date DESC, o.id DESC
  LIMIT ? OFFSET ?`, append(args, limit, offset)...); err != nil {
		return nil, 0, err
	}
	return out, total, r.attachDetails(ctx, out)
}

func (r *OrderRepo) Recent(ctx context.Context, n int) ([]domain.Order, error) {
	out := []domain.Order{}
	err := sqlx.SelectContext(ctx, r.db, &out, `SELECT `+orderColumns+`
  ORDER BY o.order_date DESC, o.id DESC
  LIMIT ?`, n)
	return out, err
}

// TransitionStatus moves an order from one status to another and reports
// whether the row was still in the expected status.
func (r *OrderRepo) TransitionStatus(ctx context.Context, orderID int64, from, to domain.OrderStatus) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE orders SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		to, time.Now().UTC(), orderID, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// SetStatus assigns a status without checking the current one.
func (r *OrderRepo) SetStatus(ctx context.Context, orderID int64, to domain.OrderStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`,
		to, time.Now().UTC(), orderID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNoRows
	}
	return nil
}

func (r *OrderRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, r.db, &n, `SELECT COUNT(*) FROM orders`)
	return n, err
}

func (r *OrderRepo) CountByStatus(ctx context.Context, st domain.OrderStatus) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, r.db, &n, `SELECT COUNT(*) FROM orders WHERE status = ?`, st)
	return n, err
}

func (r *OrderRepo) CountForUser(ctx context.Context, userID string) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, r.db, &n, `SELECT COUNT(*) FROM orders WHERE user_id = ?`, userID)
	return n, err
}
