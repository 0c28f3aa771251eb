package repos

import (
	"context"
	"time"

	"petshop/internal/domain"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type CartRepo struct{ db sqlx.ExtContext }

func NewCartRepo(db sqlx.ExtContext) *CartRepo { return &CartRepo{db: db} }

func (r *CartRepo) WithTx(tx *sqlx.Tx) *CartRepo { return &CartRepo{db: tx} }

const cartColumns = `
    ci.id, ci.user_id, ci.pet_id, p.name AS pet_name, p.main_image_url AS pet_image,
    p.stock_quantity, ci.quantity, ci.unit_price, ci.created_at
  FROM cart_items ci
  JOIN pets p ON p.id = ci.pet_id`

// Items returns the user's cart lines in insertion order.
func (r *CartRepo) Items(ctx context.Context, userID string) ([]domain.CartItem, error) {
	out := []domain.CartItem{}
	err := sqlx.SelectContext(ctx, r.db, &out, `SELECT `+cartColumns+`
  WHERE ci.user_id = ?
  ORDER BY ci.id`, userID)
	return out, err
}

// Item returns one line scoped to its owner.
func (r *CartRepo) Item(ctx context.Context, userID string, itemID int64) (domain.CartItem, error) {
	var it domain.CartItem
	err := sqlx.GetContext(ctx, r.db, &it, `SELECT `+cartColumns+`
  WHERE ci.id = ? AND ci.user_id = ?`, itemID, userID)
	return it, err
}

func (r *CartRepo) ItemForPet(ctx context.Context, userID string, petID int64) (domain.CartItem, error) {
	var it domain.CartItem
	err := sqlx.GetContext(ctx, r.db, &it, `SELECT `+cartColumns+`
  WHERE ci.user_id = ? AND ci.pet_id = ?`, userID, petID)
	return it, err
}

func (r *CartRepo) Insert(ctx context.Context, userID string, petID int64, qty int, unit decimal.Decimal) error {
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO cart_items(user_id, pet_id, quantity, unit_price, created_at)
	  VALUES (?, ?, ?, ?, ?)
	`, userID, petID, qty, unit, time.Now().UTC())
	return err
}

// SetLine overwrites quantity and unit price of an existing line.
func (r *CartRepo) SetLine(ctx context.Context, itemID int64, qty int, unit decimal.Decimal) error {
	_, err := r.db.ExecContext(ctx, `UPDATE cart_items SET quantity = ?, unit_price = ? WHERE id = ?`, qty, unit, itemID)
	return err
}

func (r *CartRepo) SetQty(ctx context.Context, userID string, itemID int64, qty int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE cart_items SET quantity = ? WHERE id = ? AND user_id = ?`, qty, itemID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNoRows
	}
	return nil
}

func (r *CartRepo) Remove(ctx context.Context, userID string, itemID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE id = ? AND user_id = ?`, itemID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNoRows
	}
	return nil
}

// Clear deletes every line of the user's cart and reports how many went.
func (r *CartRepo) Clear(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = ?`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Count is the total quantity across the user's lines.
func (r *CartRepo) Count(ctx context.Context, userID string) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, r.db, &n, `SELECT COALESCE(SUM(quantity), 0) FROM cart_items WHERE user_id = ?`, userID)
	return n, err
}
