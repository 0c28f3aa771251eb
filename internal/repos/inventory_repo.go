package repos

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"petshop/internal/domain"

	"github.com/jmoiron/sqlx"
)

// ErrStockGuard means a decrement would have taken stock below zero, or the
// pet does not exist.
var ErrStockGuard = errors.New("stock guard rejected adjustment")

// InventoryRepo owns pet stock levels and the active flag that follows them.
type InventoryRepo struct{ db sqlx.ExtContext }

func NewInventoryRepo(db sqlx.ExtContext) *InventoryRepo { return &InventoryRepo{db: db} }

func (r *InventoryRepo) WithTx(tx *sqlx.Tx) *InventoryRepo { return &InventoryRepo{db: tx} }

// Qty returns current stock for a pet.
func (r *InventoryRepo) Qty(ctx context.Context, petID int64) (int, error) {
	var qty int
	err := sqlx.GetContext(ctx, r.db, &qty, `SELECT stock_quantity FROM pets WHERE id = ?`, petID)
	return qty, err
}

// AdjustStock adds delta to the pet's stock and returns the new level.
// A negative delta only applies when enough stock exists; otherwise
// ErrStockGuard is returned and nothing changes.
func (r *InventoryRepo) AdjustStock(ctx context.Context, petID int64, delta int) (int, error) {
	var qty int
	err := sqlx.GetContext(ctx, r.db, &qty, `
		UPDATE pets
		SET stock_quantity = stock_quantity + ?, updated_at = ?
		WHERE id = ? AND stock_quantity + ? >= 0
		RETURNING stock_quantity
	`, delta, time.Now().UTC(), petID, delta)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrStockGuard
	}
	return qty, err
}

func (r *InventoryRepo) SetActive(ctx context.Context, petID int64, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE pets SET is_active = ?, updated_at = ? WHERE id = ?`,
		active, time.Now().UTC(), petID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNoRows
	}
	return nil
}

// SetQty overwrites the stock level. Back-office and tests only.
func (r *InventoryRepo) SetQty(ctx context.Context, petID int64, qty int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE pets SET stock_quantity = ?, updated_at = ? WHERE id = ?`,
		qty, time.Now().UTC(), petID)
	return err
}

// LowStock lists active pets at or below threshold, lowest first.
func (r *InventoryRepo) LowStock(ctx context.Context, threshold, limit int) ([]domain.Pet, error) {
	var out []domain.Pet
	err := sqlx.SelectContext(ctx, r.db, &out, `SELECT `+petColumns+`
  WHERE p.is_active = 1 AND p.stock_quantity <= ?
  ORDER BY p.stock_quantity ASC, p.id
  LIMIT ?`, threshold, limit)
	return out, err
}
