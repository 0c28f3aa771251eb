package repos

import (
	"context"
	"time"

	"petshop/internal/domain"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// StatsRepo serves the back-office reports.
type StatsRepo struct{ db sqlx.ExtContext }

func NewStatsRepo(db sqlx.ExtContext) *StatsRepo { return &StatsRepo{db: db} }

// Revenue sums total_amount over delivered orders.
func (r *StatsRepo) Revenue(ctx context.Context) (decimal.Decimal, error) {
	var v decimal.Decimal
	err := sqlx.GetContext(ctx, r.db, &v, `SELECT COALESCE(SUM(total_amount), 0) FROM orders WHERE status = ?`,
		domain.OrderDelivered)
	return v, err
}

type MonthRevenue struct {
	Month   string          `db:"month"`
	Revenue decimal.Decimal `db:"revenue"`
	Orders  int             `db:"orders"`
}

// MonthlyRevenue returns delivered revenue for the months starting at since,
// oldest first. Months without orders are absent.
func (r *StatsRepo) MonthlyRevenue(ctx context.Context, since time.Time) ([]MonthRevenue, error) {
	out := []MonthRevenue{}
	err := sqlx.SelectContext(ctx, r.db, &out, `
	  SELECT strftime('%Y-%m', order_date) AS month,
	         COALESCE(SUM(total_amount), 0) AS revenue,
	         COUNT(*) AS orders
	  FROM orders
	  WHERE status = ? AND order_date >= ?
	  GROUP BY month
	  ORDER BY month
	`, domain.OrderDelivered, since.UTC())
	return out, err
}

type StatusCount struct {
	Status domain.OrderStatus `db:"status"`
	Count  int                `db:"count"`
}

func (r *StatsRepo) OrdersByStatus(ctx context.Context) ([]StatusCount, error) {
	out := []StatusCount{}
	err := sqlx.SelectContext(ctx, r.db, &out, `SELECT status, COUNT(*) AS count FROM orders GROUP BY status ORDER BY status`)
	return out, err
}

type TopSeller struct {
	PetID    int64           `db:"pet_id"`
	PetName  string          `db:"pet_name"`
	Quantity int             `db:"quantity"`
	Revenue  decimal.Decimal `db:"revenue"`
}

// TopSelling ranks pets by units sold outside cancelled orders.
func (r *StatsRepo) TopSelling(ctx context.Context, n int) ([]TopSeller, error) {
	out := []TopSeller{}
	err := sqlx.SelectContext(ctx, r.db, &out, `
	  SELECT d.pet_id, p.name AS pet_name,
	         SUM(d.quantity) AS quantity,
	         COALESCE(SUM(d.total_price), 0) AS revenue
	  FROM order_details d
	  JOIN orders o ON o.id = d.order_id
	  JOIN pets p ON p.id = d.pet_id
	  WHERE o.status <> ?
	  GROUP BY d.pet_id, p.name
	  ORDER BY quantity DESC, d.pet_id
	  LIMIT ?
	`, domain.OrderCancelled, n)
	return out, err
}

type CategoryStat struct {
	CategoryID int64  `db:"category_id"`
	Name       string `db:"name"`
	ActivePets int    `db:"active_pets"`
	UnitsSold  int    `db:"units_sold"`
}

func (r *StatsRepo) CategoryStats(ctx context.Context) ([]CategoryStat, error) {
	out := []CategoryStat{}
	err := sqlx.SelectContext(ctx, r.db, &out, `
	  SELECT c.id AS category_id, c.name,
	    (SELECT COUNT(*) FROM pets p WHERE p.category_id = c.id AND p.is_active = 1) AS active_pets,
	    (SELECT COALESCE(SUM(d.quantity), 0)
	       FROM order_details d
	       JOIN pets p ON p.id = d.pet_id
	       JOIN orders o ON o.id = d.order_id
	      WHERE p.category_id = c.id AND o.status <> ?) AS units_sold
	  FROM categories c
	  ORDER BY units_sold DESC, c.display_order
	`, domain.OrderCancelled)
	return out, err
}
