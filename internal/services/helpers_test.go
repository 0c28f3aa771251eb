package services_test

import (
	"context"
	"testing"
	"time"

	"petshop/internal/domain"
	"petshop/internal/metrics"
	"petshop/internal/repos"
	"petshop/internal/services"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type env struct {
	db      *sqlx.DB
	orders  *services.OrderService
	carts   *services.CartService
	catalog *services.CatalogService
	admin   *services.AdminService
	auth    *services.AuthService
	metrics *metrics.Metrics
	catID   int64
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	db, err := repos.OpenDB(ctx, repos.Options{DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	nums, err := services.NewOrderNumbers(7)
	require.NoError(t, err)

	m := metrics.New()
	orders := services.NewOrderService(db, nums, services.DefaultTaxRate)
	orders.Metrics = m

	catID, err := repos.NewCategoryRepo(db).Create(ctx, domain.Category{Name: "Dogs", IsActive: true, DisplayOrder: 1})
	require.NoError(t, err)

	return &env{
		db:      db,
		orders:  orders,
		carts:   services.NewCartService(db, services.DefaultTaxRate),
		catalog: services.NewCatalogService(db),
		admin:   services.NewAdminService(db),
		auth:    &services.AuthService{Users: repos.NewUserRepo(db), Cost: bcrypt.MinCost},
		metrics: m,
		catID:   catID,
	}
}

func (e *env) pet(t *testing.T, name, price string, stock int) int64 {
	t.Helper()
	id, err := repos.NewPetRepo(e.db).Create(context.Background(), domain.Pet{
		CategoryID:    e.catID,
		Name:          name,
		Breed:         name + " breed",
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
		IsActive:      true,
		CreatedAt:     time.Now().UTC(),
	})
	require.NoError(t, err)
	return id
}

func (e *env) user(t *testing.T) string {
	t.Helper()
	id := uuid.NewString()
	require.NoError(t, repos.NewUserRepo(e.db).Create(context.Background(), domain.User{
		ID:       id,
		Email:    id[:8] + "@petshop.test",
		FullName: "Test User",
		Hash:     "x",
		Role:     domain.RoleCustomer,
		IsActive: true,
	}))
	return id
}

func (e *env) stock(t *testing.T, petID int64) (int, bool) {
	t.Helper()
	var row struct {
		Qty    int  `db:"stock_quantity"`
		Active bool `db:"is_active"`
	}
	require.NoError(t, e.db.Get(&row, `SELECT stock_quantity, is_active FROM pets WHERE id = ?`, petID))
	return row.Qty, row.Active
}

func (e *env) count(t *testing.T, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, e.db.Get(&n, query, args...))
	return n
}

func validCheckout() services.CheckoutForm {
	return services.CheckoutForm{
		ShippingName:    "Alice Nguyen",
		ShippingPhone:   "0912345678",
		ShippingAddress: "12 Hang Bac, Hanoi",
		PaymentMethod:   string(domain.PaymentCOD),
	}
}
