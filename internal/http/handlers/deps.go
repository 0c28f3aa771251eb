package handlers

import (
	"fmt"

	"petshop/internal/config"
	"petshop/internal/metrics"
	"petshop/internal/repos"
	"petshop/internal/services"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type Deps struct {
	Auth *services.AuthService

	AuthHandler      *AuthHandler
	CategoryHandler  *CategoryHandler
	ProductHandler   *ProductHandler
	InventoryHandler *InventoryHandler
	SearchHandler    *SearchHandler
	CartHandler      *CartHandler
	OrderHandler     *OrderHandler
	AdminHandler     *AdminHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, m *metrics.Metrics) (*Deps, error) {
	numbers, err := services.NewOrderNumbers(cfg.SnowflakeNode)
	if err != nil {
		return nil, fmt.Errorf("order numbers: %w", err)
	}
	taxRate := decimal.NewFromFloat(cfg.TaxRate)

	authSvc := &services.AuthService{Users: repos.NewUserRepo(db)}
	catalogSvc := services.NewCatalogService(db)
	cartSvc := services.NewCartService(db, taxRate)
	orderSvc := services.NewOrderService(db, numbers, taxRate)
	orderSvc.Metrics = m
	adminSvc := services.NewAdminService(db)

	return &Deps{
		Auth:             authSvc,
		AuthHandler:      &AuthHandler{Auth: authSvc, SecureCookies: cfg.CookieSecure},
		CategoryHandler:  &CategoryHandler{Catalog: catalogSvc},
		ProductHandler:   &ProductHandler{Catalog: catalogSvc},
		InventoryHandler: &InventoryHandler{Catalog: catalogSvc},
		SearchHandler:    &SearchHandler{Catalog: catalogSvc},
		CartHandler:      &CartHandler{Cart: cartSvc},
		OrderHandler:     &OrderHandler{Cart: cartSvc, Order: orderSvc},
		AdminHandler:     &AdminHandler{Admin: adminSvc},
	}, nil
}
