package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID           int64     `db:"id"`
	Name         string    `db:"name"`
	Description  string    `db:"description"`
	ImageURL     string    `db:"image_url"`
	IsActive     bool      `db:"is_active"`
	DisplayOrder int       `db:"display_order"`
	CreatedAt    time.Time `db:"created_at"`

	// PetCount is filled by list queries, not stored.
	PetCount int `db:"pet_count"`
}

type Pet struct {
	ID               int64               `db:"id"`
	CategoryID       int64               `db:"category_id"`
	CategoryName     string              `db:"category_name"`
	Name             string              `db:"name"`
	Breed            string              `db:"breed"`
	AgeMonths        int                 `db:"age_months"`
	Gender           string              `db:"gender"`
	Weight           decimal.Decimal     `db:"weight"`
	Color            string              `db:"color"`
	Description      string              `db:"description"`
	Price            decimal.Decimal     `db:"price"`
	SalePrice        decimal.NullDecimal `db:"sale_price"`
	StockQuantity    int                 `db:"stock_quantity"`
	MainImageURL     string              `db:"main_image_url"`
	IsFeatured       bool                `db:"is_featured"`
	IsActive         bool                `db:"is_active"`
	IsVaccinated     bool                `db:"is_vaccinated"`
	IsDewormed       bool                `db:"is_dewormed"`
	HealthStatus     string              `db:"health_status"`
	CareInstructions string              `db:"care_instructions"`
	CreatedAt        time.Time           `db:"created_at"`
	UpdatedAt        *time.Time          `db:"updated_at"`
}

// EffectivePrice is the sale price when one is set, the list price otherwise.
func (p Pet) EffectivePrice() decimal.Decimal {
	if p.SalePrice.Valid {
		return p.SalePrice.Decimal
	}
	return p.Price
}

func (p Pet) OnSale() bool {
	return p.SalePrice.Valid && p.SalePrice.Decimal.LessThan(p.Price)
}

// CartItem is one line of a user's cart. UnitPrice is captured when the
// line is added and does not follow later catalog price changes.
type CartItem struct {
	ID            int64           `db:"id"`
	UserID        string          `db:"user_id"`
	PetID         int64           `db:"pet_id"`
	PetName       string          `db:"pet_name"`
	PetImage      string          `db:"pet_image"`
	StockQuantity int             `db:"stock_quantity"`
	Quantity      int             `db:"quantity"`
	UnitPrice     decimal.Decimal `db:"unit_price"`
	CreatedAt     time.Time       `db:"created_at"`
}

func (c CartItem) TotalPrice() decimal.Decimal {
	return c.UnitPrice.Mul(decimal.NewFromInt(int64(c.Quantity)))
}

type Order struct {
	ID              int64           `db:"id"`
	OrderNumber     string          `db:"order_number"`
	UserID          string          `db:"user_id"`
	OrderDate       time.Time       `db:"order_date"`
	Status          OrderStatus     `db:"status"`
	SubTotal        decimal.Decimal `db:"subtotal"`
	ShippingFee     decimal.Decimal `db:"shipping_fee"`
	TotalAmount     decimal.Decimal `db:"total_amount"`
	ShippingName    string          `db:"shipping_name"`
	ShippingPhone   string          `db:"shipping_phone"`
	ShippingAddress string          `db:"shipping_address"`
	Notes           string          `db:"notes"`
	PaymentMethod   PaymentMethod   `db:"payment_method"`
	PaymentStatus   PaymentStatus   `db:"payment_status"`
	PaymentDate     *time.Time      `db:"payment_date"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       *time.Time      `db:"updated_at"`
	Details         []OrderDetail   `db:"-"`
}

// ItemCount sums the quantities of the loaded details.
func (o Order) ItemCount() int {
	n := 0
	for _, d := range o.Details {
		n += d.Quantity
	}
	return n
}

func (o Order) Cancellable() bool { return o.Status == OrderPending }

type OrderDetail struct {
	ID         int64           `db:"id"`
	OrderID    int64           `db:"order_id"`
	PetID      int64           `db:"pet_id"`
	PetName    string          `db:"pet_name"`
	PetImage   string          `db:"pet_image"`
	Quantity   int             `db:"quantity"`
	UnitPrice  decimal.Decimal `db:"unit_price"`
	TotalPrice decimal.Decimal `db:"total_price"`
}
