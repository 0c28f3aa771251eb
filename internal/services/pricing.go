package services

import (
	"petshop/internal/domain"

	"github.com/shopspring/decimal"
)

// DefaultTaxRate applies when no rate is configured.
var DefaultTaxRate = decimal.NewFromFloat(0.10)

type Totals struct {
	SubTotal    decimal.Decimal
	Tax         decimal.Decimal
	ShippingFee decimal.Decimal
	Total       decimal.Decimal
	Units       int
}

// ComputeTotals prices cart lines at their snapshotted unit prices.
// Shipping is free; total = subtotal * (1 + rate), rounded to cents.
func ComputeTotals(items []domain.CartItem, rate decimal.Decimal) Totals {
	t := Totals{SubTotal: decimal.Zero, ShippingFee: decimal.Zero}
	for _, it := range items {
		t.SubTotal = t.SubTotal.Add(it.TotalPrice())
		t.Units += it.Quantity
	}
	t.SubTotal = t.SubTotal.Round(2)
	t.Total = t.SubTotal.Mul(decimal.NewFromInt(1).Add(rate)).Add(t.ShippingFee).Round(2)
	t.Tax = t.Total.Sub(t.SubTotal).Sub(t.ShippingFee)
	return t
}
