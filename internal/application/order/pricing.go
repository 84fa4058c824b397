package order

import (
	"github.com/shopspring/decimal"

	"github.com/mosaico/backend/internal/domain/order"
)

// ShippingPolicy quotes shipping when the checkout does not carry an explicit cost
type ShippingPolicy interface {
	Quote(subtotal decimal.Decimal) decimal.Decimal
}

// TaxPolicy computes tax on the discounted subtotal
type TaxPolicy interface {
	Tax(taxable decimal.Decimal) decimal.Decimal
}

// FlatRateShipping charges a fixed amount, waived at or above FreeThreshold.
// A zero FreeThreshold disables the waiver.
type FlatRateShipping struct {
	Rate          decimal.Decimal
	FreeThreshold decimal.Decimal
}

// Quote implements ShippingPolicy
func (p FlatRateShipping) Quote(subtotal decimal.Decimal) decimal.Decimal {
	if p.FreeThreshold.IsPositive() && subtotal.GreaterThanOrEqual(p.FreeThreshold) {
		return decimal.Zero
	}
	return order.RoundMoney(p.Rate)
}

// PercentageTax applies a fractional rate, e.g. 0.21
type PercentageTax struct {
	Rate decimal.Decimal
}

// Tax implements TaxPolicy
func (p PercentageTax) Tax(taxable decimal.Decimal) decimal.Decimal {
	if !p.Rate.IsPositive() || !taxable.IsPositive() {
		return decimal.Zero
	}
	return order.RoundMoney(taxable.Mul(p.Rate))
}
