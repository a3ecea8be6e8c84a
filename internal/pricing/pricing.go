// Package pricing computes checkout totals from a cart subtotal.
//
// All functions are pure. The same rules run in the shop client, to render
// the order summary, and on the server, where the charged amount is
// recomputed from the submitted lines.
package pricing

import (
	"github.com/shopspring/decimal"
)

var (
	// DiscountRate applies to signed-in customers buying more than one product line.
	DiscountRate = decimal.RequireFromString("0.10")

	// FreeShippingThreshold must be strictly exceeded by the discounted subtotal.
	FreeShippingThreshold = decimal.NewFromInt(100)

	// FlatShippingFee is charged when the threshold is not exceeded.
	FlatShippingFee = decimal.NewFromInt(10)
)

var minorUnitsPerMajor = decimal.NewFromInt(100)

// Quote is the price breakdown shown at checkout.
type Quote struct {
	Subtotal           decimal.Decimal `json:"subtotal"`
	Discount           decimal.Decimal `json:"discount"`
	DiscountedSubtotal decimal.Decimal `json:"discounted_subtotal"`
	Shipping           decimal.Decimal `json:"shipping"`
	Total              decimal.Decimal `json:"total"`
	DiscountApplied    bool            `json:"discount_applied"`
	FreeShipping       bool            `json:"free_shipping"`
}

// Line is the minimum a caller needs to contribute to a subtotal.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Subtotal sums unit price times quantity.
func Subtotal(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

// ComputeDiscount returns 10% of the subtotal when the customer is signed in
// and the cart holds more than one distinct line, otherwise zero.
// Quantity does not count: one line of three shirts gets no discount.
func ComputeDiscount(subtotal decimal.Decimal, isAuthenticated bool, distinctLineCount int) decimal.Decimal {
	if !isAuthenticated || distinctLineCount <= 1 {
		return decimal.Zero
	}
	return subtotal.Mul(DiscountRate)
}

// ComputeShipping returns zero when the discounted subtotal is strictly above
// the free shipping threshold, otherwise the flat fee.
func ComputeShipping(discountedSubtotal decimal.Decimal) decimal.Decimal {
	if discountedSubtotal.GreaterThan(FreeShippingThreshold) {
		return decimal.Zero
	}
	return FlatShippingFee
}

// ComputeTotal returns subtotal - discount + shipping.
func ComputeTotal(subtotal, discount, shipping decimal.Decimal) decimal.Decimal {
	return subtotal.Sub(discount).Add(shipping)
}

// Compute builds the full quote for a cart.
func Compute(subtotal decimal.Decimal, isAuthenticated bool, distinctLineCount int) Quote {
	discount := ComputeDiscount(subtotal, isAuthenticated, distinctLineCount)
	discounted := subtotal.Sub(discount)
	shipping := ComputeShipping(discounted)

	return Quote{
		Subtotal:           subtotal,
		Discount:           discount,
		DiscountedSubtotal: discounted,
		Shipping:           shipping,
		Total:              ComputeTotal(subtotal, discount, shipping),
		DiscountApplied:    discount.IsPositive(),
		FreeShipping:       shipping.IsZero(),
	}
}

// AmountMinorUnits converts the quote total to the gateway's minor unit.
func (q Quote) AmountMinorUnits() int64 {
	return ToMinorUnits(q.Total)
}

// ToMinorUnits multiplies by 100 and rounds half away from zero.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(minorUnitsPerMajor).Round(0).IntPart()
}

// FromMinorUnits converts a gateway amount back to major units.
func FromMinorUnits(amount int64) decimal.Decimal {
	return decimal.NewFromInt(amount).Div(minorUnitsPerMajor)
}
