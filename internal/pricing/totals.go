// Package pricing computes cart and order money amounts. Everything here is
// pure: no I/O, no clock, full decimal precision until Rounded is called.
package pricing

import (
	"github.com/shopspring/decimal"
)

var (
	FreeShippingThreshold = decimal.RequireFromString("75.00")
	FlatShippingFee       = decimal.RequireFromString("9.99")
	TaxRate               = decimal.RequireFromString("0.20")
)

const displayPlaces = 2

// Line is one priced quantity.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Totals holds the money breakdown of a cart or an order.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Tax      decimal.Decimal `json:"tax"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

// ComputeTotals prices lines with no discount.
func ComputeTotals(lines []Line) Totals {
	return ComputeTotalsWithDiscount(lines, decimal.Zero)
}

// ComputeTotalsWithDiscount prices lines and subtracts discount from the total.
// Shipping and tax are always computed on the undiscounted subtotal.
func ComputeTotalsWithDiscount(lines []Line, discount decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		subtotal = subtotal.Add(LineTotal(line.UnitPrice, line.Quantity))
	}

	shipping := FlatShippingFee
	if subtotal.GreaterThan(FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	tax := subtotal.Mul(TaxRate)

	return Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Discount: discount,
		Total:    subtotal.Add(shipping).Add(tax).Sub(discount),
	}
}

// LineTotal is unit price times quantity.
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// Rounded returns a copy rounded half-away-from-zero to cents. The total is
// recomposed from the rounded parts so the displayed columns always add up.
func (t Totals) Rounded() Totals {
	r := Totals{
		Subtotal: t.Subtotal.Round(displayPlaces),
		Shipping: t.Shipping.Round(displayPlaces),
		Tax:      t.Tax.Round(displayPlaces),
		Discount: t.Discount.Round(displayPlaces),
	}
	r.Total = r.Subtotal.Add(r.Shipping).Add(r.Tax).Sub(r.Discount)
	return r
}

// FreeShipping reports whether shipping was waived.
func (t Totals) FreeShipping() bool {
	return t.Shipping.IsZero()
}

// AmountToFreeShipping is how much more must be spent before shipping is
// waived; zero once the threshold is passed.
func (t Totals) AmountToFreeShipping() decimal.Decimal {
	if t.Subtotal.GreaterThan(FreeShippingThreshold) {
		return decimal.Zero
	}
	return FreeShippingThreshold.Sub(t.Subtotal).Add(decimal.New(1, -displayPlaces))
}

// Format renders an amount with exactly two decimal places.
func Format(amount decimal.Decimal) string {
	return amount.StringFixed(displayPlaces)
}

// Display is the rounded, string-formatted form of Totals used in responses.
type Display struct {
	Subtotal             string `json:"subtotal"`
	Shipping             string `json:"shipping"`
	Tax                  string `json:"tax"`
	Discount             string `json:"discount"`
	Total                string `json:"total"`
	FreeShipping         bool   `json:"free_shipping"`
	AmountToFreeShipping string `json:"amount_to_free_shipping"`
}

func (t Totals) Display() Display {
	r := t.Rounded()
	return Display{
		Subtotal:             Format(r.Subtotal),
		Shipping:             Format(r.Shipping),
		Tax:                  Format(r.Tax),
		Discount:             Format(r.Discount),
		Total:                Format(r.Total),
		FreeShipping:         t.FreeShipping(),
		AmountToFreeShipping: Format(t.AmountToFreeShipping()),
	}
}
