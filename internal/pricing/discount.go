package pricing

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Discount is the strike-through saving shown next to a product price.
type Discount struct {
	Percent int64           `json:"percent"`
	Savings decimal.Decimal `json:"savings"`
}

// ComputeDiscount compares price with an optional reference price. It reports
// false when there is no reference or the reference is not above price.
func ComputeDiscount(price decimal.Decimal, comparePrice *decimal.Decimal) (Discount, bool) {
	if comparePrice == nil || !comparePrice.GreaterThan(price) || !comparePrice.IsPositive() {
		return Discount{}, false
	}
	savings := comparePrice.Sub(price)
	percent := savings.Div(*comparePrice).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	return Discount{
		Percent: percent,
		Savings: savings.Round(displayPlaces),
	}, true
}

// MarshalJSON renders savings with two decimal places.
func (d Discount) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Percent int64  `json:"percent"`
		Savings string `json:"savings"`
	}{Percent: d.Percent, Savings: Format(d.Savings)})
}
