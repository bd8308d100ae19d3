package types

import (
	"database/sql/driver"
	"encoding/json"
)

// ProductSnapshot is the product as the buyer saw it when ordering.
type ProductSnapshot struct {
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	SKU      string `json:"sku,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

func (p ProductSnapshot) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (p *ProductSnapshot) Scan(value any) error {
	return scanJSON(value, p)
}
