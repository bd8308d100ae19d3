package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/internal/pricing"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// ProductSummary is the live product state shown next to a cart line.
type ProductSummary struct {
	Name          string `json:"name"`
	Slug          string `json:"slug"`
	Price         string `json:"price"`
	Image         string `json:"image,omitempty"`
	StockQuantity int    `json:"stock_quantity"`
	IsActive      bool   `json:"is_active"`
}

// Line is one cart row priced at the product's current price.
type Line struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Product   *ProductSummary `json:"product,omitempty"`
	LineTotal string          `json:"line_total"`
}

// View is a loaded cart. Lookups run over the in-memory rows.
type View struct {
	Items     []Line          `json:"items"`
	ItemCount int             `json:"item_count"`
	Summary   pricing.Display `json:"totals"`

	totals pricing.Totals
}

// NewView prices rows at their live product price. Rows whose product failed
// to load contribute nothing to the totals.
func NewView(rows []models.CartItem) *View {
	view := &View{Items: make([]Line, 0, len(rows))}
	lines := make([]pricing.Line, 0, len(rows))
	for _, row := range rows {
		line := Line{
			ID:        row.ID,
			ProductID: row.ProductID,
			Quantity:  row.Quantity,
			LineTotal: pricing.Format(decimal.Zero),
		}
		if p := row.Product; p != nil {
			line.LineTotal = pricing.Format(pricing.LineTotal(p.Price, row.Quantity))
			line.Product = &ProductSummary{
				Name:          p.Name,
				Slug:          p.Slug,
				Price:         pricing.Format(p.Price),
				Image:         p.Images.First(),
				StockQuantity: p.StockQuantity,
				IsActive:      p.IsActive,
			}
			lines = append(lines, pricing.Line{UnitPrice: p.Price, Quantity: row.Quantity})
		}
		view.Items = append(view.Items, line)
		view.ItemCount += row.Quantity
	}
	view.totals = pricing.ComputeTotals(lines)
	view.Summary = view.totals.Display()
	return view
}

// Contains reports whether the product has a line in the cart.
func (v *View) Contains(productID uuid.UUID) bool {
	return v.QuantityOf(productID) > 0
}

// QuantityOf returns the product's quantity, zero when absent.
func (v *View) QuantityOf(productID uuid.UUID) int {
	if v == nil {
		return 0
	}
	for _, line := range v.Items {
		if line.ProductID == productID {
			return line.Quantity
		}
	}
	return 0
}

// Count is the sum of quantities across lines.
func (v *View) Count() int {
	if v == nil {
		return 0
	}
	return v.ItemCount
}

// Totals returns the full-precision money breakdown.
func (v *View) Totals() pricing.Totals {
	if v == nil {
		return pricing.ComputeTotals(nil)
	}
	return v.totals
}

// Quantities maps product id to quantity.
func (v *View) Quantities() map[uuid.UUID]int {
	if v == nil {
		return map[uuid.UUID]int{}
	}
	out := make(map[uuid.UUID]int, len(v.Items))
	for _, line := range v.Items {
		out[line.ProductID] = line.Quantity
	}
	return out
}
