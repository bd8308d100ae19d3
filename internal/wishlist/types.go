package wishlist

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/internal/pricing"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// ItemDTO is one wishlist row with its product.
type ItemDTO struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Product   *ProductSummary `json:"product,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// ProductSummary is the product card shown in the wishlist.
type ProductSummary struct {
	Name         string            `json:"name"`
	Slug         string            `json:"slug"`
	Price        string            `json:"price"`
	ComparePrice *string           `json:"compare_price,omitempty"`
	Discount     *pricing.Discount `json:"discount,omitempty"`
	Image        string            `json:"image,omitempty"`
	InStock      bool              `json:"in_stock"`
	AvgRating    float64           `json:"avg_rating"`
	ReviewCount  int               `json:"review_count"`
}

// AddResult reports the outcome of an add. Duplicate is set when the product
// was already in the wishlist; that is not an error.
type AddResult struct {
	Item      ItemDTO `json:"item"`
	Duplicate bool    `json:"duplicate"`
}

// View is the loaded wishlist.
type View struct {
	Items []ItemDTO `json:"items"`
}

// Contains reports whether productID is in the loaded set.
func (v *View) Contains(productID uuid.UUID) bool {
	if v == nil {
		return false
	}
	for _, item := range v.Items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}

// ProductIDs lists the products in the wishlist.
func (v *View) ProductIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(v.Items))
	for _, item := range v.Items {
		ids = append(ids, item.ProductID)
	}
	return ids
}

func itemFromModel(m *models.WishlistItem) ItemDTO {
	dto := ItemDTO{ID: m.ID, ProductID: m.ProductID, CreatedAt: m.CreatedAt}
	if p := m.Product; p != nil {
		summary := &ProductSummary{
			Name:        p.Name,
			Slug:        p.Slug,
			Price:       pricing.Format(p.Price),
			Image:       p.Images.First(),
			InStock:     p.StockQuantity > 0,
			AvgRating:   p.AvgRating,
			ReviewCount: p.ReviewCount,
		}
		if p.ComparePrice != nil {
			cp := pricing.Format(*p.ComparePrice)
			summary.ComparePrice = &cp
		}
		if d, ok := pricing.ComputeDiscount(p.Price, p.ComparePrice); ok {
			summary.Discount = &d
		}
		dto.Product = summary
	}
	return dto
}
