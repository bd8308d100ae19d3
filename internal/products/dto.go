package products

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/internal/pricing"
	"github.com/angelmondragon/storefront-backend/internal/reviews"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// CategoryDTO is the public view of a category.
type CategoryDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description,omitempty"`
	ImageURL    *string   `json:"image_url,omitempty"`
}

// ProductDTO is the public view of a product. Money is rendered with two
// decimal places.
type ProductDTO struct {
	ID               uuid.UUID         `json:"id"`
	Name             string            `json:"name"`
	Slug             string            `json:"slug"`
	Description      *string           `json:"description,omitempty"`
	ShortDescription *string           `json:"short_description,omitempty"`
	Price            string            `json:"price"`
	ComparePrice     *string           `json:"compare_price,omitempty"`
	Discount         *pricing.Discount `json:"discount,omitempty"`
	SKU              *string           `json:"sku,omitempty"`
	StockQuantity    int               `json:"stock_quantity"`
	InStock          bool              `json:"in_stock"`
	Category         *CategoryDTO      `json:"category,omitempty"`
	Images           []string          `json:"images"`
	Tags             []string          `json:"tags"`
	IsFeatured       bool              `json:"is_featured"`
	AvgRating        float64           `json:"avg_rating"`
	ReviewCount      int               `json:"review_count"`
	CreatedAt        time.Time         `json:"created_at"`
}

// Page is one page of search results.
type Page struct {
	Items      []ProductDTO    `json:"items"`
	Pagination pagination.Meta `json:"pagination"`
}

// Details is everything the product page shows.
type Details struct {
	Product         ProductDTO          `json:"product"`
	Category        *CategoryDTO        `json:"category,omitempty"`
	Reviews         []reviews.ReviewDTO `json:"reviews"`
	AvgRating       float64             `json:"avg_rating"`
	ReviewCount     int                 `json:"review_count"`
	RelatedProducts []ProductDTO        `json:"related_products"`
}

// CategoryFromModel maps a category row.
func CategoryFromModel(m *models.Category) *CategoryDTO {
	if m == nil {
		return nil
	}
	return &CategoryDTO{
		ID:          m.ID,
		Name:        m.Name,
		Slug:        m.Slug,
		Description: m.Description,
		ImageURL:    m.ImageURL,
	}
}

// FromModel maps a product row.
func FromModel(m *models.Product) ProductDTO {
	dto := ProductDTO{
		ID:               m.ID,
		Name:             m.Name,
		Slug:             m.Slug,
		Description:      m.Description,
		ShortDescription: m.ShortDescription,
		Price:            pricing.Format(m.Price),
		SKU:              m.SKU,
		StockQuantity:    m.StockQuantity,
		InStock:          m.StockQuantity > 0,
		Category:         CategoryFromModel(m.Category),
		Images:           append([]string{}, m.Images...),
		Tags:             append([]string{}, m.Tags...),
		IsFeatured:       m.IsFeatured,
		AvgRating:        m.AvgRating,
		ReviewCount:      m.ReviewCount,
		CreatedAt:        m.CreatedAt,
	}
	if m.ComparePrice != nil {
		cp := pricing.Format(*m.ComparePrice)
		dto.ComparePrice = &cp
	}
	if discount, ok := pricing.ComputeDiscount(m.Price, m.ComparePrice); ok {
		dto.Discount = &discount
	}
	return dto
}

func fromModels(rows []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out
}
