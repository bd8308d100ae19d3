package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbtypes "github.com/angelmondragon/storefront-backend/pkg/db/types"
)

// Product is a catalog listing. Rating columns are derived from approved
// reviews and rewritten whenever a review changes.
type Product struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Name             string              `gorm:"column:name;not null"`
	Slug             string              `gorm:"column:slug;not null;uniqueIndex:products_slug_key"`
	Description      *string             `gorm:"column:description"`
	ShortDescription *string             `gorm:"column:short_description"`
	Price            decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null"`
	ComparePrice     *decimal.Decimal    `gorm:"column:compare_price;type:numeric(12,2)"`
	SKU              *string             `gorm:"column:sku"`
	StockQuantity    int                 `gorm:"column:stock_quantity;not null;default:0;check:products_stock_non_negative,stock_quantity >= 0"`
	CategoryID       *uuid.UUID          `gorm:"column:category_id;type:uuid;index:products_category_id_idx"`
	Category         *Category           `gorm:"foreignKey:CategoryID"`
	Images           dbtypes.StringArray `gorm:"column:images;not null"`
	Tags             dbtypes.StringArray `gorm:"column:tags;not null"`
	IsActive         bool                `gorm:"column:is_active;not null;default:true"`
	IsFeatured       bool                `gorm:"column:is_featured;not null;default:false"`
	AvgRating        float64             `gorm:"column:avg_rating;type:numeric(3,2);not null;default:0"`
	ReviewCount      int                 `gorm:"column:review_count;not null;default:0"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	if p.Images == nil {
		p.Images = dbtypes.StringArray{}
	}
	if p.Tags == nil {
		p.Tags = dbtypes.StringArray{}
	}
	return nil
}
