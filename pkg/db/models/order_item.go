package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// OrderItem freezes the price and product metadata at purchase time.
type OrderItem struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	OrderID         uuid.UUID             `gorm:"column:order_id;type:uuid;not null;index:order_items_order_id_idx"`
	ProductID       uuid.UUID             `gorm:"column:product_id;type:uuid;not null"`
	Quantity        int                   `gorm:"column:quantity;not null"`
	UnitPrice       decimal.Decimal       `gorm:"column:unit_price;type:numeric(12,2);not null"`
	TotalPrice      decimal.Decimal       `gorm:"column:total_price;type:numeric(12,2);not null"`
	ProductSnapshot types.ProductSnapshot `gorm:"column:product_snapshot;type:jsonb;not null"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}
