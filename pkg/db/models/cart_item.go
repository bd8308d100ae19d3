package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CartItem is one (user, product) line of a shopping cart.
type CartItem struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index:cart_items_user_id_idx;uniqueIndex:cart_items_user_product_key"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:cart_items_user_product_key"`
	Product   *Product  `gorm:"foreignKey:ProductID"`
	Quantity  int       `gorm:"column:quantity;not null;check:cart_items_quantity_positive,quantity >= 1"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *CartItem) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
