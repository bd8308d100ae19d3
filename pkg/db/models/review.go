package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Review is a user's rating of a product. One per (user, product).
type Review struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID     uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:reviews_user_product_key"`
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;not null;index:reviews_product_id_idx;uniqueIndex:reviews_user_product_key"`
	Rating     int       `gorm:"column:rating;not null;check:reviews_rating_range,rating BETWEEN 1 AND 5"`
	Title      *string   `gorm:"column:title"`
	Comment    *string   `gorm:"column:comment"`
	IsVerified bool      `gorm:"column:is_verified;not null;default:false"`
	IsApproved bool      `gorm:"column:is_approved;not null;default:true"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *Review) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
