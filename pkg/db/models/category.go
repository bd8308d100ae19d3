package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category groups products for browsing and related-product lookups.
type Category struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name        string    `gorm:"column:name;not null"`
	Slug        string    `gorm:"column:slug;not null;uniqueIndex:categories_slug_key"`
	Description *string   `gorm:"column:description"`
	ImageURL    *string   `gorm:"column:image_url"`
	IsActive    bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Category) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
