package wishlist

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Repository encapsulates wishlist persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a wishlist repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// AddItem inserts a wishlist entry. inserted is false when the pair already
// existed; existing is the stored row with its product either way.
func (r *Repository) AddItem(ctx context.Context, userID, productID uuid.UUID) (existing *models.WishlistItem, inserted bool, err error) {
	if userID == uuid.Nil || productID == uuid.Nil {
		return nil, false, gorm.ErrInvalidValue
	}

	item := &models.WishlistItem{UserID: userID, ProductID: productID}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoNothing: true,
		}).
		Create(item)
	if res.Error != nil {
		return nil, false, res.Error
	}

	stored, err := r.FindByUserAndProduct(ctx, userID, productID)
	if err != nil {
		return nil, false, err
	}
	return stored, res.RowsAffected == 1, nil
}

func (r *Repository) FindByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (*models.WishlistItem, error) {
	var item models.WishlistItem
	if err := r.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// RemoveItem deletes the user's wishlist row by its id if it exists.
func (r *Repository) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", itemID, userID).
		Delete(&models.WishlistItem{})
	return res.RowsAffected, res.Error
}

// ListItems returns the user's wishlist with products, newest first.
func (r *Repository) ListItems(ctx context.Context, userID uuid.UUID) ([]models.WishlistItem, error) {
	var rows []models.WishlistItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	return rows, err
}

// ProductIsActive reports whether the product can be favorited.
func (r *Repository) ProductIsActive(ctx context.Context, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND is_active = ?", productID, true).
		Count(&count).Error
	return count > 0, err
}
