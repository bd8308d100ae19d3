package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Repository persists cart rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to cart operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// ListByUser returns the user's cart rows with their live product, oldest
// line first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var rows []models.CartItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

// FindItem loads one (user, product) row.
func (r *Repository) FindItem(ctx context.Context, userID, productID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// LockActiveProduct loads an active product and, on postgres, holds its row
// lock until the surrounding transaction ends.
func (r *Repository) LockActiveProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := db.ForUpdate(r.db.WithContext(ctx)).
		Where("id = ? AND is_active = ?", productID, true).
		First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// Upsert writes the exact quantity for (user, product), inserting the row
// when it does not exist.
func (r *Repository) Upsert(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	item := models.CartItem{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity":   quantity,
				"updated_at": time.Now().UTC(),
			}),
		}).
		Create(&item).Error
}

// Delete removes the (user, product) row if present.
func (r *Repository) Delete(ctx context.Context, userID, productID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.CartItem{}).Error
}

// ClearForUser deletes every cart row of the user.
func (r *Repository) ClearForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}
