package reviews

import (
	"context"
	"math"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Repository persists reviews and the rating columns they feed.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// ProductIsActive reports whether the product exists and is listed.
func (r *Repository) ProductIsActive(ctx context.Context, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND is_active = ?", productID, true).
		Count(&count).Error
	return count > 0, err
}

func (r *Repository) FindByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (*models.Review, error) {
	var review models.Review
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&review).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *Repository) Create(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

// UpdateContent rewrites the user-editable columns of an existing review.
func (r *Repository) UpdateContent(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Model(review).
		Select("rating", "title", "comment", "updated_at").
		Updates(review).Error
}

// RecomputeRating derives avg_rating and review_count from approved reviews
// and writes them onto the product row.
func (r *Repository) RecomputeRating(ctx context.Context, productID uuid.UUID) (float64, int, error) {
	var agg struct {
		Avg   float64
		Count int
	}
	if err := r.db.WithContext(ctx).Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS count").
		Where("product_id = ? AND is_approved = ?", productID, true).
		Scan(&agg).Error; err != nil {
		return 0, 0, err
	}
	avg := math.Round(agg.Avg*100) / 100
	if err := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(map[string]any{
			"avg_rating":   avg,
			"review_count": agg.Count,
		}).Error; err != nil {
		return 0, 0, err
	}
	return avg, agg.Count, nil
}

// ListApproved returns approved reviews for a product, newest first.
func (r *Repository) ListApproved(ctx context.Context, productID uuid.UUID) ([]models.Review, error) {
	var rows []models.Review
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND is_approved = ?", productID, true).
		Order("created_at DESC").
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}
