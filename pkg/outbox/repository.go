package outbox

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(tx *gorm.DB, event models.OutboxEvent) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Create(&event).Error
}

// FetchUnpublished returns the oldest unpublished rows that still have attempts
// left. maxAttempts <= 0 disables the attempt filter.
func (r *Repository) FetchUnpublished(ctx context.Context, limit, maxAttempts int) ([]models.OutboxEvent, error) {
	var rows []models.OutboxEvent
	q := r.db.WithContext(ctx).Where("published_at IS NULL")
	if maxAttempts > 0 {
		q = q.Where("attempt_count < ?", maxAttempts)
	}
	err := q.Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *Repository) MarkPublished(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"published_at": at,
			"last_error":   nil,
		}).Error
}

func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, err error) error {
	return r.db.WithContext(ctx).Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_error":    err.Error(),
			"attempt_count": gorm.Expr("attempt_count + 1"),
		}).Error
}

// MarkTerminal records a failure that must not be retried by pushing the
// attempt count to the ceiling.
func (r *Repository) MarkTerminal(ctx context.Context, id uuid.UUID, err error, terminalAttempts int) error {
	return r.db.WithContext(ctx).Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_error":    err.Error(),
			"attempt_count": terminalAttempts,
		}).Error
}

// DeletePublishedBefore removes rows published before cutoff and returns how
// many were deleted. Unpublished rows are never touched.
func (r *Repository) DeletePublishedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	conn := r.db
	if tx != nil {
		conn = tx
	}
	res := conn.WithContext(ctx).
		Where("published_at IS NOT NULL AND published_at < ?", cutoff).
		Delete(&models.OutboxEvent{})
	return res.RowsAffected, res.Error
}
