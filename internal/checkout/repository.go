package checkout

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Repository holds the stock queries checkout runs inside its transaction.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	LockProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error)
	DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// LockProducts loads products by id in ascending id order so concurrent
// checkouts acquire row locks in the same sequence. Missing ids are absent
// from the result.
func (r *repository) LockProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error) {
	out := make(map[uuid.UUID]*models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Product
	if err := db.ForUpdate(r.db.WithContext(ctx)).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		out[rows[i].ID] = &rows[i]
	}
	return out, nil
}

// DecrementStock takes quantity units only while enough remain. Zero rows
// affected means the stock moved under us.
func (r *repository) DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND stock_quantity >= ?", productID, quantity).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", quantity))
	return res.RowsAffected, res.Error
}
