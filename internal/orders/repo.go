package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to order persistence.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create inserts the order and its items in one statement batch.
func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindByNumber(ctx context.Context, number string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("Items", orderedItems).
		Where("order_number = ?", number).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// LockByNumber loads the order under a row lock (postgres) for a transition.
func (r *repository) LockByNumber(ctx context.Context, number string) (*models.Order, error) {
	var order models.Order
	if err := db.ForUpdate(r.db.WithContext(ctx)).
		Where("order_number = ?", number).
		First(&order).Error; err != nil {
		return nil, err
	}
	var items []models.OrderItem
	if err := orderedItems(r.db.WithContext(ctx)).
		Where("order_id = ?", order.ID).
		Find(&items).Error; err != nil {
		return nil, err
	}
	order.Items = items
	return &order, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", orderedItems).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

// ListPendingBefore returns pending orders paid with method that were placed
// before cutoff, oldest first. Items are not loaded.
func (r *repository) ListPendingBefore(ctx context.Context, method enums.PaymentMethod, cutoff time.Time, limit int) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Where("status = ? AND payment_method = ? AND created_at < ?", enums.OrderStatusPending, method, cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// UpdateStatus writes update only while the order is still in from. The
// returned count is zero when another writer moved the order first.
func (r *repository) UpdateStatus(ctx context.Context, orderID uuid.UUID, from enums.OrderStatus, update StatusUpdate) (int64, error) {
	values := map[string]any{
		"status":         update.Status,
		"payment_status": update.PaymentStatus,
	}
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Updates(values)
	return res.RowsAffected, res.Error
}

// RestoreStock returns quantity units of a product to inventory.
func (r *repository) RestoreStock(ctx context.Context, productID uuid.UUID, quantity int) error {
	return r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", quantity)).Error
}

func orderedItems(tx *gorm.DB) *gorm.DB {
	return tx.Order("order_items.created_at ASC").Order("order_items.id ASC")
}
