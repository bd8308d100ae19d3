package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Repository defines persistence operations for orders and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByNumber(ctx context.Context, number string) (*models.Order, error)
	LockByNumber(ctx context.Context, number string) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	ListPendingBefore(ctx context.Context, method enums.PaymentMethod, cutoff time.Time, limit int) ([]models.Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, from enums.OrderStatus, update StatusUpdate) (int64, error)
	RestoreStock(ctx context.Context, productID uuid.UUID, quantity int) error
}

// StatusUpdate is the set of mutable order columns written by a transition.
type StatusUpdate struct {
	Status        enums.OrderStatus
	PaymentStatus enums.PaymentStatus
}
