package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/notifications"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

const (
	opAdd    = "add"
	opSet    = "set_quantity"
	opRemove = "remove"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages a signed-in user's cart. Every successful mutation returns
// the reloaded cart and emits a cart.changed notice.
type Service interface {
	Add(ctx context.Context, userID, productID uuid.UUID, quantity int) (*View, error)
	SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*View, error)
	Remove(ctx context.Context, userID, productID uuid.UUID) (*View, error)
	List(ctx context.Context, userID uuid.UUID) (*View, error)
}

// ServiceParams groups cart dependencies. Sink and Metrics are optional.
type ServiceParams struct {
	TX      txRunner
	Repo    *Repository
	Sink    notifications.Sink
	Metrics *metrics.Metrics
}

type service struct {
	tx      txRunner
	repo    *Repository
	sink    notifications.Sink
	metrics *metrics.Metrics
}

func NewService(params ServiceParams) (Service, error) {
	if params.TX == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	sink := params.Sink
	if sink == nil {
		sink = notifications.Discard{}
	}
	return &service{tx: params.TX, repo: params.Repo, sink: sink, metrics: params.Metrics}, nil
}

func requireUser(userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to use the cart")
	}
	return nil
}

func (s *service) Add(ctx context.Context, userID, productID uuid.UUID, quantity int) (*View, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1").
			WithDetails(map[string]any{"quantity": quantity})
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		product, err := s.lockProduct(ctx, repo, productID)
		if err != nil {
			return err
		}

		inCart := 0
		existing, err := repo.FindItem(ctx, userID, productID)
		switch {
		case err == nil:
			inCart = existing.Quantity
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
		}

		if inCart+quantity > product.StockQuantity {
			return pkgerrors.New(pkgerrors.CodeStockConflict, "not enough stock for "+product.Name).
				WithDetails(map[string]any{
					"product_id": product.ID,
					"requested":  quantity,
					"in_cart":    inCart,
					"available":  product.StockQuantity,
				})
		}

		next := min(inCart+quantity, product.StockQuantity)
		if err := repo.Upsert(ctx, userID, productID, next); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart item")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.afterMutation(ctx, userID, productID, opAdd)
}

func (s *service) SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*View, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must not be negative").
			WithDetails(map[string]any{"quantity": quantity})
	}
	if quantity == 0 {
		return s.Remove(ctx, userID, productID)
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		product, err := s.lockProduct(ctx, repo, productID)
		if err != nil {
			return err
		}
		if quantity > product.StockQuantity {
			return pkgerrors.New(pkgerrors.CodeValidation, "quantity exceeds available stock").
				WithDetails(map[string]any{
					"product_id": product.ID,
					"quantity":   quantity,
					"available":  product.StockQuantity,
				})
		}
		if err := repo.Upsert(ctx, userID, productID, quantity); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart item")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.afterMutation(ctx, userID, productID, opSet)
}

func (s *service) Remove(ctx context.Context, userID, productID uuid.UUID) (*View, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, userID, productID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
	}
	return s.afterMutation(ctx, userID, productID, opRemove)
}

func (s *service) List(ctx context.Context, userID uuid.UUID) (*View, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart")
	}
	return NewView(rows), nil
}

func (s *service) lockProduct(ctx context.Context, repo *Repository, productID uuid.UUID) (*models.Product, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := repo.LockActiveProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) afterMutation(ctx context.Context, userID, productID uuid.UUID, op string) (*View, error) {
	s.metrics.IncCartMutation(op)
	view, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	notifications.Emit(ctx, s.sink, notifications.Notice{
		Kind:    notifications.KindCartChanged,
		Message: "Cart updated",
		UserID:  userID,
		Data: map[string]any{
			"op":         op,
			"product_id": productID.String(),
			"item_count": view.Count(),
		},
	})
	return view, nil
}
