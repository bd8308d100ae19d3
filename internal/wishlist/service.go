package wishlist

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/internal/notifications"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

// ServiceParams groups dependencies for the wishlist service.
type ServiceParams struct {
	Repo    *Repository
	Sink    notifications.Sink
	Metrics *metrics.Metrics
}

// Service exposes business rules for wishlist management.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) (*View, error)
	Add(ctx context.Context, userID, productID uuid.UUID) (*AddResult, error)
	Remove(ctx context.Context, userID, itemID uuid.UUID) error
}

type service struct {
	repo    *Repository
	sink    notifications.Sink
	metrics *metrics.Metrics
}

// NewService builds a wishlist service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wishlist repo is required")
	}
	sink := params.Sink
	if sink == nil {
		sink = notifications.Discard{}
	}
	return &service{repo: params.Repo, sink: sink, metrics: params.Metrics}, nil
}

func requireUser(userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to use your wishlist")
	}
	return nil
}

// List returns the user's wishlist, newest first.
func (s *service) List(ctx context.Context, userID uuid.UUID) (*View, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListItems(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wishlist")
	}
	view := &View{Items: make([]ItemDTO, 0, len(rows))}
	for i := range rows {
		view.Items = append(view.Items, itemFromModel(&rows[i]))
	}
	return view, nil
}

// Add favorites a product. Adding a product twice reports Duplicate instead
// of failing.
func (s *service) Add(ctx context.Context, userID, productID uuid.UUID) (*AddResult, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	active, err := s.repo.ProductIsActive(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !active {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	item, inserted, err := s.repo.AddItem(ctx, userID, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add wishlist item")
	}

	result := &AddResult{Item: itemFromModel(item), Duplicate: !inserted}
	notice := notifications.Notice{
		Kind:    notifications.KindWishlistAdded,
		Level:   notifications.LevelSuccess,
		Message: "Added to your wishlist",
		UserID:  userID,
		Data:    map[string]any{"product_id": productID.String()},
	}
	if result.Duplicate {
		s.metrics.IncWishlistAdd(metrics.WishlistDuplicate)
		notice.Kind = notifications.KindWishlistDuplicate
		notice.Level = notifications.LevelInfo
		notice.Message = "Already in your wishlist"
	} else {
		s.metrics.IncWishlistAdd(metrics.WishlistAdded)
	}
	notifications.Emit(ctx, s.sink, notice)
	return result, nil
}

// Remove drops the wishlist row regardless of prior state.
func (s *service) Remove(ctx context.Context, userID, itemID uuid.UUID) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if itemID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "wishlist item id is required")
	}
	if _, err := s.repo.RemoveItem(ctx, userID, itemID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove wishlist item")
	}
	return nil
}
