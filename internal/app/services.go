// Package app assembles the storefront's domain services from their
// infrastructure.
package app

import (
	"fmt"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/notifications"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/reviews"
	"github.com/angelmondragon/storefront-backend/internal/wishlist"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
)

// Services groups the domain services exposed over HTTP.
type Services struct {
	Catalog  products.Service
	Cart     cart.Service
	Wishlist wishlist.Service
	Reviews  reviews.Service
	Checkout checkout.Service
	Orders   orders.Service
}

// Params are the shared collaborators. Sink and Metrics are optional.
type Params struct {
	DB      *db.Client
	Logger  *logger.Logger
	Sink    notifications.Sink
	Metrics *metrics.Metrics
}

func NewServices(p Params) (Services, error) {
	if p.DB == nil {
		return Services{}, fmt.Errorf("db client required")
	}
	conn := p.DB.DB()
	emitter := outbox.NewService(outbox.NewRepository(conn), p.Logger)
	sink := p.Sink
	if sink == nil {
		sink = notifications.NewLogSink(p.Logger)
	}

	reviewSvc, err := reviews.NewService(reviews.ServiceParams{
		TX:     p.DB,
		Repo:   reviews.NewRepository(conn),
		Outbox: emitter,
		Sink:   sink,
	})
	if err != nil {
		return Services{}, fmt.Errorf("reviews service: %w", err)
	}
	catalogSvc, err := products.NewService(products.NewRepository(conn), reviewSvc)
	if err != nil {
		return Services{}, fmt.Errorf("catalog service: %w", err)
	}

	cartRepo := cart.NewRepository(conn)
	cartSvc, err := cart.NewService(cart.ServiceParams{
		TX:      p.DB,
		Repo:    cartRepo,
		Sink:    sink,
		Metrics: p.Metrics,
	})
	if err != nil {
		return Services{}, fmt.Errorf("cart service: %w", err)
	}

	wishlistSvc, err := wishlist.NewService(wishlist.ServiceParams{
		Repo:    wishlist.NewRepository(conn),
		Sink:    sink,
		Metrics: p.Metrics,
	})
	if err != nil {
		return Services{}, fmt.Errorf("wishlist service: %w", err)
	}

	ordersRepo := orders.NewRepository(conn)
	checkoutSvc, err := checkout.NewService(checkout.ServiceParams{
		TX:      p.DB,
		Carts:   cartRepo,
		Orders:  ordersRepo,
		Repo:    checkout.NewRepository(conn),
		Outbox:  emitter,
		Sink:    sink,
		Metrics: p.Metrics,
	})
	if err != nil {
		return Services{}, fmt.Errorf("checkout service: %w", err)
	}
	ordersSvc, err := orders.NewService(orders.ServiceParams{
		TX:      p.DB,
		Repo:    ordersRepo,
		Outbox:  emitter,
		Sink:    sink,
		Metrics: p.Metrics,
	})
	if err != nil {
		return Services{}, fmt.Errorf("orders service: %w", err)
	}

	return Services{
		Catalog:  catalogSvc,
		Cart:     cartSvc,
		Wishlist: wishlistSvc,
		Reviews:  reviewSvc,
		Checkout: checkoutSvc,
		Orders:   ordersSvc,
	}, nil
}
