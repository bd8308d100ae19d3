package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/internal/app"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/storefront-backend/pkg/redis"
)

// Deps carries infrastructure the router needs besides the services. Redis is
// optional; without it checkout runs without idempotency replay or rate
// limiting.
type Deps struct {
	DB      controllers.Pinger
	Redis   *pkgredis.Client
	Metrics *metrics.Metrics
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps, svc app.Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
		middleware.Metrics(deps.Metrics),
	)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), nil, w, pkgerrors.New(pkgerrors.CodeNotFound, "route not found"))
	})

	readiness := map[string]controllers.Pinger{"db": deps.DB}
	var (
		idempotencyStore pkgredis.IdempotencyStore
		limiter          *pkgredis.Client
	)
	if deps.Redis != nil {
		readiness["redis"] = deps.Redis
		idempotencyStore = deps.Redis
		limiter = deps.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})
	r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", controllers.SearchProducts(svc.Catalog, logg))
		r.Get("/products/featured", controllers.FeaturedProducts(svc.Catalog, logg))
		r.Get("/products/{slug}", controllers.ProductDetails(svc.Catalog, logg))
		r.Get("/categories", controllers.ListCategories(svc.Catalog, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.Idempotency(idempotencyStore, cfg.Checkout.IdempotencyTTL, logg))

			r.Get("/cart", controllers.GetCart(svc.Cart, logg))
			r.Post("/cart/items", controllers.AddCartItem(svc.Cart, logg))
			r.Patch("/cart/items/{productId}", controllers.SetCartItemQuantity(svc.Cart, logg))
			r.Delete("/cart/items/{productId}", controllers.RemoveCartItem(svc.Cart, logg))

			r.Get("/wishlist", controllers.GetWishlist(svc.Wishlist, logg))
			r.Post("/wishlist", controllers.AddWishlistItem(svc.Wishlist, logg))
			r.Delete("/wishlist/{itemId}", controllers.RemoveWishlistItem(svc.Wishlist, logg))

			r.Put("/products/{productId}/review", controllers.UpsertReview(svc.Reviews, logg))

			checkoutLimit := middleware.UserRateLimit("checkout", cfg.Checkout.RateLimitPerMinute, time.Minute, limiterOrNil(limiter), logg)
			r.With(checkoutLimit).Post("/checkout", controllers.Checkout(svc.Checkout, logg))

			r.Get("/orders", controllers.ListOrders(svc.Orders, logg))
			r.Get("/orders/{orderNumber}", controllers.GetOrder(svc.Orders, logg))
			r.Post("/orders/{orderNumber}/cancel", controllers.CancelOrder(svc.Orders, logg))
		})
	})

	return r
}

// limiterOrNil keeps a nil *Client from becoming a non-nil interface.
func limiterOrNil(c *pkgredis.Client) middleware.WindowLimiter {
	if c == nil {
		return nil
	}
	return c
}
