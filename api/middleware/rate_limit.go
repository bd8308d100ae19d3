package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/storefront-backend/api/responses"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// WindowLimiter is the fixed-window counter behind UserRateLimit.
type WindowLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// UserRateLimit caps requests per authenticated user within a fixed window.
// It must run after Auth. A zero limit or nil limiter disables it.
func UserRateLimit(name string, limit int, window time.Duration, limiter WindowLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limit <= 0 || window <= 0 || limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			userID := UserIDFromContext(ctx)
			allowed, count, err := limiter.FixedWindowAllow(ctx, name+":"+userID.String(), int64(limit), window)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
				return
			}
			if !allowed {
				if logg != nil {
					logg.Warn(logg.WithFields(ctx, map[string]any{
						"policy":         name,
						"attempts":       count,
						"limit":          limit,
						"window_seconds": int(window.Seconds()),
					}), "rate_limit.blocked")
				}
				responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many requests, try again shortly"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
