package middleware

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/mealbridge/mealbridge-backend/api/responses"
	"github.com/mealbridge/mealbridge-backend/pkg/config"
	pkgerrors "github.com/mealbridge/mealbridge-backend/pkg/errors"
	"github.com/mealbridge/mealbridge-backend/pkg/logger"
	pkgredis "github.com/mealbridge/mealbridge-backend/pkg/redis"
)

// RateLimit applies a per-actor fixed window across the authenticated API.
// Redis outages fail open so a cache blip does not take the API down.
func RateLimit(cfg config.RateLimitConfig, limiter *pkgredis.Client, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil || cfg.Requests <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			scope := fmt.Sprintf("api:%s", UserIDFromContext(r.Context()))
			allowed, count, err := limiter.FixedWindowAllow(r.Context(), scope, cfg.Requests, cfg.Window)
			if err != nil {
				if logg != nil {
					logg.Error(r.Context(), "rate limit check failed", err)
				}
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(cfg.Window.Seconds())))
				responses.WriteError(r.Context(), logg, w, pkgerrors.Newf(pkgerrors.CodeRateLimit, "request limit of %d per %s exceeded (count=%d)", cfg.Requests, cfg.Window, count))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
