package middleware

import (
	"net/http"

	"golang.org/x/time/rate"

	"github.com/novatech/management-backend/api/responses"
	"github.com/novatech/management-backend/pkg/config"
	pkgerrors "github.com/novatech/management-backend/pkg/errors"
	"github.com/novatech/management-backend/pkg/logger"
)

// RateLimit applies a process-wide token bucket. A non-positive rate
// disables it.
func RateLimit(cfg config.RateLimitConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if cfg.RequestsPerSecond <= 0 {
			return next
		}
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter := rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
