package middleware

import (
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	apperrors "github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/response"
)

// RateLimit caps the process-wide request rate with a token bucket. Health
// probes are never limited. A non-positive rps disables the limit.
func RateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if rps <= 0 {
			return next
		}
		if burst < 1 {
			burst = 1
		}
		limiter := rate.NewLimiter(rate.Limit(rps), burst)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/health") {
				next.ServeHTTP(w, r)
				return
			}
			if !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				response.Error(w, apperrors.New(apperrors.ErrRateLimited, http.StatusTooManyRequests, "try again later"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
