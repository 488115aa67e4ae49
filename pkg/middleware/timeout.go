package middleware

import (
	"context"
	"net/http"
	"time"
)

// Timeout bounds the request context. Handlers pass the context to the
// engine and the cache, which give up once it expires; the handler still
// writes its own response. A zero timeout disables the bound.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if timeout <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
