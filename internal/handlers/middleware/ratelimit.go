package middleware

import (
	"context"
	"net/http"
)

type limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type warnLogger interface {
	Warn(msg string, args ...any)
}

// Throttle requests per key, keyOf usually returns the client address
// When limit is reached 'rejected' handler serves the request
// Limiter failures let the request through
func RateLimit(l limiter, keyOf func(*http.Request) string, log warnLogger, rejected http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyOf(r)

			allowed, err := l.Allow(r.Context(), key)
			if err != nil {
				log.Warn("rate limiter failed, request allowed", "key", key, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			if !allowed {
				log.Warn("rate limit reached", "key", key, "uri", r.RequestURI)
				rejected.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
