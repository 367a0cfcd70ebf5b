package middleware

import (
	"net/http"
	"time"

	"github.com/nkiryanov/evote/internal/metrics"
)

// Count requests and observe latency
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)

			metrics.ObserveHTTP(r.Method, sw.data.status, time.Since(start))
		})
	}
}
