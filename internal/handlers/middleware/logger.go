package middleware

import (
	"net/http"
	"time"

	"github.com/nkiryanov/evote/internal/handlers/clientip"
)

type logger interface {
	Info(msg string, args ...any)
}

type responseData struct {
	status int
	size   int
}

// Wraps response writer to remember status and size written by the handler
type statusWriter struct {
	http.ResponseWriter
	data responseData
}

func newStatusWriter(w http.ResponseWriter) *statusWriter {
	return &statusWriter{
		ResponseWriter: w,
		data:           responseData{status: http.StatusOK, size: 0},
	}
}

func (w *statusWriter) Write(p []byte) (int, error) {
	size, err := w.ResponseWriter.Write(p)
	w.data.size += size
	return size, err
}

func (w *statusWriter) WriteHeader(statusCode int) {
	w.ResponseWriter.WriteHeader(statusCode)
	w.data.status = statusCode
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func LoggerMiddleware(l logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)

			l.Info(
				"got HTTP request",
				"method", r.Method,
				"uri", r.RequestURI,
				"ip", clientip.FromRequest(r),
				"duration", time.Since(start),
				"status", sw.data.status,
				"size", sw.data.size,
			)
		})
	}
}
