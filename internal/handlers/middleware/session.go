package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/nkiryanov/evote/internal/handlers/sessionctx"
)

type sessionReader interface {
	FromRequest(r *http.Request) (uuid.UUID, error)
}

// Put token validated in the session into request context
// Requests without valid marker pass through untouched, handlers decide what to do with them
func SessionMiddleware(sr sessionReader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenID, err := sr.FromRequest(r)
			if err == nil {
				r = r.WithContext(sessionctx.New(r.Context(), tokenID))
			}
			next.ServeHTTP(w, r)
		})
	}
}
