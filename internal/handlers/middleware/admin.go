package middleware

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/nkiryanov/evote/internal/handlers/render"
)

const AdminKeyHeader = "X-Admin-Key"

// Allow request only when X-Admin-Key matches bcrypt hash
// Empty hash disables admin endpoints completely
func AdminKeyMiddleware(hash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hash == "" {
				render.ServiceError(w, "Admin API disabled", http.StatusForbidden)
				return
			}

			key := r.Header.Get(AdminKeyHeader)
			if key == "" || bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) != nil {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
