package sessionctx

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey string

const tokenKey ctxKey = "validated-token"

// Create a new context with the token validated in the session
func New(ctx context.Context, tokenID uuid.UUID) context.Context {
	return context.WithValue(ctx, tokenKey, tokenID)
}

// Extract validated token id from the context
func TokenFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(tokenKey).(uuid.UUID)
	return id, ok && id != uuid.Nil
}
