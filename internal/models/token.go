package models

import (
	"time"

	"github.com/google/uuid"
)

// Single-use access code gating exactly one vote
type Token struct {
	ID          uuid.UUID
	Code        string
	IsUsed      bool
	UsedAt      *time.Time // nil if token not used
	ExpiresAt   *time.Time // nil if token never expires
	CreatedAt   time.Time
	Description string
}

// Expired reports whether the token has an expiry and it is reached already
// Matches redemption predicate 'expires_at > now'
func (t Token) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && !t.ExpiresAt.After(now)
}

// Reason why the token did not pass validation
type InvalidReason string

const (
	ReasonNotFound InvalidReason = "not_found"
	ReasonUsed     InvalidReason = "used"
	ReasonExpired  InvalidReason = "expired"
)

// Result of token validation
// Invalid tokens are the expected outcome, so they are not errors
type Validation struct {
	Valid   bool
	TokenID uuid.UUID
	Reason  InvalidReason
}
