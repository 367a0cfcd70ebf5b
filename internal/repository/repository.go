package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nkiryanov/evote/internal/models"
)

// Token repository interface
type TokenRepo interface {
	// Save token
	// If token with the same code exists already has to return apperrors.ErrTokenCodeTaken
	Create(ctx context.Context, token models.Token) (models.Token, error)

	// Get token by code (already normalized) or by id
	// Must return the token even if it used or expired
	// If token not found must return apperrors.ErrTokenNotFound
	GetByCode(ctx context.Context, code string) (models.Token, error)
	GetByID(ctx context.Context, tokenID uuid.UUID) (models.Token, error)
}

// Candidate repository interface
type CandidateRepo interface {
	// List all candidates ordered by order number ascending
	List(ctx context.Context) ([]models.Candidate, error)

	// Get candidate by id
	// If candidate not found must return apperrors.ErrCandidateNotFound
	Get(ctx context.Context, candidateID uuid.UUID) (models.Candidate, error)

	Count(ctx context.Context) (int, error)

	// Create candidate or update existed one with the same order number
	Upsert(ctx context.Context, candidate models.Candidate) (models.Candidate, error)
}

// Vote repository interface
type VoteRepo interface {
	// Redeem the token and record the vote as one atomic operation
	// Token must be unused and not expired at 'now', otherwise apperrors.ErrTokenNotRedeemable returned
	// Concurrent calls with the same token must not produce more than one vote
	Cast(ctx context.Context, vote models.Vote, now time.Time) (models.Vote, error)

	// Vote cast with the token if any
	// If no vote has to return apperrors.ErrTokenNotFound
	GetByToken(ctx context.Context, tokenID uuid.UUID) (models.Vote, error)

	// Per candidate counts, one row per candidate, order is not defined
	Counts(ctx context.Context) ([]models.VoteCount, error)

	Total(ctx context.Context) (int, error)
}

type Storage interface {
	Token() TokenRepo
	Candidate() CandidateRepo
	Vote() VoteRepo

	// Run fn in transaction. Storage passed to fn is bound to the transaction
	InTx(ctx context.Context, fn func(Storage) error) error
}
