package vote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/evote/internal/apperrors"
	"github.com/nkiryanov/evote/internal/metrics"
	"github.com/nkiryanov/evote/internal/models"
	"github.com/nkiryanov/evote/internal/repository"
)

const UnknownIP = "unknown"

// Explains why token can't be redeemed
type tokenChecker interface {
	// Must return apperrors.ErrTokenNotFound, ErrTokenUsed or ErrTokenExpired for rejected token
	// nil if token is usable
	Rejection(ctx context.Context, tokenID uuid.UUID) error
}

// Vote request
type Ballot struct {
	// Token validated in this session, uuid.Nil if there is no session marker
	TokenID uuid.UUID

	// Candidate id as it comes from user
	CandidateID string

	// Stored for audit only
	ClientIP string
}

type VoteService struct {
	storage repository.Storage
	tokens  tokenChecker
	now     func() time.Time
}

func NewService(storage repository.Storage, tokens tokenChecker) *VoteService {
	return &VoteService{
		storage: storage,
		tokens:  tokens,
		now:     time.Now,
	}
}

// Submit vote: redeem the token and record the vote atomically
//
// Errors:
//   - apperrors.ErrNotValidated if ballot has no token
//   - apperrors.ErrCandidateInvalid if candidate id malformed or candidate does not exist
//   - apperrors.ErrTokenNotFound, ErrTokenUsed, ErrTokenExpired if token can't be redeemed (see IsTokenRejected)
//   - any other error is infrastructure failure
func (s *VoteService) Submit(ctx context.Context, b Ballot) (models.Vote, error) {
	vote, err := s.submit(ctx, b)

	switch {
	case err == nil:
		metrics.IncVoteSubmission("accepted")
	case IsTokenRejected(err), errors.Is(err, apperrors.ErrNotValidated), errors.Is(err, apperrors.ErrCandidateInvalid):
		metrics.IncVoteSubmission("rejected")
	default:
		metrics.IncVoteSubmission("error")
	}

	return vote, err
}

func (s *VoteService) submit(ctx context.Context, b Ballot) (models.Vote, error) {
	if b.TokenID == uuid.Nil {
		return models.Vote{}, apperrors.ErrNotValidated
	}

	candidateID, err := uuid.Parse(b.CandidateID)
	if err != nil {
		return models.Vote{}, fmt.Errorf("malformed candidate id: %w", apperrors.ErrCandidateInvalid)
	}

	_, err = s.storage.Candidate().Get(ctx, candidateID)
	switch {
	case errors.Is(err, apperrors.ErrCandidateNotFound):
		return models.Vote{}, fmt.Errorf("%w: %w", apperrors.ErrCandidateInvalid, err)
	case err != nil:
		return models.Vote{}, fmt.Errorf("can't get candidate. Err: %w", err)
	}

	ip := b.ClientIP
	if ip == "" {
		ip = UnknownIP
	}

	vote, err := s.storage.Vote().Cast(ctx, models.Vote{
		ID:          uuid.New(),
		TokenID:     b.TokenID,
		CandidateID: candidateID,
		IPAddress:   ip,
	}, s.now())

	switch {
	case err == nil:
		return vote, nil
	case errors.Is(err, apperrors.ErrTokenNotRedeemable):
		return vote, s.rejection(ctx, b.TokenID)
	case errors.Is(err, apperrors.ErrCandidateNotFound):
		// Candidate removed right after the check
		return vote, fmt.Errorf("%w: %w", apperrors.ErrCandidateInvalid, err)
	default:
		return vote, fmt.Errorf("can't cast vote. Err: %w", err)
	}
}

// Token state only moves forward (unused -> used, valid -> expired), so reading it after failed cast is safe
func (s *VoteService) rejection(ctx context.Context, tokenID uuid.UUID) error {
	err := s.tokens.Rejection(ctx, tokenID)

	switch {
	case err == nil:
		return apperrors.ErrTokenNotRedeemable
	case IsTokenRejected(err):
		return err
	default:
		return fmt.Errorf("can't check token. Err: %w", err)
	}
}

// Whether the token has been used to vote already
func (s *VoteService) HasVoted(ctx context.Context, tokenID uuid.UUID) (bool, error) {
	_, err := s.storage.Vote().GetByToken(ctx, tokenID)

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, apperrors.ErrTokenNotFound):
		return false, nil
	default:
		return false, err
	}
}

// IsTokenRejected reports whether err says the token is definitely not usable anymore
func IsTokenRejected(err error) bool {
	return errors.Is(err, apperrors.ErrTokenNotFound) ||
		errors.Is(err, apperrors.ErrTokenUsed) ||
		errors.Is(err, apperrors.ErrTokenExpired) ||
		errors.Is(err, apperrors.ErrTokenNotRedeemable)
}
