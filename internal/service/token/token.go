package token

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

const (
	MaxIssueCount = 10000

	// Attempts to find a free code for one token
	issueAttempts = 5
)

type TokenService struct {
	storage repository.Storage

	now      func() time.Time
	generate func(prefix string) (string, error)
}

func NewService(storage repository.Storage) *TokenService {
	return &TokenService{
		storage:  storage,
		now:      time.Now,
		generate: generateCode,
	}
}

// Validate user entered code
// Not found, used and expired tokens are not errors: they come back as invalid Validation
// Expiry is checked first, so expired token is reported as expired even if it is used
func (s *TokenService) Validate(ctx context.Context, raw string) (models.Validation, error) {
	code := NormalizeCode(raw)
	if code == "" {
		return models.Validation{}, apperrors.ErrTokenCodeEmpty
	}

	token, err := s.storage.Token().GetByCode(ctx, code)

	var v models.Validation
	switch {
	case errors.Is(err, apperrors.ErrTokenNotFound):
		v = models.Validation{Reason: models.ReasonNotFound}
	case err != nil:
		metrics.IncTokenValidation("error")
		return v, fmt.Errorf("can't get token. Err: %w", err)
	case token.Expired(s.now()):
		v = models.Validation{TokenID: token.ID, Reason: models.ReasonExpired}
	case token.IsUsed:
		v = models.Validation{TokenID: token.ID, Reason: models.ReasonUsed}
	default:
		v = models.Validation{Valid: true, TokenID: token.ID}
	}

	if v.Valid {
		metrics.IncTokenValidation("valid")
	} else {
		metrics.IncTokenValidation(string(v.Reason))
	}

	return v, nil
}

// Explains why the token can't be used right now
// Returns nil if the token is still usable
func (s *TokenService) Rejection(ctx context.Context, tokenID uuid.UUID) error {
	token, err := s.storage.Token().GetByID(ctx, tokenID)
	if err != nil {
		return err
	}

	return rejection(token, s.now())
}

func rejection(token models.Token, now time.Time) error {
	switch {
	case token.Expired(now):
		return apperrors.ErrTokenExpired
	case token.IsUsed:
		return apperrors.ErrTokenUsed
	default:
		return nil
	}
}

type IssueParams struct {
	// How many tokens to create
	Count int

	// Code prefix, DefaultPrefix if empty
	Prefix string

	// Tokens never expire if zero
	ExpiresIn time.Duration

	Description string
}

// Issue tokens in bulk
// All tokens are created or none
func (s *TokenService) Issue(ctx context.Context, p IssueParams) ([]models.Token, error) {
	if p.Count < 1 || p.Count > MaxIssueCount {
		return nil, fmt.Errorf("count must be between 1 and %d, got %d", MaxIssueCount, p.Count)
	}
	if p.ExpiresIn < 0 {
		return nil, errors.New("expires in must not be negative")
	}

	now := s.now()
	if p.Prefix == "" {
		p.Prefix = DefaultPrefix(now)
	}

	var expiresAt *time.Time
	if p.ExpiresIn > 0 {
		at := now.Add(p.ExpiresIn)
		expiresAt = &at
	}

	tokens := make([]models.Token, 0, p.Count)
	err := s.storage.InTx(ctx, func(st repository.Storage) error {
		for range p.Count {
			token, err := s.issueOne(ctx, st, models.Token{
				ID:          uuid.New(),
				ExpiresAt:   expiresAt,
				CreatedAt:   now,
				Description: p.Description,
			}, p.Prefix)
			if err != nil {
				return err
			}
			tokens = append(tokens, token)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("can't issue tokens. Err: %w", err)
	}

	metrics.AddTokensIssued(len(tokens))
	return tokens, nil
}

// Every attempt runs in its own savepoint: unique violation must not break the outer transaction
func (s *TokenService) issueOne(ctx context.Context, st repository.Storage, token models.Token, prefix string) (models.Token, error) {
	for range issueAttempts {
		code, err := s.generate(prefix)
		if err != nil {
			return token, fmt.Errorf("can't generate code. Err: %w", err)
		}
		token.Code = code

		var created models.Token
		err = st.InTx(ctx, func(sp repository.Storage) error {
			created, err = sp.Token().Create(ctx, token)
			return err
		})

		switch {
		case err == nil:
			return created, nil
		case errors.Is(err, apperrors.ErrTokenCodeTaken):
			continue
		default:
			return token, err
		}
	}

	return token, fmt.Errorf("no free code after %d attempts: %w", issueAttempts, apperrors.ErrTokenCodeTaken)
}
