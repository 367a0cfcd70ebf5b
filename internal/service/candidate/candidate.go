package candidate

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nkiryanov/evote/internal/apperrors"
	"github.com/nkiryanov/evote/internal/models"
	"github.com/nkiryanov/evote/internal/repository"
)

type CandidateService struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *CandidateService {
	return &CandidateService{storage: storage}
}

// List candidates ordered by order number
func (s *CandidateService) List(ctx context.Context) ([]models.Candidate, error) {
	return s.storage.Candidate().List(ctx)
}

// Get candidate by id as it comes from user
// Malformed id is reported the same way as missing candidate: apperrors.ErrCandidateNotFound
func (s *CandidateService) Get(ctx context.Context, id string) (models.Candidate, error) {
	candidateID, err := uuid.Parse(id)
	if err != nil {
		return models.Candidate{}, fmt.Errorf("malformed candidate id: %w", apperrors.ErrCandidateNotFound)
	}

	return s.storage.Candidate().Get(ctx, candidateID)
}

func (s *CandidateService) Count(ctx context.Context) (int, error) {
	return s.storage.Candidate().Count(ctx)
}

// Import candidates all at once, existing ones matched by order number
func (s *CandidateService) Seed(ctx context.Context, candidates []models.Candidate) ([]models.Candidate, error) {
	seen := make(map[int]struct{}, len(candidates))
	for _, c := range candidates {
		if c.Name == "" {
			return nil, fmt.Errorf("candidate #%d has no name", c.OrderNumber)
		}
		if _, ok := seen[c.OrderNumber]; ok {
			return nil, fmt.Errorf("order number %d is used twice", c.OrderNumber)
		}
		seen[c.OrderNumber] = struct{}{}
	}

	saved := make([]models.Candidate, 0, len(candidates))
	err := s.storage.InTx(ctx, func(st repository.Storage) error {
		for _, c := range candidates {
			candidate, err := st.Candidate().Upsert(ctx, c)
			if err != nil {
				return err
			}
			saved = append(saved, candidate)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("can't seed candidates. Err: %w", err)
	}

	return saved, nil
}
