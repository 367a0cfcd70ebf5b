package results

import (
	"context"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/nkiryanov/evote/internal/models"
	"github.com/nkiryanov/evote/internal/repository"
)

// Digits after the decimal point in percentages
const percentagePlaces = 1

var hundred = decimal.NewFromInt(100)

type ResultsService struct {
	voteRepo repository.VoteRepo
}

func NewService(voteRepo repository.VoteRepo) *ResultsService {
	return &ResultsService{voteRepo: voteRepo}
}

// Current results ready to display
func (s *ResultsService) List(ctx context.Context) (models.Tally, error) {
	counts, err := s.voteRepo.Counts(ctx)
	if err != nil {
		return models.Tally{}, err
	}

	return Tally(counts), nil
}

// Total of votes cast
func (s *ResultsService) TotalVotes(ctx context.Context) (int, error) {
	return s.voteRepo.Total(ctx)
}

// Tally sorts counts by votes descending, order number ascending on ties, and computes percentages
// Total is the sum of given counts, so percentages match the rows. All percentages are 0 if there are no votes
func Tally(counts []models.VoteCount) models.Tally {
	total := 0
	for _, c := range counts {
		total += c.Votes
	}

	results := make([]models.VoteResult, 0, len(counts))
	for _, c := range counts {
		results = append(results, models.VoteResult{
			VoteCount:  c,
			Percentage: percentage(c.Votes, total),
		})
	}

	slices.SortStableFunc(results, func(a, b models.VoteResult) int {
		if a.Votes != b.Votes {
			return b.Votes - a.Votes
		}
		return a.OrderNumber - b.OrderNumber
	})

	return models.Tally{Results: results, Total: total}
}

func percentage(count int, total int) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}

	return decimal.NewFromInt(int64(count)).
		Mul(hundred).
		DivRound(decimal.NewFromInt(int64(total)), percentagePlaces)
}
