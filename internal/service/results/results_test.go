package results

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/evote/internal/models"
	"github.com/nkiryanov/evote/internal/repository/postgres"
	"github.com/nkiryanov/evote/internal/testutil"
)

func count(order int, votes int) models.VoteCount {
	return models.VoteCount{CandidateID: uuid.New(), Name: "candidate", OrderNumber: order, Votes: votes}
}

func orders(t models.Tally) []int {
	got := make([]int, 0, len(t.Results))
	for _, r := range t.Results {
		got = append(got, r.OrderNumber)
	}
	return got
}

func Test_Tally(t *testing.T) {
	t.Run("sorted by votes then order number", func(t *testing.T) {
		got := Tally([]models.VoteCount{count(3, 5), count(1, 2), count(4, 5), count(2, 7)})

		require.Equal(t, []int{2, 3, 4, 1}, orders(got))
		require.Equal(t, 19, got.Total)
	})

	t.Run("no votes", func(t *testing.T) {
		got := Tally([]models.VoteCount{count(2, 0), count(3, 0), count(1, 0)})

		require.Equal(t, 0, got.Total)
		require.Equal(t, []int{1, 2, 3}, orders(got), "ties are ordered by order number")
		for _, r := range got.Results {
			require.True(t, r.Percentage.IsZero(), "percentage must be 0 when nobody voted")
			require.Equal(t, "0", r.Percentage.String())
		}
	})

	t.Run("no candidates", func(t *testing.T) {
		got := Tally(nil)

		require.Empty(t, got.Results)
		require.Zero(t, got.Total)
	})

	t.Run("percentages rounded to one place", func(t *testing.T) {
		got := Tally([]models.VoteCount{count(1, 1), count(2, 1), count(3, 1)})

		for _, r := range got.Results {
			require.Equal(t, "33.3", r.Percentage.String())
		}
	})

	t.Run("percentages rounded half up", func(t *testing.T) {
		got := Tally([]models.VoteCount{count(1, 2), count(2, 1)})

		require.Equal(t, "66.7", got.Results[0].Percentage.String())
		require.Equal(t, "33.3", got.Results[1].Percentage.String())
	})

	t.Run("percentages sum close to 100", func(t *testing.T) {
		cases := [][]models.VoteCount{
			{count(1, 1), count(2, 1), count(3, 1)},
			{count(1, 7), count(2, 3), count(3, 0), count(4, 11)},
			{count(1, 1)},
			{count(1, 123), count(2, 456), count(3, 789)},
		}

		for _, counts := range cases {
			got := Tally(counts)
			sum := decimal.Zero
			for _, r := range got.Results {
				sum = sum.Add(r.Percentage)
			}

			diff, _ := sum.Sub(decimal.NewFromInt(100)).Abs().Float64()
			assert.LessOrEqual(t, diff, 0.05*float64(len(counts)), "sum of percentages %s is too far from 100", sum)
		}
	})

	t.Run("single candidate gets everything", func(t *testing.T) {
		got := Tally([]models.VoteCount{count(1, 4), count(2, 0)})

		require.Equal(t, "100", got.Results[0].Percentage.String())
		require.Equal(t, "0", got.Results[1].Percentage.String())
	})
}

func Test_ResultsService(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	t.Run("three candidates and zero votes", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)
			for _, n := range []int{1, 2, 3} {
				_, err := storage.Candidate().Upsert(t.Context(), models.Candidate{Name: "candidate", OrderNumber: n})
				require.NoError(t, err)
			}
			s := NewService(storage.Vote())

			got, err := s.List(t.Context())
			require.NoError(t, err)
			total, err := s.TotalVotes(t.Context())
			require.NoError(t, err)

			require.Zero(t, total)
			require.Zero(t, got.Total)
			require.Len(t, got.Results, 3)
			for _, r := range got.Results {
				require.Zero(t, r.Votes)
				require.True(t, r.Percentage.IsZero())
			}
		})
	})
}
