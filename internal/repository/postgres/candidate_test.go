package postgres

import (
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/google/uuid"
	"github.com/nkiryanov/evote/internal/apperrors"
	"github.com/nkiryanov/evote/internal/models"
	"github.com/nkiryanov/evote/internal/testutil"
)

func Test_CandidateRepo(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	photo := "https://example.com/a.png"

	t.Run("upsert creates candidate", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := CandidateRepo{DB: tx}

			got, err := repo.Upsert(t.Context(), models.Candidate{
				Name:        "Ahmad & Budi",
				PhotoURL:    &photo,
				Vision:      "Rohis yang aktif",
				Mission:     []string{"Kajian rutin", "Bakti sosial"},
				OrderNumber: 1,
				ClassName:   "XI IPA 1",
			})

			require.NoError(t, err)
			require.NotEqual(t, uuid.Nil, got.ID)
			require.Equal(t, "Ahmad & Budi", got.Name)
			require.Equal(t, &photo, got.PhotoURL)
			require.Equal(t, []string{"Kajian rutin", "Bakti sosial"}, got.Mission)
			require.Equal(t, 1, got.OrderNumber)
			require.NotZero(t, got.CreatedAt)
		})
	})

	t.Run("upsert keeps id of candidate with same order number", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := CandidateRepo{DB: tx}
			first, err := repo.Upsert(t.Context(), models.Candidate{Name: "Old", OrderNumber: 1})
			require.NoError(t, err)

			second, err := repo.Upsert(t.Context(), models.Candidate{Name: "New", OrderNumber: 1})

			require.NoError(t, err)
			require.Equal(t, first.ID, second.ID, "votes are attached by id, so it must not change")
			require.Equal(t, "New", second.Name)
			require.Empty(t, second.Mission)
		})
	})

	t.Run("list ordered by order number", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := CandidateRepo{DB: tx}
			for _, n := range []int{3, 1, 2} {
				_, err := repo.Upsert(t.Context(), models.Candidate{Name: "candidate", OrderNumber: n})
				require.NoError(t, err)
			}

			got, err := repo.List(t.Context())

			require.NoError(t, err)
			require.Len(t, got, 3)
			require.Equal(t, 1, got[0].OrderNumber)
			require.Equal(t, 2, got[1].OrderNumber)
			require.Equal(t, 3, got[2].OrderNumber)
		})
	})

	t.Run("list empty", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := CandidateRepo{DB: tx}

			got, err := repo.List(t.Context())

			require.NoError(t, err)
			require.Empty(t, got)
		})
	})

	t.Run("get and count", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := CandidateRepo{DB: tx}
			created, err := repo.Upsert(t.Context(), models.Candidate{Name: "Citra", OrderNumber: 2})
			require.NoError(t, err)

			got, err := repo.Get(t.Context(), created.ID)
			require.NoError(t, err)
			require.Equal(t, created, got)

			count, err := repo.Count(t.Context())
			require.NoError(t, err)
			require.Equal(t, 1, count)
		})
	})

	t.Run("get not existed", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := CandidateRepo{DB: tx}

			_, err := repo.Get(t.Context(), uuid.New())

			require.ErrorIs(t, err, apperrors.ErrCandidateNotFound)
		})
	})
}
