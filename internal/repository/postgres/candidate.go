package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/evote/internal/apperrors"
	"github.com/nkiryanov/evote/internal/models"
)

type CandidateRepo struct {
	DB DBTX
}

const listCandidates = `-- name: ListCandidates
SELECT id, name, photo_url, vision, mission, order_number, class_name, created_at, updated_at
FROM candidates
ORDER BY order_number ASC, id ASC
`

func (r *CandidateRepo) List(ctx context.Context) ([]models.Candidate, error) {
	rows, _ := r.DB.Query(ctx, listCandidates)
	candidates, err := pgx.CollectRows(rows, rowToCandidate)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return candidates, nil
}

const getCandidate = `-- name: GetCandidate
SELECT id, name, photo_url, vision, mission, order_number, class_name, created_at, updated_at
FROM candidates
WHERE id = $1
`

func (r *CandidateRepo) Get(ctx context.Context, candidateID uuid.UUID) (models.Candidate, error) {
	rows, _ := r.DB.Query(ctx, getCandidate, candidateID)
	candidate, err := pgx.CollectOneRow(rows, rowToCandidate)

	switch {
	case err == nil:
		return candidate, nil
	case errors.Is(err, pgx.ErrNoRows):
		return candidate, apperrors.ErrCandidateNotFound
	default:
		return candidate, fmt.Errorf("db error: %w", err)
	}
}

const countCandidates = `-- name: CountCandidates
SELECT COUNT(*) FROM candidates
`

func (r *CandidateRepo) Count(ctx context.Context) (int, error) {
	rows, _ := r.DB.Query(ctx, countCandidates)
	count, err := pgx.CollectOneRow(rows, pgx.RowTo[int])
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return count, nil
}

const upsertCandidate = `-- name: UpsertCandidate
INSERT INTO candidates (id, name, photo_url, vision, mission, order_number, class_name, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
ON CONFLICT (order_number) DO UPDATE
SET name = EXCLUDED.name,
    photo_url = EXCLUDED.photo_url,
    vision = EXCLUDED.vision,
    mission = EXCLUDED.mission,
    class_name = EXCLUDED.class_name,
    updated_at = now()
RETURNING id, name, photo_url, vision, mission, order_number, class_name, created_at, updated_at
`

// Create candidate or update the one with the same order number
// Existing candidate keeps its id, so votes stay attached to it
func (r *CandidateRepo) Upsert(ctx context.Context, c models.Candidate) (models.Candidate, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Mission == nil {
		c.Mission = []string{}
	}

	rows, _ := r.DB.Query(ctx, upsertCandidate,
		c.ID, c.Name, c.PhotoURL, c.Vision, c.Mission, c.OrderNumber, c.ClassName,
	)
	candidate, err := pgx.CollectOneRow(rows, rowToCandidate)
	if err != nil {
		return candidate, fmt.Errorf("db error: %w", err)
	}

	return candidate, nil
}

func rowToCandidate(row pgx.CollectableRow) (models.Candidate, error) {
	var c models.Candidate
	err := row.Scan(&c.ID, &c.Name, &c.PhotoURL, &c.Vision, &c.Mission, &c.OrderNumber, &c.ClassName, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}
