package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/evote/internal/apperrors"
	"github.com/nkiryanov/evote/internal/models"
)

type VoteRepo struct {
	DB DBTX
}

// The update takes the row lock on the token. A concurrent statement for the same token waits for it,
// re-evaluates the predicate against the committed row and updates nothing, so no vote is inserted.
const castVote = `-- name: CastVote
WITH redeemed AS (
    UPDATE tokens
    SET is_used = TRUE, used_at = $5
    WHERE id = $2
      AND NOT is_used
      AND (expires_at IS NULL OR expires_at > $5)
    RETURNING id
)
INSERT INTO votes (id, token_id, candidate_id, ip_address, created_at)
SELECT $1::uuid, redeemed.id, $3::uuid, $4::text, $5::timestamptz
FROM redeemed
RETURNING id, token_id, candidate_id, ip_address, created_at
`

// Redeem token and record the vote in one statement
// Returns apperrors.ErrTokenNotRedeemable if token is missing, used or expired at 'now'
func (r *VoteRepo) Cast(ctx context.Context, vote models.Vote, now time.Time) (models.Vote, error) {
	if vote.ID == uuid.Nil {
		vote.ID = uuid.New()
	}

	rows, _ := r.DB.Query(ctx, castVote, vote.ID, vote.TokenID, vote.CandidateID, vote.IPAddress, now)
	cast, err := pgx.CollectOneRow(rows, rowToVote)

	var pgErr *pgconn.PgError
	switch {
	case err == nil:
		return cast, nil
	case errors.Is(err, pgx.ErrNoRows):
		return cast, apperrors.ErrTokenNotRedeemable
	case errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation:
		return cast, apperrors.ErrTokenNotRedeemable
	case errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation:
		return cast, apperrors.ErrCandidateNotFound
	default:
		return cast, fmt.Errorf("db error: %w", err)
	}
}

const getVoteByToken = `-- name: GetVoteByToken
SELECT id, token_id, candidate_id, ip_address, created_at
FROM votes
WHERE token_id = $1
`

func (r *VoteRepo) GetByToken(ctx context.Context, tokenID uuid.UUID) (models.Vote, error) {
	rows, _ := r.DB.Query(ctx, getVoteByToken, tokenID)
	vote, err := pgx.CollectOneRow(rows, rowToVote)

	switch {
	case err == nil:
		return vote, nil
	case errors.Is(err, pgx.ErrNoRows):
		return vote, apperrors.ErrTokenNotFound
	default:
		return vote, fmt.Errorf("db error: %w", err)
	}
}

const voteCounts = `-- name: VoteCounts
SELECT id, name, photo_url, order_number, vote_count
FROM vote_results
`

func (r *VoteRepo) Counts(ctx context.Context) ([]models.VoteCount, error) {
	rows, _ := r.DB.Query(ctx, voteCounts)
	counts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.VoteCount, error) {
		var c models.VoteCount
		err := row.Scan(&c.CandidateID, &c.Name, &c.PhotoURL, &c.OrderNumber, &c.Votes)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return counts, nil
}

const totalVotes = `-- name: TotalVotes
SELECT COUNT(*) FROM votes
`

func (r *VoteRepo) Total(ctx context.Context) (int, error) {
	rows, _ := r.DB.Query(ctx, totalVotes)
	total, err := pgx.CollectOneRow(rows, pgx.RowTo[int])
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return total, nil
}

func rowToVote(row pgx.CollectableRow) (models.Vote, error) {
	var v models.Vote
	err := row.Scan(&v.ID, &v.TokenID, &v.CandidateID, &v.IPAddress, &v.CreatedAt)
	return v, err
}
