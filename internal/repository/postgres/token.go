package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/evote/internal/apperrors"
	"github.com/nkiryanov/evote/internal/models"
)

type TokenRepo struct {
	DB DBTX
}

const createToken = `-- name: CreateToken
INSERT INTO tokens (id, code, is_used, used_at, expires_at, created_at, description)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, code, is_used, used_at, expires_at, created_at, description
`

func (r *TokenRepo) Create(ctx context.Context, token models.Token) (models.Token, error) {
	rows, _ := r.DB.Query(ctx, createToken,
		token.ID, token.Code, token.IsUsed, token.UsedAt, token.ExpiresAt, token.CreatedAt, token.Description,
	)
	created, err := pgx.CollectOneRow(rows, rowToToken)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return created, apperrors.ErrTokenCodeTaken
		}

		return created, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

const getTokenByCode = `-- name: GetTokenByCode
SELECT id, code, is_used, used_at, expires_at, created_at, description
FROM tokens
WHERE code = $1
`

// Get token by code
// Returns the token even if it is used or expired
func (r *TokenRepo) GetByCode(ctx context.Context, code string) (models.Token, error) {
	rows, _ := r.DB.Query(ctx, getTokenByCode, code)
	return collectToken(rows)
}

const getTokenByID = `-- name: GetTokenByID
SELECT id, code, is_used, used_at, expires_at, created_at, description
FROM tokens
WHERE id = $1
`

func (r *TokenRepo) GetByID(ctx context.Context, tokenID uuid.UUID) (models.Token, error) {
	rows, _ := r.DB.Query(ctx, getTokenByID, tokenID)
	return collectToken(rows)
}

func collectToken(rows pgx.Rows) (models.Token, error) {
	token, err := pgx.CollectOneRow(rows, rowToToken)

	switch {
	case err == nil:
		return token, nil
	case errors.Is(err, pgx.ErrNoRows):
		return token, apperrors.ErrTokenNotFound
	default:
		return token, fmt.Errorf("db error: %w", err)
	}
}

func rowToToken(row pgx.CollectableRow) (models.Token, error) {
	var t models.Token
	err := row.Scan(&t.ID, &t.Code, &t.IsUsed, &t.UsedAt, &t.ExpiresAt, &t.CreatedAt, &t.Description)
	return t, err
}
