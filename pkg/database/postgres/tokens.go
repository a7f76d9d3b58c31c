package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/doug-martin/goqu/v8"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/depotworks/depot/pkg/database"
	"github.com/depotworks/depot/pkg/errdefs"
)

// CreateToken implements database.Store.
func (s *Store) CreateToken(ctx context.Context, name, userID, email string) (database.ApiToken, error) {
	const insert = `
	INSERT INTO api_token (id, name, token, user_id, email)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id::text, name, token, user_id, email, created_at`

	token, err := database.NewTokenString()
	if err != nil {
		return database.ApiToken{}, errdefs.NewE(errdefs.ErrSystem, err)
	}
	var row database.ApiToken
	var id string
	err = s.pool.QueryRow(ctx, insert, uuid.New().String(), name, token, userID, strings.ToLower(email)).
		Scan(&id, &row.Name, &row.Token, &row.UserID, &row.Email, &row.CreatedAt)
	if err != nil {
		return database.ApiToken{}, queryFailed("CreateToken", err)
	}
	if row.ID, err = uuid.Parse(id); err != nil {
		return database.ApiToken{}, queryFailed("CreateToken", err)
	}
	return row, nil
}

// GetTokenByString implements database.Store.
func (s *Store) GetTokenByString(ctx context.Context, token string) (*database.ApiToken, error) {
	const query = `
	SELECT id::text, name, user_id, email, created_at
	FROM api_token WHERE token = $1 AND deleted_at IS NULL`

	var row database.ApiToken
	var id string
	err := s.pool.QueryRow(ctx, query, token).
		Scan(&id, &row.Name, &row.UserID, &row.Email, &row.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, queryFailed("GetTokenByString", err)
	}
	if row.ID, err = uuid.Parse(id); err != nil {
		return nil, queryFailed("GetTokenByString", err)
	}
	return &row, nil
}

// ListTokensByUser implements database.Store. Token strings are never
// listed back, only revealed once at creation.
func (s *Store) ListTokensByUser(ctx context.Context, userID string) ([]database.ApiToken, error) {
	query, args, err := s.sql.From("api_token").
		Select(goqu.L(`id::text, name, user_id, email, created_at`)).
		Where(goqu.Ex{"user_id": userID}).
		Where(goqu.I("deleted_at").IsNull()).
		Order(goqu.I("created_at").Asc()).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, queryFailed("ListTokensByUser", err)
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, queryFailed("ListTokensByUser", err)
	}
	defer rows.Close()

	var out []database.ApiToken
	for rows.Next() {
		var row database.ApiToken
		var id string
		if err := rows.Scan(&id, &row.Name, &row.UserID, &row.Email, &row.CreatedAt); err != nil {
			return nil, queryFailed("ListTokensByUser", err)
		}
		if row.ID, err = uuid.Parse(id); err != nil {
			return nil, queryFailed("ListTokensByUser", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, queryFailed("ListTokensByUser", err)
	}
	return out, nil
}
