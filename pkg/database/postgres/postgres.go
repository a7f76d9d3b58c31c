// Package postgres implements the database.Store command surface on
// PostgreSQL through a pgx connection pool.
package postgres

import (
	"context"
	"errors"

	"github.com/doug-martin/goqu/v8"
	_ "github.com/doug-martin/goqu/v8/dialect/postgres"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/depotworks/depot/pkg/database"
	"github.com/depotworks/depot/pkg/errdefs"
)

const uniqueViolation = "23505"

// Connect initializes a pool based on the connection string and ensures the
// schema exists.
func Connect(ctx context.Context, connString string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, errdefs.Newf(errdefs.ErrInvalidParameter, "parse database url: %v", err)
	}
	const appnameKey = `application_name`
	params := cfg.ConnConfig.RuntimeParams
	if _, ok := params[appnameKey]; !ok {
		params[appnameKey] = "depot"
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errdefs.Newf(errdefs.ErrUnavailable, "create connection pool: %v", err)
	}
	s := &Store{pool: pool, sql: goqu.Dialect("postgres")}
	if err := s.init(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Store is the PostgreSQL database.Store implementation.
type Store struct {
	pool *pgxpool.Pool
	sql  goqu.DialectWrapper
}

var _ database.Store = (*Store)(nil)

func (s *Store) init(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return errdefs.Newf(errdefs.ErrUnavailable, "apply schema: %v", err)
	}
	return nil
}

// Close implements database.Store.
func (s *Store) Close(context.Context) error {
	s.pool.Close()
	return nil
}

// isUniqueViolation reports whether err is a unique-key constraint failure.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// queryFailed wraps an infrastructural query error.
func queryFailed(op string, err error) error {
	return errdefs.Newf(errdefs.ErrSystem, "database query failed in %s: %v", op, err)
}
