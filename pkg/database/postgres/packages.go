package postgres

import (
	"context"

	"github.com/doug-martin/goqu/v8"
	"github.com/google/uuid"

	"github.com/depotworks/depot/pkg/database"
)

// GetPackages implements database.Store. Pages are 1-based and ordered by
// canonical name.
func (s *Store) GetPackages(ctx context.Context, page, perPage int) ([]database.Package, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}

	const count = `SELECT count(*) FROM package WHERE deleted_at IS NULL`
	var total int
	if err := s.pool.QueryRow(ctx, count).Scan(&total); err != nil {
		return nil, 0, queryFailed("GetPackages", err)
	}
	totalPages := (total + perPage - 1) / perPage

	query, args, err := s.sql.From("package").
		Select(goqu.L(`id::text, name, created_at, updated_at`)).
		Where(goqu.I("deleted_at").IsNull()).
		Order(goqu.I("name").Asc()).
		Limit(uint(perPage)).
		Offset(uint((page - 1) * perPage)).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, queryFailed("GetPackages", err)
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, queryFailed("GetPackages", err)
	}
	defer rows.Close()

	var out []database.Package
	for rows.Next() {
		var p database.Package
		var id string
		if err := rows.Scan(&id, &p.Name, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, queryFailed("GetPackages", err)
		}
		if p.ID, err = uuid.Parse(id); err != nil {
			return nil, 0, queryFailed("GetPackages", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, queryFailed("GetPackages", err)
	}
	return out, totalPages, nil
}
