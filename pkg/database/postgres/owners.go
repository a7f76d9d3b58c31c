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

func (s *Store) packageID(ctx context.Context, q interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}, name string) (string, error) {
	const query = `SELECT id::text FROM package WHERE name = $1 AND deleted_at IS NULL`
	var id string
	err := q.QueryRow(ctx, query, name).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", errdefs.Newf(errdefs.ErrNotFound, "package %s not found", name)
	}
	if err != nil {
		return "", queryFailed("packageID", err)
	}
	return id, nil
}

// AddOwner implements database.Store.
func (s *Store) AddOwner(ctx context.Context, name, email string) (database.Owner, error) {
	const insert = `
	INSERT INTO owner (id, package_id, email)
	VALUES ($1, $2, $3)
	RETURNING id::text, package_id::text, email, created_at`

	packageID, err := s.packageID(ctx, s.pool, name)
	if err != nil {
		return database.Owner{}, err
	}
	email = strings.ToLower(email)

	var owner database.Owner
	var id, pkgID string
	err = s.pool.QueryRow(ctx, insert, uuid.New().String(), packageID, email).
		Scan(&id, &pkgID, &owner.Email, &owner.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return database.Owner{}, errdefs.Newf(errdefs.ErrAlreadyExists,
				"%s already owns package %s", email, name)
		}
		return database.Owner{}, queryFailed("AddOwner", err)
	}
	if owner.ID, err = uuid.Parse(id); err != nil {
		return database.Owner{}, queryFailed("AddOwner", err)
	}
	if owner.PackageID, err = uuid.Parse(pkgID); err != nil {
		return database.Owner{}, queryFailed("AddOwner", err)
	}
	return owner, nil
}

// RemoveOwner implements database.Store. The package row is locked FOR
// UPDATE so the membership check, the last-owner check and the delete are
// serialised; without the lock two concurrent removals on a two-owner
// package could both pass the count and leave the package ownerless.
func (s *Store) RemoveOwner(ctx context.Context, name, email string) (string, error) {
	const (
		lockPackage = `SELECT id::text FROM package WHERE name = $1 AND deleted_at IS NULL FOR UPDATE`
		countMember = `SELECT count(*) FROM owner WHERE package_id = $1 AND email = $2 AND deleted_at IS NULL`
		countLive   = `SELECT count(*) FROM owner WHERE package_id = $1 AND deleted_at IS NULL`
		tombstone   = `
		UPDATE owner SET deleted_at = now()
		WHERE package_id = $1 AND email = $2 AND deleted_at IS NULL`
	)

	email = strings.ToLower(email)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", queryFailed("RemoveOwner", err)
	}
	defer tx.Rollback(ctx)

	var packageID string
	err = tx.QueryRow(ctx, lockPackage, name).Scan(&packageID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", errdefs.Newf(errdefs.ErrNotFound, "package %s not found", name)
	}
	if err != nil {
		return "", queryFailed("RemoveOwner", err)
	}
	var member int
	if err := tx.QueryRow(ctx, countMember, packageID, email).Scan(&member); err != nil {
		return "", queryFailed("RemoveOwner", err)
	}
	if member == 0 {
		return "", errdefs.Newf(errdefs.ErrNotFound, "%s does not own package %s", email, name)
	}
	var live int
	if err := tx.QueryRow(ctx, countLive, packageID).Scan(&live); err != nil {
		return "", queryFailed("RemoveOwner", err)
	}
	if live <= 1 {
		return "", errdefs.Newf(errdefs.ErrConflict,
			"cannot remove %s, it is the last owner of package %s", email, name)
	}
	if _, err := tx.Exec(ctx, tombstone, packageID, email); err != nil {
		return "", queryFailed("RemoveOwner", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return "", queryFailed("RemoveOwner", err)
	}
	return email, nil
}

// ListOwners implements database.Store.
func (s *Store) ListOwners(ctx context.Context, name string) ([]database.Owner, error) {
	query, args, err := s.sql.From("owner").
		Select(goqu.L(`owner.id::text, owner.package_id::text, owner.email, owner.created_at`)).
		Join(goqu.T("package"), goqu.On(goqu.Ex{"owner.package_id": goqu.I("package.id")})).
		Where(goqu.Ex{"package.name": name}).
		Where(goqu.I("owner.deleted_at").IsNull()).
		Where(goqu.I("package.deleted_at").IsNull()).
		Order(goqu.I("owner.created_at").Asc()).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, queryFailed("ListOwners", err)
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, queryFailed("ListOwners", err)
	}
	defer rows.Close()

	var out []database.Owner
	for rows.Next() {
		var owner database.Owner
		var id, pkgID string
		if err := rows.Scan(&id, &pkgID, &owner.Email, &owner.CreatedAt); err != nil {
			return nil, queryFailed("ListOwners", err)
		}
		if owner.ID, err = uuid.Parse(id); err != nil {
			return nil, queryFailed("ListOwners", err)
		}
		if owner.PackageID, err = uuid.Parse(pkgID); err != nil {
			return nil, queryFailed("ListOwners", err)
		}
		out = append(out, owner)
	}
	if err := rows.Err(); err != nil {
		return nil, queryFailed("ListOwners", err)
	}
	return out, nil
}
