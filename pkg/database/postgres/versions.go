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

const versionColumns = `id::text, package_id::text, version, license, readme, checksum, size, is_yanked, created_at, updated_at`

// versionJoinedColumns qualifies every column for queries joined with the
// package table.
const versionJoinedColumns = `version.id::text, version.package_id::text, version.version, version.license, version.readme, version.checksum, version.size, version.is_yanked, version.created_at, version.updated_at`

func scanVersion(row pgx.Row) (database.Version, error) {
	var v database.Version
	var id, packageID string
	var size int64
	err := row.Scan(&id, &packageID, &v.Version, &v.License, &v.Readme,
		&v.Checksum, &size, &v.IsYanked, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return database.Version{}, err
	}
	v.ID, err = uuid.Parse(id)
	if err != nil {
		return database.Version{}, err
	}
	v.PackageID, err = uuid.Parse(packageID)
	if err != nil {
		return database.Version{}, err
	}
	v.Size = uint64(size)
	return v, nil
}

// CreateVersion implements database.Store. The package row and the initial
// owner are created in the same transaction as the version row, so a crash
// can never leave a package without an owner.
func (s *Store) CreateVersion(ctx context.Context, name string, v database.NewVersion, ownerEmail string) (database.Version, error) {
	const (
		selectPackage = `SELECT id::text FROM package WHERE name = $1 AND deleted_at IS NULL`
		insertPackage = `INSERT INTO package (id, name) VALUES ($1, $2)`
		insertOwner   = `INSERT INTO owner (id, package_id, email) VALUES ($1, $2, $3)`
		insertVersion = `
		INSERT INTO version (id, package_id, version, license, readme, checksum, size)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + versionColumns
	)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Version{}, queryFailed("CreateVersion", err)
	}
	defer tx.Rollback(ctx)

	var packageID string
	err = tx.QueryRow(ctx, selectPackage, name).Scan(&packageID)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		packageID = uuid.New().String()
		if _, err := tx.Exec(ctx, insertPackage, packageID, name); err != nil {
			return database.Version{}, queryFailed("CreateVersion", err)
		}
		if _, err := tx.Exec(ctx, insertOwner, uuid.New().String(), packageID, strings.ToLower(ownerEmail)); err != nil {
			return database.Version{}, queryFailed("CreateVersion", err)
		}
	case err != nil:
		return database.Version{}, queryFailed("CreateVersion", err)
	}

	stored, err := scanVersion(tx.QueryRow(ctx, insertVersion,
		uuid.New().String(), packageID, v.Version, v.License, v.Readme, v.Checksum, int64(v.Size)))
	if err != nil {
		if isUniqueViolation(err) {
			return database.Version{}, errdefs.Newf(errdefs.ErrAlreadyExists,
				"package %s version %s already exists", name, v.Version)
		}
		return database.Version{}, queryFailed("CreateVersion", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return database.Version{}, queryFailed("CreateVersion", err)
	}
	return stored, nil
}

// GetVersionByNameAndVersion implements database.Store.
func (s *Store) GetVersionByNameAndVersion(ctx context.Context, name, version string) (database.Version, error) {
	query, args, err := s.sql.From("version").
		Select(goqu.L(versionJoinedColumns)).
		Join(goqu.T("package"), goqu.On(goqu.Ex{"version.package_id": goqu.I("package.id")})).
		Where(goqu.Ex{"package.name": name, "version.version": version}).
		Where(goqu.I("package.deleted_at").IsNull()).
		Prepared(true).ToSQL()
	if err != nil {
		return database.Version{}, queryFailed("GetVersionByNameAndVersion", err)
	}
	v, err := scanVersion(s.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return database.Version{}, errdefs.Newf(errdefs.ErrNotFound,
			"package %s version %s not found", name, version)
	}
	if err != nil {
		return database.Version{}, queryFailed("GetVersionByNameAndVersion", err)
	}
	return v, nil
}

// GetVersionsByPackageName implements database.Store.
func (s *Store) GetVersionsByPackageName(ctx context.Context, name string) ([]database.Version, error) {
	query, args, err := s.sql.From("version").
		Select(goqu.L(versionJoinedColumns)).
		Join(goqu.T("package"), goqu.On(goqu.Ex{"version.package_id": goqu.I("package.id")})).
		Where(goqu.Ex{"package.name": name}).
		Where(goqu.I("package.deleted_at").IsNull()).
		Order(goqu.I("version.created_at").Asc()).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, queryFailed("GetVersionsByPackageName", err)
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, queryFailed("GetVersionsByPackageName", err)
	}
	defer rows.Close()

	var out []database.Version
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, queryFailed("GetVersionsByPackageName", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, queryFailed("GetVersionsByPackageName", err)
	}
	return out, nil
}

// SetYank implements database.Store.
func (s *Store) SetYank(ctx context.Context, name, version string, yanked bool) (database.Version, error) {
	const update = `
	UPDATE version SET is_yanked = $1, updated_at = now()
	WHERE version = $2 AND package_id = (
		SELECT id FROM package WHERE name = $3 AND deleted_at IS NULL
	)
	RETURNING ` + versionColumns

	v, err := scanVersion(s.pool.QueryRow(ctx, update, yanked, version, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return database.Version{}, errdefs.Newf(errdefs.ErrNotFound,
			"package %s version %s not found", name, version)
	}
	if err != nil {
		return database.Version{}, queryFailed("SetYank", err)
	}
	return v, nil
}
