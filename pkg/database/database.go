// Package database defines the typed command surface the registry core uses
// to address its metadata store, together with an in-memory implementation.
// The PostgreSQL implementation lives in the postgres subpackage.
package database

import (
	"context"
	"crypto/rand"
	"encoding/base64"
)

// TokenBytes is the number of random bytes in a generated API token.
const TokenBytes = 128

// Store is the command surface of the database collaborator. Implementations
// serialise read-modify-write sequences (the last-owner check in
// RemoveOwner) internally; callers never assume transactional semantics
// across multiple commands.
type Store interface {
	// CreateVersion stores a new version row for the named package,
	// creating the package and its initial owner when the name is new.
	// A (package, version) collision returns errdefs.ErrAlreadyExists.
	CreateVersion(ctx context.Context, name string, v NewVersion, ownerEmail string) (Version, error)

	// GetVersionByNameAndVersion returns the version row for the exact
	// (name, version) pair, or errdefs.ErrNotFound.
	GetVersionByNameAndVersion(ctx context.Context, name, version string) (Version, error)

	// GetVersionsByPackageName returns every version of the named package,
	// including yanked ones. Unknown names yield an empty list.
	GetVersionsByPackageName(ctx context.Context, name string) ([]Version, error)

	// GetPackages returns one page of packages and the total page count.
	// Pages are 1-based.
	GetPackages(ctx context.Context, page, perPage int) ([]Package, int, error)

	// SetYank sets the yank flag of a version, or errdefs.ErrNotFound.
	SetYank(ctx context.Context, name, version string, yanked bool) (Version, error)

	// AddOwner adds an owner email to the named package. Duplicates return
	// errdefs.ErrAlreadyExists.
	AddOwner(ctx context.Context, name, email string) (Owner, error)

	// RemoveOwner removes an owner email and returns it. Removing the last
	// owner returns errdefs.ErrConflict.
	RemoveOwner(ctx context.Context, name, email string) (string, error)

	// ListOwners returns the non-deleted owners of the named package.
	ListOwners(ctx context.Context, name string) ([]Owner, error)

	// CreateToken mints a new API token for the given user.
	CreateToken(ctx context.Context, name, userID, email string) (ApiToken, error)

	// GetTokenByString resolves a bearer string to a token row, or nil when
	// no live token matches.
	GetTokenByString(ctx context.Context, token string) (*ApiToken, error)

	// ListTokensByUser returns the live tokens of the given user.
	ListTokensByUser(ctx context.Context, userID string) ([]ApiToken, error)

	// Close releases the underlying resources.
	Close(ctx context.Context) error
}

// NewTokenString returns a fresh bearer credential built from TokenBytes of
// cryptographically random data.
func NewTokenString() (string, error) {
	raw := make([]byte, TokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
