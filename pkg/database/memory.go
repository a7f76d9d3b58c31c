package database

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/depotworks/depot/pkg/errdefs"
)

// NewMemStore returns an in-memory Store. It backs the registry's
// development mode and the test suites.
func NewMemStore() *MemStore {
	return &MemStore{
		packages: map[string]*memPackage{},
		tokens:   map[string]*ApiToken{},
	}
}

// MemStore is a mutex-guarded in-memory Store implementation enforcing the
// same invariants as the PostgreSQL store.
type MemStore struct {
	mu       sync.Mutex
	packages map[string]*memPackage
	tokens   map[string]*ApiToken
}

type memPackage struct {
	pkg      Package
	versions []Version
	owners   []Owner
}

var _ Store = (*MemStore)(nil)

// CreateVersion implements Store.
func (s *MemStore) CreateVersion(_ context.Context, name string, v NewVersion, ownerEmail string) (Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	entry, ok := s.packages[name]
	if !ok {
		entry = &memPackage{
			pkg: Package{ID: uuid.New(), Name: name, CreatedAt: now, UpdatedAt: now},
			owners: []Owner{{
				ID:        uuid.New(),
				Email:     strings.ToLower(ownerEmail),
				CreatedAt: now,
			}},
		}
		entry.owners[0].PackageID = entry.pkg.ID
		s.packages[name] = entry
	}
	for _, existing := range entry.versions {
		if existing.Version == v.Version {
			return Version{}, errdefs.Newf(errdefs.ErrAlreadyExists,
				"package %s version %s already exists", name, v.Version)
		}
	}
	stored := Version{
		ID:        uuid.New(),
		PackageID: entry.pkg.ID,
		Version:   v.Version,
		License:   v.License,
		Readme:    v.Readme,
		Checksum:  v.Checksum,
		Size:      v.Size,
		CreatedAt: now,
		UpdatedAt: now,
	}
	entry.versions = append(entry.versions, stored)
	entry.pkg.UpdatedAt = now
	return stored, nil
}

// GetVersionByNameAndVersion implements Store.
func (s *MemStore) GetVersionByNameAndVersion(_ context.Context, name, version string) (Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.packages[name]; ok {
		for _, v := range entry.versions {
			if v.Version == version {
				return v, nil
			}
		}
	}
	return Version{}, errdefs.Newf(errdefs.ErrNotFound, "package %s version %s not found", name, version)
}

// GetVersionsByPackageName implements Store.
func (s *MemStore) GetVersionsByPackageName(_ context.Context, name string) ([]Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.packages[name]
	if !ok {
		return nil, nil
	}
	out := make([]Version, len(entry.versions))
	copy(out, entry.versions)
	return out, nil
}

// GetPackages implements Store.
func (s *MemStore) GetPackages(_ context.Context, page, perPage int) ([]Package, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	names := make([]string, 0, len(s.packages))
	for name := range s.packages {
		names = append(names, name)
	}
	sort.Strings(names)

	totalPages := (len(names) + perPage - 1) / perPage
	start := (page - 1) * perPage
	if start >= len(names) {
		return nil, totalPages, nil
	}
	end := start + perPage
	if end > len(names) {
		end = len(names)
	}
	out := make([]Package, 0, end-start)
	for _, name := range names[start:end] {
		out = append(out, s.packages[name].pkg)
	}
	return out, totalPages, nil
}

// SetYank implements Store.
func (s *MemStore) SetYank(_ context.Context, name, version string, yanked bool) (Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.packages[name]
	if !ok {
		return Version{}, errdefs.Newf(errdefs.ErrNotFound, "package %s not found", name)
	}
	for i := range entry.versions {
		if entry.versions[i].Version == version {
			entry.versions[i].IsYanked = yanked
			entry.versions[i].UpdatedAt = time.Now().UTC()
			return entry.versions[i], nil
		}
	}
	return Version{}, errdefs.Newf(errdefs.ErrNotFound, "package %s version %s not found", name, version)
}

// AddOwner implements Store.
func (s *MemStore) AddOwner(_ context.Context, name, email string) (Owner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.packages[name]
	if !ok {
		return Owner{}, errdefs.Newf(errdefs.ErrNotFound, "package %s not found", name)
	}
	email = strings.ToLower(email)
	for _, owner := range entry.owners {
		if owner.Email == email {
			return Owner{}, errdefs.Newf(errdefs.ErrAlreadyExists,
				"%s already owns package %s", email, name)
		}
	}
	owner := Owner{
		ID:        uuid.New(),
		PackageID: entry.pkg.ID,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
	entry.owners = append(entry.owners, owner)
	return owner, nil
}

// RemoveOwner implements Store.
func (s *MemStore) RemoveOwner(_ context.Context, name, email string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.packages[name]
	if !ok {
		return "", errdefs.Newf(errdefs.ErrNotFound, "package %s not found", name)
	}
	email = strings.ToLower(email)
	index := -1
	for i, owner := range entry.owners {
		if owner.Email == email {
			index = i
			break
		}
	}
	if index < 0 {
		return "", errdefs.Newf(errdefs.ErrNotFound, "%s does not own package %s", email, name)
	}
	if len(entry.owners) == 1 {
		return "", errdefs.Newf(errdefs.ErrConflict,
			"cannot remove %s, it is the last owner of package %s", email, name)
	}
	entry.owners = append(entry.owners[:index], entry.owners[index+1:]...)
	return email, nil
}

// ListOwners implements Store.
func (s *MemStore) ListOwners(_ context.Context, name string) ([]Owner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.packages[name]
	if !ok {
		return nil, nil
	}
	out := make([]Owner, len(entry.owners))
	copy(out, entry.owners)
	return out, nil
}

// CreateToken implements Store.
func (s *MemStore) CreateToken(_ context.Context, name, userID, email string) (ApiToken, error) {
	token, err := NewTokenString()
	if err != nil {
		return ApiToken{}, errdefs.NewE(errdefs.ErrSystem, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	row := ApiToken{
		ID:        uuid.New(),
		Name:      name,
		Token:     token,
		UserID:    userID,
		Email:     strings.ToLower(email),
		CreatedAt: time.Now().UTC(),
	}
	s.tokens[token] = &row
	return row, nil
}

// GetTokenByString implements Store.
func (s *MemStore) GetTokenByString(_ context.Context, token string) (*ApiToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.tokens[token]
	if !ok || row.DeletedAt != nil {
		return nil, nil
	}
	out := *row
	return &out, nil
}

// ListTokensByUser implements Store.
func (s *MemStore) ListTokensByUser(_ context.Context, userID string) ([]ApiToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []ApiToken
	for _, row := range s.tokens {
		if row.UserID != userID || row.DeletedAt != nil {
			continue
		}
		copied := *row
		copied.Token = "" // token strings are only revealed at creation
		out = append(out, copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Close implements Store.
func (s *MemStore) Close(context.Context) error { return nil }
