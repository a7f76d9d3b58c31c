package database_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/depotworks/depot/pkg/database"
	"github.com/depotworks/depot/pkg/errdefs"
)

func newVersion(v string) database.NewVersion {
	return database.NewVersion{
		Version:  v,
		License:  "MIT",
		Checksum: "aa30b1cc05c10ac8a1f309e3de09de484c6de1dc7c226e2cf8e1a518369b1d73",
		Size:     42,
	}
}

func TestCreateVersion(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemStore()

	created, err := store.CreateVersion(ctx, "pkg", newVersion("1.0.0"), "First@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", created.Version)
	assert.False(t, created.IsYanked)

	// the uploader became the initial owner, lowercased
	owners, err := store.ListOwners(ctx, "pkg")
	require.NoError(t, err)
	require.Len(t, owners, 1)
	assert.Equal(t, "first@example.com", owners[0].Email)

	// at most one row per (name, version)
	_, err = store.CreateVersion(ctx, "pkg", newVersion("1.0.0"), "first@example.com")
	assert.ErrorIs(t, err, errdefs.ErrAlreadyExists)

	// a second version does not add a second owner
	_, err = store.CreateVersion(ctx, "pkg", newVersion("1.1.0"), "other@example.com")
	require.NoError(t, err)
	owners, err = store.ListOwners(ctx, "pkg")
	require.NoError(t, err)
	assert.Len(t, owners, 1)
}

func TestGetVersions(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemStore()

	_, err := store.CreateVersion(ctx, "pkg", newVersion("1.0.0"), "a@b")
	require.NoError(t, err)
	_, err = store.CreateVersion(ctx, "pkg", newVersion("1.1.0"), "a@b")
	require.NoError(t, err)

	versions, err := store.GetVersionsByPackageName(ctx, "pkg")
	require.NoError(t, err)
	assert.Len(t, versions, 2)

	got, err := store.GetVersionByNameAndVersion(ctx, "pkg", "1.1.0")
	require.NoError(t, err)
	assert.Equal(t, "1.1.0", got.Version)

	_, err = store.GetVersionByNameAndVersion(ctx, "pkg", "9.9.9")
	assert.ErrorIs(t, err, errdefs.ErrNotFound)

	versions, err = store.GetVersionsByPackageName(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, versions)
}

func TestGetPackagesPagination(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemStore()
	for _, name := range []string{"alpha", "bravo", "charlie", "delta", "echo"} {
		_, err := store.CreateVersion(ctx, name, newVersion("1.0.0"), "a@b")
		require.NoError(t, err)
	}

	pageOne, totalPages, err := store.GetPackages(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, totalPages)
	require.Len(t, pageOne, 2)
	assert.Equal(t, "alpha", pageOne[0].Name)

	lastPage, _, err := store.GetPackages(ctx, 3, 2)
	require.NoError(t, err)
	require.Len(t, lastPage, 1)
	assert.Equal(t, "echo", lastPage[0].Name)

	beyond, _, err := store.GetPackages(ctx, 9, 2)
	require.NoError(t, err)
	assert.Empty(t, beyond)
}

func TestSetYank(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemStore()
	_, err := store.CreateVersion(ctx, "pkg", newVersion("1.0.0"), "a@b")
	require.NoError(t, err)

	yanked, err := store.SetYank(ctx, "pkg", "1.0.0", true)
	require.NoError(t, err)
	assert.True(t, yanked.IsYanked)

	// yank is reversible
	unyanked, err := store.SetYank(ctx, "pkg", "1.0.0", false)
	require.NoError(t, err)
	assert.False(t, unyanked.IsYanked)

	_, err = store.SetYank(ctx, "pkg", "0.0.1", true)
	assert.ErrorIs(t, err, errdefs.ErrNotFound)
}

func TestOwners(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemStore()
	_, err := store.CreateVersion(ctx, "pkg", newVersion("1.0.0"), "a@b")
	require.NoError(t, err)

	// duplicates rejected case-insensitively
	_, err = store.AddOwner(ctx, "pkg", "A@B")
	assert.ErrorIs(t, err, errdefs.ErrAlreadyExists)

	added, err := store.AddOwner(ctx, "pkg", "Second@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "second@example.com", added.Email)

	removed, err := store.RemoveOwner(ctx, "pkg", "second@example.com")
	require.NoError(t, err)
	assert.Equal(t, "second@example.com", removed)

	// every package keeps at least one owner
	_, err = store.RemoveOwner(ctx, "pkg", "a@b")
	require.ErrorIs(t, err, errdefs.ErrConflict)
	assert.Contains(t, err.Error(), "last owner")

	_, err = store.RemoveOwner(ctx, "pkg", "ghost@example.com")
	assert.ErrorIs(t, err, errdefs.ErrNotFound)

	_, err = store.AddOwner(ctx, "missing", "a@b")
	assert.ErrorIs(t, err, errdefs.ErrNotFound)
}

func TestRemoveOwnerUnknownEmailIsNotFound(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemStore()
	_, err := store.CreateVersion(ctx, "pkg", newVersion("1.0.0"), "a@b")
	require.NoError(t, err)

	// a non-owner on a single-owner package is a missing owner, not a
	// last-owner conflict
	_, err = store.RemoveOwner(ctx, "pkg", "ghost@example.com")
	require.ErrorIs(t, err, errdefs.ErrNotFound)
	assert.NotErrorIs(t, err, errdefs.ErrConflict)
	assert.Contains(t, err.Error(), "does not own")
}

func TestConcurrentRemovalsKeepAnOwner(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemStore()
	_, err := store.CreateVersion(ctx, "pkg", newVersion("1.0.0"), "a@b")
	require.NoError(t, err)
	_, err = store.AddOwner(ctx, "pkg", "c@d")
	require.NoError(t, err)

	// both owners race to remove each other; exactly one removal may win
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, email := range []string{"a@b", "c@d"} {
		i, email := i, email
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = store.RemoveOwner(ctx, "pkg", email)
		}()
	}
	wg.Wait()

	owners, err := store.ListOwners(ctx, "pkg")
	require.NoError(t, err)
	assert.NotEmpty(t, owners)

	conflicts := 0
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, errdefs.ErrConflict)
			conflicts++
		}
	}
	assert.GreaterOrEqual(t, conflicts, 1)
}

func TestTokens(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemStore()

	created, err := store.CreateToken(ctx, "ci", "user-1", "A@B")
	require.NoError(t, err)
	assert.NotEmpty(t, created.Token)
	assert.Equal(t, "a@b", created.Email)

	found, err := store.GetTokenByString(ctx, created.Token)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "user-1", found.UserID)

	missing, err := store.GetTokenByString(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = store.CreateToken(ctx, "dev", "user-1", "a@b")
	require.NoError(t, err)
	_, err = store.CreateToken(ctx, "other", "user-2", "c@d")
	require.NoError(t, err)

	listed, err := store.ListTokensByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, listed, 2)
	for _, row := range listed {
		assert.Empty(t, row.Token)
	}
}

func TestNewTokenString(t *testing.T) {
	a, err := database.NewTokenString()
	require.NoError(t, err)
	b, err := database.NewTokenString()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	// 128 random bytes base64-encoded without padding
	assert.GreaterOrEqual(t, len(a), 170)
}
