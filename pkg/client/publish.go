package client

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/samber/lo"

	"github.com/depotworks/depot/pkg/archive"
	"github.com/depotworks/depot/pkg/database"
	"github.com/depotworks/depot/pkg/errdefs"
	"github.com/depotworks/depot/pkg/manifest"
	"github.com/depotworks/depot/pkg/version"
	"github.com/depotworks/depot/pkg/wire"
)

// maxRootSearchLevels bounds the upward search for the project root.
const maxRootSearchLevels = 4

// FindProjectRoot locates the nearest ancestor of start carrying a package
// manifest. Each level of the search pops two path segments, and at most
// four levels are climbed.
func FindProjectRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", errdefs.NewE(errdefs.ErrInvalidParameter, err)
	}
	for level := 0; level <= maxRootSearchLevels; level++ {
		if _, err := os.Stat(filepath.Join(dir, manifest.Filename)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(filepath.Dir(dir))
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", errdefs.Newf(errdefs.ErrNotFound,
		"no %s found in %s or its ancestors", manifest.Filename, start)
}

// Publish builds and uploads the package rooted at or above start. The
// version gate is applied locally first so an outdated version fails before
// any bytes move.
func Publish(ctx context.Context, c *Client, start string) (*wire.PackageMetadata, error) {
	root, err := FindProjectRoot(start)
	if err != nil {
		return nil, err
	}
	manifestPath := filepath.Join(root, manifest.Filename)
	m, err := manifest.ParseFile(manifestPath)
	if err != nil {
		return nil, err
	}

	existing, err := c.GetVersions(ctx, m.Package.Name)
	if err != nil && !errdefs.IsNotFound(err) {
		return nil, err
	}
	known := lo.Map(existing, func(v database.Version, _ int) string { return v.Version })
	blocking, err := version.StrictlyGreater(m.Package.Version, known)
	if err != nil {
		return nil, err
	}
	if blocking != "" {
		return nil, errdefs.Newf(errdefs.ErrConflict,
			"version %s of package %s is not greater than the published version %s",
			m.Package.Version, m.Package.Name, blocking)
	}

	built, err := archive.Build(root, m.Package.Name)
	if err != nil {
		return nil, err
	}
	metadata := &wire.PackageMetadata{
		Name:     m.Package.Name,
		Version:  m.Package.Version,
		Checksum: built.Checksum(),
		Size:     uint64(built.Size),
	}

	manifestBytes, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, errdefs.NewE(errdefs.ErrSystem, err)
	}
	var readme []byte
	if m.Package.Readme != "" {
		readme, err = os.ReadFile(filepath.Join(root, m.Package.Readme))
		if err != nil {
			return nil, errdefs.Newf(errdefs.ErrInvalidParameter,
				"read readme %s: %v", m.Package.Readme, err)
		}
	}

	body, err := frameBody(metadata, manifestBytes, readme, built)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	if err := c.Upload(ctx, body); err != nil {
		return nil, err
	}
	return metadata, nil
}

// frameBody assembles the upload frames, streaming the archive from disk
// through a pipe so it is never held in memory.
func frameBody(metadata *wire.PackageMetadata, manifestBytes, readme []byte, built *archive.Archive) (io.ReadCloser, error) {
	f, err := os.Open(built.Path)
	if err != nil {
		return nil, errdefs.NewE(errdefs.ErrSystem, err)
	}
	pr, pw := io.Pipe()
	go func() {
		defer f.Close()
		enc := wire.NewEncoder(pw)
		if err := enc.WriteMetadata(metadata); err != nil {
			pw.CloseWithError(err)
			return
		}
		if err := enc.WriteFileBytes(manifestBytes); err != nil {
			pw.CloseWithError(err)
			return
		}
		if err := enc.WriteFileBytes(readme); err != nil {
			pw.CloseWithError(err)
			return
		}
		if err := enc.WriteFile(uint64(built.Size), f); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.Close()
	}()
	return pr, nil
}
