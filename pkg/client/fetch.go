package client

import (
	"context"
	"os"
	"path/filepath"

	"github.com/depotworks/depot/pkg/archive"
	"github.com/depotworks/depot/pkg/errdefs"
)

// UnpackLevel selects how far a fetched archive is unwrapped before it is
// placed under the download path.
type UnpackLevel string

const (
	// LevelRaw stores the archive exactly as downloaded.
	LevelRaw UnpackLevel = "raw"
	// LevelUncompressed strips the gzip layer, keeping the tar stream.
	LevelUncompressed UnpackLevel = "uncompressed"
	// LevelRegular unpacks the full directory tree.
	LevelRegular UnpackLevel = "regular"
)

// ParseUnpackLevel parses a user-supplied unpack level.
func ParseUnpackLevel(s string) (UnpackLevel, error) {
	switch UnpackLevel(s) {
	case LevelRaw, LevelUncompressed, LevelRegular:
		return UnpackLevel(s), nil
	case "":
		return LevelRegular, nil
	}
	return "", errdefs.Newf(errdefs.ErrInvalidParameter,
		"unpack level must be raw, uncompressed or regular, got %q", s)
}

// Fetch resolves the requirement, downloads the matching version and places
// it under downloadPath/<name>/, unwrapped according to level. The final
// location is populated by an atomic rename and returned. A destination
// that already exists is reused without touching the network beyond the
// resolve call.
func Fetch(ctx context.Context, c *Client, downloadPath, name, requirement string, level UnpackLevel) (string, error) {
	row, err := c.ResolveVersion(ctx, name, requirement)
	if err != nil {
		return "", err
	}

	packageDir := filepath.Join(downloadPath, name)
	dest := destination(packageDir, row.Version, level)
	if _, err := os.Stat(dest); err == nil {
		return dest, nil
	}
	if err := os.MkdirAll(packageDir, 0o755); err != nil {
		return "", errdefs.NewE(errdefs.ErrSystem, err)
	}

	staging, err := os.MkdirTemp(packageDir, ".fetch-")
	if err != nil {
		return "", errdefs.NewE(errdefs.ErrSystem, err)
	}
	defer os.RemoveAll(staging)

	archivePath := filepath.Join(staging, "archive")
	if err := downloadTo(ctx, c, name, row.Version, archivePath); err != nil {
		return "", err
	}

	staged := archivePath
	switch level {
	case LevelRaw:
	case LevelUncompressed:
		staged = filepath.Join(staging, "content")
		if err := decompressTo(archivePath, staged); err != nil {
			return "", err
		}
	case LevelRegular:
		staged = filepath.Join(staging, "tree")
		f, err := os.Open(archivePath)
		if err != nil {
			return "", errdefs.NewE(errdefs.ErrSystem, err)
		}
		err = archive.Unpack(f, staged)
		f.Close()
		if err != nil {
			return "", err
		}
	}

	if err := os.Rename(staged, dest); err != nil {
		return "", errdefs.NewE(errdefs.ErrSystem, err)
	}
	return dest, nil
}

func destination(packageDir, version string, level UnpackLevel) string {
	switch level {
	case LevelRaw:
		return filepath.Join(packageDir, version+archive.Extension)
	case LevelUncompressed:
		return filepath.Join(packageDir, version+".tar")
	default:
		return filepath.Join(packageDir, version)
	}
}

func downloadTo(ctx context.Context, c *Client, name, version, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errdefs.NewE(errdefs.ErrSystem, err)
	}
	if _, err := c.Download(ctx, name, version, f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errdefs.NewE(errdefs.ErrSystem, err)
	}
	return nil
}

func decompressTo(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return errdefs.NewE(errdefs.ErrSystem, err)
	}
	defer in.Close()
	out, err := os.Create(dest)
	if err != nil {
		return errdefs.NewE(errdefs.ErrSystem, err)
	}
	if err := archive.Decompress(in, out); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return errdefs.NewE(errdefs.ErrSystem, err)
	}
	return nil
}
