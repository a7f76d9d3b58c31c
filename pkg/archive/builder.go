// Package archive builds and unpacks the gzip-compressed tar archives that
// carry package content between the client and the registry.
package archive

import (
	"archive/tar"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/pgzip"
	"github.com/opencontainers/go-digest"

	"github.com/depotworks/depot/pkg/errdefs"
)

// OutputDir is the directory under the project root that receives built
// archives. It is always excluded from the walk.
const OutputDir = "target"

// Extension is the file extension of built archives.
const Extension = ".package"

// Archive describes a built package archive.
type Archive struct {
	// Path is the location of the archive on disk.
	Path string
	// Digest is the SHA-256 of the final archive bytes.
	Digest digest.Digest
	// Size is the archive length in bytes.
	Size int64
}

// Checksum returns the lowercase hex SHA-256 without the algorithm prefix,
// which is the form carried in upload metadata.
func (a *Archive) Checksum() string {
	return a.Digest.Encoded()
}

// Build walks the project rooted at root and produces a compressed tar
// archive at target/package/<name>.package. The walk honors .gitignore
// files found along the way and always excludes entries named "target" and
// entries whose name begins with a dot. File paths inside the archive are
// relative to root.
func Build(root, name string) (*Archive, error) {
	outDir := filepath.Join(root, OutputDir, "package")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, errdefs.NewE(errdefs.ErrSystem, err)
	}
	outPath := filepath.Join(outDir, name+Extension)
	f, err := os.Create(outPath)
	if err != nil {
		return nil, errdefs.NewE(errdefs.ErrSystem, err)
	}
	defer f.Close()

	digester := digest.SHA256.Digester()
	counter := &countingWriter{}
	sink := io.MultiWriter(f, digester.Hash(), counter)

	gz := pgzip.NewWriter(sink)
	tw := tar.NewWriter(gz)

	if err := writeTree(tw, root); err != nil {
		return nil, err
	}
	if err := tw.Close(); err != nil {
		return nil, errdefs.NewE(errdefs.ErrSystem, err)
	}
	if err := gz.Close(); err != nil {
		return nil, errdefs.NewE(errdefs.ErrSystem, err)
	}
	if err := f.Sync(); err != nil {
		return nil, errdefs.NewE(errdefs.ErrSystem, err)
	}
	return &Archive{Path: outPath, Digest: digester.Digest(), Size: counter.n}, nil
}

func writeTree(tw *tar.Writer, root string) error {
	rules := &ruleset{}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return rules.enter(path)
		}
		if rules.Excluded(path, d.Name(), d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return rules.enter(path)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		return writeFile(tw, path, filepath.ToSlash(rel))
	})
}

func writeFile(tw *tar.Writer, path, rel string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	header.Name = rel
	if err := tw.WriteHeader(header); err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(tw, f)
	return err
}

type countingWriter struct {
	n int64
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.n += int64(len(p))
	return len(p), nil
}
