// Package storage persists package archives and their auxiliary files under
// a {kind}/{package}/{version} layout with atomic per-file writes.
package storage

import (
	"os"
	"path"
	"strconv"
	"time"

	"github.com/spf13/afero"

	"github.com/depotworks/depot/pkg/errdefs"
)

const (
	packagesDir = "packages"
	tomlsDir    = "tomls"
	readmesDir  = "readmes"
	tempDir     = "tmp"
)

// New returns a Storage rooted at root on the operating system filesystem.
func New(root string) *Storage {
	return NewWithFs(afero.NewOsFs(), root)
}

// NewWithFs returns a Storage on the given filesystem. Tests pass an
// afero.NewMemMapFs.
func NewWithFs(fs afero.Fs, root string) *Storage {
	return &Storage{fs: fs, root: root}
}

// Storage is the content-addressed file store of the registry.
type Storage struct {
	fs   afero.Fs
	root string
}

// Init creates the layout directories.
func (s *Storage) Init() error {
	for _, dir := range []string{packagesDir, tomlsDir, readmesDir, tempDir} {
		if err := s.fs.MkdirAll(path.Join(s.root, dir), 0o755); err != nil {
			return errdefs.NewE(errdefs.ErrSystem, err)
		}
	}
	return nil
}

// ArchivePath returns the on-disk location of a stored archive.
func (s *Storage) ArchivePath(name, version string) string {
	return path.Join(s.root, packagesDir, name, version)
}

// TempFile creates a file under the storage temp directory. Upload bodies
// are streamed here before being committed.
func (s *Storage) TempFile() (afero.File, error) {
	if err := s.fs.MkdirAll(path.Join(s.root, tempDir), 0o755); err != nil {
		return nil, errdefs.NewE(errdefs.ErrSystem, err)
	}
	f, err := afero.TempFile(s.fs, path.Join(s.root, tempDir), "upload-*")
	if err != nil {
		return nil, errdefs.NewE(errdefs.ErrSystem, err)
	}
	return f, nil
}

// SealTemp syncs and closes a streamed temp file so its bytes are durable
// before CommitVersion renames it into place.
func (s *Storage) SealTemp(f afero.File) error {
	if err := f.Sync(); err != nil {
		f.Close()
		return errdefs.NewE(errdefs.ErrSystem, err)
	}
	if err := f.Close(); err != nil {
		return errdefs.NewE(errdefs.ErrSystem, err)
	}
	return nil
}

// CommitVersion moves the streamed archive into place and writes the
// manifest and README. Each file lands through a rename so readers never
// observe partial content. A nil readme persists no README file.
func (s *Storage) CommitVersion(name, version, tempArchive string, manifest, readme []byte) error {
	archivePath := s.ArchivePath(name, version)
	if err := s.fs.MkdirAll(path.Dir(archivePath), 0o755); err != nil {
		return errdefs.NewE(errdefs.ErrSystem, err)
	}
	if err := s.fs.Rename(tempArchive, archivePath); err != nil {
		return errdefs.NewE(errdefs.ErrSystem, err)
	}
	if err := s.writeAtomic(path.Join(s.root, tomlsDir, name, version), manifest); err != nil {
		return err
	}
	if len(readme) > 0 {
		if err := s.writeAtomic(path.Join(s.root, readmesDir, name, version), readme); err != nil {
			return err
		}
	}
	return nil
}

// Discard removes a staged temp file after a failed upload.
func (s *Storage) Discard(path string) error {
	if err := s.fs.Remove(path); err != nil && !os.IsNotExist(err) {
		return errdefs.NewE(errdefs.ErrSystem, err)
	}
	return nil
}

// RemoveVersion deletes the files of a version. It is the rollback path
// when the database commit fails after the files landed.
func (s *Storage) RemoveVersion(name, version string) error {
	var firstErr error
	for _, p := range []string{
		s.ArchivePath(name, version),
		path.Join(s.root, tomlsDir, name, version),
		path.Join(s.root, readmesDir, name, version),
	} {
		if err := s.fs.Remove(p); err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = errdefs.NewE(errdefs.ErrSystem, err)
		}
	}
	return firstErr
}

// OpenArchive opens a stored archive for streaming and returns its size.
func (s *Storage) OpenArchive(name, version string) (afero.File, int64, error) {
	p := s.ArchivePath(name, version)
	info, err := s.fs.Stat(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, errdefs.Newf(errdefs.ErrNotFound, "no stored archive for %s/%s", name, version)
		}
		return nil, 0, errdefs.NewE(errdefs.ErrSystem, err)
	}
	f, err := s.fs.Open(p)
	if err != nil {
		return nil, 0, errdefs.NewE(errdefs.ErrSystem, err)
	}
	return f, info.Size(), nil
}

// ReadManifest returns the stored manifest text of a version.
func (s *Storage) ReadManifest(name, version string) ([]byte, error) {
	return s.readAux(path.Join(s.root, tomlsDir, name, version))
}

// ReadReadme returns the stored README of a version, or ErrNotFound when
// the upload carried none.
func (s *Storage) ReadReadme(name, version string) ([]byte, error) {
	return s.readAux(path.Join(s.root, readmesDir, name, version))
}

func (s *Storage) readAux(p string) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errdefs.Newf(errdefs.ErrNotFound, "no file at %s", p)
		}
		return nil, errdefs.NewE(errdefs.ErrSystem, err)
	}
	return data, nil
}

// writeAtomic writes data to a sibling temporary file, syncs it and renames
// it into place.
func (s *Storage) writeAtomic(target string, data []byte) error {
	dir := path.Dir(target)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return errdefs.NewE(errdefs.ErrSystem, err)
	}
	temp := target + ".tmp." + strconv.FormatInt(time.Now().UnixNano(), 36)
	f, err := s.fs.Create(temp)
	if err != nil {
		return errdefs.NewE(errdefs.ErrSystem, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		s.fs.Remove(temp)
		return errdefs.NewE(errdefs.ErrSystem, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		s.fs.Remove(temp)
		return errdefs.NewE(errdefs.ErrSystem, err)
	}
	if err := f.Close(); err != nil {
		s.fs.Remove(temp)
		return errdefs.NewE(errdefs.ErrSystem, err)
	}
	if err := s.fs.Rename(temp, target); err != nil {
		s.fs.Remove(temp)
		return errdefs.NewE(errdefs.ErrSystem, err)
	}
	return nil
}
