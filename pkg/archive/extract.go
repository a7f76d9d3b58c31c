package archive

import (
	"archive/tar"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/depotworks/depot/pkg/errdefs"
)

// Decompress strips the gzip layer from src and writes the enclosed tar
// stream to w.
func Decompress(src io.Reader, w io.Writer) error {
	gz, err := gzip.NewReader(src)
	if err != nil {
		return errdefs.NewE(errdefs.ErrInvalidParameter, err)
	}
	defer gz.Close()
	if _, err := io.Copy(w, gz); err != nil {
		return errdefs.NewE(errdefs.ErrSystem, err)
	}
	return nil
}

// Unpack decompresses and untars src into dest. Entries escaping dest are
// rejected.
func Unpack(src io.Reader, dest string) error {
	gz, err := gzip.NewReader(src)
	if err != nil {
		return errdefs.NewE(errdefs.ErrInvalidParameter, err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errdefs.NewE(errdefs.ErrInvalidParameter, err)
		}
		target, err := secureJoin(dest, header.Name)
		if err != nil {
			return err
		}
		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, os.FileMode(header.Mode)); err != nil {
				return errdefs.NewE(errdefs.ErrSystem, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return errdefs.NewE(errdefs.ErrSystem, err)
			}
			if err := writeRegular(target, tr, os.FileMode(header.Mode)); err != nil {
				return err
			}
		default:
			// symlinks and special files are not carried by package archives
		}
	}
}

func writeRegular(target string, r io.Reader, mode os.FileMode) error {
	f, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return errdefs.NewE(errdefs.ErrSystem, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return errdefs.NewE(errdefs.ErrSystem, err)
	}
	return nil
}

// secureJoin joins name onto dest and verifies the result stays inside dest.
func secureJoin(dest, name string) (string, error) {
	if filepath.IsAbs(name) {
		return "", errdefs.Newf(errdefs.ErrInvalidParameter, "archive entry %q has an absolute path", name)
	}
	target := filepath.Join(dest, filepath.FromSlash(name))
	if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
		return "", errdefs.Newf(errdefs.ErrInvalidParameter, "archive entry %q escapes the destination", name)
	}
	return target, nil
}
