package fs

import (
	"io"
	"os"
	"path/filepath"

	"go.trai.ch/matrix/internal/core/domain"
	"go.trai.ch/matrix/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.SourceCopier = (*Copier)(nil)

// Copier copies source trees onto job hosts.
type Copier struct {
	walker *Walker
}

// NewCopier creates a new Copier.
func NewCopier(walker *Walker) *Copier {
	return &Copier{walker: walker}
}

// CopyTree copies every file under src into dst, recreating symlinks and
// keeping file modes. VCS metadata and runner state are not copied.
func (c *Copier) CopyTree(src, dst string) (int, error) {
	if err := os.MkdirAll(dst, domain.DirPerm); err != nil {
		return 0, zerr.With(zerr.Wrap(err, domain.ErrCheckoutFailed.Error()), "path", dst)
	}

	count := 0
	for path := range c.walker.WalkFiles(src, nil) {
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return count, zerr.With(zerr.Wrap(err, domain.ErrCheckoutFailed.Error()), "path", path)
		}
		target := filepath.Join(dst, rel)

		if err := copyEntry(path, target); err != nil {
			return count, zerr.With(zerr.Wrap(err, domain.ErrCheckoutFailed.Error()), "path", rel)
		}
		count++
	}
	return count, nil
}

func copyEntry(src, dst string) error {
	info, err := os.Lstat(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), domain.DirPerm); err != nil {
		return err
	}

	if info.Mode()&os.ModeSymlink != 0 {
		link, err := os.Readlink(src)
		if err != nil {
			return err
		}
		_ = os.Remove(dst)
		return os.Symlink(link, dst)
	}
	if !info.Mode().IsRegular() {
		return nil
	}

	in, err := os.Open(src) //nolint:gosec // Path comes from walking the source tree
	if err != nil {
		return err
	}
	defer in.Close() //nolint:errcheck // Read-only file

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm()) //nolint:gosec // Destination is inside the host workspace
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
