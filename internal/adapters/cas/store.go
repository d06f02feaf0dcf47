// Package cas implements the keyed cache store shared by all jobs.
package cas

import (
	"archive/tar"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"go.trai.ch/matrix/internal/core/domain"
	"go.trai.ch/matrix/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.CacheStore = (*Store)(nil)

const (
	archiveExt  = ".tar.zst"
	metadataExt = ".json"
)

// Store implements ports.CacheStore with one zstd-compressed tar archive per
// key under the workflow's cache directory.
type Store struct {
	now func() time.Time
}

// NewStore creates a new Store.
func NewStore() *Store {
	return &Store{now: time.Now}
}

// Restore extracts the archive stored under key onto host.
func (s *Store) Restore(ctx context.Context, root, key string, host *domain.Host) (*domain.CacheEntry, error) {
	base := s.basename(root, key)

	//nolint:gosec // Path is constructed from the cache directory and a hashed key
	data, err := os.ReadFile(base + metadataExt)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrCacheMiss
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrCacheReadFailed.Error()), "key", key)
	}

	var entry domain.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrCacheUnmarshalFailed.Error()), "key", key)
	}
	if entry.Key != key {
		return nil, domain.ErrCacheMiss
	}

	f, err := os.Open(base + archiveExt) //nolint:gosec // See above
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrCacheMiss
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrCacheReadFailed.Error()), "key", key)
	}
	defer f.Close() //nolint:errcheck // Read-only file

	if err := extract(ctx, f, host.Root); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrCacheReadFailed.Error()), "key", key)
	}
	return &entry, nil
}

// Save archives paths from host under key. The archive is written to a
// temporary file and renamed into place, so the last writer wins.
func (s *Store) Save(ctx context.Context, root, key string, paths []string, host *domain.Host) (*domain.CacheEntry, error) {
	resolved := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := host.ResolvePath(p)
		if err != nil {
			return nil, err
		}
		if _, err := os.Lstat(abs); err != nil {
			continue
		}
		resolved = append(resolved, abs)
	}
	if len(resolved) == 0 {
		return nil, zerr.With(zerr.With(domain.ErrCacheWriteFailed, "reason", "none of the cache paths exist"), "key", key)
	}

	dir := domain.DefaultCachePath(root)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return nil, zerr.Wrap(err, domain.ErrCacheCreateFailed.Error())
	}

	base := s.basename(root, key)
	size, err := writeAtomic(dir, base+archiveExt, func(w io.Writer) error {
		return archive(ctx, w, host.Root, resolved)
	})
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrCacheWriteFailed.Error()), "key", key)
	}

	entry := &domain.CacheEntry{
		Key:       key,
		Paths:     paths,
		Size:      size,
		CreatedAt: s.now().UTC(),
	}
	meta, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrCacheWriteFailed.Error()), "key", key)
	}
	if _, err := writeAtomic(dir, base+metadataExt, func(w io.Writer) error {
		_, err := w.Write(meta)
		return err
	}); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrCacheWriteFailed.Error()), "key", key)
	}

	return entry, nil
}

func (s *Store) basename(root, key string) string {
	hash := sha256.Sum256([]byte(key))
	return filepath.Join(domain.DefaultCachePath(root), hex.EncodeToString(hash[:]))
}

// writeAtomic writes a file through fill into a temporary file in dir and
// renames it to path. It returns the number of bytes written.
func writeAtomic(dir, path string, fill func(io.Writer) error) (int64, error) {
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return 0, err
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // Already renamed on success

	if err := fill(tmp); err != nil {
		_ = tmp.Close()
		return 0, err
	}
	info, err := tmp.Stat()
	if err != nil {
		_ = tmp.Close()
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		return 0, err
	}
	if err := os.Chmod(tmp.Name(), domain.FilePerm); err != nil {
		return 0, err
	}
	return info.Size(), os.Rename(tmp.Name(), path)
}

// archive writes the trees under paths as a zstd-compressed tar stream.
// Entry names are relative to hostRoot.
func archive(ctx context.Context, w io.Writer, hostRoot string, paths []string) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return err
	}
	tw := tar.NewWriter(zw)

	for _, p := range paths {
		err := filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return addEntry(tw, hostRoot, path, d)
		})
		if err != nil {
			_ = tw.Close()
			_ = zw.Close()
			return err
		}
	}

	if err := tw.Close(); err != nil {
		_ = zw.Close()
		return err
	}
	return zw.Close()
}

func addEntry(tw *tar.Writer, hostRoot, path string, d fs.DirEntry) error {
	info, err := d.Info()
	if err != nil {
		return err
	}

	var link string
	if info.Mode()&os.ModeSymlink != 0 {
		if link, err = os.Readlink(path); err != nil {
			return err
		}
	}

	hdr, err := tar.FileInfoHeader(info, link)
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(hostRoot, path)
	if err != nil {
		return err
	}
	hdr.Name = filepath.ToSlash(rel)
	if info.IsDir() {
		hdr.Name += "/"
	}

	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return nil
	}

	f, err := os.Open(path) //nolint:gosec // Path comes from walking a cache path on the host
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck // Read-only file

	_, err = io.Copy(tw, f)
	return err
}

// extract unpacks a zstd-compressed tar stream under hostRoot.
func extract(ctx context.Context, r io.Reader, hostRoot string) error {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return err
	}
	defer zr.Close()

	tr := tar.NewReader(zr)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		target := filepath.Join(hostRoot, filepath.FromSlash(hdr.Name))
		if target != hostRoot && !strings.HasPrefix(target, hostRoot+string(filepath.Separator)) {
			return zerr.With(domain.ErrPathOutsideHost, "path", hdr.Name)
		}

		if err := extractEntry(tr, hdr, target); err != nil {
			return err
		}
	}
}

func extractEntry(tr *tar.Reader, hdr *tar.Header, target string) error {
	mode := hdr.FileInfo().Mode()

	switch hdr.Typeflag {
	case tar.TypeDir:
		return os.MkdirAll(target, mode.Perm()|0o700)
	case tar.TypeSymlink:
		if err := os.MkdirAll(filepath.Dir(target), domain.DirPerm); err != nil {
			return err
		}
		_ = os.Remove(target)
		return os.Symlink(hdr.Linkname, target)
	case tar.TypeReg:
		if err := os.MkdirAll(filepath.Dir(target), domain.DirPerm); err != nil {
			return err
		}
		//nolint:gosec // Target is checked to be inside the host root
		f, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode.Perm())
		if err != nil {
			return err
		}
		//nolint:gosec // Archive was produced by Save from host files
		if _, err := io.Copy(f, tr); err != nil {
			_ = f.Close()
			return err
		}
		return f.Close()
	default:
		return nil
	}
}
