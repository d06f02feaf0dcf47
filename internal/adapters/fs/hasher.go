package fs

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cespare/xxhash/v2"
	"go.trai.ch/matrix/internal/core/domain"
	"go.trai.ch/matrix/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Hasher = (*Hasher)(nil)

// Hasher computes content digests of workspace files.
type Hasher struct {
	walker *Walker
}

// NewHasher creates a new Hasher.
func NewHasher(walker *Walker) *Hasher {
	return &Hasher{walker: walker}
}

// ComputeFileHash computes the XXHash of a file's content.
func (h *Hasher) ComputeFileHash(path string) (uint64, error) {
	f, err := os.Open(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, domain.ErrFileOpenFailed.Error()), "path", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	digest := xxhash.New()
	if _, err := io.Copy(digest, f); err != nil {
		return 0, zerr.With(zerr.Wrap(err, domain.ErrFileHashFailed.Error()), "path", path)
	}
	return digest.Sum64(), nil
}

// HashFiles returns one digest over every file under root matching at least
// one pattern. Patterns use doublestar syntax relative to root; a leading "!"
// excludes matches. Files are hashed in sorted path order and the result is
// empty when nothing matches.
func (h *Hasher) HashFiles(root string, patterns []string) (string, error) {
	include, exclude := splitPatterns(patterns)

	var matches []string
	for path := range h.walker.WalkFiles(root, nil) {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			continue
		}
		rel = filepath.ToSlash(rel)
		if matchAny(include, rel) && !matchAny(exclude, rel) {
			matches = append(matches, rel)
		}
	}
	if len(matches) == 0 {
		return "", nil
	}
	slices.Sort(matches)

	digest := xxhash.New()
	for _, rel := range matches {
		sum, err := h.ComputeFileHash(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			return "", err
		}
		_, _ = digest.WriteString(rel)
		_, _ = digest.Write([]byte{0})
		if err := binary.Write(digest, binary.LittleEndian, sum); err != nil {
			return "", zerr.Wrap(err, domain.ErrWriteHashFailed.Error())
		}
	}

	return fmt.Sprintf("%016x", digest.Sum64()), nil
}

func splitPatterns(patterns []string) (include, exclude []string) {
	for _, p := range patterns {
		p = strings.TrimPrefix(filepath.ToSlash(strings.TrimSpace(p)), "./")
		if p == "" {
			continue
		}
		if rest, ok := strings.CutPrefix(p, "!"); ok {
			exclude = append(exclude, rest)
			continue
		}
		include = append(include, p)
	}
	return include, exclude
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}
