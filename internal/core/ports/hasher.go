package ports

// Hasher defines the interface for hashing workspace content.
//
//go:generate mockgen -source=hasher.go -destination=mocks/mock_hasher.go -package=mocks
type Hasher interface {
	// HashFiles returns a digest of every file under root matching one of patterns.
	// It returns an empty string when nothing matches.
	HashFiles(root string, patterns []string) (string, error)
}

// SourceCopier defines the interface for checking out sources onto a host.
type SourceCopier interface {
	// CopyTree copies the tree rooted at src into dst, skipping runner state.
	// It returns the number of files copied.
	CopyTree(src, dst string) (int, error)
}
