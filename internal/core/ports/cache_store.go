package ports

import (
	"context"

	"go.trai.ch/matrix/internal/core/domain"
)

// CacheStore defines the interface for the keyed cache shared by all jobs.
//
//go:generate mockgen -source=cache_store.go -destination=mocks/mock_cache_store.go -package=mocks
type CacheStore interface {
	// Restore extracts the entry stored under exactly key in the cache of the
	// workflow rooted at root onto host.
	// It returns domain.ErrCacheMiss if no such entry exists.
	Restore(ctx context.Context, root, key string, host *domain.Host) (*domain.CacheEntry, error)

	// Save archives paths from host under key, replacing any previous entry.
	// Paths starting with "~" are relative to the host home, other relative
	// paths to the host workspace.
	Save(ctx context.Context, root, key string, paths []string, host *domain.Host) (*domain.CacheEntry, error)
}
