package domain

import "time"

// CacheEntry describes a stored cache archive.
// Paths are kept unexpanded (e.g. "~/conda_pkgs_dir") so that an entry
// written by one host can be restored on another.
type CacheEntry struct {
	Key       string    `json:"key"`
	Paths     []string  `json:"paths"`
	Size      int64     `json:"size,omitzero"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}
