package actions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.trai.ch/matrix/internal/core/domain"
	"go.trai.ch/matrix/internal/core/ports"
	"go.trai.ch/zerr"
)

// Cache restores paths stored under an exact key and saves them after the
// job when the key missed.
//
// Inputs: path (newline separated), key, save-always.
// Outputs: cache-hit.
type Cache struct {
	store ports.CacheStore
}

// Run implements Action.
func (c *Cache) Run(ctx context.Context, inv *Invocation) (*Result, error) {
	key, err := inv.required("key")
	if err != nil {
		return nil, err
	}
	rawPaths, err := inv.required("path")
	if err != nil {
		return nil, err
	}
	paths := splitPaths(rawPaths)
	saveAlways, _ := strconv.ParseBool(inv.Input("save-always", "false"))

	miss := false
	res := &Result{
		Outputs:  map[string]string{"cache-hit": "false"},
		CacheHit: &miss,
	}

	if inv.NoCache {
		_, _ = fmt.Fprintln(inv.Out, "Cache disabled, skipping restore and save")
		return res, nil
	}

	_, err = c.store.Restore(ctx, inv.Root, key, inv.Host)
	switch {
	case err == nil:
		hit := true
		res.CacheHit = &hit
		res.Outputs["cache-hit"] = "true"
		_, _ = fmt.Fprintf(inv.Out, "Cache restored from key: %s\n", key)
		return res, nil
	case errors.Is(err, domain.ErrCacheMiss):
		_, _ = fmt.Fprintf(inv.Out, "Cache not found for input key: %s\n", key)
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		_, _ = fmt.Fprintf(inv.Out, "Warning: cache restore failed, continuing without cache: %v\n", err)
	}

	res.Post = func(ctx context.Context, succeeded bool, out io.Writer) error {
		if !succeeded && !saveAlways {
			_, _ = fmt.Fprintln(out, "Job failed, not saving cache")
			return nil
		}
		entry, err := c.store.Save(ctx, inv.Root, key, paths, inv.Host)
		if err != nil {
			return zerr.With(err, "key", key)
		}
		_, _ = fmt.Fprintf(out, "Cache saved with key: %s (%d bytes)\n", key, entry.Size)
		return nil
	}
	return res, nil
}

func splitPaths(s string) []string {
	var paths []string
	for line := range strings.Lines(s) {
		if p := strings.TrimSpace(line); p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}
