package cas_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/matrix/internal/adapters/cas"
	"go.trai.ch/matrix/internal/core/domain"
)

func newHost(t *testing.T) *domain.Host {
	t.Helper()

	root := t.TempDir()
	h := &domain.Host{
		ID:        "test",
		Root:      root,
		Workspace: filepath.Join(root, "workspace"),
		Home:      filepath.Join(root, "home"),
		Temp:      filepath.Join(root, "temp"),
	}
	for _, dir := range []string{h.Workspace, h.Home, h.Temp} {
		require.NoError(t, os.MkdirAll(dir, domain.DirPerm))
	}
	return h
}

func TestStore_SaveRestore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	root := t.TempDir()
	store := cas.NewStore()
	key := "Linux-conda-3.9-0-abc123"

	src := newHost(t)
	pkgs := filepath.Join(src.Home, "conda_pkgs_dir")
	require.NoError(t, os.MkdirAll(filepath.Join(pkgs, "numpy"), domain.DirPerm))
	require.NoError(t, os.WriteFile(filepath.Join(pkgs, "numpy", "info.json"), []byte(`{"v":1}`), domain.FilePerm))
	require.NoError(t, os.Symlink("numpy", filepath.Join(pkgs, "latest")))

	saved, err := store.Save(ctx, root, key, []string{"~/conda_pkgs_dir", "~/missing"}, src)
	require.NoError(t, err)
	assert.Equal(t, key, saved.Key)
	assert.Positive(t, saved.Size)

	t.Run("hit restores onto a fresh host", func(t *testing.T) {
		t.Parallel()

		dst := newHost(t)
		entry, err := store.Restore(ctx, root, key, dst)
		require.NoError(t, err)
		assert.Equal(t, key, entry.Key)
		assert.Equal(t, []string{"~/conda_pkgs_dir", "~/missing"}, entry.Paths)

		data, err := os.ReadFile(filepath.Join(dst.Home, "conda_pkgs_dir", "numpy", "info.json"))
		require.NoError(t, err)
		assert.JSONEq(t, `{"v":1}`, string(data))

		link, err := os.Readlink(filepath.Join(dst.Home, "conda_pkgs_dir", "latest"))
		require.NoError(t, err)
		assert.Equal(t, "numpy", link)
	})

	t.Run("different key misses", func(t *testing.T) {
		t.Parallel()

		_, err := store.Restore(ctx, root, "Linux-conda-3.9-1-abc123", newHost(t))
		require.ErrorIs(t, err, domain.ErrCacheMiss)
	})
}

func TestStore_RestoreCorruptMetadata(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	root := t.TempDir()
	store := cas.NewStore()
	host := newHost(t)
	require.NoError(t, os.WriteFile(filepath.Join(host.Workspace, "a.txt"), []byte("a"), domain.FilePerm))

	_, err := store.Save(ctx, root, "k", []string{"a.txt"}, host)
	require.NoError(t, err)

	entries, err := os.ReadDir(domain.DefaultCachePath(root))
	require.NoError(t, err)
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".json" {
			path := filepath.Join(domain.DefaultCachePath(root), e.Name())
			require.NoError(t, os.WriteFile(path, []byte("{invalid"), domain.FilePerm))
		}
	}

	_, err = store.Restore(ctx, root, "k", newHost(t))
	require.ErrorContains(t, err, domain.ErrCacheUnmarshalFailed.Error())
}

func TestStore_SaveErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := cas.NewStore()

	t.Run("path outside host", func(t *testing.T) {
		t.Parallel()

		_, err := store.Save(ctx, t.TempDir(), "k", []string{"../../etc"}, newHost(t))
		require.ErrorContains(t, err, domain.ErrPathOutsideHost.Error())
	})

	t.Run("no existing path", func(t *testing.T) {
		t.Parallel()

		_, err := store.Save(ctx, t.TempDir(), "k", []string{"nothing-here"}, newHost(t))
		require.ErrorContains(t, err, domain.ErrCacheWriteFailed.Error())
	})
}
