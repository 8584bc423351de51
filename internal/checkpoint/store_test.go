package checkpoint_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sriinnu/chitragupta/internal/checkpoint"
	"github.com/sriinnu/chitragupta/internal/errkind"
	"github.com/sriinnu/chitragupta/internal/layout"
)

func newTestStore(t *testing.T, max int) (*checkpoint.Store, *layout.Home) {
	home := layout.NewHome(t.TempDir())
	require.NoError(t, home.EnsureDirs())
	return checkpoint.NewStore(home, max), home
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	store, _ := newTestStore(t, 5)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "sess-1", []byte(`{"turn":3}`)))

	cp, err := store.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", cp.SessionID)
	assert.Equal(t, []byte(`{"turn":3}`), cp.Data)
	assert.False(t, cp.CreatedAt.IsZero())
}

func TestLoadMissingSessionReturnsNotFound(t *testing.T) {
	store, _ := newTestStore(t, 5)
	_, err := store.Load(context.Background(), "never-saved")
	assert.ErrorIs(t, err, errkind.ErrNotFound)
}

func TestLoadReturnsMostRecentCheckpoint(t *testing.T) {
	store, _ := newTestStore(t, 5)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "sess-1", []byte("v1")))
	require.NoError(t, store.Save(ctx, "sess-1", []byte("v2")))
	require.NoError(t, store.Save(ctx, "sess-1", []byte("v3")))

	cp, err := store.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("v3"), cp.Data)
}

func TestSavePrunesOldestBeyondMaxCheckpoints(t *testing.T) {
	store, home := newTestStore(t, 2)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "sess-1", []byte("v1")))
	require.NoError(t, store.Save(ctx, "sess-1", []byte("v2")))
	require.NoError(t, store.Save(ctx, "sess-1", []byte("v3")))

	entries, err := os.ReadDir(home.CheckpointDir("sess-1"))
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	cp, err := store.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("v3"), cp.Data)
}

func TestLoadFallsBackPastCorruptedNewest(t *testing.T) {
	store, home := newTestStore(t, 5)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "sess-1", []byte("good")))

	dir := home.CheckpointDir("sess-1")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	require.NoError(t, store.Save(ctx, "sess-1", []byte("also-good")))

	entries, err = os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	newest := filepath.Join(dir, entries[len(entries)-1].Name())
	require.NoError(t, os.WriteFile(newest, []byte("{not valid json"), 0o644))

	cp, err := store.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("good"), cp.Data)
}

func TestLoadReturnsNotFoundWhenAllCorrupted(t *testing.T) {
	store, home := newTestStore(t, 5)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "sess-1", []byte("good")))
	dir := home.CheckpointDir("sess-1")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	path := filepath.Join(dir, entries[0].Name())
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))

	_, err = store.Load(ctx, "sess-1")
	assert.ErrorIs(t, err, errkind.ErrNotFound)
}

func TestDeleteRemovesAllCheckpoints(t *testing.T) {
	store, home := newTestStore(t, 5)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "sess-1", []byte("v1")))
	require.NoError(t, store.Delete(ctx, "sess-1"))

	_, err := os.Stat(home.CheckpointDir("sess-1"))
	assert.True(t, os.IsNotExist(err))

	_, err = store.Load(ctx, "sess-1")
	assert.ErrorIs(t, err, errkind.ErrNotFound)
}

func TestDistinctSessionsAreIndependent(t *testing.T) {
	store, _ := newTestStore(t, 5)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "sess-a", []byte("a-data")))
	require.NoError(t, store.Save(ctx, "sess-b", []byte("b-data")))

	a, err := store.Load(ctx, "sess-a")
	require.NoError(t, err)
	b, err := store.Load(ctx, "sess-b")
	require.NoError(t, err)

	assert.Equal(t, []byte("a-data"), a.Data)
	assert.Equal(t, []byte("b-data"), b.Data)
}
