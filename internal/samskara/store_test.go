package samskara_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sriinnu/chitragupta/internal/layout"
	"github.com/sriinnu/chitragupta/internal/samskara"
)

func newTestStore(t *testing.T) *samskara.Store {
	t.Helper()
	home := layout.NewHome(t.TempDir())
	store, err := samskara.Open(context.Background(), home)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSamskaraUpsertAndByProject(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	sk := samskara.Samskara{
		ID: "sam-1", PatternType: samskara.PatternConvention, PatternContent: "run gofmt",
		ObservationCount: 3, Confidence: 0.5, Project: "projA", Tags: []string{"gofmt"},
		CreatedAt: now, LastReinforcedAt: now,
	}
	require.NoError(t, store.Upsert(ctx, sk))

	got, err := store.ByProject(ctx, "projA")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "sam-1", got[0].ID)
	assert.Equal(t, []string{"gofmt"}, got[0].Tags)
}

func TestSamskaraDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.Upsert(ctx, samskara.Samskara{ID: "sam-1", Project: "projA", CreatedAt: now, LastReinforcedAt: now}))
	require.NoError(t, store.Delete(ctx, "sam-1"))

	got, err := store.ByProject(ctx, "projA")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSamskaraAll(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.Upsert(ctx, samskara.Samskara{ID: "sam-1", Project: "projA", CreatedAt: now, LastReinforcedAt: now}))
	require.NoError(t, store.Upsert(ctx, samskara.Samskara{ID: "sam-2", Project: "projB", CreatedAt: now, LastReinforcedAt: now}))

	all, err := store.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
}
