package vectorstore_test

import (
	"context"
	"testing"

	"github.com/sriinnu/chitragupta/internal/layout"
	"github.com/sriinnu/chitragupta/internal/vectorstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *vectorstore.Store {
	t.Helper()
	home := layout.NewHome(t.TempDir())
	store, err := vectorstore.Open(context.Background(), home)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestUpsertAndQueryRanksByCosineSimilarity(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "a", vectorstore.KindTurn, "sess-1", "close match", []float32{1, 0, 0}))
	require.NoError(t, store.Upsert(ctx, "b", vectorstore.KindTurn, "sess-1", "orthogonal", []float32{0, 1, 0}))
	require.NoError(t, store.Upsert(ctx, "c", vectorstore.KindTurn, "sess-2", "opposite", []float32{-1, 0, 0}))

	matches, err := store.Query(ctx, []float32{1, 0, 0}, vectorstore.KindTurn, 10)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Equal(t, "a", matches[0].ID)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-6)
}

func TestQueryFiltersByKind(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "turn-1", vectorstore.KindTurn, "sess-1", "turn text", []float32{1, 0}))
	require.NoError(t, store.Upsert(ctx, "sum-1", vectorstore.KindDailySummary, "2026-03-01", "summary text", []float32{1, 0}))

	matches, err := store.Query(ctx, []float32{1, 0}, vectorstore.KindDailySummary, 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "sum-1", matches[0].ID)
}

func TestDeleteRemovesEmbedding(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "x", vectorstore.KindTurn, "sess-1", "text", []float32{1, 1}))
	require.NoError(t, store.Delete(ctx, "x"))

	matches, err := store.Query(ctx, []float32{1, 1}, "", 10)
	require.NoError(t, err)
	assert.Empty(t, matches)
}
