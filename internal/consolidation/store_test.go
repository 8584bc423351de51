package consolidation_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sriinnu/chitragupta/internal/consolidation"
	"github.com/sriinnu/chitragupta/internal/errkind"
	"github.com/sriinnu/chitragupta/internal/layout"
)

func newTestStore(t *testing.T) *consolidation.Store {
	t.Helper()
	home := layout.NewHome(t.TempDir())
	store, err := consolidation.Open(context.Background(), home)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStorePutAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sum := consolidation.Summary{Level: consolidation.LevelDay, PeriodKey: "2026-07-30", Project: "proj-a", Markdown: "# day", IndexedText: "day", GeneratedAt: time.Now().UTC()}
	require.NoError(t, store.Put(ctx, sum))

	got, err := store.Get(ctx, consolidation.LevelDay, "2026-07-30", "proj-a")
	require.NoError(t, err)
	assert.Equal(t, sum.Markdown, got.Markdown)
}

func TestStoreGetMissingReturnsNotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Get(context.Background(), consolidation.LevelDay, "2026-07-30", "")
	assert.ErrorIs(t, err, errkind.ErrNotFound)
}

func TestStorePutReplacesExisting(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sum := consolidation.Summary{Level: consolidation.LevelDay, PeriodKey: "2026-07-30", Markdown: "v1", GeneratedAt: time.Now().UTC()}
	require.NoError(t, store.Put(ctx, sum))
	sum.Markdown = "v2"
	require.NoError(t, store.Put(ctx, sum))

	got, err := store.Get(ctx, consolidation.LevelDay, "2026-07-30", "")
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Markdown)
}

func TestStoreByPeriodPrefixOrdersAscending(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, day := range []string{"2026-07-02", "2026-07-01", "2026-07-03"} {
		require.NoError(t, store.Put(ctx, consolidation.Summary{Level: consolidation.LevelDay, PeriodKey: day, Project: "proj-a", GeneratedAt: time.Now().UTC()}))
	}
	require.NoError(t, store.Put(ctx, consolidation.Summary{Level: consolidation.LevelDay, PeriodKey: "2026-08-01", Project: "proj-a", GeneratedAt: time.Now().UTC()}))

	days, err := store.ByPeriodPrefix(ctx, consolidation.LevelDay, "2026-07", "proj-a")
	require.NoError(t, err)
	require.Len(t, days, 3)
	assert.Equal(t, "2026-07-01", days[0].PeriodKey)
	assert.Equal(t, "2026-07-02", days[1].PeriodKey)
	assert.Equal(t, "2026-07-03", days[2].PeriodKey)
}
