package consolidation_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sriinnu/chitragupta/internal/config"
	"github.com/sriinnu/chitragupta/internal/consolidation"
	"github.com/sriinnu/chitragupta/internal/embedding"
	"github.com/sriinnu/chitragupta/internal/layout"
	"github.com/sriinnu/chitragupta/internal/samskara"
	"github.com/sriinnu/chitragupta/internal/session"
	"github.com/sriinnu/chitragupta/internal/vasana"
	"github.com/sriinnu/chitragupta/internal/vectorstore"
)

func newTestPipeline(t *testing.T) (*consolidation.Pipeline, *layout.Home) {
	t.Helper()
	ctx := context.Background()
	home := layout.NewHome(t.TempDir())

	sessions, err := session.Open(ctx, home)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sessions.Close() })

	summaries, err := consolidation.Open(ctx, home)
	require.NoError(t, err)
	t.Cleanup(func() { _ = summaries.Close() })

	vectors, err := vectorstore.Open(ctx, home)
	require.NoError(t, err)
	t.Cleanup(func() { _ = vectors.Close() })
	indexer := consolidation.NewIndexer(embedding.NewHashTrickProvider(16), vectors)

	samskaraStore, err := samskara.Open(ctx, home)
	require.NoError(t, err)
	t.Cleanup(func() { _ = samskaraStore.Close() })
	samskaraEngine := samskara.NewEngine(samskara.Config{MinObservations: 2, PruneThreshold: 0.1, LearningRate: 0.2, HalfLifeDays: 30})

	vasanaStore, err := vasana.Open(ctx, home)
	require.NoError(t, err)
	t.Cleanup(func() { _ = vasanaStore.Close() })
	vasanaEngine := vasana.NewEngine(config.DefaultVasanaConfig())

	pipeline := consolidation.NewPipeline(home, sessions, summaries, indexer, samskaraStore, samskaraEngine, vasanaStore, vasanaEngine)
	return pipeline, home
}

func seedSession(t *testing.T, sessions *session.Store, project, title string, turns []session.Turn) session.Session {
	t.Helper()
	sess, err := sessions.Create(context.Background(), session.CreateOptions{Project: project, Title: title})
	require.NoError(t, err)
	for _, turn := range turns {
		_, err := sessions.Append(context.Background(), sess.ID, turn)
		require.NoError(t, err)
	}
	sess, err = sessions.Load(context.Background(), sess.ID)
	require.NoError(t, err)
	return sess
}

func TestRunDayWritesMarkdownAndIndexesSummary(t *testing.T) {
	pipeline, home := newTestPipeline(t)
	ctx := context.Background()
	day := time.Now().UTC()

	seedSession(t, pipeline.Sessions, "proj-a", "morning chat", []session.Turn{
		{Role: session.RoleUser, Content: "remember that I live in Austin"},
		{Role: session.RoleAssistant, Content: "noted."},
	})

	sum, err := pipeline.RunDay(ctx, day, false)
	require.NoError(t, err)
	assert.Contains(t, sum.Markdown, "I live in Austin")

	path := home.DayFile(day)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, sum.Markdown, string(data))

	got, err := pipeline.Summaries.Get(ctx, consolidation.LevelDay, day.Format("2006-01-02"), "")
	require.NoError(t, err)
	assert.Equal(t, sum.Markdown, got.Markdown)
}

func TestRunDayIsIdempotentUnlessForced(t *testing.T) {
	pipeline, _ := newTestPipeline(t)
	ctx := context.Background()
	day := time.Now().UTC()

	seedSession(t, pipeline.Sessions, "proj-a", "session one", []session.Turn{
		{Role: session.RoleUser, Content: "remember that I live in Austin"},
	})
	first, err := pipeline.RunDay(ctx, day, false)
	require.NoError(t, err)

	seedSession(t, pipeline.Sessions, "proj-a", "session two", []session.Turn{
		{Role: session.RoleUser, Content: "remember that I have a dog"},
	})
	second, err := pipeline.RunDay(ctx, day, false)
	require.NoError(t, err)
	assert.Equal(t, first.Markdown, second.Markdown)

	forced, err := pipeline.RunDay(ctx, day, true)
	require.NoError(t, err)
	assert.Contains(t, forced.Markdown, "have a dog")
}

func TestRunMonthAggregatesPersistedDays(t *testing.T) {
	pipeline, home := newTestPipeline(t)
	ctx := context.Background()
	month := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	for d := 1; d <= 2; d++ {
		day := time.Date(2026, 7, d, 0, 0, 0, 0, time.UTC)
		require.NoError(t, pipeline.Summaries.Put(ctx, consolidation.Summary{
			Level: consolidation.LevelDay, PeriodKey: day.Format("2006-01-02"), GeneratedAt: day,
			Markdown: "day content", IndexedText: "day content",
		}))
	}

	sum, err := pipeline.RunMonth(ctx, month, "", false)
	require.NoError(t, err)
	assert.Equal(t, "2026-07", sum.PeriodKey)

	data, err := os.ReadFile(home.MonthFile(month))
	require.NoError(t, err)
	assert.Equal(t, sum.Markdown, string(data))
}

func TestRunYearAggregatesPersistedMonths(t *testing.T) {
	pipeline, home := newTestPipeline(t)
	ctx := context.Background()

	for m := 1; m <= 2; m++ {
		month := time.Date(2026, time.Month(m), 1, 0, 0, 0, 0, time.UTC)
		require.NoError(t, pipeline.Summaries.Put(ctx, consolidation.Summary{
			Level: consolidation.LevelMonth, PeriodKey: month.Format("2006-01"), GeneratedAt: month,
			Markdown: "month content", IndexedText: "month content",
		}))
	}

	sum, err := pipeline.RunYear(ctx, 2026, "", false)
	require.NoError(t, err)
	assert.Equal(t, "2026", sum.PeriodKey)

	data, err := os.ReadFile(home.YearFile(2026))
	require.NoError(t, err)
	assert.Equal(t, sum.Markdown, string(data))
}

func TestRunDayConsolidatesSamskaras(t *testing.T) {
	pipeline, _ := newTestPipeline(t)
	ctx := context.Background()
	day := time.Now().UTC()

	seedSession(t, pipeline.Sessions, "proj-a", "one", []session.Turn{
		{Role: session.RoleUser, Content: "always run gofmt before committing."},
	})
	seedSession(t, pipeline.Sessions, "proj-a", "two", []session.Turn{
		{Role: session.RoleUser, Content: "always run gofmt before committing!"},
	})

	_, err := pipeline.RunDay(ctx, day, false)
	require.NoError(t, err)

	rules, err := pipeline.Samskaras.ByProject(ctx, "proj-a")
	require.NoError(t, err)
	assert.Len(t, rules, 1)
}
