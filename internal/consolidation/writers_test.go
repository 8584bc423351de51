package consolidation_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sriinnu/chitragupta/internal/consolidation"
	"github.com/sriinnu/chitragupta/internal/session"
)

func TestWriteDayMergesFactsAndSections(t *testing.T) {
	day := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
	sessA := session.Session{Title: "morning chat", Project: "proj-a", Agent: "claude"}
	sessB := session.Session{Title: "afternoon coding", Project: "proj-a", Agent: "claude"}
	chainA := consolidation.Chain{Events: []consolidation.Event{
		{Kind: consolidation.EventFact, Summary: "lives in Austin", At: day},
	}}
	chainB := consolidation.Chain{Events: []consolidation.Event{
		{Kind: consolidation.EventFact, Summary: "lives in Austin", At: day},
		{Kind: consolidation.EventFileChange, Summary: "internal/foo.go", At: day},
		{Kind: consolidation.EventToolResult, Summary: "edit_file", At: day},
	}}

	sum := consolidation.WriteDay(consolidation.DayInput{
		Day:      day,
		Sessions: []session.Session{sessA, sessB},
		Chains:   []consolidation.Chain{chainA, chainB},
	})

	assert.Equal(t, consolidation.LevelDay, sum.Level)
	assert.Equal(t, "2026-07-30", sum.PeriodKey)
	assert.Contains(t, sum.Markdown, "lives in Austin")
	assert.Contains(t, sum.Markdown, "Project: proj-a")
	assert.Contains(t, sum.Markdown, "internal/foo.go")
	assert.Contains(t, sum.Markdown, "edit_file")
	assert.Equal(t, 1, countOccurrences(sum.Markdown, "lives in Austin"))
	assert.NotEmpty(t, sum.IndexedText)
	assert.LessOrEqual(t, len(sum.IndexedText), 2000)
}

func TestWriteDayHandlesNoSessions(t *testing.T) {
	day := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
	sum := consolidation.WriteDay(consolidation.DayInput{Day: day})
	assert.Contains(t, sum.Markdown, "Sessions: 0")
	assert.Contains(t, sum.Markdown, "None.")
}

func TestWriteMonthAggregatesDays(t *testing.T) {
	month := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	sum := consolidation.WriteMonth(consolidation.MonthInput{
		Month:            month,
		Project:          "proj-a",
		DaySummaries:     []consolidation.Summary{{Level: consolidation.LevelDay, PeriodKey: "2026-07-01"}},
		VasanasThisMonth: []string{"prefers concise commits"},
		ToolUseCount:     12,
		TotalCost:        3.5,
	})
	assert.Equal(t, "2026-07", sum.PeriodKey)
	assert.Contains(t, sum.Markdown, "prefers concise commits")
	assert.Contains(t, sum.Markdown, "Tool calls: 12")
	assert.Contains(t, sum.Markdown, "$3.50")
}

func TestWriteYearAggregatesMonths(t *testing.T) {
	sum := consolidation.WriteYear(consolidation.YearInput{
		Year:           2026,
		Project:        "proj-a",
		MonthSummaries: []consolidation.Summary{{Level: consolidation.LevelMonth, PeriodKey: "2026-07"}},
		Trends:         []string{"increasingly concise commits"},
		TopVasanas:     []string{"prefers concise commits"},
	})
	assert.Equal(t, "2026", sum.PeriodKey)
	assert.Contains(t, sum.Markdown, "increasingly concise commits")
	assert.Contains(t, sum.Markdown, "prefers concise commits")
}

func countOccurrences(haystack, needle string) int {
	count := 0
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			count++
		}
	}
	return count
}
