package consolidation

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sriinnu/chitragupta/internal/session"
)

// DayInput is everything WriteDay needs for one calendar day: every session
// whose updated-day equals that day, already extracted into chains.
type DayInput struct {
	Day      time.Time
	Sessions []session.Session
	Chains   []Chain // parallel to Sessions
}

// WriteDay merges facts across sessions into one markdown document: a
// header with counts, a "Facts Learned" section, one "Project: <path>"
// section per project with agent/branch and per-session summaries, a
// tool-use timeline, a files-modified list, and a footer.
func WriteDay(in DayInput) Summary {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", in.Day.Format("2006-01-02"))
	fmt.Fprintf(&b, "- Sessions: %d\n", len(in.Sessions))

	byProject := make(map[string][]int) // project -> indices into in.Sessions/in.Chains
	var facts []string
	var toolTimeline []string
	var filesModified []string
	seenFact := make(map[string]bool)
	seenFile := make(map[string]bool)

	for i, sess := range in.Sessions {
		byProject[sess.Project] = append(byProject[sess.Project], i)
		if i < len(in.Chains) {
			for _, e := range in.Chains[i].Events {
				switch e.Kind {
				case EventFact:
					key := normalizeForDedup(e.Summary)
					if !seenFact[key] {
						seenFact[key] = true
						facts = append(facts, e.Summary)
					}
				case EventToolResult:
					toolTimeline = append(toolTimeline, fmt.Sprintf("%s: %s", e.At.Format("15:04"), e.Summary))
				case EventFileChange:
					if !seenFile[e.Summary] {
						seenFile[e.Summary] = true
						filesModified = append(filesModified, e.Summary)
					}
				}
			}
		}
	}
	fmt.Fprintf(&b, "- Facts learned: %d\n\n", len(facts))

	b.WriteString("## Facts Learned\n\n")
	if len(facts) == 0 {
		b.WriteString("None.\n\n")
	} else {
		for _, f := range facts {
			fmt.Fprintf(&b, "- %s\n", f)
		}
		b.WriteString("\n")
	}

	projects := make([]string, 0, len(byProject))
	for p := range byProject {
		projects = append(projects, p)
	}
	sort.Strings(projects)

	for _, p := range projects {
		label := p
		if label == "" {
			label = "(none)"
		}
		fmt.Fprintf(&b, "## Project: %s\n\n", label)
		for _, idx := range byProject[p] {
			sess := in.Sessions[idx]
			fmt.Fprintf(&b, "- %s (agent: %s, branch: %s): %d turns\n", sess.Title, nonEmpty(sess.Agent, "unknown"), nonEmpty(sess.BranchName, "main"), len(sess.Turns))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Tool Use Timeline\n\n")
	if len(toolTimeline) == 0 {
		b.WriteString("None.\n\n")
	} else {
		for _, line := range toolTimeline {
			fmt.Fprintf(&b, "- %s\n", line)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Files Modified\n\n")
	if len(filesModified) == 0 {
		b.WriteString("None.\n\n")
	} else {
		sort.Strings(filesModified)
		for _, f := range filesModified {
			fmt.Fprintf(&b, "- %s\n", f)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "---\nGenerated %s\n", time.Now().UTC().Format(time.RFC3339))

	md := b.String()
	return Summary{
		Level:       LevelDay,
		PeriodKey:   in.Day.Format("2006-01-02"),
		Markdown:    md,
		IndexedText: excerptFor(md, facts, nil),
	}
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// MonthInput aggregates a project's day summaries for one month, plus the
// vasanas crystallised and samskaras active during the period.
type MonthInput struct {
	Month            time.Time
	Project          string
	DaySummaries     []Summary
	VasanasThisMonth []string
	TopSamskaras     []string
	ToolUseCount     int
	TotalCost        float64
	Recommendations  []string
}

// WriteMonth aggregates 1..N days of the month for a project: vasanas
// crystallised in the period, top samskaras, tool stats, cost totals, and
// recommendations.
func WriteMonth(in MonthInput) Summary {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s — %s\n\n", in.Month.Format("2006-01"), nonEmpty(in.Project, "(all projects)"))
	fmt.Fprintf(&b, "- Days summarised: %d\n", len(in.DaySummaries))
	fmt.Fprintf(&b, "- Tool calls: %d\n", in.ToolUseCount)
	fmt.Fprintf(&b, "- Total cost: $%.2f\n\n", in.TotalCost)

	b.WriteString("## Vasanas Crystallised\n\n")
	writeBulletsOrNone(&b, in.VasanasThisMonth)

	b.WriteString("## Top Samskaras\n\n")
	writeBulletsOrNone(&b, in.TopSamskaras)

	b.WriteString("## Recommendations\n\n")
	writeBulletsOrNone(&b, in.Recommendations)

	fmt.Fprintf(&b, "---\nGenerated %s\n", time.Now().UTC().Format(time.RFC3339))

	md := b.String()
	return Summary{
		Level:       LevelMonth,
		PeriodKey:   in.Month.Format("2006-01"),
		Project:     in.Project,
		Markdown:    md,
		IndexedText: excerptFor(md, in.VasanasThisMonth, in.Recommendations),
	}
}

// YearInput aggregates twelve months of a project's summaries.
type YearInput struct {
	Year          int
	Project       string
	MonthSummaries []Summary
	Trends        []string
	TopVasanas    []string
}

// WriteYear aggregates twelve months: produces trends and top-vasanas.
func WriteYear(in YearInput) Summary {
	var b strings.Builder
	fmt.Fprintf(&b, "# %d — %s\n\n", in.Year, nonEmpty(in.Project, "(all projects)"))
	fmt.Fprintf(&b, "- Months summarised: %d\n\n", len(in.MonthSummaries))

	b.WriteString("## Trends\n\n")
	writeBulletsOrNone(&b, in.Trends)

	b.WriteString("## Top Vasanas\n\n")
	writeBulletsOrNone(&b, in.TopVasanas)

	fmt.Fprintf(&b, "---\nGenerated %s\n", time.Now().UTC().Format(time.RFC3339))

	md := b.String()
	return Summary{
		Level:       LevelYear,
		PeriodKey:   fmt.Sprintf("%04d", in.Year),
		Project:     in.Project,
		Markdown:    md,
		IndexedText: excerptFor(md, in.TopVasanas, in.Trends),
	}
}

func writeBulletsOrNone(b *strings.Builder, items []string) {
	if len(items) == 0 {
		b.WriteString("None.\n\n")
		return
	}
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}

const excerptCap = 2000

// excerptFor builds the high-signal text excerpt (header + facts/decisions
// + top lines, capped at 2000 chars) fed to the vector store.
func excerptFor(markdown string, primary, secondary []string) string {
	var b strings.Builder
	lines := strings.SplitN(markdown, "\n", 3)
	if len(lines) > 0 {
		b.WriteString(lines[0])
		b.WriteByte('\n')
	}
	for _, p := range primary {
		b.WriteString(p)
		b.WriteByte('\n')
	}
	for _, s := range secondary {
		b.WriteString(s)
		b.WriteByte('\n')
	}
	text := b.String()
	if len(text) > excerptCap {
		text = text[:excerptCap]
	}
	return text
}
