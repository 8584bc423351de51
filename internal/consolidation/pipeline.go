package consolidation

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sriinnu/chitragupta/internal/layout"
	"github.com/sriinnu/chitragupta/internal/samskara"
	"github.com/sriinnu/chitragupta/internal/session"
	"github.com/sriinnu/chitragupta/internal/vasana"
)

// Pipeline is the full consolidation cycle Nidra's DreamHandler invokes
// while DREAMING: extract event chains from every session touched since the
// last run, write and index the day summary, roll up into month and year
// summaries on period boundaries, and feed the samskara and vasana engines.
type Pipeline struct {
	Home           *layout.Home
	Sessions       *session.Store
	Summaries      *Store
	Indexer        *Indexer
	Samskaras      *samskara.Store
	SamskaraEngine *samskara.Engine
	Vasanas        *vasana.Store
	VasanaEngine   *vasana.Engine
}

// NewPipeline wires every collaborator the consolidation cycle needs. Indexer
// may be nil if no embedding provider is configured; every other
// collaborator is required.
func NewPipeline(home *layout.Home, sessions *session.Store, summaries *Store, indexer *Indexer, samskaras *samskara.Store, samskaraEngine *samskara.Engine, vasanas *vasana.Store, vasanaEngine *vasana.Engine) *Pipeline {
	return &Pipeline{
		Home:           home,
		Sessions:       sessions,
		Summaries:      summaries,
		Indexer:        indexer,
		Samskaras:      samskaras,
		SamskaraEngine: samskaraEngine,
		Vasanas:        vasanas,
		VasanaEngine:   vasanaEngine,
	}
}

// RunDay runs the day-level consolidation for the calendar day containing
// day, across every project. It is idempotent unless force is true: a day
// already present in the summary store is skipped otherwise.
func (p *Pipeline) RunDay(ctx context.Context, day time.Time, force bool) (Summary, error) {
	dayKey := day.Format("2006-01-02")
	if !force {
		if existing, err := p.Summaries.Get(ctx, LevelDay, dayKey, ""); err == nil {
			return existing, nil
		}
	}

	metas, err := p.Sessions.List(ctx, "")
	if err != nil {
		return Summary{}, err
	}

	var sessions []session.Session
	var chains []Chain
	projectsTouched := make(map[string]bool)

	for _, meta := range metas {
		if !sameDay(meta.UpdatedAt, day) {
			continue
		}
		sess, err := p.Sessions.Load(ctx, meta.ID)
		if err != nil {
			continue
		}
		chain := Extract(sess)
		sessions = append(sessions, sess)
		chains = append(chains, chain)
		projectsTouched[sess.Project] = true

		p.observeVasana(sess, chain, day)
	}

	for project := range projectsTouched {
		if err := p.consolidateSamskaras(ctx, project, sessions, day); err != nil {
			return Summary{}, err
		}
	}

	sum := WriteDay(DayInput{Day: day, Sessions: sessions, Chains: chains})
	sum.GeneratedAt = day

	if err := p.persistAndIndex(ctx, sum, p.Home.DayFile(day)); err != nil {
		return Summary{}, err
	}
	return sum, nil
}

// RunMonth aggregates every day summary in month's calendar month for
// project (empty for global) into a month-level Summary.
func (p *Pipeline) RunMonth(ctx context.Context, month time.Time, project string, force bool) (Summary, error) {
	monthKey := month.Format("2006-01")
	if !force {
		if existing, err := p.Summaries.Get(ctx, LevelMonth, monthKey, project); err == nil {
			return existing, nil
		}
	}

	days, err := p.Summaries.ByPeriodPrefix(ctx, LevelDay, monthKey, project)
	if err != nil {
		return Summary{}, err
	}

	sum := WriteMonth(MonthInput{
		Month:        month,
		Project:      project,
		DaySummaries: days,
	})
	sum.GeneratedAt = month

	path := p.Home.MonthFile(month)
	if project != "" {
		path = p.Home.ProjectMonthFile(month, project)
	}
	if err := p.persistAndIndex(ctx, sum, path); err != nil {
		return Summary{}, err
	}
	return sum, nil
}

// RunYear aggregates every month summary of year for project into a
// year-level Summary.
func (p *Pipeline) RunYear(ctx context.Context, year int, project string, force bool) (Summary, error) {
	yearKey := fmt.Sprintf("%04d", year)
	if !force {
		if existing, err := p.Summaries.Get(ctx, LevelYear, yearKey, project); err == nil {
			return existing, nil
		}
	}

	months, err := p.Summaries.ByPeriodPrefix(ctx, LevelMonth, yearKey, project)
	if err != nil {
		return Summary{}, err
	}

	sum := WriteYear(YearInput{
		Year:           year,
		Project:        project,
		MonthSummaries: months,
	})
	sum.GeneratedAt = time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)

	path := p.Home.YearFile(year)
	if project != "" {
		path = p.Home.ProjectYearFile(year, project)
	}
	if err := p.persistAndIndex(ctx, sum, path); err != nil {
		return Summary{}, err
	}
	return sum, nil
}

func (p *Pipeline) persistAndIndex(ctx context.Context, sum Summary, path string) error {
	if err := layout.EnsureParent(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(sum.Markdown), 0o644); err != nil {
		return fmt.Errorf("consolidation: write %s: %w", path, err)
	}
	if err := p.Summaries.Put(ctx, sum); err != nil {
		return err
	}
	if p.Indexer != nil {
		if err := p.Indexer.Index(ctx, sum); err != nil {
			return err
		}
	}
	return nil
}

func sameDay(t, day time.Time) bool {
	ty, tm, td := t.Date()
	dy, dm, dd := day.Date()
	return ty == dy && tm == dm && td == dd
}

// observeVasana derives a valence observation for the session's dominant
// tone (positive for conclusions/decisions reached cleanly, negative for
// error/correction-heavy sessions) and feeds it to the vasana engine,
// persisting any freshly crystallised tendency.
func (p *Pipeline) observeVasana(sess session.Session, chain Chain, now time.Time) {
	if p.VasanaEngine == nil || p.Vasanas == nil {
		return
	}
	var positive, negative int
	for _, e := range chain.Events {
		switch e.Kind {
		case EventConclusion, EventDecision:
			positive++
		case EventErrorReport:
			negative++
		}
	}
	total := positive + negative
	if total == 0 {
		return
	}
	valence := float64(positive-negative) / float64(total)
	obs := vasana.Observation{
		At:      now,
		Valence: valence,
		Novelty: 0.5,
		Summary: chain.Narrative,
	}
	v, ok := p.VasanaEngine.Observe(sess.Project, obs)
	if !ok {
		return
	}
	_ = p.Vasanas.Upsert(context.Background(), v)
}

func (p *Pipeline) consolidateSamskaras(ctx context.Context, project string, sessions []session.Session, now time.Time) error {
	if p.SamskaraEngine == nil || p.Samskaras == nil {
		return nil
	}
	prior, err := p.Samskaras.ByProject(ctx, project)
	if err != nil {
		return err
	}
	byID := make(map[string]samskara.Samskara, len(prior))
	for _, s := range prior {
		byID[s.ID] = s
	}

	var projectSessions []session.Session
	for _, s := range sessions {
		if s.Project == project {
			projectSessions = append(projectSessions, s)
		}
	}

	rules := p.SamskaraEngine.Consolidate(projectSessions, project, now, byID)
	for _, r := range rules {
		if err := p.Samskaras.Upsert(ctx, r); err != nil {
			return err
		}
	}
	return nil
}
