package pratyabhijna

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sriinnu/chitragupta/internal/config"
	"github.com/sriinnu/chitragupta/internal/idgen"
	"github.com/sriinnu/chitragupta/internal/narrative"
	"github.com/sriinnu/chitragupta/internal/samskara"
	"github.com/sriinnu/chitragupta/internal/vasana"
)

// VasanaReader is the subset of vasana.Store Build needs.
type VasanaReader interface {
	ByProject(ctx context.Context, project string) ([]vasana.Vasana, error)
	All(ctx context.Context) ([]vasana.Vasana, error)
}

// SamskaraReader is the subset of samskara.Store Build needs.
type SamskaraReader interface {
	ByProject(ctx context.Context, project string) ([]samskara.Samskara, error)
}

// Builder assembles a self-recognition Context at session start.
type Builder struct {
	Vasanas   VasanaReader
	Samskaras SamskaraReader
	Atma      AtmaReport
	Narrator  narrative.Narrator // optional; nil falls back to template text
	Config    config.VasanaConfig
	TopK      int
}

// NewBuilder constructs a Builder. A nil atma defaults to NoopAtma; topK<=0
// defaults to 5.
func NewBuilder(vasanas VasanaReader, samskaras SamskaraReader, atma AtmaReport, narrator narrative.Narrator, cfg config.VasanaConfig, topK int) *Builder {
	if atma == nil {
		atma = NoopAtma{}
	}
	if topK <= 0 {
		topK = 5
	}
	return &Builder{Vasanas: vasanas, Samskaras: samskaras, Atma: atma, Narrator: narrator, Config: cfg, TopK: topK}
}

// Build loads top-K decayed vasanas globally and for project, top active
// samskaras for project, tool-mastery from the Atma self-report, and
// cross-project insights from other projects, then renders a narrative.
func (b *Builder) Build(ctx context.Context, sessionID, project string, now time.Time) (Context, error) {
	start := now

	global, err := b.Vasanas.ByProject(ctx, vasana.GlobalProject)
	if err != nil {
		return Context{}, err
	}
	projectVasanas, err := b.Vasanas.ByProject(ctx, project)
	if err != nil {
		return Context{}, err
	}
	all, err := b.Vasanas.All(ctx)
	if err != nil {
		return Context{}, err
	}
	samskaras, err := b.Samskaras.ByProject(ctx, project)
	if err != nil {
		return Context{}, err
	}
	mastery, err := b.Atma.Report(ctx, project)
	if err != nil {
		return Context{}, err
	}

	globalNames := topDecayedNames(global, now, b.Config, b.TopK)
	projectNames := topDecayedNames(projectVasanas, now, b.Config, b.TopK)
	activeSamskaras := topActiveSamskaraNames(samskaras, b.TopK)
	insights := crossProjectInsights(all, project, now, b.Config, b.TopK)

	draft := renderDraft(project, globalNames, projectNames, activeSamskaras, insights, mastery)
	narrativeText := draft
	if b.Narrator != nil {
		if polished, err := b.Narrator.Polish(ctx, "pratyabhijna", draft); err == nil && polished != "" {
			narrativeText = polished
		}
	}

	return Context{
		SessionID:            sessionID,
		Project:              project,
		GlobalVasanas:        globalNames,
		ProjectVasanas:       projectNames,
		ActiveSamskaras:      activeSamskaras,
		CrossProjectInsights: insights,
		ToolMastery:          mastery,
		Narrative:            narrativeText,
		WarmupMS:             time.Since(start).Milliseconds(),
		CreatedAt:            now,
	}, nil
}

func topDecayedNames(vs []vasana.Vasana, now time.Time, cfg config.VasanaConfig, topK int) []string {
	type scored struct {
		name  string
		score float64
	}
	scoredList := make([]scored, 0, len(vs))
	for _, v := range vs {
		scoredList = append(scoredList, scored{name: v.Name, score: vasana.EffectiveStrength(v, now, cfg.DefaultHalfLifeDays)})
	}
	sort.Slice(scoredList, func(i, j int) bool {
		if scoredList[i].score != scoredList[j].score {
			return scoredList[i].score > scoredList[j].score
		}
		return scoredList[i].name < scoredList[j].name
	})
	if len(scoredList) > topK {
		scoredList = scoredList[:topK]
	}
	out := make([]string, len(scoredList))
	for i, s := range scoredList {
		out[i] = s.name
	}
	return out
}

func topActiveSamskaraNames(sks []samskara.Samskara, topK int) []string {
	active := make([]samskara.Samskara, 0, len(sks))
	for _, s := range sks {
		if s.IsActive() {
			active = append(active, s)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].Confidence > active[j].Confidence })
	if len(active) > topK {
		active = active[:topK]
	}
	out := make([]string, len(active))
	for i, s := range active {
		out[i] = s.PatternContent
	}
	return out
}

// crossProjectInsights surfaces the top-K vasanas from projects other than
// project and the global scope, keyed by a short project label.
func crossProjectInsights(all []vasana.Vasana, project string, now time.Time, cfg config.VasanaConfig, topK int) []CrossProjectInsight {
	var candidates []CrossProjectInsight
	for _, v := range all {
		if v.Project == project || v.Project == vasana.GlobalProject {
			continue
		}
		strength := vasana.EffectiveStrength(v, now, cfg.DefaultHalfLifeDays)
		candidates = append(candidates, CrossProjectInsight{
			ProjectLabel: ProjectLabel(v.Project),
			VasanaName:   v.Name,
			Strength:     strength,
		})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Strength > candidates[j].Strength })
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	return candidates
}

// ProjectLabel derives a short, stable, non-reversible label for a project
// identifier, used so cross-project insights don't leak full project paths.
func ProjectLabel(project string) string {
	return idgen.DeterministicID("proj", "", project, 6)
}

func renderDraft(project string, globalVasanas, projectVasanas, samskaras []string, insights []CrossProjectInsight, mastery map[string]ToolMastery) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Recognising self for project %q.\n", project)
	if len(globalVasanas) > 0 {
		fmt.Fprintf(&b, "Global tendencies: %s.\n", strings.Join(globalVasanas, ", "))
	}
	if len(projectVasanas) > 0 {
		fmt.Fprintf(&b, "Project tendencies: %s.\n", strings.Join(projectVasanas, ", "))
	}
	if len(samskaras) > 0 {
		fmt.Fprintf(&b, "Active patterns: %s.\n", strings.Join(samskaras, ", "))
	}
	for _, ins := range insights {
		fmt.Fprintf(&b, "From project %s: %s.\n", ins.ProjectLabel, ins.VasanaName)
	}
	if len(mastery) > 0 {
		var tools []string
		for name, m := range mastery {
			tools = append(tools, fmt.Sprintf("%s (%.0f%% success over %d uses)", name, m.SuccessRate*100, m.UsageCount))
		}
		sort.Strings(tools)
		fmt.Fprintf(&b, "Tool mastery: %s.\n", strings.Join(tools, ", "))
	}
	return b.String()
}
