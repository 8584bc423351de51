package samskara

import (
	"math"
	"time"

	"github.com/sriinnu/chitragupta/internal/idgen"
	"github.com/sriinnu/chitragupta/internal/session"
)

// Config tunes the consolidation-rule lifecycle.
type Config struct {
	MinObservations int
	PruneThreshold  float64
	LearningRate    float64
	HalfLifeDays    float64
}

// DefaultConfig returns the spec's defaults: 3 minimum occurrences, prune
// below 0.1 confidence, learning rate 0.2, 30-day confidence half-life.
func DefaultConfig() Config {
	return Config{MinObservations: 3, PruneThreshold: 0.1, LearningRate: 0.2, HalfLifeDays: 30}
}

// Clamp bounds every field to a sane, non-degenerate range.
func (c Config) Clamp() Config {
	if c.MinObservations < 1 {
		c.MinObservations = 3
	}
	if c.PruneThreshold <= 0 || c.PruneThreshold >= 1 {
		c.PruneThreshold = 0.1
	}
	if c.LearningRate <= 0 || c.LearningRate > 1 {
		c.LearningRate = 0.2
	}
	if c.HalfLifeDays <= 0 {
		c.HalfLifeDays = 30
	}
	return c
}

// Engine runs detection over a session window and reconciles the result
// against existing rules: new patterns crystallise fresh Samskaras,
// re-observed ones reinforce their existing row.
type Engine struct {
	Config Config
}

// NewEngine builds an Engine with the given configuration.
func NewEngine(cfg Config) *Engine {
	return &Engine{Config: cfg.Clamp()}
}

// RuleID derives the deterministic id a pattern's category and
// canonicalised content hash to, so reinforcing an already-observed
// pattern resolves to the same row instead of minting a duplicate.
func RuleID(pt PatternType, content string) string {
	return idgen.DeterministicID("sam", string(pt), content, 8)
}

// Consolidate runs all five detectors over sessions, then reconciles each
// gated candidate against existing (keyed by RuleID). New candidates
// crystallise with ObservationCount set to minObservations and confidence
// initialConfidence(minObservations); the detectors' actual occurrence
// counts are not carried through. Existing ones have the candidate's tags
// merged in and are reinforced by one observation.
func (e *Engine) Consolidate(sessions []session.Session, project string, now time.Time, existing map[string]Samskara) []Samskara {
	cands := DetectAll(sessions, e.Config.MinObservations)

	out := make([]Samskara, 0, len(cands))
	for _, c := range cands {
		id := RuleID(c.PatternType, c.Content)
		if prior, ok := existing[id]; ok {
			merged := append([]string(nil), prior.Tags...)
			seen := make(map[string]bool, len(merged))
			for _, tag := range merged {
				seen[tag] = true
			}
			for _, tag := range c.Tags {
				if !seen[tag] {
					seen[tag] = true
					merged = append(merged, tag)
				}
			}
			prior.Tags = merged
			out = append(out, e.Reinforce(prior, 1, now))
			continue
		}
		out = append(out, Samskara{
			ID:               id,
			PatternType:      c.PatternType,
			PatternContent:   c.Content,
			ObservationCount: e.Config.MinObservations,
			Confidence:       initialConfidence(e.Config.MinObservations),
			Project:          project,
			Tags:             c.Tags,
			CreatedAt:        now,
			LastReinforcedAt: now,
		})
	}
	return out
}

// initialConfidence grows with observation count but never exceeds 0.8 on
// first crystallisation, leaving room for reinforcement to approach 1.0.
func initialConfidence(observations int) float64 {
	conf := 0.3 + 0.1*float64(observations-1)
	if conf > 0.8 {
		conf = 0.8
	}
	return conf
}

// Reinforce bumps observation-count by n, moves confidence toward 1.0 with
// the configured learning rate, and sets lastReinforcedAt. It leaves tags
// as they are; Consolidate merges a re-observed candidate's tags before
// calling it.
func (e *Engine) Reinforce(s Samskara, n int, now time.Time) Samskara {
	s.ObservationCount += n
	s.Confidence = s.Confidence + e.Config.LearningRate*(1.0-s.Confidence)
	s.LastReinforcedAt = now
	return s
}

// DecayedConfidence returns s's confidence decayed by elapsed days since
// last reinforcement: confidence * 0.5^(age_days / halfLifeDays).
func (e *Engine) DecayedConfidence(s Samskara, now time.Time) float64 {
	ageDays := now.Sub(s.LastReinforcedAt).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	return s.Confidence * math.Pow(0.5, ageDays/e.Config.HalfLifeDays)
}

// ShouldPrune reports whether s's decayed confidence has fallen below the
// configured prune threshold.
func (e *Engine) ShouldPrune(s Samskara, now time.Time) bool {
	return e.DecayedConfidence(s, now) < e.Config.PruneThreshold
}
