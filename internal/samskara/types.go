// Package samskara ("impression", the latent trace left by a repeated act)
// detects recurring patterns across a window of sessions and crystallises
// them into reinforceable rules: tool-usage habits, stated preferences,
// decisions, self-corrections, and naming/style conventions. Detection is
// pure pattern matching over turn content, in the teacher's small-DSL-lexer
// style applied to natural language instead of a query grammar, the same
// approach Anveshana's decomposition rules use.
package samskara

import "time"

// PatternType classifies what kind of recurring behaviour a Samskara
// captures.
type PatternType string

const (
	PatternToolSequence  PatternType = "tool_sequence"
	PatternPreference    PatternType = "preference"
	PatternDecision      PatternType = "decision"
	PatternCorrection    PatternType = "correction"
	PatternConvention    PatternType = "convention"
)

// Samskara is a crystallised, reinforceable behavioural rule.
type Samskara struct {
	ID               string
	SessionID        string
	PatternType      PatternType
	PatternContent   string
	ObservationCount int
	Confidence       float64
	Project          string
	Tags             []string
	CreatedAt        time.Time
	LastReinforcedAt time.Time
}

// ActiveThreshold is the minimum confidence for a Samskara to be considered
// "active" and surfaced to Pratyabhijna.
const ActiveThreshold = 0.3

// IsActive reports whether s's confidence reaches ActiveThreshold.
func (s Samskara) IsActive() bool { return s.Confidence >= ActiveThreshold }

// Candidate is one pattern occurrence a detector surfaces before it has
// been checked for the minObservations gate or turned into a Samskara.
type Candidate struct {
	PatternType PatternType
	Content     string // canonicalised, used for id derivation and display
	Tags        []string
}
