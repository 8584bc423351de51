// Package pratyabhijna ("recognition", the moment a yogi recognises their
// own true nature) rebuilds a session's self-recognition context at start:
// what the agent already knows about itself and this project from prior
// consolidation, assembled into a short narrative and cached until evicted.
package pratyabhijna

import "time"

// ToolMastery is one tool's self-reported usage statistics, surfaced by the
// external Atma collaborator (no concrete tool-execution logic lives here;
// this module only reads the report).
type ToolMastery struct {
	Tool        string
	UsageCount  int
	SuccessRate float64
}

// CrossProjectInsight surfaces a notable vasana from a project other than
// the one a session is starting in, labelled by a short project tag rather
// than the full project identifier.
type CrossProjectInsight struct {
	ProjectLabel string
	VasanaName   string
	Strength     float64
}

// Context is the self-recognition bundle built at session start: what the
// agent has crystallised about itself, globally and for this project.
type Context struct {
	SessionID            string
	Project              string
	GlobalVasanas        []string
	ProjectVasanas       []string
	ActiveSamskaras      []string
	CrossProjectInsights []CrossProjectInsight
	ToolMastery          map[string]ToolMastery
	Narrative            string
	WarmupMS             int64
	CreatedAt            time.Time
}
