// Package consolidation transforms raw sessions into progressively more
// abstract memories at three cadences: a per-session event-chain
// extraction feeds day summaries, which roll up into month summaries,
// which roll up into year summaries. Each summary level is also indexed
// into the shared vector store so Hybrid Search can retrieve it.
package consolidation

import "time"

// CoreType is a session's primary classification, derived from its
// tool-call ratio and average user-turn length.
type CoreType string

const (
	CorePersonal   CoreType = "personal"
	CoreCoding     CoreType = "coding"
	CoreDiscussion CoreType = "discussion"
	CoreMixed      CoreType = "mixed"
)

// Domain is a finer-grained classification applied on top of CoreType when
// enough domain-signal groups match.
type Domain string

const (
	DomainPlanning    Domain = "planning"
	DomainLearning    Domain = "learning"
	DomainCreative    Domain = "creative"
	DomainHealth      Domain = "health"
	DomainFinance     Domain = "finance"
	DomainSocial      Domain = "social"
	DomainResearch    Domain = "research"
	DomainReflection  Domain = "reflection"
	DomainSecurity    Domain = "security"
	DomainOperational Domain = "operational"
)

// EventKind classifies one extracted event within a session's narrative.
type EventKind string

const (
	EventAction      EventKind = "action"
	EventFact        EventKind = "fact"
	EventPreference  EventKind = "preference"
	EventQuestion    EventKind = "question"
	EventDecision    EventKind = "decision"
	EventTopic       EventKind = "topic"
	EventToolResult  EventKind = "tool_result"
	EventFileChange  EventKind = "file_change"
	EventErrorReport EventKind = "error"
	EventCommit      EventKind = "commit"
	EventOption      EventKind = "option"
	EventConclusion  EventKind = "conclusion"
)

// Event is one extracted fact, action, or observation from a session's
// turns, ordered for narrative construction.
type Event struct {
	Kind    EventKind
	Summary string
	At      time.Time
	Turn    int
}

// Chain is the full extraction result for one session: its classification
// and its deduplicated, time-ordered events.
type Chain struct {
	SessionID string
	Core      CoreType
	Domain    Domain // empty if no domain matched
	Events    []Event
	Narrative string // one line per event: "HH:MM provider [Domain]: ..."
}

// SummaryLevel is the cadence of a ConsolidationSummary.
type SummaryLevel string

const (
	LevelDay   SummaryLevel = "day"
	LevelMonth SummaryLevel = "month"
	LevelYear  SummaryLevel = "year"
)

// Summary is one written consolidation artifact: a markdown document plus
// the high-signal excerpt fed to the vector store.
type Summary struct {
	Level        SummaryLevel
	PeriodKey    string // e.g. "2025-06-15", "2025-06", "2025"
	Project      string // empty for global (day-level may be project-less)
	Markdown     string
	IndexedText  string
	GeneratedAt  time.Time
}
