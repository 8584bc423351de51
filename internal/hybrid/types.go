// Package hybrid implements Hybrid Search: multi-signal retrieval fused by
// reciprocal rank, with a time-aware boost layered on top. Four signal
// producers — lexical, vector, graph, and provenance — each rank candidate
// documents independently; the fuser combines their rankings without
// requiring every signal to agree on a common score scale.
package hybrid

import (
	"context"
	"time"
)

// Ranked is one signal producer's opinion of a single candidate: its
// position (not a raw score) is what Reciprocal Rank Fusion consumes.
// Producers return their rankings already sorted best-first.
type Ranked struct {
	ID        string
	Kind      string // "turn", "memory_entry", "daily_summary", "node", ...
	Text      string
	Timestamp time.Time
}

// SignalProducer ranks candidates for query. A producer that cannot serve a
// query (index down, provider unreachable) returns a nil slice and a nil
// error — Search treats an empty ranking as "this signal found nothing",
// not as a hard failure, per the spec's degrade-gracefully rule. A non-nil
// error is also treated as an empty ranking (it is not logged): the caller never
// needs to distinguish the two to keep fusion running.
type SignalProducer interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]Ranked, error)
}

// Result is one fused, time-boosted hit Search returns.
type Result struct {
	ID        string
	Kind      string
	Text      string
	Timestamp time.Time
	// FusedScore is the Reciprocal Rank Fusion score before temporal boost.
	FusedScore float64
	// Score is FusedScore after the Kala Chakra boost: never less than
	// half of FusedScore no matter how old the document is.
	Score float64
	// SignalRanks records which signals found this document and at what
	// rank, for the online weight learner's feedback and for debugging.
	SignalRanks map[string]int
}
