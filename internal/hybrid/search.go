package hybrid

import (
	"context"
	"sort"
	"time"

	"github.com/sriinnu/chitragupta/internal/config"
	"github.com/sriinnu/chitragupta/internal/kalachakra"
)

// DocTimeLookup resolves a fused candidate's timestamp for the temporal
// boost. Search calls it once per candidate surviving fusion, not once per
// raw signal hit, since most candidates are cheap to look up lazily but
// expensive to fetch for every document every signal ever mentions.
type DocTimeLookup func(ctx context.Context, id, kind string) (time.Time, bool)

// Searcher runs the full signal fan-out, fuses with Reciprocal Rank Fusion,
// and applies the Kala Chakra temporal boost.
type Searcher struct {
	Lexical    SignalProducer
	Vector     SignalProducer
	Graph      SignalProducer
	Provenance SignalProducer

	Learner   WeightLearner
	Temporal  kalachakra.Config
	DocTime   DocTimeLookup
	SignalLimit int
}

// NewSearcher wires a Searcher from its four signal producers (any may be
// nil, in which case that signal contributes nothing) and a weight
// learner. A nil learner defaults to a fixed weight vector from config.
func NewSearcher(lexical, vector, graphSignal, provenance SignalProducer, learner WeightLearner) *Searcher {
	if learner == nil {
		learner = NewNoopLearner(config.DefaultHybridWeights())
	}
	return &Searcher{
		Lexical:     lexical,
		Vector:      vector,
		Graph:       graphSignal,
		Provenance:  provenance,
		Learner:     learner,
		Temporal:    kalachakra.DefaultConfig(),
		SignalLimit: 50,
	}
}

// Search runs every configured signal, fuses their rankings, and applies
// the temporal boost. It returns at most limit results, best first. Queries
// that fail ShouldRetrieve return an empty result set without running any
// signal.
func (s *Searcher) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if !ShouldRetrieve(query) {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}
	signalLimit := s.SignalLimit
	if signalLimit <= 0 {
		signalLimit = 50
	}

	rankings := make(map[string][]Ranked, 4)
	for name, producer := range map[string]SignalProducer{
		"lexical": s.Lexical, "vector": s.Vector, "graph": s.Graph, "provenance": s.Provenance,
	} {
		if producer == nil {
			continue
		}
		ranked, err := producer.Search(ctx, query, signalLimit)
		if err != nil || len(ranked) == 0 {
			continue // degrade gracefully: an empty/failed signal just sits out this query
		}
		rankings[name] = ranked
	}

	weights := s.Learner.Weights().Clamp()
	fused := Fuse(weights, rankings)

	now := time.Now().UTC()
	results := make([]Result, 0, len(fused))
	for _, f := range fused {
		docTime := f.Doc.Timestamp
		if docTime.IsZero() && s.DocTime != nil {
			if t, ok := s.DocTime(ctx, f.Doc.ID, f.Doc.Kind); ok {
				docTime = t
			}
		}
		if docTime.IsZero() {
			docTime = now
		}
		boost := kalachakra.Boost(s.Temporal, docTime, now)
		results = append(results, Result{
			ID:          f.Doc.ID,
			Kind:        f.Doc.Kind,
			Text:        f.Doc.Text,
			Timestamp:   docTime,
			FusedScore:  f.Score,
			Score:       f.Score * boost,
			SignalRanks: f.Ranks,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
