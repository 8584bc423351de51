package hybrid

import (
	"context"
	"sort"
	"time"

	"github.com/sriinnu/chitragupta/internal/embedding"
	"github.com/sriinnu/chitragupta/internal/graph"
	"github.com/sriinnu/chitragupta/internal/vectorstore"
)

// LexicalSource is the subset of the session store's search surface the
// lexical signal needs. Satisfied by *session.Store.
type LexicalSource interface {
	SearchTurns(ctx context.Context, query string, limit int) ([]string, error)
}

// LexicalSignal ranks by full-text match over indexed turn content. An
// index outage (SearchTurns erroring) downgrades to an empty ranking rather
// than failing the whole search, per §4.2's failure-mode rule.
type LexicalSignal struct {
	Source LexicalSource
}

func (s LexicalSignal) Name() string { return "lexical" }

func (s LexicalSignal) Search(ctx context.Context, query string, limit int) ([]Ranked, error) {
	ids, err := s.Source.SearchTurns(ctx, query, limit)
	if err != nil {
		return nil, nil
	}
	out := make([]Ranked, 0, len(ids))
	for _, id := range ids {
		out = append(out, Ranked{ID: id, Kind: "turn"})
	}
	return out, nil
}

// VectorSignal ranks by cosine similarity between the query embedding and
// stored embeddings over turns, summaries, and memory entries. A provider
// or store failure yields an empty ranking.
type VectorSignal struct {
	Embedder embedding.Provider
	Store    *vectorstore.Store
}

func (s VectorSignal) Name() string { return "vector" }

func (s VectorSignal) Search(ctx context.Context, query string, limit int) ([]Ranked, error) {
	if s.Embedder == nil || s.Store == nil {
		return nil, nil
	}
	vecs, err := s.Embedder.Embed(ctx, []string{query})
	if err != nil || len(vecs) == 0 {
		return nil, nil
	}
	matches, err := s.Store.Query(ctx, vecs[0], "", limit)
	if err != nil {
		return nil, nil
	}
	out := make([]Ranked, 0, len(matches))
	for _, m := range matches {
		out = append(out, Ranked{ID: m.RefID, Kind: string(m.Kind), Text: m.Text})
	}
	return out, nil
}

// GraphSignal ranks entities by personalised PageRank seeded on the node ids
// in Seeds; the query text itself is not read. Edges traversed are restricted to
// those valid at AsOf unless the query is explicitly time-scoped, in which
// case the caller sets AsOf to that moment instead of now.
type GraphSignal struct {
	Store *graph.Store
	AsOf  time.Time
	Seeds []string
}

func (s GraphSignal) Name() string { return "graph" }

func (s GraphSignal) Search(ctx context.Context, query string, limit int) ([]Ranked, error) {
	if s.Store == nil {
		return nil, nil
	}
	asOf := s.AsOf
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}
	edges, err := s.Store.AllActiveEdges(ctx, asOf)
	if err != nil {
		return nil, nil
	}
	scores := graph.PersonalizedPageRank(edges, s.Seeds, graph.DefaultPageRankConfig())
	ranked := rankScores(scores, "node", limit)
	return ranked, nil
}

// ProvenanceSignal ranks entities by a reliability map derived from the
// pramana (observation kind) and viveka (trust tier) of the edges touching
// them: higher viveka and more reliable pramana kinds rank higher.
type ProvenanceSignal struct {
	Store    *graph.Store
	AsOf     time.Time
	Minimum  float64 // minimum reliability to be included at all
	Weights  map[string]float64 // pramana kind -> reliability multiplier
}

// DefaultPramanaWeights ranks direct observation above inference above
// secondhand testimony, the standard pramana reliability ordering.
func DefaultPramanaWeights() map[string]float64 {
	return map[string]float64{
		"pratyaksha": 1.0, // direct perception/observation
		"anumana":    0.7, // inference
		"shabda":     0.5, // testimony
	}
}

func (s ProvenanceSignal) Name() string { return "provenance" }

func (s ProvenanceSignal) Search(ctx context.Context, query string, limit int) ([]Ranked, error) {
	if s.Store == nil {
		return nil, nil
	}
	asOf := s.AsOf
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}
	edges, err := s.Store.AllActiveEdges(ctx, asOf)
	if err != nil {
		return nil, nil
	}
	weights := s.Weights
	if weights == nil {
		weights = DefaultPramanaWeights()
	}
	minimum := s.Minimum

	scores := make(map[string]float64)
	for _, e := range edges {
		reliability := weights[e.Pramana] * e.Viveka
		if reliability < minimum {
			continue
		}
		if reliability > scores[e.Source] {
			scores[e.Source] = reliability
		}
		if reliability > scores[e.Target] {
			scores[e.Target] = reliability
		}
	}
	return rankScores(scores, "node", limit), nil
}

type scoredID struct {
	id    string
	score float64
}

func rankScores(scores map[string]float64, kind string, limit int) []Ranked {
	all := make([]scoredID, 0, len(scores))
	for id, sc := range scores {
		all = append(all, scoredID{id, sc})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}
		return all[i].id < all[j].id
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	out := make([]Ranked, len(all))
	for i, s := range all {
		out[i] = Ranked{ID: s.id, Kind: kind}
	}
	return out
}
