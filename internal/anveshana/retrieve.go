package anveshana

import (
	"context"
	"math"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/sriinnu/chitragupta/internal/config"
	"github.com/sriinnu/chitragupta/internal/hybrid"
)

// Searcher is the subset of Hybrid Search's surface a retrieval round
// needs. Satisfied by *hybrid.Searcher.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]hybrid.Result, error)
}

// Retriever runs multi-round retrieval over a Searcher.
type Retriever struct {
	Search Searcher
	Config config.AnveshanaConfig
}

// NewRetriever wires a Retriever around a Hybrid Search instance.
func NewRetriever(search Searcher, cfg config.AnveshanaConfig) *Retriever {
	return &Retriever{Search: search, Config: cfg.Clamp()}
}

// docAccum tracks one document's accumulated weighted score across rounds
// and how many distinct sub-queries found it, for the multi-query boost.
type docAccum struct {
	doc          hybrid.Result
	score        float64
	subQueries   map[string]bool
}

// Retrieve runs Round 0 (every initial sub-query in parallel), then
// follow-up rounds mining key terms absent from accumulated content, until
// the configured round cap or adaptive termination (no new documents and
// top-score improvement below threshold) stops it. Results are grouped by
// document id, weighted-summed across rounds and sub-queries, boosted by
// multiQueryBoost^(n-1) for documents found by n>=2 sub-queries, sorted
// descending, and truncated to MaxResults.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]hybrid.Result, error) {
	cfg := r.Config
	subQueries := Decompose(query, cfg)
	if len(subQueries) == 1 {
		// Simple query: bypass decomposition, single-round hybrid result.
		results, err := r.Search.Search(ctx, query, cfg.MaxResults)
		if err != nil {
			return nil, err
		}
		return results, nil
	}

	accum := make(map[string]*docAccum)
	var accumulatedText strings.Builder
	queried := make([]string, 0, len(subQueries))

	topScore := 0.0
	for round := 0; round < cfg.MaxRounds; round++ {
		var roundQueries []SubQuery
		if round == 0 {
			roundQueries = subQueries
		} else {
			terms := FollowUpTerms(query, accumulatedText.String(), queried, cfg)
			if len(terms) == 0 {
				break
			}
			for _, t := range terms {
				roundQueries = append(roundQueries, SubQuery{Text: t, Weight: cfg.FollowUpWeight})
			}
		}

		roundResults, err := r.runRound(ctx, roundQueries)
		if err != nil {
			return nil, err
		}

		newDocs := 0
		for _, rr := range roundResults {
			for _, res := range rr.results {
				queried = append(queried, rr.sub.Text)
				a, ok := accum[res.ID]
				if !ok {
					a = &docAccum{doc: res, subQueries: map[string]bool{}}
					accum[res.ID] = a
					newDocs++
				}
				a.score += res.Score * rr.sub.Weight
				a.subQueries[rr.sub.Text] = true
				accumulatedText.WriteString(res.Text)
				accumulatedText.WriteByte(' ')
			}
		}

		roundTop := topAccumScore(accum, cfg.MultiQueryBoost)
		improvement := roundTop - topScore
		topScore = roundTop

		if round > 0 && newDocs == 0 && improvement < cfg.ImprovementThreshold {
			break
		}
	}

	return fuseAccum(accum, cfg), nil
}

type roundResult struct {
	sub     SubQuery
	results []hybrid.Result
}

// runRound executes every sub-query in a round concurrently via errgroup,
// one goroutine per sub-query with no concurrency limit.
func (r *Retriever) runRound(ctx context.Context, subQueries []SubQuery) ([]roundResult, error) {
	out := make([]roundResult, len(subQueries))
	g, gctx := errgroup.WithContext(ctx)
	for i, sq := range subQueries {
		i, sq := i, sq
		g.Go(func() error {
			results, err := r.Search.Search(gctx, sq.Text, r.Config.MaxResults)
			if err != nil {
				return nil // one failing sub-query degrades, it doesn't abort the round
			}
			out[i] = roundResult{sub: sq, results: results}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func topAccumScore(accum map[string]*docAccum, boost float64) float64 {
	top := 0.0
	for _, a := range accum {
		s := boostedScore(a, boost)
		if s > top {
			top = s
		}
	}
	return top
}

func boostedScore(a *docAccum, boost float64) float64 {
	n := len(a.subQueries)
	if n <= 1 {
		return a.score
	}
	return a.score * math.Pow(boost, float64(n-1))
}

func fuseAccum(accum map[string]*docAccum, cfg config.AnveshanaConfig) []hybrid.Result {
	out := make([]hybrid.Result, 0, len(accum))
	for _, a := range accum {
		res := a.doc
		res.Score = boostedScore(a, cfg.MultiQueryBoost)
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > cfg.MaxResults {
		out = out[:cfg.MaxResults]
	}
	return out
}
