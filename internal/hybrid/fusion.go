package hybrid

import (
	"sort"

	"github.com/sriinnu/chitragupta/internal/config"
)

// Fused is one document's combined standing across every signal that
// surfaced it: its Reciprocal Rank Fusion score plus the per-signal ranks
// that produced it (used by Search's temporal boost and by the weight
// learner's feedback hook).
type Fused struct {
	Doc   Ranked
	Score float64
	Ranks map[string]int // signal name -> 1-based rank within that signal
}

func signalWeight(weights config.HybridWeights, signal string) float64 {
	switch signal {
	case "lexical":
		return weights.Lexical
	case "vector":
		return weights.Vector
	case "graph":
		return weights.Graph
	case "provenance":
		return weights.Provenance
	default:
		return 0
	}
}

// Fuse combines per-signal rankings with Reciprocal Rank Fusion:
// score(d) = sum_s w_s * 1/(k + rank_s(d)), summed only over signals that
// found d. A signal with an empty ranking (failed, or downgraded to zero
// weight when its index is unavailable) contributes nothing to any
// document's score — fusion proceeds with whatever signals produced
// results. Output is sorted by descending fused score; ties break on the
// document id for determinism.
func Fuse(weights config.HybridWeights, rankings map[string][]Ranked) []Fused {
	k := float64(weights.K)
	if k <= 0 {
		k = 60
	}

	byID := make(map[string]*Fused)
	var order []string

	for signal, ranking := range rankings {
		w := signalWeight(weights, signal)
		for i, r := range ranking {
			f, ok := byID[r.ID]
			if !ok {
				f = &Fused{Doc: r, Ranks: map[string]int{}}
				byID[r.ID] = f
				order = append(order, r.ID)
			}
			rank := i + 1
			f.Ranks[signal] = rank
			f.Score += w * (1.0 / (k + float64(rank)))
		}
	}

	out := make([]Fused, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Doc.ID < out[j].Doc.ID
	})
	return out
}
