package hybrid

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sriinnu/chitragupta/internal/config"
)

func TestFuseWeightsByRank(t *testing.T) {
	weights := config.DefaultHybridWeights()
	rankings := map[string][]Ranked{
		"lexical": {{ID: "a"}, {ID: "b"}},
		"vector":  {{ID: "b"}, {ID: "a"}},
	}
	fused := Fuse(weights, rankings)
	require.Len(t, fused, 2)

	k := float64(weights.K)
	wantA := weights.Lexical*(1/(k+1)) + weights.Vector*(1/(k+2))
	wantB := weights.Lexical*(1/(k+2)) + weights.Vector*(1/(k+1))

	byID := map[string]Fused{}
	for _, f := range fused {
		byID[f.Doc.ID] = f
	}
	require.InDelta(t, wantA, byID["a"].Score, 1e-12)
	require.InDelta(t, wantB, byID["b"].Score, 1e-12)
}

func TestFuseDegradesWhenSignalMissing(t *testing.T) {
	weights := config.DefaultHybridWeights()
	full := Fuse(weights, map[string][]Ranked{
		"lexical": {{ID: "a"}},
		"vector":  {{ID: "a"}},
		"graph":   {{ID: "a"}},
	})
	degraded := Fuse(weights, map[string][]Ranked{
		"lexical": {{ID: "a"}},
		"vector":  {{ID: "a"}},
	})
	require.Less(t, degraded[0].Score, full[0].Score)
	require.Greater(t, degraded[0].Score, 0.0)
}

func TestFuseDeterministicOrdering(t *testing.T) {
	weights := config.DefaultHybridWeights()
	rankings := map[string][]Ranked{"lexical": {{ID: "x"}, {ID: "y"}, {ID: "z"}}}
	first := Fuse(weights, rankings)
	second := Fuse(weights, rankings)
	require.Equal(t, first, second)
}

func TestMultiQueryLikeBoostOrdering(t *testing.T) {
	weights := config.DefaultHybridWeights()
	fused := Fuse(weights, map[string][]Ranked{
		"lexical":    {{ID: "shared"}, {ID: "only-lexical"}},
		"vector":     {{ID: "shared"}},
		"graph":      {{ID: "shared"}},
		"provenance": {{ID: "only-provenance"}},
	})
	require.Equal(t, "shared", fused[0].Doc.ID)
}
