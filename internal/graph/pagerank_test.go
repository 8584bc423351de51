package graph_test

import (
	"testing"

	"github.com/sriinnu/chitragupta/internal/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func starEdges() []graph.Edge {
	return []graph.Edge{
		{Source: "hub", Target: "a", Weight: 1},
		{Source: "hub", Target: "b", Weight: 1},
		{Source: "hub", Target: "c", Weight: 1},
	}
}

func TestPersonalizedPageRankFavorsSeeds(t *testing.T) {
	scores := graph.PersonalizedPageRank(starEdges(), []string{"a"}, graph.DefaultPageRankConfig())
	require.Contains(t, scores, "a")
	assert.Greater(t, scores["a"], scores["b"])
}

func TestPersonalizedPageRankUniformWithoutSeeds(t *testing.T) {
	scores := graph.PersonalizedPageRank(starEdges(), nil, graph.DefaultPageRankConfig())
	require.Len(t, scores, 4)
	for _, s := range scores {
		assert.Greater(t, s, 0.0)
	}
}

func TestIncrementalUpdateConvergesNearFullRecompute(t *testing.T) {
	edges := starEdges()
	full := graph.PersonalizedPageRank(edges, []string{"a"}, graph.DefaultPageRankConfig())

	incremental := graph.IncrementalUpdate(edges, map[string]float64{}, []string{"a"}, []string{"a"}, graph.DefaultPageRankConfig())

	assert.InDelta(t, full["a"], incremental["a"], 0.05)
}
