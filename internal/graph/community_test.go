package graph_test

import (
	"testing"

	"github.com/sriinnu/chitragupta/internal/graph"
	"github.com/stretchr/testify/assert"
)

func twoCliquesEdges() []graph.Edge {
	return []graph.Edge{
		{Source: "a1", Target: "a2", Weight: 1},
		{Source: "a2", Target: "a3", Weight: 1},
		{Source: "a1", Target: "a3", Weight: 1},
		{Source: "b1", Target: "b2", Weight: 1},
		{Source: "b2", Target: "b3", Weight: 1},
		{Source: "b1", Target: "b3", Weight: 1},
		{Source: "a1", Target: "b1", Weight: 0.01},
	}
}

func TestDetectCommunitiesSeparatesCliques(t *testing.T) {
	edges := twoCliquesEdges()
	partition := graph.DetectCommunities(edges, graph.DefaultCommunityConfig())

	assert.Equal(t, partition["a1"], partition["a2"])
	assert.Equal(t, partition["a2"], partition["a3"])
	assert.Equal(t, partition["b1"], partition["b2"])
	assert.Equal(t, partition["b2"], partition["b3"])
	assert.NotEqual(t, partition["a1"], partition["b1"])
}

func TestDetectCommunitiesIsDeterministicForSameSeed(t *testing.T) {
	edges := twoCliquesEdges()
	cfg := graph.CommunityConfig{Seed: 42, MaxLevels: 10, Resolution: 1.0}

	first := graph.DetectCommunities(edges, cfg)
	second := graph.DetectCommunities(edges, cfg)

	assert.Equal(t, first, second)
}

func TestDetectCommunitiesEmptyGraph(t *testing.T) {
	partition := graph.DetectCommunities(nil, graph.DefaultCommunityConfig())
	assert.Empty(t, partition)
}
