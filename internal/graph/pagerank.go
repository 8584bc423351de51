package graph

import "sort"

// PageRankConfig tunes the power-iteration method.
type PageRankConfig struct {
	Damping   float64
	MaxIters  int
	Epsilon   float64
}

// DefaultPageRankConfig returns damping=0.85 per the spec, 100 max
// iterations, and an epsilon of 1e-6.
func DefaultPageRankConfig() PageRankConfig {
	return PageRankConfig{Damping: 0.85, MaxIters: 100, Epsilon: 1e-6}
}

// PersonalizedPageRank computes PageRank over edges with the teleport
// distribution concentrated on seeds (the query's entity set): a uniform
// restart probability over seeds instead of the whole graph. An empty seeds
// set falls back to a uniform teleport over every node (plain PageRank).
func PersonalizedPageRank(edges []Edge, seeds []string, cfg PageRankConfig) map[string]float64 {
	if cfg.Damping <= 0 || cfg.Damping >= 1 {
		cfg.Damping = 0.85
	}
	if cfg.MaxIters <= 0 {
		cfg.MaxIters = 100
	}
	if cfg.Epsilon <= 0 {
		cfg.Epsilon = 1e-6
	}

	adj := buildAdjacency(edges)
	nodes := nodeIDs(adj)
	if len(nodes) == 0 {
		return map[string]float64{}
	}

	teleport := teleportDistribution(nodes, seeds)
	scores := make(map[string]float64, len(nodes))
	for _, n := range nodes {
		scores[n] = teleport[n]
	}

	outWeight := make(map[string]float64, len(nodes))
	for _, n := range nodes {
		for _, w := range adj[n] {
			outWeight[n] += w
		}
	}

	for iter := 0; iter < cfg.MaxIters; iter++ {
		next := make(map[string]float64, len(nodes))
		for _, n := range nodes {
			next[n] = (1 - cfg.Damping) * teleport[n]
		}
		for _, n := range nodes {
			if outWeight[n] == 0 {
				continue
			}
			share := cfg.Damping * scores[n] / outWeight[n]
			for neigh, w := range adj[n] {
				next[neigh] += share * w
			}
		}

		delta := 0.0
		for _, n := range nodes {
			d := next[n] - scores[n]
			if d < 0 {
				d = -d
			}
			delta += d
		}
		scores = next
		if delta < cfg.Epsilon {
			break
		}
	}
	return scores
}

// IncrementalUpdate re-propagates PageRank only within the neighbourhood of
// changedNodes, seeded from the existing scores, until epsilon-convergence.
// It is an approximation suited to a bounded set of edge changes; a full
// PersonalizedPageRank recompute should be used after large graph rewrites.
func IncrementalUpdate(edges []Edge, existing map[string]float64, changedNodes []string, seeds []string, cfg PageRankConfig) map[string]float64 {
	adj := buildAdjacency(edges)
	affected := affectedNeighborhood(adj, changedNodes, 2)

	if len(affected) == 0 {
		return existing
	}

	subEdges := make([]Edge, 0, len(edges))
	for _, e := range edges {
		if affected[e.Source] || affected[e.Target] {
			subEdges = append(subEdges, e)
		}
	}

	subSeeds := make([]string, 0, len(seeds))
	for _, s := range seeds {
		if affected[s] {
			subSeeds = append(subSeeds, s)
		}
	}

	updated := PersonalizedPageRank(subEdges, subSeeds, cfg)

	merged := make(map[string]float64, len(existing))
	for k, v := range existing {
		merged[k] = v
	}
	for k, v := range updated {
		merged[k] = v
	}
	return merged
}

func teleportDistribution(nodes []string, seeds []string) map[string]float64 {
	dist := make(map[string]float64, len(nodes))
	validSeeds := make([]string, 0, len(seeds))
	nodeSet := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		nodeSet[n] = true
	}
	for _, s := range seeds {
		if nodeSet[s] {
			validSeeds = append(validSeeds, s)
		}
	}
	if len(validSeeds) == 0 {
		p := 1.0 / float64(len(nodes))
		for _, n := range nodes {
			dist[n] = p
		}
		return dist
	}
	p := 1.0 / float64(len(validSeeds))
	for _, s := range validSeeds {
		dist[s] = p
	}
	return dist
}

// affectedNeighborhood returns every node reachable from changedNodes within
// hops steps, inclusive of the changed nodes themselves.
func affectedNeighborhood(adj adjacency, changedNodes []string, hops int) map[string]bool {
	frontier := make(map[string]bool, len(changedNodes))
	for _, n := range changedNodes {
		frontier[n] = true
	}
	affected := make(map[string]bool, len(frontier))
	for n := range frontier {
		affected[n] = true
	}

	for h := 0; h < hops; h++ {
		next := make(map[string]bool)
		keys := make([]string, 0, len(frontier))
		for n := range frontier {
			keys = append(keys, n)
		}
		sort.Strings(keys)
		for _, n := range keys {
			for neigh := range adj[n] {
				if !affected[neigh] {
					next[neigh] = true
					affected[neigh] = true
				}
			}
		}
		frontier = next
		if len(frontier) == 0 {
			break
		}
	}
	return affected
}
