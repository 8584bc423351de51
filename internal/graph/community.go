package graph

import (
	"sort"
	"strconv"
)

// rng is a deterministic xorshift64 PRNG. Community detection uses it (not
// math/rand) so node-visit order, and therefore the resulting partition, is
// reproducible across runs given the same seed.
type rng struct {
	state uint64
}

func newRNG(seed uint64) *rng {
	if seed == 0 {
		seed = 0x9e3779b97f4a7c15
	}
	return &rng{state: seed}
}

func (r *rng) next() uint64 {
	x := r.state
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	r.state = x
	return x
}

// shuffle permutes ids in place using a Fisher-Yates shuffle driven by r.
func (r *rng) shuffle(ids []string) {
	for i := len(ids) - 1; i > 0; i-- {
		j := int(r.next() % uint64(i+1))
		ids[i], ids[j] = ids[j], ids[i]
	}
}

// adjacency maps a node id to its neighbour id -> combined edge weight
// (undirected, both edge directions merged).
type adjacency map[string]map[string]float64

func buildAdjacency(edges []Edge) adjacency {
	adj := make(adjacency)
	add := func(a, b string, w float64) {
		if _, ok := adj[a]; !ok {
			adj[a] = make(map[string]float64)
		}
		adj[a][b] += w
	}
	for _, e := range edges {
		add(e.Source, e.Target, e.Weight)
		add(e.Target, e.Source, e.Weight)
	}
	return adj
}

// Partition maps a node id to its community id.
type Partition map[string]string

// CommunityConfig tunes the Leiden-style detection procedure.
type CommunityConfig struct {
	Seed       uint64
	MaxLevels  int
	Resolution float64
}

// DefaultCommunityConfig returns seed=1, up to 10 aggregation levels, and
// resolution 1.0 (standard modularity).
func DefaultCommunityConfig() CommunityConfig {
	return CommunityConfig{Seed: 1, MaxLevels: 10, Resolution: 1.0}
}

// DetectCommunities runs the local-moving / refinement / aggregation
// procedure over edges and returns the final node -> community assignment.
func DetectCommunities(edges []Edge, cfg CommunityConfig) Partition {
	if cfg.MaxLevels <= 0 {
		cfg.MaxLevels = 10
	}
	if cfg.Resolution <= 0 {
		cfg.Resolution = 1.0
	}
	r := newRNG(cfg.Seed)

	adj := buildAdjacency(edges)
	nodes := nodeIDs(adj)
	if len(nodes) == 0 {
		return Partition{}
	}

	// assignment maps an original node id to its current (possibly
	// aggregated) community label at this level.
	assignment := make(Partition, len(nodes))
	for _, n := range nodes {
		assignment[n] = n
	}

	curAdj := adj
	curNodes := nodes
	for level := 0; level < cfg.MaxLevels; level++ {
		comm := localMoving(curAdj, curNodes, r, cfg.Resolution)
		comm = refine(curAdj, comm, r)

		// propagate this level's assignment back through the accumulated map
		for orig, cur := range assignment {
			if next, ok := comm[cur]; ok {
				assignment[orig] = next
			}
		}

		superAdj, superNodes := aggregate(curAdj, comm)
		if len(superNodes) == len(curNodes) {
			break // no further aggregation possible, converged
		}
		curAdj = superAdj
		curNodes = superNodes
	}

	return assignment
}

func nodeIDs(adj adjacency) []string {
	ids := make([]string, 0, len(adj))
	for n := range adj {
		ids = append(ids, n)
	}
	sort.Strings(ids) // stable base order before the PRNG shuffles it
	return ids
}

// localMoving greedily reassigns each node to the neighbouring community
// that yields the largest modularity gain, iterating until no node moves.
func localMoving(adj adjacency, nodes []string, r *rng, resolution float64) Partition {
	comm := make(Partition, len(nodes))
	degree := make(map[string]float64, len(nodes))
	var totalWeight float64
	for _, n := range nodes {
		comm[n] = n
		for _, w := range adj[n] {
			degree[n] += w
		}
		totalWeight += degree[n]
	}
	if totalWeight == 0 {
		return comm
	}
	m2 := totalWeight // sum of degrees == 2*m for undirected weighted graphs

	commDegree := make(map[string]float64, len(nodes))
	for _, n := range nodes {
		commDegree[comm[n]] += degree[n]
	}

	order := append([]string(nil), nodes...)
	for pass := 0; pass < 20; pass++ {
		r.shuffle(order)
		moved := false
		for _, n := range order {
			current := comm[n]
			commDegree[current] -= degree[n]

			gains := make(map[string]float64)
			for neigh, w := range adj[n] {
				if neigh == n {
					continue
				}
				gains[comm[neigh]] += w
			}

			best := current
			bestGain := gains[current] - resolution*degree[n]*commDegree[current]/m2
			for c, linkWeight := range gains {
				gain := linkWeight - resolution*degree[n]*commDegree[c]/m2
				if gain > bestGain || (gain == bestGain && best != current && c < best) {
					bestGain = gain
					best = c
				}
			}

			comm[n] = best
			commDegree[best] += degree[n]
			if best != current {
				moved = true
			}
		}
		if !moved {
			break
		}
	}
	return comm
}

// refine splits any community whose induced subgraph is disconnected into
// one new community id per connected component, via BFS.
func refine(adj adjacency, comm Partition, r *rng) Partition {
	byComm := make(map[string][]string)
	for n, c := range comm {
		byComm[c] = append(byComm[c], n)
	}

	bases := make([]string, 0, len(byComm))
	for base := range byComm {
		bases = append(bases, base)
	}
	sort.Strings(bases)

	refined := make(Partition, len(comm))
	for _, base := range bases {
		members := byComm[base]
		visited := make(map[string]bool, len(members))
		memberSet := make(map[string]bool, len(members))
		for _, m := range members {
			memberSet[m] = true
		}

		ordered := append([]string(nil), members...)
		sort.Strings(ordered)
		r.shuffle(ordered)

		compIdx := 0
		for _, start := range ordered {
			if visited[start] {
				continue
			}
			label := base
			if compIdx > 0 {
				label = base + "#" + strconv.Itoa(compIdx)
			}
			queue := []string{start}
			visited[start] = true
			for len(queue) > 0 {
				cur := queue[0]
				queue = queue[1:]
				refined[cur] = label
				for neigh := range adj[cur] {
					if memberSet[neigh] && !visited[neigh] {
						visited[neigh] = true
						queue = append(queue, neigh)
					}
				}
			}
			compIdx++
		}
	}
	return refined
}

// aggregate builds a super-node graph from comm: one super-node per
// community, with inter-community edge weights summed and intra-community
// weight kept as a self-loop so each super-node's degree is preserved.
func aggregate(adj adjacency, comm Partition) (adjacency, []string) {
	super := make(adjacency)
	seen := make(map[string]bool)
	for n, neighbors := range adj {
		cn := comm[n]
		seen[cn] = true
		for neigh, w := range neighbors {
			cm := comm[neigh]
			if _, ok := super[cn]; !ok {
				super[cn] = make(map[string]float64)
			}
			super[cn][cm] += w
		}
	}
	nodes := make([]string, 0, len(seen))
	for n := range seen {
		nodes = append(nodes, n)
		if _, ok := super[n]; !ok {
			super[n] = make(map[string]float64)
		}
	}
	sort.Strings(nodes)
	return super, nodes
}
