package cleave

import (
	"math"
	"slices"

	"github.com/janelia-flyem/cleave/pkg/graph"
)

// MinCut is the alternative solver: a seeded minimum-cut partition. For two
// groups it computes the s-t max-flow/min-cut between the groups' seeds
// (Edmonds-Karp, BFS augmenting paths); for N groups it peels one group at
// a time in ascending label order, cutting that group's seeds against the
// union of all remaining seeds. The cut total weight is minimal per peel,
// which suits bodies whose groups have strong internal connectivity joined
// by weak bridges.
//
// Determinism: BFS visits neighbors in ascending supervoxel ID order and
// groups are peeled in ascending label order, so identical input yields an
// identical assignment.
type MinCut struct{}

// Name returns the strategy's configuration name.
func (MinCut) Name() string { return StrategyMinCut }

// capEpsilon is the smallest residual capacity treated as usable.
const capEpsilon = 1e-12

// Partition computes the seeded min-cut assignment. Nodes in components
// with no seed remain Unassigned.
func (MinCut) Partition(g *graph.Adjacency, seeds []SeedGroup) (Assignment, error) {
	assignment := seedAssignment(g, seeds)

	// Restrict the cut to nodes reachable from some seed; the rest stay
	// Unassigned, matching the region-growing contract.
	var roots []graph.SupervoxelID
	for _, group := range seeds {
		roots = append(roots, group.Supervoxels...)
	}
	remaining := g.Reachable(roots, func(graph.SupervoxelID) bool { return true })

	for i := 0; i < len(seeds)-1; i++ {
		var sinks []graph.SupervoxelID
		for _, group := range seeds[i+1:] {
			sinks = append(sinks, group.Supervoxels...)
		}

		side := minCutSourceSide(g, remaining, seeds[i].Supervoxels, sinks)
		for sv := range side {
			assignment[sv] = seeds[i].Label
			delete(remaining, sv)
		}
	}

	// Whatever survives every peel belongs to the last group.
	last := seeds[len(seeds)-1].Label
	for sv := range remaining {
		assignment[sv] = last
	}
	return assignment, nil
}

// Sentinel flow-network nodes. Real supervoxel IDs are store-assigned and
// never reach the top of the uint64 range.
const (
	superSource = graph.SupervoxelID(math.MaxUint64)
	superSink   = graph.SupervoxelID(math.MaxUint64 - 1)
)

// flowNet is a residual-capacity network over the remaining subgraph plus
// the two sentinel terminals.
type flowNet struct {
	residual map[graph.SupervoxelID]map[graph.SupervoxelID]float64
	nbrs     map[graph.SupervoxelID][]graph.SupervoxelID
}

func (n *flowNet) addArc(u, v graph.SupervoxelID, capacity float64) {
	if n.residual[u] == nil {
		n.residual[u] = make(map[graph.SupervoxelID]float64)
	}
	if _, ok := n.residual[u][v]; !ok {
		n.nbrs[u] = append(n.nbrs[u], v)
	}
	n.residual[u][v] += capacity
}

// minCutSourceSide returns the source side of the minimum cut separating
// sources from sinks inside the remaining node set. Source seeds in
// components that contain no sink are unseparable and end up on the source
// side, which is the desired outcome for disconnected seed groups.
func minCutSourceSide(g *graph.Adjacency, remaining map[graph.SupervoxelID]bool, sources, sinks []graph.SupervoxelID) map[graph.SupervoxelID]bool {
	net := &flowNet{
		residual: make(map[graph.SupervoxelID]map[graph.SupervoxelID]float64),
		nbrs:     make(map[graph.SupervoxelID][]graph.SupervoxelID),
	}

	for _, e := range g.Edges() {
		if !remaining[e.A] || !remaining[e.B] {
			continue
		}
		// Undirected edge: full capacity both ways.
		net.addArc(e.A, e.B, e.Weight)
		net.addArc(e.B, e.A, e.Weight)
	}
	for _, sv := range sources {
		if remaining[sv] {
			net.addArc(superSource, sv, math.Inf(1))
			net.addArc(sv, superSource, 0)
		}
	}
	for _, sv := range sinks {
		if remaining[sv] {
			net.addArc(sv, superSink, math.Inf(1))
			net.addArc(superSink, sv, 0)
		}
	}
	for _, svs := range net.nbrs {
		slices.Sort(svs)
	}

	// Edmonds-Karp: repeatedly augment along the shortest residual path.
	for {
		parent := bfsResidualPath(net)
		if parent == nil {
			break
		}
		bottleneck := math.Inf(1)
		for v := superSink; v != superSource; {
			u := parent[v]
			if c := net.residual[u][v]; c < bottleneck {
				bottleneck = c
			}
			v = u
		}
		for v := superSink; v != superSource; {
			u := parent[v]
			net.residual[u][v] -= bottleneck
			net.residual[v][u] += bottleneck
			v = u
		}
	}

	// The source side is everything residual-reachable from the source.
	side := make(map[graph.SupervoxelID]bool)
	queue := []graph.SupervoxelID{superSource}
	seen := map[graph.SupervoxelID]bool{superSource: true}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, v := range net.nbrs[u] {
			if !seen[v] && net.residual[u][v] > capEpsilon {
				seen[v] = true
				queue = append(queue, v)
				if v != superSink {
					side[v] = true
				}
			}
		}
	}
	return side
}

// bfsResidualPath finds the shortest residual path from source to sink and
// returns the parent map, or nil if the sink is unreachable.
func bfsResidualPath(net *flowNet) map[graph.SupervoxelID]graph.SupervoxelID {
	parent := map[graph.SupervoxelID]graph.SupervoxelID{superSource: superSource}
	queue := []graph.SupervoxelID{superSource}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, v := range net.nbrs[u] {
			if _, seen := parent[v]; seen || net.residual[u][v] <= capEpsilon {
				continue
			}
			parent[v] = u
			if v == superSink {
				return parent
			}
			queue = append(queue, v)
		}
	}
	return nil
}
