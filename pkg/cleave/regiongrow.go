package cleave

import (
	"container/heap"

	"github.com/janelia-flyem/cleave/pkg/graph"
)

// RegionGrowing is the default solver: multi-source best-first expansion.
// Seeds are pre-labeled cluster anchors; unseeded nodes are claimed in order
// of the strongest edge connecting them to an already-labeled node.
//
// Tie-break, in order: higher edge weight, lower candidate supervoxel ID,
// lower group label. The rule is part of the contract: an interactive
// caller retrying the same request must get the same answer.
//
// Complexity is O(E log E): each edge pushes at most one frontier entry per
// endpoint, and stale entries are skipped on pop (lazy deletion, the same
// scheme as a lazy-decrease-key Dijkstra).
type RegionGrowing struct{}

// Name returns the strategy's configuration name.
func (RegionGrowing) Name() string { return StrategyRegionGrowing }

// Partition grows each seed group outward until every reachable node is
// labeled. Nodes in components with no seed remain Unassigned.
func (RegionGrowing) Partition(g *graph.Adjacency, seeds []SeedGroup) (Assignment, error) {
	assignment := seedAssignment(g, seeds)

	frontier := &claimHeap{}
	heap.Init(frontier)

	push := func(from graph.SupervoxelID, label GroupLabel) {
		for _, nbr := range g.Neighbors(from) {
			if assignment[nbr] != Unassigned {
				continue
			}
			w, _ := g.Weight(from, nbr)
			heap.Push(frontier, claim{weight: w, candidate: nbr, label: label})
		}
	}

	// Seeds are pushed in label order, groups' supervoxels in ID order;
	// the heap comparator alone determines claim order regardless.
	for _, group := range seeds {
		for _, sv := range group.Supervoxels {
			push(sv, group.Label)
		}
	}

	for frontier.Len() > 0 {
		c := heap.Pop(frontier).(claim)
		if assignment[c.candidate] != Unassigned {
			continue // stale entry: claimed via a stronger edge already
		}
		assignment[c.candidate] = c.label
		push(c.candidate, c.label)
	}

	return assignment, nil
}

// claim is a frontier entry: candidate may join label via an edge of the
// given weight.
type claim struct {
	weight    float64
	candidate graph.SupervoxelID
	label     GroupLabel
}

// claimHeap orders claims by weight descending, then candidate supervoxel
// ID ascending, then group label ascending.
type claimHeap []claim

func (h claimHeap) Len() int { return len(h) }

func (h claimHeap) Less(i, j int) bool {
	if h[i].weight != h[j].weight {
		return h[i].weight > h[j].weight
	}
	if h[i].candidate != h[j].candidate {
		return h[i].candidate < h[j].candidate
	}
	return h[i].label < h[j].label
}

func (h claimHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *claimHeap) Push(x any) { *h = append(*h, x.(claim)) }

func (h *claimHeap) Pop() any {
	old := *h
	n := len(old)
	c := old[n-1]
	*h = old[:n-1]
	return c
}
