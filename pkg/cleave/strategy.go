package cleave

import (
	cerrors "github.com/janelia-flyem/cleave/pkg/errors"
	"github.com/janelia-flyem/cleave/pkg/graph"
)

// Strategy partitions a graph into label groups consistent with the seeds.
//
// Contract, identical for every implementation:
//   - Every seed keeps its group's label (seed fidelity).
//   - Every node reachable from any seed is assigned to exactly one group.
//   - Nodes in components containing no seed map to Unassigned.
//   - Identical graph and seed input yields a bit-identical assignment;
//     ties are broken by documented rules, never by iteration order.
type Strategy interface {
	// Name returns the strategy's configuration name.
	Name() string

	// Partition computes the assignment. The seed slice is sorted by label
	// and each group's supervoxels are sorted, as produced by seed
	// resolution.
	Partition(g *graph.Adjacency, seeds []SeedGroup) (Assignment, error)
}

// StrategyFor returns the named strategy. Selection is explicit
// configuration, never a hidden heuristic, so callers can test each
// strategy deterministically.
func StrategyFor(name string) (Strategy, error) {
	switch name {
	case StrategyRegionGrowing:
		return RegionGrowing{}, nil
	case StrategyMinCut:
		return MinCut{}, nil
	default:
		return nil, cerrors.New(cerrors.ErrCodeInvalidStrategy,
			"unknown strategy %q (want %q or %q)", name, StrategyRegionGrowing, StrategyMinCut)
	}
}

// seedAssignment returns a fresh assignment with every graph node marked
// Unassigned and every seed pre-labeled with its group.
func seedAssignment(g *graph.Adjacency, seeds []SeedGroup) Assignment {
	assignment := make(Assignment, g.NumNodes())
	for _, sv := range g.Nodes() {
		assignment[sv] = Unassigned
	}
	for _, group := range seeds {
		for _, sv := range group.Supervoxels {
			assignment[sv] = group.Label
		}
	}
	return assignment
}
