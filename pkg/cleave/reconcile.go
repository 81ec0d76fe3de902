package cleave

import (
	"fmt"
	"slices"

	"github.com/janelia-flyem/cleave/pkg/graph"
)

// reconcile validates an assignment and packages it as a Result.
//
// Two invariants are checked:
//   - Seed fidelity: every seed maps to its own group's label.
//   - Group connectivity: every labeled node reaches one of its group's
//     seeds inside the group's induced subgraph.
//
// Violations never raise: they set Valid=false and attach the violating
// node sets, because they are diagnostic information for an interactive
// caller, not programming errors. Unassigned nodes (components with no
// seed) likewise degrade validity and are listed exactly.
func reconcile(bg *BodyGraph, seeds []SeedGroup, assignment Assignment) *Result {
	res := &Result{
		Body:       bg.Body,
		MutationID: bg.MutationID,
		Assignment: assignment,
		Groups:     make(map[GroupLabel][]graph.SupervoxelID, len(seeds)),
		Valid:      true,
		NumNodes:   bg.Graph.NumNodes(),
		NumEdges:   bg.Graph.NumEdges(),
	}

	for _, group := range seeds {
		res.Groups[group.Label] = nil
	}
	for _, sv := range bg.Graph.Nodes() {
		label := assignment[sv]
		if label == Unassigned {
			res.Unassigned = append(res.Unassigned, sv)
			continue
		}
		res.Groups[label] = append(res.Groups[label], sv)
	}
	// Nodes() is sorted, so group and unassigned slices already are.

	if len(res.Unassigned) > 0 {
		res.Valid = false
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"%d supervoxels are in components containing no seed and were left unassigned", len(res.Unassigned)))
	}
	if bg.StaleEdges > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"%d stale edges referencing non-member supervoxels were dropped", bg.StaleEdges))
	}

	for _, group := range seeds {
		for _, sv := range group.Supervoxels {
			if assignment[sv] != group.Label {
				res.Valid = false
				res.Warnings = append(res.Warnings, fmt.Sprintf(
					"seed fidelity violated: supervoxel %d seeded for group %d but assigned %d",
					sv, group.Label, assignment[sv]))
			}
		}
	}

	for _, group := range seeds {
		label := group.Label
		reached := bg.Graph.Reachable(group.Supervoxels, func(sv graph.SupervoxelID) bool {
			return assignment[sv] == label
		})
		var stranded []graph.SupervoxelID
		for _, sv := range res.Groups[label] {
			if !reached[sv] {
				stranded = append(stranded, sv)
			}
		}
		if len(stranded) > 0 {
			slices.Sort(stranded)
			if res.Stranded == nil {
				res.Stranded = make(map[GroupLabel][]graph.SupervoxelID)
			}
			res.Stranded[label] = stranded
			res.Valid = false
			res.Warnings = append(res.Warnings, fmt.Sprintf(
				"group %d: %d supervoxels cannot reach the group's seeds within the group", label, len(stranded)))
		}
	}

	return res
}
