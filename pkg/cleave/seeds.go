package cleave

import (
	"context"
	"slices"

	"github.com/janelia-flyem/cleave/pkg/dvid"
	cerrors "github.com/janelia-flyem/cleave/pkg/errors"
	"github.com/janelia-flyem/cleave/pkg/graph"
)

// resolveSeeds turns a request's seed supervoxels and seed points into
// disjoint SeedGroups validated against the graph.
//
// Failure modes:
//   - AMBIGUOUS_SEED: a point resolves to a supervoxel outside the graph
//     (stale coordinate), or a listed supervoxel is not a graph node.
//   - INSUFFICIENT_SEEDS: fewer than two distinct non-empty groups remain.
//   - INVALID_INPUT: a supervoxel is claimed by more than one group, or a
//     group uses the reserved label 0. Overlaps are rejected, never
//     silently resolved.
//
// Groups are returned sorted by label; each group's supervoxels are sorted
// and deduplicated.
func resolveSeeds(ctx context.Context, store dvid.Client, g *graph.Adjacency, req Request) ([]SeedGroup, error) {
	members := make(map[GroupLabel]map[graph.SupervoxelID]bool)

	add := func(label GroupLabel, sv graph.SupervoxelID) error {
		if label == Unassigned {
			return cerrors.New(cerrors.ErrCodeInvalidInput, "group label 0 is reserved for unassigned nodes")
		}
		if members[label] == nil {
			members[label] = make(map[graph.SupervoxelID]bool)
		}
		members[label][sv] = true
		return nil
	}

	for label, svs := range req.Seeds {
		for _, sv := range svs {
			if !g.HasNode(sv) {
				return nil, cerrors.New(cerrors.ErrCodeAmbiguousSeed,
					"seed supervoxel %d (group %d) is not part of body %d's graph", sv, label, req.Body)
			}
			if err := add(label, sv); err != nil {
				return nil, err
			}
		}
	}

	for label, points := range req.Points {
		for _, p := range points {
			sv, err := store.FetchSupervoxelAt(ctx, p)
			if err != nil {
				return nil, err
			}
			if !g.HasNode(sv) {
				return nil, cerrors.New(cerrors.ErrCodeAmbiguousSeed,
					"seed point %s resolves to supervoxel %d, which is not part of body %d's graph (stale coordinate?)",
					p, sv, req.Body)
			}
			if err := add(label, sv); err != nil {
				return nil, err
			}
		}
	}

	labels := make([]GroupLabel, 0, len(members))
	for label, svs := range members {
		if len(svs) > 0 {
			labels = append(labels, label)
		}
	}
	if len(labels) < 2 {
		return nil, cerrors.New(cerrors.ErrCodeInsufficientSeeds,
			"a cleave requires at least 2 non-empty seed groups, got %d", len(labels))
	}
	slices.Sort(labels)

	claimed := make(map[graph.SupervoxelID]GroupLabel)
	groups := make([]SeedGroup, 0, len(labels))
	for _, label := range labels {
		svs := make([]graph.SupervoxelID, 0, len(members[label]))
		for sv := range members[label] {
			if prev, ok := claimed[sv]; ok {
				return nil, cerrors.New(cerrors.ErrCodeInvalidInput,
					"supervoxel %d is claimed by groups %d and %d", sv, prev, label)
			}
			claimed[sv] = label
			svs = append(svs, sv)
		}
		slices.Sort(svs)
		groups = append(groups, SeedGroup{Label: label, Supervoxels: svs})
	}
	return groups, nil
}
