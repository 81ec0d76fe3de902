package cleave

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/janelia-flyem/cleave/pkg/errors"
	"github.com/janelia-flyem/cleave/pkg/graph"
)

func pathGraph(weights ...float64) *graph.Adjacency {
	g := graph.New()
	for i, w := range weights {
		g.AddEdge(graph.SupervoxelID(i+1), graph.SupervoxelID(i+2), w)
	}
	return g
}

func twoSeeds(a, b graph.SupervoxelID) []SeedGroup {
	return []SeedGroup{
		{Label: 1, Supervoxels: []graph.SupervoxelID{a}},
		{Label: 2, Supervoxels: []graph.SupervoxelID{b}},
	}
}

func bothStrategies(t *testing.T, fn func(t *testing.T, s Strategy)) {
	t.Helper()
	for _, name := range []string{StrategyRegionGrowing, StrategyMinCut} {
		s, err := StrategyFor(name)
		require.NoError(t, err)
		t.Run(name, func(t *testing.T) { fn(t, s) })
	}
}

func TestStrategyFor(t *testing.T) {
	s, err := StrategyFor(StrategyRegionGrowing)
	require.NoError(t, err)
	assert.Equal(t, StrategyRegionGrowing, s.Name())

	s, err = StrategyFor(StrategyMinCut)
	require.NoError(t, err)
	assert.Equal(t, StrategyMinCut, s.Name())

	_, err = StrategyFor("simulated-annealing")
	assert.True(t, cerrors.Is(err, cerrors.ErrCodeInvalidStrategy))
}

// Uniform path 1-2-3-4-5 with seeds at the ends. Node 3 is equidistant; the
// documented tie-break (lower candidate ID, then lower label) sends it to
// group 1.
func TestRegionGrowingPathTieBreak(t *testing.T) {
	g := pathGraph(1, 1, 1, 1)

	assignment, err := (RegionGrowing{}).Partition(g, twoSeeds(1, 5))
	require.NoError(t, err)

	want := Assignment{1: 1, 2: 1, 3: 1, 4: 2, 5: 2}
	assert.Equal(t, want, assignment)
}

func TestRegionGrowingFollowsStrongestEdge(t *testing.T) {
	// 3 is weakly attached to 2 and strongly attached to 4.
	g := pathGraph(1, 0.2, 0.8, 1)

	assignment, err := (RegionGrowing{}).Partition(g, twoSeeds(1, 5))
	require.NoError(t, err)
	assert.Equal(t, GroupLabel(2), assignment[3])
	assert.Equal(t, GroupLabel(1), assignment[2])
}

func TestSeedFidelity(t *testing.T) {
	g := graph.New()
	// A clique-ish blob where naive propagation could be tempted across.
	g.AddEdge(1, 2, 0.9)
	g.AddEdge(2, 3, 0.9)
	g.AddEdge(3, 4, 0.9)
	g.AddEdge(4, 1, 0.9)
	g.AddEdge(1, 3, 0.8)
	g.AddEdge(2, 4, 0.8)

	seeds := []SeedGroup{
		{Label: 1, Supervoxels: []graph.SupervoxelID{1, 3}},
		{Label: 2, Supervoxels: []graph.SupervoxelID{2, 4}},
	}

	bothStrategies(t, func(t *testing.T, s Strategy) {
		assignment, err := s.Partition(g, seeds)
		require.NoError(t, err)
		for _, group := range seeds {
			for _, sv := range group.Supervoxels {
				assert.Equal(t, group.Label, assignment[sv], "seed %d must keep label %d", sv, group.Label)
			}
		}
	})
}

func TestTotalDisjointCoverage(t *testing.T) {
	g := pathGraph(0.5, 0.1, 0.9, 0.3, 0.7)
	g.AddEdge(2, 6, 0.4)

	bothStrategies(t, func(t *testing.T, s Strategy) {
		assignment, err := s.Partition(g, twoSeeds(1, 6))
		require.NoError(t, err)

		assert.Len(t, assignment, g.NumNodes())
		for _, sv := range g.Nodes() {
			label, ok := assignment[sv]
			require.True(t, ok, "node %d missing from assignment", sv)
			assert.NotEqual(t, Unassigned, label, "node %d unassigned in a fully seeded graph", sv)
		}
	})
}

func TestDeterminism(t *testing.T) {
	g := graph.New()
	// Deliberately tie-heavy graph.
	g.AddEdge(10, 20, 0.5)
	g.AddEdge(10, 30, 0.5)
	g.AddEdge(20, 40, 0.5)
	g.AddEdge(30, 40, 0.5)
	g.AddEdge(40, 50, 0.5)
	g.AddEdge(20, 50, 0.5)

	bothStrategies(t, func(t *testing.T, s Strategy) {
		first, err := s.Partition(g, twoSeeds(10, 50))
		require.NoError(t, err)
		for range 10 {
			again, err := s.Partition(g, twoSeeds(10, 50))
			require.NoError(t, err)
			assert.Equal(t, first, again, "identical input must yield a bit-identical assignment")
		}
	})
}

func TestUnseededComponentStaysUnassigned(t *testing.T) {
	g := pathGraph(1, 1) // component 1: 1-2-3
	g.AddEdge(10, 11, 1) // component 2: no seeds

	bothStrategies(t, func(t *testing.T, s Strategy) {
		assignment, err := s.Partition(g, twoSeeds(1, 3))
		require.NoError(t, err)
		assert.Equal(t, Unassigned, assignment[10])
		assert.Equal(t, Unassigned, assignment[11])
		assert.NotEqual(t, Unassigned, assignment[2])
	})
}

func TestMinCutSeversWeakBridge(t *testing.T) {
	g := graph.New()
	// Two strongly connected triangles joined by one weak edge.
	g.AddEdge(1, 2, 0.9)
	g.AddEdge(2, 3, 0.9)
	g.AddEdge(1, 3, 0.9)
	g.AddEdge(4, 5, 0.9)
	g.AddEdge(5, 6, 0.9)
	g.AddEdge(4, 6, 0.9)
	g.AddEdge(3, 4, 0.1) // the bridge

	assignment, err := (MinCut{}).Partition(g, twoSeeds(1, 6))
	require.NoError(t, err)

	want := Assignment{1: 1, 2: 1, 3: 1, 4: 2, 5: 2, 6: 2}
	assert.Equal(t, want, assignment)
}

func TestMinCutThreeGroups(t *testing.T) {
	g := graph.New()
	// Three blobs in a line, weakly bridged.
	g.AddEdge(1, 2, 0.9)
	g.AddEdge(3, 4, 0.9)
	g.AddEdge(5, 6, 0.9)
	g.AddEdge(2, 3, 0.1)
	g.AddEdge(4, 5, 0.1)

	seeds := []SeedGroup{
		{Label: 1, Supervoxels: []graph.SupervoxelID{1}},
		{Label: 2, Supervoxels: []graph.SupervoxelID{3}},
		{Label: 3, Supervoxels: []graph.SupervoxelID{6}},
	}
	assignment, err := (MinCut{}).Partition(g, seeds)
	require.NoError(t, err)

	want := Assignment{1: 1, 2: 1, 3: 2, 4: 2, 5: 3, 6: 3}
	assert.Equal(t, want, assignment)
}

func TestMinCutDisconnectedSeedGroups(t *testing.T) {
	// Both seeds of group 1 sit in a component with no group-2 seed: the
	// whole component lands on group 1 without an augmenting path.
	g := pathGraph(1) // 1-2
	g.AddEdge(10, 11, 1)

	seeds := []SeedGroup{
		{Label: 1, Supervoxels: []graph.SupervoxelID{1}},
		{Label: 2, Supervoxels: []graph.SupervoxelID{10}},
	}
	assignment, err := (MinCut{}).Partition(g, seeds)
	require.NoError(t, err)
	assert.Equal(t, GroupLabel(1), assignment[2])
	assert.Equal(t, GroupLabel(2), assignment[11])
}
