package graph

import (
	"reflect"
	"testing"
)

func TestAddEdgeDedupKeepsMaxWeight(t *testing.T) {
	g := New()
	g.AddEdge(1, 2, 0.3)
	g.AddEdge(2, 1, 0.9) // duplicate, reversed, stronger
	g.AddEdge(1, 2, 0.5) // duplicate, weaker

	if g.NumEdges() != 1 {
		t.Fatalf("NumEdges() = %d, want 1", g.NumEdges())
	}
	w, ok := g.Weight(1, 2)
	if !ok || w != 0.9 {
		t.Errorf("Weight(1,2) = %v, %v; want 0.9, true", w, ok)
	}
}

func TestAddEdgeIgnoresSelfEdge(t *testing.T) {
	g := New()
	g.AddEdge(5, 5, 1.0)
	if g.NumEdges() != 0 {
		t.Errorf("self-edge should be dropped, got %d edges", g.NumEdges())
	}
	if g.HasNode(5) {
		t.Error("self-edge should not introduce a node")
	}
}

func TestNodesAndNeighborsSorted(t *testing.T) {
	g := New()
	g.AddEdge(30, 10, 1)
	g.AddEdge(30, 20, 1)
	g.AddEdge(30, 5, 1)

	if got := g.Nodes(); !reflect.DeepEqual(got, []SupervoxelID{5, 10, 20, 30}) {
		t.Errorf("Nodes() = %v", got)
	}
	if got := g.Neighbors(30); !reflect.DeepEqual(got, []SupervoxelID{5, 10, 20}) {
		t.Errorf("Neighbors(30) = %v", got)
	}
	if got := g.Neighbors(99); got != nil {
		t.Errorf("Neighbors of absent node = %v, want nil", got)
	}
}

func TestEdgesSorted(t *testing.T) {
	g := New()
	g.AddEdge(4, 2, 0.1)
	g.AddEdge(1, 3, 0.2)
	g.AddEdge(1, 2, 0.3)

	want := []Edge{{1, 2, 0.3}, {1, 3, 0.2}, {2, 4, 0.1}}
	if got := g.Edges(); !reflect.DeepEqual(got, want) {
		t.Errorf("Edges() = %v, want %v", got, want)
	}
}

func TestComponents(t *testing.T) {
	g := New()
	// Component 1: 1-2-3, Component 2: 10-11, Component 3: isolated 50
	g.AddEdge(1, 2, 1)
	g.AddEdge(2, 3, 1)
	g.AddEdge(10, 11, 1)
	g.AddNode(50)

	want := [][]SupervoxelID{{1, 2, 3}, {10, 11}, {50}}
	if got := g.Components(); !reflect.DeepEqual(got, want) {
		t.Errorf("Components() = %v, want %v", got, want)
	}
}

func TestReachableRespectsRestriction(t *testing.T) {
	g := New()
	g.AddEdge(1, 2, 1)
	g.AddEdge(2, 3, 1)
	g.AddEdge(3, 4, 1)

	// Only nodes <= 2 are inside the induced subgraph.
	reached := g.Reachable([]SupervoxelID{1}, func(sv SupervoxelID) bool { return sv <= 2 })
	if len(reached) != 2 || !reached[1] || !reached[2] {
		t.Errorf("Reachable = %v, want {1, 2}", reached)
	}
}

func TestPointString(t *testing.T) {
	p := Point{100, 200, 300}
	if p.String() != "(100, 200, 300)" {
		t.Errorf("String() = %q", p.String())
	}
}
