package render

import (
	"strings"
	"testing"

	"github.com/janelia-flyem/cleave/pkg/cleave"
	"github.com/janelia-flyem/cleave/pkg/graph"
)

func testResult() (*graph.Adjacency, *cleave.Result) {
	g := graph.New()
	g.AddEdge(1, 2, 0.9)
	g.AddEdge(2, 3, 0.1)
	g.AddNode(10)

	res := &cleave.Result{
		Body: 7,
		Assignment: cleave.Assignment{
			1: 1, 2: 1, 3: 2, 10: cleave.Unassigned,
		},
		Groups: map[cleave.GroupLabel][]graph.SupervoxelID{
			1: {1, 2},
			2: {3},
		},
		Unassigned: []graph.SupervoxelID{10},
	}
	return g, res
}

func TestToDOT(t *testing.T) {
	g, res := testResult()
	dot := ToDOT(g, res, Options{Seeds: []graph.SupervoxelID{1, 3}})

	if !strings.HasPrefix(dot, "graph cleave {") {
		t.Fatalf("DOT should be an undirected graph, got %q", dot[:30])
	}
	for _, want := range []string{
		"1 -- 2",
		"2 -- 3",
		"fillcolor=lightgrey", // unassigned node 10
		"penwidth=3",          // seed outline
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}

	// Same group, same fill.
	if colorOf(t, dot, "1 [") != colorOf(t, dot, "2 [") {
		t.Error("nodes 1 and 2 share a group but differ in fill color")
	}
	if colorOf(t, dot, "1 [") == colorOf(t, dot, "3 [") {
		t.Error("nodes 1 and 3 are in different groups but share a fill color")
	}
}

func TestToDOTWeightLabels(t *testing.T) {
	g, res := testResult()

	dot := ToDOT(g, res, Options{})
	if strings.Contains(dot, `label="0.9"`) {
		t.Error("edge weights should be omitted by default")
	}

	dot = ToDOT(g, res, Options{Weights: true})
	if !strings.Contains(dot, `label="0.9"`) {
		t.Errorf("edge weight label missing:\n%s", dot)
	}
}

func colorOf(t *testing.T, dot, nodePrefix string) string {
	t.Helper()
	for _, line := range strings.Split(dot, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, nodePrefix) {
			i := strings.Index(line, "fillcolor=")
			if i < 0 {
				t.Fatalf("no fillcolor on line %q", line)
			}
			return line[i:]
		}
	}
	t.Fatalf("no node line starting with %q", nodePrefix)
	return ""
}
