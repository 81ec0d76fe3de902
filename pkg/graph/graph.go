// Package graph provides the weighted adjacency graph over supervoxels that
// the cleave engine partitions.
//
// A graph is built fresh per cleave request from the store's edge list and
// discarded once the result is produced. All accessors return nodes and
// edges in sorted order so downstream algorithms are deterministic given
// identical input.
package graph

import (
	"fmt"
	"slices"
)

// SupervoxelID identifies an atomic segment fragment. IDs are assigned by the
// segmentation store and immutable.
type SupervoxelID uint64

// BodyID identifies a set of supervoxels currently agglomerated into one
// body. Membership is mutable on the store side; a graph captures a snapshot
// of one body's membership at build time.
type BodyID uint64

// Point is a voxel coordinate in XYZ order, matching DVID's coordinate
// convention.
type Point [3]int32

// String formats the point as "(x, y, z)".
func (p Point) String() string {
	return fmt.Sprintf("(%d, %d, %d)", p[0], p[1], p[2])
}

// Edge is an undirected weighted edge between two supervoxels. The weight is
// the affinity that both fragments belong to the same body. Endpoints are
// normalized so A < B.
type Edge struct {
	A      SupervoxelID `json:"a" bson:"a"`
	B      SupervoxelID `json:"b" bson:"b"`
	Weight float64      `json:"weight" bson:"weight"`
}

// Adjacency is an undirected weighted graph over supervoxels.
// The zero value is not usable; create instances with New.
type Adjacency struct {
	adj map[SupervoxelID]map[SupervoxelID]float64
}

// New creates an empty adjacency graph.
func New() *Adjacency {
	return &Adjacency{adj: make(map[SupervoxelID]map[SupervoxelID]float64)}
}

// AddNode ensures sv exists in the graph, with no edges if it is new.
// Isolated members of a body are represented this way so that a cleave
// assignment can still cover them.
func (g *Adjacency) AddNode(sv SupervoxelID) {
	if _, ok := g.adj[sv]; !ok {
		g.adj[sv] = make(map[SupervoxelID]float64)
	}
}

// AddEdge inserts an undirected edge between a and b. Self-edges are ignored.
// If the edge already exists the maximum weight wins, so duplicate rows in a
// store edge list collapse to their strongest affinity.
func (g *Adjacency) AddEdge(a, b SupervoxelID, weight float64) {
	if a == b {
		return
	}
	g.AddNode(a)
	g.AddNode(b)
	if w, ok := g.adj[a][b]; !ok || weight > w {
		g.adj[a][b] = weight
		g.adj[b][a] = weight
	}
}

// HasNode reports whether sv is a node of the graph.
func (g *Adjacency) HasNode(sv SupervoxelID) bool {
	_, ok := g.adj[sv]
	return ok
}

// Weight returns the edge weight between a and b, and whether the edge exists.
func (g *Adjacency) Weight(a, b SupervoxelID) (float64, bool) {
	w, ok := g.adj[a][b]
	return w, ok
}

// NumNodes returns the number of nodes.
func (g *Adjacency) NumNodes() int { return len(g.adj) }

// NumEdges returns the number of undirected edges.
func (g *Adjacency) NumEdges() int {
	n := 0
	for _, nbrs := range g.adj {
		n += len(nbrs)
	}
	return n / 2
}

// Nodes returns all supervoxel IDs in ascending order.
func (g *Adjacency) Nodes() []SupervoxelID {
	nodes := make([]SupervoxelID, 0, len(g.adj))
	for sv := range g.adj {
		nodes = append(nodes, sv)
	}
	slices.Sort(nodes)
	return nodes
}

// Neighbors returns the neighbors of sv in ascending order.
// Returns nil if sv is not in the graph.
func (g *Adjacency) Neighbors(sv SupervoxelID) []SupervoxelID {
	nbrs, ok := g.adj[sv]
	if !ok {
		return nil
	}
	out := make([]SupervoxelID, 0, len(nbrs))
	for n := range nbrs {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

// Edges returns all undirected edges with A < B, sorted by (A, B).
func (g *Adjacency) Edges() []Edge {
	edges := make([]Edge, 0, g.NumEdges())
	for a, nbrs := range g.adj {
		for b, w := range nbrs {
			if a < b {
				edges = append(edges, Edge{A: a, B: b, Weight: w})
			}
		}
	}
	slices.SortFunc(edges, func(x, y Edge) int {
		if x.A != y.A {
			if x.A < y.A {
				return -1
			}
			return 1
		}
		if x.B != y.B {
			if x.B < y.B {
				return -1
			}
			return 1
		}
		return 0
	})
	return edges
}
