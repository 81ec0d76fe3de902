// Package render visualizes cleave results as node-link diagrams.
//
// # Overview
//
// This package produces Graphviz drawings of a body's supervoxel adjacency
// graph with nodes colored by their assigned cleave group. It exists for
// proofreading review: a quick look at the diagram shows where the cleave
// boundary runs and which components ended up unassigned.
//
// # Usage
//
// Convert a result to DOT format, then render to SVG:
//
//	dot := render.ToDOT(bg.Graph, res, render.Options{})
//	svg, err := render.SVG(dot)
//
// # DOT Format
//
// The [ToDOT] function produces Graphviz DOT source that can be:
//
//   - Rendered directly via [SVG]
//   - Saved and processed with external Graphviz tools
//   - Customized before rendering
//
// Seed supervoxels are drawn with a bold outline; unassigned supervoxels
// are dashed and grey. Edge thickness scales with affinity weight.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering.
package render
