package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/janelia-flyem/cleave/pkg/cleave"
	"github.com/janelia-flyem/cleave/pkg/graph"
)

// Options configures diagram rendering.
type Options struct {
	// Weights labels every edge with its affinity weight.
	Weights bool

	// Seeds marks the given supervoxels with a bold outline.
	Seeds []graph.SupervoxelID
}

// palette holds the fill colors assigned to groups, cycled in ascending
// label order. Colorbrewer qualitative set, readable on white.
var palette = []string{
	"#a6cee3", "#b2df8a", "#fb9a99", "#fdbf6f",
	"#cab2d6", "#ffff99", "#1f78b4", "#33a02c",
}

// ToDOT converts a body graph and its cleave result to Graphviz DOT format.
// Nodes are colored by assigned group; unassigned nodes are dashed and grey.
// The resulting DOT string can be rendered with [SVG].
func ToDOT(g *graph.Adjacency, res *cleave.Result, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("graph cleave {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  overlap=false;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=circle, style=filled, fillcolor=white, fontsize=12];\n")
	buf.WriteString("\n")

	colors := groupColors(res)
	seeds := make(map[graph.SupervoxelID]bool, len(opts.Seeds))
	for _, sv := range opts.Seeds {
		seeds[sv] = true
	}

	for _, sv := range g.Nodes() {
		attrs := nodeAttrs(sv, res, colors, seeds[sv])
		fmt.Fprintf(&buf, "  %d [%s];\n", sv, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		attrs := []string{fmt.Sprintf("penwidth=%.2f", 0.5+2*e.Weight)}
		if opts.Weights {
			attrs = append(attrs, fmt.Sprintf("label=\"%.2g\"", e.Weight))
		}
		fmt.Fprintf(&buf, "  %d -- %d [%s];\n", e.A, e.B, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func groupColors(res *cleave.Result) map[cleave.GroupLabel]string {
	labels := make([]cleave.GroupLabel, 0, len(res.Groups))
	for label := range res.Groups {
		labels = append(labels, label)
	}
	slices.Sort(labels)

	colors := make(map[cleave.GroupLabel]string, len(labels))
	for i, label := range labels {
		colors[label] = palette[i%len(palette)]
	}
	return colors
}

func nodeAttrs(sv graph.SupervoxelID, res *cleave.Result, colors map[cleave.GroupLabel]string, seed bool) []string {
	label := res.Assignment[sv]
	var attrs []string
	if label == cleave.Unassigned {
		attrs = append(attrs, "style=\"filled,dashed\"", "fillcolor=lightgrey")
	} else {
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", colors[label]))
	}
	if seed {
		attrs = append(attrs, "penwidth=3")
	}
	return attrs
}

// SVG renders a DOT graph to SVG using Graphviz.
func SVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
