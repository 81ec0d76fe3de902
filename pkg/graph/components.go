package graph

// Components returns the connected components of the graph. Each component's
// nodes are sorted ascending, and components are ordered by their smallest
// member, so the output is fully determined by the graph's content.
func (g *Adjacency) Components() [][]SupervoxelID {
	visited := make(map[SupervoxelID]bool, len(g.adj))
	var components [][]SupervoxelID

	for _, start := range g.Nodes() {
		if visited[start] {
			continue
		}
		component := []SupervoxelID{}
		queue := []SupervoxelID{start}
		visited[start] = true
		for len(queue) > 0 {
			sv := queue[0]
			queue = queue[1:]
			component = append(component, sv)
			for _, n := range g.Neighbors(sv) {
				if !visited[n] {
					visited[n] = true
					queue = append(queue, n)
				}
			}
		}
		components = append(components, component)
	}
	return components
}

// Reachable returns the set of nodes reachable from any of the given roots,
// restricted to nodes for which within returns true. Roots not present in
// the graph are ignored. Used by the reconciler to check that each label
// group's members stay connected inside their own induced subgraph.
func (g *Adjacency) Reachable(roots []SupervoxelID, within func(SupervoxelID) bool) map[SupervoxelID]bool {
	reached := make(map[SupervoxelID]bool)
	var queue []SupervoxelID
	for _, r := range roots {
		if g.HasNode(r) && within(r) && !reached[r] {
			reached[r] = true
			queue = append(queue, r)
		}
	}
	for len(queue) > 0 {
		sv := queue[0]
		queue = queue[1:]
		for _, n := range g.Neighbors(sv) {
			if !reached[n] && within(n) {
				reached[n] = true
				queue = append(queue, n)
			}
		}
	}
	return reached
}
