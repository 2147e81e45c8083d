package graph

// TopologicalOrder returns the region's nodes in dependency order:
// every node appears after all nodes that have an edge into it.
// Nodes that are not ordered by any edge keep their insertion order.
// Cycles are broken at the first revisited node.
func (r *Region) TopologicalOrder() []Node {
	// Build node-to-predecessors map
	preds := make(map[Node][]Node, len(r.nodes))
	for _, e := range r.edges {
		preds[e.Dst] = append(preds[e.Dst], e.Src)
	}

	visited := make(map[Node]bool, len(r.nodes))
	result := make([]Node, 0, len(r.nodes))

	var visit func(n Node)
	visit = func(n Node) {
		if visited[n] {
			return
		}
		visited[n] = true

		// Visit dependencies first
		for _, p := range preds[n] {
			visit(p)
		}

		result = append(result, n)
	}

	for _, n := range r.nodes {
		visit(n)
	}

	return result
}

// ReverseTopologicalOrder returns TopologicalOrder reversed, the order in
// which a backward pass visits forward nodes.
func (r *Region) ReverseTopologicalOrder() []Node {
	order := r.TopologicalOrder()
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order
}
