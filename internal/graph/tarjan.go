package graph

import "slices"

// frame is one entry of the explicit call stack that replaces recursion in
// Tarjan's algorithm.
type frame struct {
	id   int
	edge int // next index into adj[id]
}

// TopologicalOrder returns the strongly connected components of g,
// dependency-first. Within a component, nodes appear in discovery order.
// Start nodes are taken in insertion order, so
// the result is deterministic for a given construction sequence.
func (g *Graph[T]) TopologicalOrder() [][]T {
	const unvisited = -1
	n := len(g.nodes)
	index := make([]int, n)
	lowlink := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = unvisited
	}

	var (
		next  int
		stack []int
		calls []frame
		sccs  [][]T
	)

	for root := 0; root < n; root++ {
		if index[root] != unvisited {
			continue
		}
		calls = append(calls[:0], frame{id: root})
		index[root], lowlink[root] = next, next
		next++
		stack = append(stack, root)
		onStack[root] = true

		for len(calls) > 0 {
			top := &calls[len(calls)-1]
			v := top.id

			if top.edge < len(g.adj[v]) {
				w := g.adj[v][top.edge]
				top.edge++
				switch {
				case index[w] == unvisited:
					index[w], lowlink[w] = next, next
					next++
					stack = append(stack, w)
					onStack[w] = true
					calls = append(calls, frame{id: w})
				case onStack[w]:
					lowlink[v] = min(lowlink[v], index[w])
				}
				continue
			}

			// All edges of v are done: pop the frame and fold its lowlink
			// into the parent, as the return from a recursive call would.
			calls = calls[:len(calls)-1]
			if len(calls) > 0 {
				parent := calls[len(calls)-1].id
				lowlink[parent] = min(lowlink[parent], lowlink[v])
			}

			if lowlink[v] == index[v] {
				var scc []T
				for {
					w := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[w] = false
					scc = append(scc, g.nodes[w])
					if w == v {
						break
					}
				}
				slices.Reverse(scc)
				sccs = append(sccs, scc)
			}
		}
	}
	return sccs
}

// HasSelfLoop reports whether n has an edge to itself.
func (g *Graph[T]) HasSelfLoop(n T) bool {
	id, ok := g.ids[n]
	if !ok {
		return false
	}
	for _, s := range g.adj[id] {
		if s == id {
			return true
		}
	}
	return false
}
