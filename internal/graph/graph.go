package graph

import (
	"errors"
	"fmt"
)

// ErrNodeNotFound is returned when a lookup names a node that was never added.
var ErrNodeNotFound = errors.New("node not found")

// Graph is a directed multigraph over comparable nodes.
type Graph[T comparable] struct {
	ids   map[T]int
	nodes []T
	adj   [][]int
}

// Edge is a single directed edge.
type Edge[T comparable] struct {
	From T
	To   T
}

// New creates an empty graph.
func New[T comparable]() *Graph[T] {
	return &Graph[T]{ids: make(map[T]int)}
}

// AddNode interns n and returns its id. Adding an existing node is a no-op.
func (g *Graph[T]) AddNode(n T) int {
	if id, ok := g.ids[n]; ok {
		return id
	}
	id := len(g.nodes)
	g.ids[n] = id
	g.nodes = append(g.nodes, n)
	g.adj = append(g.adj, nil)
	return id
}

// AddEdge adds the edge from -> to, interning both endpoints.
func (g *Graph[T]) AddEdge(from, to T) {
	g.SuccessorsMut(from).Append(to)
}

// Contains reports whether n has been added to the graph.
func (g *Graph[T]) Contains(n T) bool {
	_, ok := g.ids[n]
	return ok
}

// Index returns the stable id of n.
func (g *Graph[T]) Index(n T) (int, error) {
	id, ok := g.ids[n]
	if !ok {
		return 0, fmt.Errorf("%v: %w", n, ErrNodeNotFound)
	}
	return id, nil
}

// Len returns the number of nodes.
func (g *Graph[T]) Len() int {
	return len(g.nodes)
}

// Nodes returns all nodes in insertion order.
func (g *Graph[T]) Nodes() []T {
	out := make([]T, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Successors returns a copy of n's successors, or nil when n is absent.
func (g *Graph[T]) Successors(n T) []T {
	id, ok := g.ids[n]
	if !ok {
		return nil
	}
	out := make([]T, len(g.adj[id]))
	for i, s := range g.adj[id] {
		out[i] = g.nodes[s]
	}
	return out
}

// Adjacency is a writable handle on one node's successor list.
type Adjacency[T comparable] struct {
	g  *Graph[T]
	id int
}

// SuccessorsMut returns the adjacency list of n, creating the node if needed.
func (g *Graph[T]) SuccessorsMut(n T) Adjacency[T] {
	return Adjacency[T]{g: g, id: g.AddNode(n)}
}

// Append adds edges from the handle's node to each of succs.
func (a Adjacency[T]) Append(succs ...T) {
	for _, s := range succs {
		sid := a.g.AddNode(s)
		a.g.adj[a.id] = append(a.g.adj[a.id], sid)
	}
}

// Len returns the number of outgoing edges, counting parallel edges.
func (a Adjacency[T]) Len() int {
	return len(a.g.adj[a.id])
}

// Edges returns every edge, grouped by source in insertion order.
func (g *Graph[T]) Edges() []Edge[T] {
	var out []Edge[T]
	for from, succs := range g.adj {
		for _, to := range succs {
			out = append(out, Edge[T]{From: g.nodes[from], To: g.nodes[to]})
		}
	}
	return out
}

// HasPath reports whether b is reachable from a by zero or more edges.
func (g *Graph[T]) HasPath(a, b T) bool {
	start, ok := g.ids[a]
	if !ok {
		return false
	}
	target, ok := g.ids[b]
	if !ok {
		return false
	}

	visited := make([]bool, len(g.nodes))
	stack := []int{start}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == target {
			return true
		}
		if visited[id] {
			continue
		}
		visited[id] = true
		for _, s := range g.adj[id] {
			if !visited[s] {
				stack = append(stack, s)
			}
		}
	}
	return false
}

// Reachable returns every node reachable from the roots by one or more
// edges, in discovery order. Roots are included only when a cycle leads
// back to them.
func (g *Graph[T]) Reachable(roots ...T) []T {
	visited := make([]bool, len(g.nodes))
	var stack []int
	for _, r := range roots {
		if id, ok := g.ids[r]; ok {
			stack = append(stack, g.adj[id]...)
		}
	}

	var out []T
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		visited[id] = true
		out = append(out, g.nodes[id])
		for _, s := range g.adj[id] {
			if !visited[s] {
				stack = append(stack, s)
			}
		}
	}
	return out
}

// Transpose builds a new graph with every edge reversed. Node ids keep their
// insertion order.
func (g *Graph[T]) Transpose() *Graph[T] {
	t := &Graph[T]{
		ids:   make(map[T]int, len(g.nodes)),
		nodes: make([]T, len(g.nodes)),
		adj:   make([][]int, len(g.nodes)),
	}
	copy(t.nodes, g.nodes)
	for id, n := range g.nodes {
		t.ids[n] = id
	}
	for from, succs := range g.adj {
		for _, to := range succs {
			t.adj[to] = append(t.adj[to], from)
		}
	}
	return t
}
