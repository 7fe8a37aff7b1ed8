// Package graph provides the directed multigraph every ordering decision in
// the checker is made on.
//
// # Why Graph Package Exists
//
// Declaration order, failure propagation, header order inside a recursive
// group and file-level invalidation all reduce to the same questions:
// what does this node point to, can one node reach another, and which nodes
// are mutually reachable. Graph answers them for any comparable node type.
//
// # Storage: An Arena
//
// Nodes are interned into a dense slice and addressed by a stable integer id
// in insertion order; an identity-keyed map resolves a node to its id. Each
// id owns a small adjacency slice of successor ids. Parallel edges are kept
// (it is a multigraph), so Transpose(Transpose(g)) has the same edge multiset
// as g.
//
// # Ordering Contract
//
// TopologicalOrder runs Tarjan's algorithm with an explicit work stack, so
// deep dependency chains cannot overflow the goroutine stack. For a graph
// whose edges mean "depends on", strongly connected components come out
// dependency-first: a component is emitted before every component that
// depends on it. Callers working on a transposed (usage) graph must reverse
// the result themselves.
//
// # Thread-Safety
//
// A Graph is not safe for concurrent mutation. The scheduler builds graphs
// once and only reads them afterwards.
package graph
