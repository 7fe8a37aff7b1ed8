// Package depgraph turns the references an external resolver reports for each
// unit into the graphs the scheduler orders work on.
//
// # Order-Nodes
//
// Every vertex is a unit.Order: a unit paired with the phase being checked.
// Edges mean "checking the source requires the target to be visible first":
//
//   - Body(U) -> Head(U): a body is checked against its own signature.
//   - Head(U) -> Body(V): for every V mentioned in U's signature.
//   - Body(U) -> Body(V): for every V mentioned only in U's body.
//
// # Two Graphs
//
// Declarations go into the declaration graph. Examples and counterexamples go
// into the sample graph, which may point at declaration nodes but is never
// consulted when ordering declarations.
//
// # Usage Graphs
//
// The usage graph of either graph is its transpose. It is derived lazily on
// first use and only ever read by failure propagation.
package depgraph
