// Package scheduler decides the order in which units are checked and drives
// the checker through it.
//
// # How It Works
//
// The declaration graph is split into strongly connected components, which
// come out dependency-first. Each component is handled according to its
// shape:
//
//   - A single unit that cannot reach itself has only its body checked.
//   - A single self-referencing unit has its header and then its body
//     checked, followed by termination analysis.
//   - A group of units is checked in two phases. Every header is checked
//     first, in an order computed from the signature references alone; if
//     two signatures still need each other the group is abandoned as a
//     circular signature. Then every body is checked, and termination
//     analysis runs once over the group's functions.
//
// Samples (examples and counterexamples) are scheduled afterwards from the
// sample graph, so they never influence declaration order.
//
// # Failure Containment
//
// A component is fail-fast inside its own boundary and best-effort across
// boundaries. Whatever a component blames goes to the propagator, which
// skips every transitive user; unrelated components are still checked.
// Results of a component are committed only once all of its units passed,
// so an interrupted component leaves nothing half-done behind.
//
// # Concurrency
//
// Scheduling is single threaded. The checker may block, but two components
// are never checked at the same time.
package scheduler
