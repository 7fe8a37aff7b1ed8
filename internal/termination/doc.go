// Package termination decides whether the recursive functions of one SCC
// terminate, using size-change analysis.
//
// Every call site inside a checked body becomes a CallMatrix relating the
// callee's arguments to the caller's parameters. The CallGraph closes those
// matrices under composition, keeping only the worst matrix per shape, and a
// function passes when each idempotent self-matrix left in the graph shows a
// strict, usable decrease on its diagonal.
//
// The analysis never fails compilation. A group without a proof is reported
// and its functions are marked non-terminating, which also makes them opaque.
package termination
