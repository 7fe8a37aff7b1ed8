// Package program turns a loaded config.Model into the units the scheduler
// orders and plays the external collaborators the scheduler consults: the
// dependency collector (through the topology store), a scripted header and
// body checker, and the call-site collector used by termination checking.
//
// The checker is scripted by each declaration's `fail` and `blame` fields,
// which makes whole programs usable as fixtures for ordering, failure
// propagation and incremental re-runs.
package program
