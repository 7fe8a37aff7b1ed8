// Package incremental drives repeated checking passes over one program.
//
// The first pass checks everything. A later pass takes the set of files that
// changed, widens it to every file that transitively imports one of them,
// reloads only those files and re-checks only their modules. Units of the
// other files are carried over as the same values, so their recorded status
// survives: earlier successes are not repeated and earlier failures still
// seed the skip set of the new pass.
package incremental
