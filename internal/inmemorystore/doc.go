// Package inmemorystore provides a thread-safe, in-memory implementation
// of the statestore.Store interface. It is suitable for any run whose state
// does not need to outlive the process.
package inmemorystore
