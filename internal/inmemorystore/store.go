// Package inmemorystore provides an ephemeral, thread-safe, in-memory
// implementation of the statestore.Store interface.
//
// # Concurrency Model
//
// Each kind of state lives in its own sync.Map keyed by unit identity. The
// key space is fixed once units are loaded while values change often, which
// is the access pattern sync.Map is built for. Status changes go through a
// compare-and-swap loop so that the transition check and the write are one
// atomic step.
package inmemorystore

import (
	"context"
	"fmt"
	"sync"

	"github.com/vk/tyckorder/internal/statestore"
	"github.com/vk/tyckorder/internal/unit"
)

// Store is an in-memory implementation of statestore.Store.
type Store struct {
	states    sync.Map // Key: *unit.Unit, Value: unit.Status
	artifacts sync.Map // Key: *unit.Unit, Value: any
	errors    sync.Map // Key: *unit.Unit, Value: error
}

// New creates a new, empty in-memory state store.
func New() *Store {
	return &Store{}
}

var _ statestore.Store = (*Store)(nil)

// SetStatus moves u to status if the transition is allowed.
func (s *Store) SetStatus(ctx context.Context, u *unit.Unit, status unit.Status) error {
	for {
		current, loaded := s.states.LoadOrStore(u, status)
		if !loaded {
			if unit.StatusUnqueued.CanTransition(status) {
				return nil
			}
			s.states.Delete(u)
			return fmt.Errorf("unit '%s' %s -> %s: %w", u, unit.StatusUnqueued, status, statestore.ErrInvalidTransition)
		}
		from := current.(unit.Status)
		if !from.CanTransition(status) {
			return fmt.Errorf("unit '%s' %s -> %s: %w", u, from, status, statestore.ErrInvalidTransition)
		}
		if s.states.CompareAndSwap(u, from, status) {
			return nil
		}
	}
}

// Status returns the status of u, StatusUnqueued if never set.
func (s *Store) Status(ctx context.Context, u *unit.Unit) unit.Status {
	status, ok := s.states.Load(u)
	if !ok {
		return unit.StatusUnqueued
	}
	return status.(unit.Status)
}

// SetArtifact records the artifact produced by checking u.
func (s *Store) SetArtifact(ctx context.Context, u *unit.Unit, artifact any) {
	s.artifacts.Store(u, artifact)
}

// Artifact retrieves the recorded artifact of u.
func (s *Store) Artifact(ctx context.Context, u *unit.Unit) any {
	artifact, _ := s.artifacts.Load(u)
	return artifact
}

// SetError records the error of u.
func (s *Store) SetError(ctx context.Context, u *unit.Unit, err error) {
	s.errors.Store(u, err)
}

// Error retrieves the recorded error of u.
func (s *Store) Error(ctx context.Context, u *unit.Unit) error {
	err, ok := s.errors.Load(u)
	if !ok {
		return nil
	}
	return err.(error)
}
