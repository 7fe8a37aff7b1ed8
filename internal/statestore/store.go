// Package statestore defines the interface for the mutable checking state of
// units during a run.
//
// # Why State Store Exists
//
// The state store keeps what changes while the scheduler works (status,
// produced artifacts, errors) apart from the program's static shape in
// topologystore. Keys are unit identities, not names: an incremental pass
// that reloads a file gets fresh units and therefore fresh state, while units
// of untouched files keep whatever the previous pass recorded.
//
// # State Transitions
//
// Units follow the machine in unit.Status:
//
//	Unqueued -> Queued -> Checking -> Succeeded | Failed
//	Unqueued | Queued -> Skipped
//
// Implementations reject any other transition with ErrInvalidTransition.
package statestore

import (
	"context"
	"errors"

	"github.com/vk/tyckorder/internal/unit"
)

// ErrInvalidTransition is returned when a status change is not allowed by the
// unit status machine.
var ErrInvalidTransition = errors.New("invalid status transition")

// Store manages the mutable checking state of units.
//
// # Thread-Safety Requirements
//
// Implementations MUST be safe for concurrent use. The scheduler is single
// threaded today, but reporters and the report builder may read while it
// writes.
type Store interface {
	// SetStatus moves u to status. Returns ErrInvalidTransition if the
	// current status cannot move there.
	SetStatus(ctx context.Context, u *unit.Unit, status unit.Status) error

	// Status returns u's status, StatusUnqueued if never set.
	Status(ctx context.Context, u *unit.Unit) unit.Status

	// SetArtifact records what checking u produced.
	SetArtifact(ctx context.Context, u *unit.Unit, artifact any)

	// Artifact returns u's recorded artifact, or nil.
	Artifact(ctx context.Context, u *unit.Unit) any

	// SetError records why u failed or was skipped.
	SetError(ctx context.Context, u *unit.Unit, err error)

	// Error returns u's recorded error, or nil.
	Error(ctx context.Context, u *unit.Unit) error
}
