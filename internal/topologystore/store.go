// Package topologystore defines the interface for storing the static shape of
// a program: its units and the references between them.
//
// # Why Topology Store Exists
//
// The topology store separates the immutable program structure (which units
// exist and what each one mentions) from the mutable checking state (status,
// artifacts, errors) managed by statestore. Loaders write to it once; the
// dependency model reads it when building the scheduling graphs.
//
// # Lifecycle and Usage
//
// The topology store is:
//  1. Created once per session (or once per incremental pass)
//  2. Populated by the program loader: units first, then references
//  3. Read-only while the scheduler runs
//  4. Discarded with the session
//
// References are recorded by phase. A reference recorded for the Head phase
// appears in the unit's signature; a Body reference appears only in its
// definition. The distinction matters because Head-phase checking must never
// wait on Body-level edges.
package topologystore

import (
	"context"
	"errors"

	"github.com/vk/tyckorder/internal/unit"
	"github.com/vk/tyckorder/internal/unitid"
)

var (
	// ErrDuplicateUnit is returned when two units share a qualified name.
	ErrDuplicateUnit = errors.New("duplicate unit")
	// ErrUnknownUnit is returned when a reference names a unit that was never added.
	ErrUnknownUnit = errors.New("unknown unit")
)

// Store manages the static topology of a program.
//
// # Thread-Safety Requirements
//
// Implementations MUST be safe for concurrent use. Loaders may populate the
// store from several files at once.
type Store interface {
	// AddUnit registers a unit under its qualified name. Adding the same
	// unit twice is a no-op; adding a different unit with a taken name
	// returns ErrDuplicateUnit.
	AddUnit(ctx context.Context, u *unit.Unit) error

	// AddReference records that from mentions to in the given phase. Both
	// units must already exist; otherwise ErrUnknownUnit is returned.
	AddReference(ctx context.Context, from, to *unitid.Name, phase unit.Phase) error

	// Unit looks up a unit by qualified name.
	Unit(ctx context.Context, name *unitid.Name) (*unit.Unit, bool)

	// AllUnits returns every unit in insertion order.
	AllUnits(ctx context.Context) []*unit.Unit

	// References returns the units u mentions, split by phase. A unit
	// mentioned in both phases is reported only in head.
	References(ctx context.Context, u *unit.Unit) (head, body []*unit.Unit, err error)
}
