// Package unit defines the checkable entities the scheduler orders: units,
// their two checking phases, and the per-unit status machine.
package unit

import (
	"fmt"
	"sync/atomic"

	"github.com/vk/tyckorder/internal/unitid"
)

// Kind distinguishes the declaration forms a unit can wrap.
type Kind int

const (
	// Fn is a function definition. Only functions take part in termination checking.
	Fn Kind = iota
	// Data is an inductive data type declaration.
	Data
	// Struct is a record declaration.
	Struct
	// Class is a type class declaration.
	Class
	// Prim is a primitive declaration with no body to check.
	Prim
	// Example wraps a declaration that must check; it never affects declaration order.
	Example
	// Counterexample wraps a declaration that is expected to fail checking.
	Counterexample
)

var kindNames = [...]string{"fn", "data", "struct", "class", "prim", "example", "counterexample"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind maps a declaration keyword to its Kind.
func ParseKind(s string) (Kind, bool) {
	for i, name := range kindNames {
		if name == s {
			return Kind(i), true
		}
	}
	return 0, false
}

// IsSample reports whether the kind lives in the sample graph rather than the
// declaration graph.
func (k Kind) IsSample() bool {
	return k == Example || k == Counterexample
}

// Unit is a single checkable entity. Units are compared by identity: two
// Unit values with the same name are still different units, which is what
// lets an incremental re-run replace a file's units wholesale.
type Unit struct {
	// name is the qualified name used in diagnostics and logs.
	name *unitid.Name
	// Kind is the declaration form.
	Kind Kind
	// Module is the module (file stem) that owns the unit.
	Module string
	// Arity is the number of formal parameters; it sizes call matrices.
	Arity int
	// Partial is set when the author declared the function non-terminating.
	Partial bool
	// Of is the declaration a sample wraps; nil for declarations.
	Of *Unit
	// Source is an opaque payload for the external collaborators.
	Source any

	checked        atomic.Bool
	nonTerminating atomic.Bool
	opaque         atomic.Bool
}

// New creates a unit named name in module.
func New(name *unitid.Name, kind Kind, module string) *Unit {
	return &Unit{name: name, Kind: kind, Module: module}
}

// Name returns the structured qualified name.
func (u *Unit) Name() *unitid.Name {
	return u.name
}

// ID returns the canonical string form of the unit's name.
func (u *Unit) ID() string {
	return u.name.String()
}

func (u *Unit) String() string {
	return u.ID()
}

// IsFunction reports whether the unit takes part in termination checking.
func (u *Unit) IsFunction() bool {
	return u.Kind == Fn
}

// NeedsCheck reports whether the unit belongs to a module currently being
// checked and has not been checked successfully yet.
func (u *Unit) NeedsCheck(isCurrent func(module string) bool) bool {
	return isCurrent(u.Module) && !u.checked.Load()
}

// MarkChecked records a successful check of the unit's body.
func (u *Unit) MarkChecked() {
	u.checked.Store(true)
}

// Checked reports whether MarkChecked was called.
func (u *Unit) Checked() bool {
	return u.checked.Load()
}

// MarkNonTerminating flags the unit as part of a recursive group with no
// proven decrease. The flag also makes the definition opaque: it will never
// be unfolded again.
func (u *Unit) MarkNonTerminating() {
	u.nonTerminating.Store(true)
	u.opaque.Store(true)
}

// NonTerminating reports whether termination checking rejected the unit.
func (u *Unit) NonTerminating() bool {
	return u.nonTerminating.Load()
}

// Opaque reports whether the definition must not be unfolded.
func (u *Unit) Opaque() bool {
	return u.opaque.Load()
}
