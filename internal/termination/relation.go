package termination

import "fmt"

// Relation describes how one callee argument compares in size to one caller
// parameter at a call site.
//
// Relations are totally ordered: Unknown is the bottom, and decreases compare
// by size and then by usability. More decrease is better.
type Relation struct {
	known  bool
	usable bool
	size   int
}

// Unknown is the relation of an argument with no structural link to the
// parameter.
var Unknown = Relation{}

// Decrease is a relation where the argument is obtained from the parameter by
// peeling size constructors. Size 0 means the argument is the parameter.
func Decrease(usable bool, size int) Relation {
	return Relation{known: true, usable: usable, size: size}
}

// IsUnknown reports whether r is Unknown.
func (r Relation) IsUnknown() bool { return !r.known }

// Usable reports whether the decrease counts towards a termination proof.
func (r Relation) Usable() bool { return r.usable }

// Size is the number of peeled constructors; 0 for Unknown.
func (r Relation) Size() int { return r.size }

// IsDecreasing reports whether r is a usable, strict decrease.
func (r Relation) IsDecreasing() bool {
	return r.known && r.usable && r.size > 0
}

// Compare returns -1, 0 or +1 as r is worse than, equal to, or better than o.
func (r Relation) Compare(o Relation) int {
	switch {
	case !r.known && !o.known:
		return 0
	case !r.known:
		return -1
	case !o.known:
		return 1
	case r.size != o.size:
		if r.size < o.size {
			return -1
		}
		return 1
	case r.usable == o.usable:
		return 0
	case o.usable:
		return -1
	default:
		return 1
	}
}

// Add joins two alternatives for the same cell, keeping the better one.
func Add(a, b Relation) Relation {
	if a.Compare(b) >= 0 {
		return a
	}
	return b
}

// Mul composes two consecutive steps. Unknown absorbs; decreases accumulate.
func Mul(a, b Relation) Relation {
	if !a.known || !b.known {
		return Unknown
	}
	return Decrease(a.usable || b.usable, a.size+b.size)
}

// clamp caps the size at bound, which keeps the lattice finite.
func (r Relation) clamp(bound int) Relation {
	if r.known && r.size > bound {
		r.size = bound
	}
	return r
}

func (r Relation) String() string {
	switch {
	case !r.known:
		return "?"
	case r.size == 0:
		return "="
	case r.usable:
		return fmt.Sprintf("<%d", r.size)
	default:
		return fmt.Sprintf("~%d", r.size)
	}
}
