package scheduler

import (
	"context"

	"github.com/vk/tyckorder/internal/unit"
)

// Checker checks one phase of one unit. It is opaque to the scheduler: an
// error fails exactly that unit, unless it is an InterruptedError or a
// BlameError.
type Checker interface {
	// CheckHeader checks the signature of u.
	CheckHeader(ctx context.Context, u *unit.Unit) error
	// CheckBody checks the full definition of u and returns what it produced.
	CheckBody(ctx context.Context, u *unit.Unit) (any, error)
}

// Result partitions the units of a run by outcome. Each slice keeps the
// order the units were passed to RunAll.
type Result struct {
	Succeeded []*unit.Unit
	Failed    []*unit.Unit
	Skipped   []*unit.Unit
	// NonTerminating lists functions that checked but have no termination
	// proof. They count as succeeded.
	NonTerminating []*unit.Unit
	// StructuralErrors counts abandoned components.
	StructuralErrors int
}

// OK reports whether the run succeeded: no abandoned component and no failed
// unit.
func (r *Result) OK() bool {
	return r.StructuralErrors == 0 && len(r.Failed) == 0
}
