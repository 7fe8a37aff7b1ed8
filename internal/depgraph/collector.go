package depgraph

import "github.com/vk/tyckorder/internal/unit"

// Collector reports the units a unit refers to, split by where the
// reference occurs. A reference that appears in both places belongs in head.
type Collector interface {
	BuildDependencyEdges(u *unit.Unit) (head, body []*unit.Unit)
}

// CollectorFunc adapts a plain function to the Collector interface.
type CollectorFunc func(u *unit.Unit) (head, body []*unit.Unit)

// BuildDependencyEdges implements Collector.
func (f CollectorFunc) BuildDependencyEdges(u *unit.Unit) (head, body []*unit.Unit) {
	return f(u)
}
