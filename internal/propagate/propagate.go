// Package propagate contains failures. It owns the skip set of a run and,
// whenever a unit is blamed, walks the usage graphs to skip everything that
// transitively depends on it.
package propagate

import (
	"context"
	"sync"

	"github.com/vk/tyckorder/internal/ctxlog"
	"github.com/vk/tyckorder/internal/depgraph"
	"github.com/vk/tyckorder/internal/unit"
)

// SkipSet is the set of units that failed or will never be attempted.
type SkipSet struct {
	mu    sync.RWMutex
	set   map[*unit.Unit]struct{}
	order []*unit.Unit
}

// NewSkipSet creates an empty skip set.
func NewSkipSet() *SkipSet {
	return &SkipSet{set: make(map[*unit.Unit]struct{})}
}

// Contains reports whether u is in the set.
func (s *SkipSet) Contains(u *unit.Unit) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.set[u]
	return ok
}

// Add inserts u and reports whether it was newly added.
func (s *SkipSet) Add(u *unit.Unit) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.set[u]; ok {
		return false
	}
	s.set[u] = struct{}{}
	s.order = append(s.order, u)
	return true
}

// Len returns the number of units in the set.
func (s *SkipSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Units returns the members in insertion order.
func (s *SkipSet) Units() []*unit.Unit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*unit.Unit(nil), s.order...)
}

// Skipped is one unit added by a propagation. Cause is the unit whose
// failure reached it, or nil when the unit was blamed directly.
type Skipped struct {
	Unit  *unit.Unit
	Cause *unit.Unit
}

// Propagator spreads failures over one or more usage graphs.
type Propagator struct {
	skip  *SkipSet
	usage []*depgraph.Graph
}

// New creates a propagator writing into skip and walking usage.
func New(skip *SkipSet, usage ...*depgraph.Graph) *Propagator {
	return &Propagator{skip: skip, usage: usage}
}

// SkipSet returns the set the propagator writes into.
func (p *Propagator) SkipSet() *SkipSet {
	return p.skip
}

// Blame adds every blamed unit to the skip set, then every unit reachable
// from one in any usage graph. Units already in the set stop the walk, so
// each unit is visited at most once across the whole run. The newly added
// units are returned in discovery order.
func (p *Propagator) Blame(ctx context.Context, blamed ...*unit.Unit) []Skipped {
	logger := ctxlog.FromContext(ctx)

	var (
		added []Skipped
		queue []*unit.Unit
	)
	for _, u := range blamed {
		if p.skip.Add(u) {
			added = append(added, Skipped{Unit: u})
			queue = append(queue, u)
		}
	}

	for len(queue) > 0 {
		src := queue[0]
		queue = queue[1:]
		for _, g := range p.usage {
			for _, n := range [...]unit.Order{unit.HeadOf(src), unit.BodyOf(src)} {
				for _, user := range g.Successors(n) {
					dep := user.Unit
					if !p.skip.Add(dep) {
						continue
					}
					logger.Warn("Skipping dependent unit due to upstream failure.", "unit", dep.ID(), "dependency", src.ID())
					added = append(added, Skipped{Unit: dep, Cause: src})
					queue = append(queue, dep)
				}
			}
		}
	}
	return added
}
