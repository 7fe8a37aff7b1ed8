package inmemorytopology

import (
	"context"
	"fmt"
	"sync"

	"github.com/vk/tyckorder/internal/topologystore"
	"github.com/vk/tyckorder/internal/unit"
	"github.com/vk/tyckorder/internal/unitid"
)

// Store implements topologystore.Store using maps and a mutex.
type Store struct {
	mu    sync.RWMutex
	order []*unit.Unit
	units map[string]*unit.Unit
	head  map[*unit.Unit][]*unit.Unit
	body  map[*unit.Unit][]*unit.Unit
	seen  map[refKey]struct{}
}

type refKey struct {
	from, to *unit.Unit
	phase    unit.Phase
}

// New creates a new, empty in-memory topology store.
func New() *Store {
	return &Store{
		units: make(map[string]*unit.Unit),
		head:  make(map[*unit.Unit][]*unit.Unit),
		body:  make(map[*unit.Unit][]*unit.Unit),
		seen:  make(map[refKey]struct{}),
	}
}

var _ topologystore.Store = (*Store)(nil)

// AddUnit adds a unit to the store.
func (s *Store) AddUnit(ctx context.Context, u *unit.Unit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := u.ID()
	if existing, ok := s.units[key]; ok {
		if existing == u {
			return nil
		}
		return fmt.Errorf("unit '%s': %w", key, topologystore.ErrDuplicateUnit)
	}
	s.units[key] = u
	s.order = append(s.order, u)
	return nil
}

// AddReference records that from mentions to in phase. Repeated references
// are collapsed.
func (s *Store) AddReference(ctx context.Context, from, to *unitid.Name, phase unit.Phase) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	src, ok := s.units[from.String()]
	if !ok {
		return fmt.Errorf("reference source '%s': %w", from, topologystore.ErrUnknownUnit)
	}
	dst, ok := s.units[to.String()]
	if !ok {
		return fmt.Errorf("reference from '%s' to '%s': %w", from, to, topologystore.ErrUnknownUnit)
	}

	key := refKey{from: src, to: dst, phase: phase}
	if _, dup := s.seen[key]; dup {
		return nil
	}
	s.seen[key] = struct{}{}
	if phase == unit.Head {
		s.head[src] = append(s.head[src], dst)
	} else {
		s.body[src] = append(s.body[src], dst)
	}
	return nil
}

// Unit retrieves a single unit by its qualified name.
func (s *Store) Unit(ctx context.Context, name *unitid.Name) (*unit.Unit, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.units[name.String()]
	return u, ok
}

// AllUnits returns a snapshot of all units in insertion order.
func (s *Store) AllUnits(ctx context.Context) []*unit.Unit {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*unit.Unit, len(s.order))
	copy(out, s.order)
	return out
}

// References returns the units u mentions, split by phase.
func (s *Store) References(ctx context.Context, u *unit.Unit) (head, body []*unit.Unit, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.units[u.ID()] != u {
		return nil, nil, fmt.Errorf("unit '%s': %w", u, topologystore.ErrUnknownUnit)
	}
	head, body = s.split(u)
	return head, body, nil
}

// BuildDependencyEdges implements depgraph.Collector. Units the store does
// not know have no references.
func (s *Store) BuildDependencyEdges(u *unit.Unit) (head, body []*unit.Unit) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.split(u)
}

func (s *Store) split(u *unit.Unit) (head, body []*unit.Unit) {
	head = append([]*unit.Unit(nil), s.head[u]...)
	inHead := make(map[*unit.Unit]struct{}, len(head))
	for _, h := range head {
		inHead[h] = struct{}{}
	}
	for _, b := range s.body[u] {
		if _, dup := inHead[b]; !dup {
			body = append(body, b)
		}
	}
	return head, body
}
