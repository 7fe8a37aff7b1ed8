package termination

import "github.com/vk/tyckorder/internal/unit"

type pair struct {
	caller, callee *unit.Unit
}

// CallGraph stores, per ordered pair of functions, the worst call matrices
// seen so far. Better matrices for a pair are redundant: any proof that
// works for the worst case works for them too.
type CallGraph struct {
	bound int
	pairs []pair
	edges map[pair][]*CallMatrix
}

// NewCallGraph creates an empty graph whose relation sizes saturate at bound.
func NewCallGraph(bound int) *CallGraph {
	return &CallGraph{bound: max(bound, 1), edges: make(map[pair][]*CallMatrix)}
}

// Bound returns the size at which relations saturate.
func (g *CallGraph) Bound() int {
	return g.bound
}

// Put merges m into the graph. It is rejected when some stored matrix for
// the same pair is already no better than it; otherwise it is stored and
// every stored matrix no worse than it is dropped. Put reports whether m was
// stored.
func (g *CallGraph) Put(m *CallMatrix) bool {
	m = m.Clamp(g.bound)
	key := pair{caller: m.Caller, callee: m.Callee}
	existing, seen := g.edges[key]
	for _, s := range existing {
		if m.NotWorseThan(s) {
			return false
		}
	}

	kept := existing[:0:0]
	for _, s := range existing {
		if !s.NotWorseThan(m) {
			kept = append(kept, s)
		}
	}
	g.edges[key] = append(kept, m)
	if !seen {
		g.pairs = append(g.pairs, key)
	}
	return true
}

// Matrices returns the stored matrices for caller -> callee.
func (g *CallGraph) Matrices(caller, callee *unit.Unit) []*CallMatrix {
	return append([]*CallMatrix(nil), g.edges[pair{caller: caller, callee: callee}]...)
}

// Len returns the number of stored matrices.
func (g *CallGraph) Len() int {
	n := 0
	for _, ms := range g.edges {
		n += len(ms)
	}
	return n
}

// snapshot lists every stored matrix in insertion order of pairs.
func (g *CallGraph) snapshot() []*CallMatrix {
	var out []*CallMatrix
	for _, p := range g.pairs {
		out = append(out, g.edges[p]...)
	}
	return out
}

// Complete composes stored matrices until a full pass stores nothing new.
// Sizes are bounded and a pair's stored set only ever moves towards worse
// matrices, so the loop ends. It returns the number of passes run.
func (g *CallGraph) Complete() int {
	passes := 0
	for {
		passes++
		changed := false
		all := g.snapshot()
		for _, a := range all {
			for _, b := range all {
				if a.Callee != b.Caller {
					continue
				}
				if g.Put(Combine(a, b)) {
					changed = true
				}
			}
		}
		if !changed {
			return passes
		}
	}
}
