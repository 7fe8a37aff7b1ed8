package termination

import (
	"fmt"
	"strings"

	"github.com/vk/tyckorder/internal/unit"
)

// Step is one call site a matrix was built from.
type Step struct {
	Caller *unit.Unit
	Callee *unit.Unit
	Label  string
}

// CallMatrix abstracts one call path from Caller to Callee. Rows index the
// callee's arguments, columns the caller's parameters.
type CallMatrix struct {
	Caller *unit.Unit
	Callee *unit.Unit
	// Path lists the call sites this matrix was composed from, in call order.
	Path []Step

	rows, cols int
	cells      []Relation
}

// NewCallMatrix creates an all-Unknown matrix for one call site.
func NewCallMatrix(caller, callee *unit.Unit, label string) *CallMatrix {
	return &CallMatrix{
		Caller: caller,
		Callee: callee,
		Path:   []Step{{Caller: caller, Callee: callee, Label: label}},
		rows:   callee.Arity,
		cols:   caller.Arity,
		cells:  make([]Relation, callee.Arity*caller.Arity),
	}
}

// Rows returns the callee's arity.
func (m *CallMatrix) Rows() int { return m.rows }

// Cols returns the caller's arity.
func (m *CallMatrix) Cols() int { return m.cols }

// Get returns the relation of callee argument i to caller parameter j.
func (m *CallMatrix) Get(i, j int) Relation {
	return m.cells[i*m.cols+j]
}

// Set stores the relation of callee argument i to caller parameter j.
func (m *CallMatrix) Set(i, j int, r Relation) {
	m.cells[i*m.cols+j] = r
}

// Combine composes a (f -> g) with b (g -> h) into f -> h:
// cell(i,j) = sum over k of b[i][k] * a[k][j]. Composing matrices whose
// units do not line up is a programming error and panics.
func Combine(a, b *CallMatrix) *CallMatrix {
	if a.Callee != b.Caller || a.rows != b.cols {
		panic(fmt.Sprintf("termination: cannot combine %s with %s", a, b))
	}
	out := &CallMatrix{
		Caller: a.Caller,
		Callee: b.Callee,
		Path:   append(append(make([]Step, 0, len(a.Path)+len(b.Path)), a.Path...), b.Path...),
		rows:   b.rows,
		cols:   a.cols,
		cells:  make([]Relation, b.rows*a.cols),
	}
	for i := 0; i < b.rows; i++ {
		for j := 0; j < a.cols; j++ {
			acc := Unknown
			for k := 0; k < b.cols; k++ {
				acc = Add(acc, Mul(b.Get(i, k), a.Get(k, j)))
			}
			out.Set(i, j, acc)
		}
	}
	return out
}

// NotWorseThan reports whether every cell of m is at least as good as the
// same cell of o. Matrices of different shape are never comparable.
func (m *CallMatrix) NotWorseThan(o *CallMatrix) bool {
	if m.Caller != o.Caller || m.Callee != o.Callee || m.rows != o.rows || m.cols != o.cols {
		return false
	}
	for i := range m.cells {
		if m.cells[i].Compare(o.cells[i]) < 0 {
			return false
		}
	}
	return true
}

// SameCells reports whether m and o hold the same relations.
func (m *CallMatrix) SameCells(o *CallMatrix) bool {
	if m.rows != o.rows || m.cols != o.cols {
		return false
	}
	for i := range m.cells {
		if m.cells[i] != o.cells[i] {
			return false
		}
	}
	return true
}

// Clamp returns a copy with every size capped at bound.
func (m *CallMatrix) Clamp(bound int) *CallMatrix {
	out := *m
	out.cells = make([]Relation, len(m.cells))
	for i, r := range m.cells {
		out.cells[i] = r.clamp(bound)
	}
	return &out
}

// Idempotent reports whether composing a self-matrix with itself gives a
// matrix no worse than it, sizes capped at bound.
func (m *CallMatrix) Idempotent(bound int) bool {
	if m.Caller != m.Callee {
		return false
	}
	return Combine(m, m).Clamp(bound).NotWorseThan(m)
}

// DecreasingDiagonal reports whether some diagonal cell is a usable strict
// decrease.
func (m *CallMatrix) DecreasingDiagonal() bool {
	for i := 0; i < min(m.rows, m.cols); i++ {
		if m.Get(i, i).IsDecreasing() {
			return true
		}
	}
	return false
}

// maxSize returns the largest size stored in m.
func (m *CallMatrix) maxSize() int {
	best := 0
	for _, r := range m.cells {
		best = max(best, r.size)
	}
	return best
}

// PathNames returns the units visited along the path, starting with the
// caller: f, g, h for a path f -> g -> h.
func (m *CallMatrix) PathNames() []string {
	if len(m.Path) == 0 {
		return nil
	}
	names := make([]string, 0, len(m.Path)+1)
	names = append(names, m.Path[0].Caller.ID())
	for _, s := range m.Path {
		names = append(names, s.Callee.ID())
	}
	return names
}

func (m *CallMatrix) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s -> %s [", m.Caller, m.Callee)
	for i := 0; i < m.rows; i++ {
		if i > 0 {
			sb.WriteString("; ")
		}
		for j := 0; j < m.cols; j++ {
			if j > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(m.Get(i, j).String())
		}
	}
	sb.WriteByte(']')
	return sb.String()
}
