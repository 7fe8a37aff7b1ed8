package termination

import (
	"context"
	"fmt"

	"github.com/vk/tyckorder/internal/ctxlog"
	"github.com/vk/tyckorder/internal/unit"
)

// Arg describes one argument at a call site. Param is the caller parameter
// the argument is built from, or -1 when it is unrelated to any parameter.
// Peel is the number of constructors stripped from that parameter.
type Arg struct {
	Param int
	Peel  int
}

// UnknownArg is an argument with no structural relation to the caller.
var UnknownArg = Arg{Param: -1}

// CallSite is one syntactic call found in a checked body.
type CallSite struct {
	Callee *unit.Unit
	Label  string
	Args   []Arg
}

// CallCollector lists the call sites of a checked body.
type CallCollector interface {
	CallSites(ctx context.Context, caller *unit.Unit) ([]CallSite, error)
}

// Verdict is the outcome of analysing one recursive group.
type Verdict struct {
	// Functions are the members that were analysed.
	Functions []*unit.Unit
	// Bad holds, per offending function, an idempotent self-matrix with no
	// decrease on its diagonal.
	Bad []*CallMatrix
}

// Terminating reports whether every analysed function passed.
func (v *Verdict) Terminating() bool {
	return len(v.Bad) == 0
}

// Implicated returns every function that lies on a bad call path, in first
// appearance order.
func (v *Verdict) Implicated() []*unit.Unit {
	seen := make(map[*unit.Unit]struct{})
	var out []*unit.Unit
	for _, m := range v.Bad {
		for _, s := range m.Path {
			if _, ok := seen[s.Caller]; ok {
				continue
			}
			seen[s.Caller] = struct{}{}
			out = append(out, s.Caller)
		}
	}
	return out
}

// matrixFor builds the call matrix of one call site.
func matrixFor(caller *unit.Unit, site CallSite) *CallMatrix {
	label := site.Label
	if label == "" {
		label = caller.ID() + " -> " + site.Callee.ID()
	}
	m := NewCallMatrix(caller, site.Callee, label)
	for i, arg := range site.Args {
		if i >= m.rows || arg.Param < 0 || arg.Param >= m.cols {
			continue
		}
		m.Set(i, arg.Param, Decrease(true, arg.Peel))
	}
	return m
}

// BuildCallGraph collects the call matrices among members. Calls to units
// outside members are ignored.
func BuildCallGraph(ctx context.Context, members []*unit.Unit, calls CallCollector) (*CallGraph, error) {
	inGroup := make(map[*unit.Unit]struct{}, len(members))
	for _, f := range members {
		inGroup[f] = struct{}{}
	}

	var base []*CallMatrix
	bound := 1
	for _, f := range members {
		sites, err := calls.CallSites(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("collecting call sites of '%s': %w", f, err)
		}
		for _, site := range sites {
			if _, ok := inGroup[site.Callee]; !ok {
				continue
			}
			m := matrixFor(f, site)
			bound = max(bound, m.maxSize())
			base = append(base, m)
		}
	}

	g := NewCallGraph(bound)
	for _, m := range base {
		g.Put(m)
	}
	return g, nil
}

// Verify classifies a completed call graph.
func Verify(g *CallGraph, functions []*unit.Unit) *Verdict {
	v := &Verdict{Functions: functions}
	for _, f := range functions {
		for _, m := range g.Matrices(f, f) {
			if m.Idempotent(g.Bound()) && !m.DecreasingDiagonal() {
				v.Bad = append(v.Bad, m)
				break
			}
		}
	}
	return v
}

// Analyze runs the whole analysis over the function members of one SCC.
// Units that are not functions, or that were declared partial, are left out.
func Analyze(ctx context.Context, members []*unit.Unit, calls CallCollector) (*Verdict, error) {
	logger := ctxlog.FromContext(ctx)

	var functions []*unit.Unit
	for _, u := range members {
		if u.IsFunction() && !u.Partial {
			functions = append(functions, u)
		}
	}
	if len(functions) == 0 {
		return &Verdict{}, nil
	}

	g, err := BuildCallGraph(ctx, functions, calls)
	if err != nil {
		return nil, err
	}
	base := g.Len()
	passes := g.Complete()
	v := Verify(g, functions)

	logger.Debug("Termination analysis finished.",
		"functions", len(functions),
		"base_matrices", base,
		"matrices", g.Len(),
		"passes", passes,
		"terminating", v.Terminating(),
	)
	return v, nil
}
