package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/tyckorder/internal/ctxlog"
	"github.com/vk/tyckorder/internal/depgraph"
	"github.com/vk/tyckorder/internal/diag"
	"github.com/vk/tyckorder/internal/graph"
	"github.com/vk/tyckorder/internal/propagate"
	"github.com/vk/tyckorder/internal/session"
	"github.com/vk/tyckorder/internal/termination"
	"github.com/vk/tyckorder/internal/unit"
)

// Scheduler runs the checker over one set of dependency graphs.
type Scheduler struct {
	sess    *session.Session
	graphs  *depgraph.Graphs
	checker Checker
	calls   termination.CallCollector
	prop    *propagate.Propagator

	structural int
}

// New creates a scheduler for graphs. calls feeds termination analysis.
func New(sess *session.Session, graphs *depgraph.Graphs, checker Checker, calls termination.CallCollector) *Scheduler {
	return &Scheduler{
		sess:    sess,
		graphs:  graphs,
		checker: checker,
		calls:   calls,
		prop:    propagate.New(sess.SkipSet(), graphs.UsageGraphs()...),
	}
}

// outcome is the pending result of one component.
type outcome struct {
	// blamed is what the propagator must skip from; empty means success.
	blamed []*unit.Unit
	// artifacts of checked bodies, committed only on success.
	artifacts map[*unit.Unit]any
	// nonTerminating functions found by termination analysis.
	nonTerminating []*unit.Unit
}

// refuted reports whether counterexample u already failed as expected.
func (o *outcome) refuted(u *unit.Unit) bool {
	if u.Kind != unit.Counterexample {
		return false
	}
	_, ok := o.artifacts[u]
	return ok
}

// RunAll checks units in dependency order and partitions them by outcome.
// Units already settled by an earlier pass keep their status; those that
// failed or were skipped still seed the skip set. If ctx is cancelled, every
// unit not yet settled is skipped and the context error is returned along
// with the partial result.
func (s *Scheduler) RunAll(ctx context.Context, units []*unit.Unit) (*Result, error) {
	ctx = s.sess.Context(ctx)
	logger := ctxlog.FromContext(ctx)
	store := s.sess.State

	var seeds []*unit.Unit
	queued := 0
	for _, u := range units {
		switch st := store.Status(ctx, u); {
		case st == unit.StatusFailed || st == unit.StatusSkipped:
			seeds = append(seeds, u)
		case st == unit.StatusUnqueued && s.needsCheck(u):
			if err := store.SetStatus(ctx, u, unit.StatusQueued); err != nil {
				return nil, fmt.Errorf("queueing '%s': %w", u, err)
			}
			queued++
		}
	}
	if len(seeds) > 0 {
		logger.Debug("Seeding skip set from earlier outcomes.", "units", len(seeds))
		s.skip(ctx, seeds)
	}
	logger.Info("Starting run.", "units", len(units), "queued", queued)

	var runErr error
	for _, pass := range []struct {
		name    string
		g       *depgraph.Graph
		samples bool
	}{
		{"declarations", s.graphs.Decl, false},
		{"samples", s.graphs.Sample, true},
	} {
		sccs := pass.g.TopologicalOrder()
		logger.Debug("Scheduling pass.", "pass", pass.name, "sccs", len(sccs))
		for _, scc := range sccs {
			if err := ctx.Err(); err != nil {
				runErr = fmt.Errorf("run cancelled: %w", err)
				break
			}
			if blamed := s.tyckSCC(ctx, scc, pass.samples); len(blamed) > 0 {
				s.skip(ctx, blamed)
			}
		}
		if runErr != nil {
			break
		}
	}

	if runErr != nil {
		logger.Warn("Run cancelled, skipping remaining units.", "error", runErr)
		for _, u := range units {
			if st := store.Status(ctx, u); !st.Terminal() {
				s.setStatus(ctx, u, unit.StatusSkipped)
				store.SetError(ctx, u, runErr)
			}
		}
	}

	res := s.result(ctx, units)
	logger.Info("Run finished.",
		"succeeded", len(res.Succeeded),
		"failed", len(res.Failed),
		"skipped", len(res.Skipped),
		"non_terminating", len(res.NonTerminating),
		"structural_errors", res.StructuralErrors,
	)
	return res, runErr
}

// TyckSCC checks one component and returns the units to blame; an empty
// result means the component succeeded or had nothing to check. Blamed
// units are not propagated: callers driving components one by one do that.
func (s *Scheduler) TyckSCC(ctx context.Context, scc []unit.Order) []*unit.Unit {
	samples := len(scc) > 0 && scc[0].Unit.Kind.IsSample()
	return s.tyckSCC(s.sess.Context(ctx), scc, samples)
}

// Skip propagates blame from units and records the skipped statuses.
func (s *Scheduler) Skip(ctx context.Context, units ...*unit.Unit) {
	s.skip(s.sess.Context(ctx), units)
}

func (s *Scheduler) tyckSCC(ctx context.Context, scc []unit.Order, samples bool) []*unit.Unit {
	logger := ctxlog.FromContext(ctx)
	if len(scc) == 1 && scc[0].Phase == unit.Head {
		// A lone header is checked together with its body, which is
		// emitted later and is the only node depending on it.
		return nil
	}
	members := s.members(ctx, scc, samples)
	if len(members) == 0 {
		return nil
	}
	logger.Debug("SCC emitted.", "scc_size", len(scc), "units", ids(members))

	var out outcome
	if len(members) == 1 {
		out = s.checkSingle(ctx, members[0])
	} else {
		out = s.checkGroup(ctx, members)
	}
	if len(out.blamed) > 0 {
		return out.blamed
	}
	s.commit(ctx, members, out)
	return nil
}

// members returns the distinct units of scc that this pass has to check.
func (s *Scheduler) members(ctx context.Context, scc []unit.Order, samples bool) []*unit.Unit {
	seen := make(map[*unit.Unit]struct{}, len(scc))
	var out []*unit.Unit
	for _, o := range scc {
		u := o.Unit
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		if u.Kind.IsSample() != samples {
			continue
		}
		if s.prop.SkipSet().Contains(u) {
			continue
		}
		st := s.sess.State.Status(ctx, u)
		if st == unit.StatusUnqueued && s.needsCheck(u) {
			s.setStatus(ctx, u, unit.StatusQueued)
			st = unit.StatusQueued
		}
		if st != unit.StatusQueued {
			continue
		}
		out = append(out, u)
	}
	return out
}

func (s *Scheduler) needsCheck(u *unit.Unit) bool {
	return u.NeedsCheck(s.sess.InScope)
}

func (s *Scheduler) graphFor(u *unit.Unit) *depgraph.Graph {
	if u.Kind.IsSample() {
		return s.graphs.Sample
	}
	return s.graphs.Decl
}

func (s *Scheduler) checkSingle(ctx context.Context, u *unit.Unit) outcome {
	out := outcome{artifacts: make(map[*unit.Unit]any, 1)}
	members := []*unit.Unit{u}

	selfRef := depgraph.IsSelfReferencing(s.graphFor(u), u)
	s.setStatus(ctx, u, unit.StatusChecking)
	if selfRef {
		ctxlog.FromContext(ctx).Debug("Checking header.", "unit", u.ID(), "phase", unit.Head.String())
		err := s.checker.CheckHeader(ctx, u)
		if blamed, done := s.settle(ctx, members, u, unit.Head, nil, err, &out); done {
			out.blamed = blamed
			return out
		}
		if out.refuted(u) {
			return out
		}
	}

	ctxlog.FromContext(ctx).Debug("Checking body.", "unit", u.ID(), "phase", unit.Body.String(), "self_referencing", selfRef)
	artifact, err := s.checker.CheckBody(ctx, u)
	if blamed, done := s.settle(ctx, members, u, unit.Body, artifact, err, &out); done {
		out.blamed = blamed
		return out
	}

	if selfRef {
		return s.terminate(ctx, members, out)
	}
	return out
}

// checkGroup runs the two-phase protocol over a mutual recursion. A member
// enters Checking when its header is handed to the checker.
func (s *Scheduler) checkGroup(ctx context.Context, members []*unit.Unit) outcome {
	logger := ctxlog.FromContext(ctx)
	out := outcome{artifacts: make(map[*unit.Unit]any, len(members))}

	order, cycle := s.headerOrder(members)
	if cycle != nil {
		s.structural++
		d := diag.CircularSignature(ids(cycle))
		logger.Error("Circular signature, abandoning SCC.", "units", ids(members), "cycle", d.Path)
		s.sess.Report(ctx, d)
		for _, u := range members {
			s.setStatus(ctx, u, unit.StatusSkipped)
			s.sess.State.SetError(ctx, u, errors.New(d.Message))
		}
		out.blamed = members
		return out
	}

	logger.Debug("Checking headers of mutual recursion.", "units", ids(order), "phase", unit.Head.String())
	for _, u := range order {
		s.setStatus(ctx, u, unit.StatusChecking)
		err := s.checker.CheckHeader(ctx, u)
		if blamed, done := s.settle(ctx, order, u, unit.Head, nil, err, &out); done {
			s.failFast(ctx, order, u)
			out.blamed = blamed
			return out
		}
	}

	logger.Debug("Checking bodies of mutual recursion.", "units", ids(order), "phase", unit.Body.String())
	for _, u := range order {
		if out.refuted(u) {
			continue
		}
		artifact, err := s.checker.CheckBody(ctx, u)
		if blamed, done := s.settle(ctx, order, u, unit.Body, artifact, err, &out); done {
			s.failFast(ctx, order, u)
			out.blamed = blamed
			return out
		}
	}

	return s.terminate(ctx, order, out)
}

// failFast settles the members of a failed group that already reached the
// checker. They depend on the failed member, so none of them can succeed,
// and a unit that entered Checking is never skipped.
func (s *Scheduler) failFast(ctx context.Context, members []*unit.Unit, cause *unit.Unit) {
	for _, m := range members {
		if m == cause || s.sess.State.Status(ctx, m) != unit.StatusChecking {
			continue
		}
		err := fmt.Errorf("recursive group failed at '%s'", cause)
		ctxlog.FromContext(ctx).Warn("Unit failed with its group.", "unit", m.ID(), "cause", cause.ID())
		s.setStatus(ctx, m, unit.StatusFailed)
		s.sess.State.SetError(ctx, m, err)
	}
}

// headerOrder orders members by their signature references only. A cycle
// among two or more signatures is returned instead of an order.
func (s *Scheduler) headerOrder(members []*unit.Unit) (order, cycle []*unit.Unit) {
	inGroup := make(map[*unit.Unit]struct{}, len(members))
	for _, u := range members {
		inGroup[u] = struct{}{}
	}

	heads := graph.New[*unit.Unit]()
	for _, u := range members {
		adj := heads.SuccessorsMut(u)
		for _, ref := range s.graphs.HeadRefs(u) {
			if _, ok := inGroup[ref]; ok && ref != u {
				adj.Append(ref)
			}
		}
	}

	for _, scc := range heads.TopologicalOrder() {
		if len(scc) > 1 {
			return nil, cyclePath(heads, scc)
		}
		order = append(order, scc[0])
	}
	return order, nil
}

// cyclePath finds a concrete cycle through the first node of a strongly
// connected component, by breadth-first search back to it.
func cyclePath(g *graph.Graph[*unit.Unit], scc []*unit.Unit) []*unit.Unit {
	inSCC := make(map[*unit.Unit]struct{}, len(scc))
	for _, u := range scc {
		inSCC[u] = struct{}{}
	}
	start := scc[0]
	parent := map[*unit.Unit]*unit.Unit{}
	queue := []*unit.Unit{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range g.Successors(cur) {
			if _, ok := inSCC[next]; !ok {
				continue
			}
			if next == start {
				path := []*unit.Unit{cur}
				for p := cur; p != start; {
					p = parent[p]
					path = append(path, p)
				}
				for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
					path[i], path[j] = path[j], path[i]
				}
				return path
			}
			if _, seen := parent[next]; !seen {
				parent[next] = cur
				queue = append(queue, next)
			}
		}
	}
	panic(fmt.Sprintf("scheduler: %v is not strongly connected", ids(scc)))
}

// settle folds the result of one checker phase into out. It reports whether
// the component is finished, returning what to blame.
func (s *Scheduler) settle(ctx context.Context, members []*unit.Unit, u *unit.Unit, phase unit.Phase, artifact any, err error, out *outcome) ([]*unit.Unit, bool) {
	if u.Kind != unit.Counterexample {
		if err != nil {
			return s.handleError(ctx, members, u, err).blamed, true
		}
		if phase == unit.Body {
			out.artifacts[u] = artifact
		}
		return nil, false
	}

	// A counterexample passes by failing, in either phase.
	if err == nil {
		if phase == unit.Head {
			return nil, false
		}
		d := diag.UnexpectedSuccess(u.ID())
		ctxlog.FromContext(ctx).Warn("Counterexample checked unexpectedly.", "unit", u.ID())
		s.setStatus(ctx, u, unit.StatusFailed)
		s.sess.State.SetError(ctx, u, errors.New(d.Message))
		s.sess.Report(ctx, d)
		return []*unit.Unit{u}, true
	}
	if errors.Is(err, ErrInterrupted) || ctx.Err() != nil {
		return s.handleError(ctx, members, u, err).blamed, true
	}
	ctxlog.FromContext(ctx).Debug("Counterexample failed as expected.", "unit", u.ID(), "phase", phase.String(), "error", err)
	out.artifacts[u] = err
	return nil, false
}

// handleError turns a checker error into the component's outcome.
func (s *Scheduler) handleError(ctx context.Context, members []*unit.Unit, u *unit.Unit, err error) outcome {
	var blame *BlameError
	switch {
	case errors.Is(err, ErrInterrupted) || (ctx.Err() != nil && errors.Is(err, ctx.Err())):
		return outcome{blamed: s.abandon(ctx, members, err)}
	case errors.As(err, &blame):
		blamed := s.fail(ctx, u, err)
		for _, b := range blame.Units {
			if b != u {
				blamed = append(blamed, b)
			}
		}
		return outcome{blamed: blamed}
	default:
		return outcome{blamed: s.fail(ctx, u, err)}
	}
}

// fail records a local failure of u.
func (s *Scheduler) fail(ctx context.Context, u *unit.Unit, err error) []*unit.Unit {
	ctxlog.FromContext(ctx).Warn("Unit failed.", "unit", u.ID(), "error", err)
	s.setStatus(ctx, u, unit.StatusFailed)
	s.sess.State.SetError(ctx, u, err)
	s.sess.Report(ctx, diag.UnitError(u.ID(), err))
	return []*unit.Unit{u}
}

// abandon discards a component: every member is skipped.
func (s *Scheduler) abandon(ctx context.Context, members []*unit.Unit, err error) []*unit.Unit {
	if ctx.Err() == nil {
		s.structural++
		d := diag.SCCInterrupted(ids(members), err)
		ctxlog.FromContext(ctx).Error("SCC interrupted, discarding its results.", "units", ids(members), "error", err)
		s.sess.Report(ctx, d)
	}
	for _, m := range members {
		s.setStatus(ctx, m, unit.StatusSkipped)
		s.sess.State.SetError(ctx, m, err)
	}
	return members
}

// terminate runs termination analysis over a checked component.
func (s *Scheduler) terminate(ctx context.Context, members []*unit.Unit, out outcome) outcome {
	if s.calls == nil {
		return out
	}
	verdict, err := termination.Analyze(ctx, members, s.calls)
	if err != nil {
		err = fmt.Errorf("termination analysis: %w", err)
		for _, m := range members {
			out.blamed = append(out.blamed, s.fail(ctx, m, err)...)
		}
		return out
	}
	if verdict.Terminating() {
		return out
	}

	implicated := verdict.Implicated()
	for _, f := range implicated {
		f.MarkNonTerminating()
	}
	out.nonTerminating = implicated
	d := diag.BadRecursion(ids(implicated), verdict.Bad[0].PathNames())
	ctxlog.FromContext(ctx).Warn("Non-terminating recursion, marking functions opaque.", "units", d.Units, "path", d.Path)
	s.sess.Report(ctx, d)
	return out
}

// commit stores the results of a successful component.
func (s *Scheduler) commit(ctx context.Context, members []*unit.Unit, out outcome) {
	for _, u := range members {
		s.sess.State.SetArtifact(ctx, u, out.artifacts[u])
		s.setStatus(ctx, u, unit.StatusSucceeded)
		u.MarkChecked()
		ctxlog.FromContext(ctx).Info("Unit checked.", "unit", u.ID(), "kind", u.Kind.String())
	}
}

// skip propagates from blamed and records every newly skipped unit.
func (s *Scheduler) skip(ctx context.Context, blamed []*unit.Unit) {
	store := s.sess.State
	for _, sk := range s.prop.Blame(ctx, blamed...) {
		if store.Status(ctx, sk.Unit).Terminal() {
			continue
		}
		s.setStatus(ctx, sk.Unit, unit.StatusSkipped)
		if sk.Cause != nil {
			store.SetError(ctx, sk.Unit, fmt.Errorf("skipped due to upstream failure of '%s'", sk.Cause))
		} else {
			store.SetError(ctx, sk.Unit, errors.New("blamed by another unit"))
		}
	}
}

// setStatus moves u along the status machine. An illegal move is a
// scheduler bug.
func (s *Scheduler) setStatus(ctx context.Context, u *unit.Unit, st unit.Status) {
	if err := s.sess.State.SetStatus(ctx, u, st); err != nil {
		panic(fmt.Sprintf("scheduler: %v", err))
	}
}

func (s *Scheduler) result(ctx context.Context, units []*unit.Unit) *Result {
	res := &Result{StructuralErrors: s.structural}
	for _, u := range units {
		switch s.sess.State.Status(ctx, u) {
		case unit.StatusSucceeded:
			res.Succeeded = append(res.Succeeded, u)
			if u.NonTerminating() {
				res.NonTerminating = append(res.NonTerminating, u)
			}
		case unit.StatusFailed:
			res.Failed = append(res.Failed, u)
		case unit.StatusSkipped:
			res.Skipped = append(res.Skipped, u)
		}
	}
	return res
}

func ids(us []*unit.Unit) []string {
	out := make([]string, len(us))
	for i, u := range us {
		out[i] = u.ID()
	}
	return out
}
