// Package session defines the compilation-session context object: the state
// one run (or one incremental pass) shares between the scheduler, the
// propagator and the reporters.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/vk/tyckorder/internal/ctxlog"
	"github.com/vk/tyckorder/internal/diag"
	"github.com/vk/tyckorder/internal/propagate"
	"github.com/vk/tyckorder/internal/statestore"
	"github.com/vk/tyckorder/internal/topologystore"
)

// Factory creates sessions. Implementations choose the storage backends.
type Factory interface {
	NewSession(ctx context.Context, reporter diag.Reporter) (*Session, error)
}

// Session owns everything that lives for one run.
type Session struct {
	// ID correlates logs, reports and streamed diagnostics of one run.
	ID       string
	Topology topologystore.Store
	State    statestore.Store
	Reporter diag.Reporter

	mu      sync.Mutex
	skip    *propagate.SkipSet
	scope   map[string]struct{}
	closers []func() error
}

// New creates a session over the given stores. A nil reporter drops
// diagnostics.
func New(topo topologystore.Store, state statestore.Store, reporter diag.Reporter) *Session {
	if reporter == nil {
		reporter = diag.Multi{}
	}
	return &Session{
		ID:       uuid.NewString(),
		Topology: topo,
		State:    state,
		Reporter: reporter,
		skip:     propagate.NewSkipSet(),
	}
}

// Logger returns the context logger tagged with the session id.
func (s *Session) Logger(ctx context.Context) *slog.Logger {
	return ctxlog.FromContext(ctx).With("session_id", s.ID)
}

// Context returns ctx carrying the session-tagged logger.
func (s *Session) Context(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, s.Logger(ctx))
}

// Report forwards a diagnostic to the session's reporter.
func (s *Session) Report(ctx context.Context, d diag.Diagnostic) {
	s.Reporter.Report(ctx, d)
}

// SkipSet returns the skip set of the current pass.
func (s *Session) SkipSet() *propagate.SkipSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.skip
}

// BeginPass starts a new pass over modules: it resets the skip set and
// narrows the scope. No modules means every module is in scope.
func (s *Session) BeginPass(modules ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skip = propagate.NewSkipSet()
	if len(modules) == 0 {
		s.scope = nil
		return
	}
	s.scope = make(map[string]struct{}, len(modules))
	for _, m := range modules {
		s.scope[m] = struct{}{}
	}
}

// InScope reports whether units of module are checked in the current pass.
func (s *Session) InScope(module string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scope == nil {
		return true
	}
	_, ok := s.scope[module]
	return ok
}

// OnClose registers fn to run when the session is closed.
func (s *Session) OnClose(fn func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closers = append(s.closers, fn)
}

// Close runs the registered cleanups in reverse order and joins their errors.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	closers := s.closers
	s.closers = nil
	s.mu.Unlock()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.Logger(ctx).Debug("Session closed.", "cleanups", len(closers))
	return errors.Join(errs...)
}
