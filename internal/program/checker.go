package program

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/tyckorder/internal/config"
	"github.com/vk/tyckorder/internal/ctxlog"
	"github.com/vk/tyckorder/internal/scheduler"
	"github.com/vk/tyckorder/internal/termination"
	"github.com/vk/tyckorder/internal/unit"
)

// ErrRejected is the error a scripted check fails with.
var ErrRejected = errors.New("rejected by checker")

// Artifact is what a successful body check produces.
type Artifact struct {
	Unit  string
	Kind  string
	Calls int
}

var (
	_ scheduler.Checker         = (*Program)(nil)
	_ termination.CallCollector = (*Program)(nil)
)

// CheckHeader implements scheduler.Checker.
func (p *Program) CheckHeader(ctx context.Context, u *unit.Unit) error {
	d, err := p.declFor(u)
	if err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Debug("Scripted check.", "unit", u.ID(), "phase", unit.Head.String(), "fail", d.Fail)
	if d.Fail == config.FailHead {
		return p.reject(u, "signature")
	}
	return nil
}

// CheckBody implements scheduler.Checker.
func (p *Program) CheckBody(ctx context.Context, u *unit.Unit) (any, error) {
	d, err := p.declFor(u)
	if err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Debug("Scripted check.", "unit", u.ID(), "phase", unit.Body.String(), "fail", d.Fail)
	switch d.Fail {
	case config.FailHead:
		// A body check covers the signature when it was not checked on its own.
		return nil, p.reject(u, "signature")
	case config.FailBody:
		return nil, p.reject(u, "definition")
	case config.FailInterrupt:
		return nil, &scheduler.InterruptedError{Unit: u, Reason: "checker gave up"}
	}
	return &Artifact{Unit: u.ID(), Kind: u.Kind.String(), Calls: len(p.calls[u])}, nil
}

// CallSites implements termination.CallCollector.
func (p *Program) CallSites(ctx context.Context, caller *unit.Unit) ([]termination.CallSite, error) {
	if _, err := p.declFor(caller); err != nil {
		return nil, err
	}
	return p.calls[caller], nil
}

func (p *Program) declFor(u *unit.Unit) (*config.Decl, error) {
	d, ok := p.decls[u]
	if !ok {
		return nil, fmt.Errorf("unit '%s' is not part of the program", u)
	}
	return d, nil
}

func (p *Program) reject(u *unit.Unit, what string) error {
	err := fmt.Errorf("%s of '%s': %w", what, u, ErrRejected)
	if blamed := p.blame[u]; len(blamed) > 0 {
		return &scheduler.BlameError{Units: blamed, Err: err}
	}
	return err
}
