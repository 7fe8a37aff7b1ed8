// Package diag defines the diagnostics the scheduler emits and the reporters
// that deliver them: structured logs, an in-memory collector for reports and
// tests, and a socket.io stream for external listeners.
package diag

import (
	"context"
	"fmt"
	"strings"
)

// Severity orders diagnostics by how bad they are.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	default:
		return "error"
	}
}

// Kind identifies what a diagnostic is about.
type Kind string

const (
	KindCircularSignature Kind = "circular-signature"
	KindBadRecursion      Kind = "bad-recursion"
	KindUnitError         Kind = "unit-error"
	KindSCCInterrupted    Kind = "scc-interrupted"
	KindModuleDisliked    Kind = "module-disliked"
	KindUnexpectedSuccess Kind = "unexpected-success"
)

// Diagnostic is one message for the operator.
type Diagnostic struct {
	Severity Severity
	Kind     Kind
	Message  string
	// Units names the implicated units.
	Units []string
	// Path is the offending chain for cycle and recursion diagnostics.
	Path []string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s[%s]: %s", d.Severity, d.Kind, d.Message)
}

// Reporter receives diagnostics as they are produced.
type Reporter interface {
	Report(ctx context.Context, d Diagnostic)
}

// CircularSignature reports signatures that still block each other after the
// header phase. cycle lists the units in cycle order; the first one is
// repeated at the end of the printed path.
func CircularSignature(cycle []string) Diagnostic {
	path := append(append([]string(nil), cycle...), cycle[0])
	return Diagnostic{
		Severity: SeverityError,
		Kind:     KindCircularSignature,
		Message:  "Circular signature dependency: " + strings.Join(path, " -> "),
		Units:    cycle,
		Path:     path,
	}
}

// BadRecursion reports a recursive group with no provable decrease. path is
// one concrete call chain that does not decrease.
func BadRecursion(units, path []string) Diagnostic {
	return Diagnostic{
		Severity: SeverityWarning,
		Kind:     KindBadRecursion,
		Message: fmt.Sprintf("The recursive definition of %s is not structurally recursive, call path: %s",
			strings.Join(units, ", "), strings.Join(path, " -> ")),
		Units: units,
		Path:  path,
	}
}

// UnitError reports a local failure of one unit.
func UnitError(unit string, err error) Diagnostic {
	return Diagnostic{
		Severity: SeverityError,
		Kind:     KindUnitError,
		Message:  fmt.Sprintf("%s: %v", unit, err),
		Units:    []string{unit},
	}
}

// SCCInterrupted reports that checking a group was abandoned.
func SCCInterrupted(units []string, err error) Diagnostic {
	return Diagnostic{
		Severity: SeverityError,
		Kind:     KindSCCInterrupted,
		Message:  fmt.Sprintf("Checking of %s was interrupted: %v", strings.Join(units, ", "), err),
		Units:    units,
	}
}

// ModuleDisliked is the summary line for a module an incremental pass
// skipped units of. Units lists the skipped units.
func ModuleDisliked(module string, skipped ...string) Diagnostic {
	return Diagnostic{
		Severity: SeverityWarning,
		Kind:     KindModuleDisliked,
		Message:  "I dislike the following module(s): " + module,
		Units:    skipped,
	}
}

// UnexpectedSuccess reports a counterexample that checked.
func UnexpectedSuccess(unit string) Diagnostic {
	return Diagnostic{
		Severity: SeverityError,
		Kind:     KindUnexpectedSuccess,
		Message:  fmt.Sprintf("The counterexample %s unexpectedly checked", unit),
		Units:    []string{unit},
	}
}
