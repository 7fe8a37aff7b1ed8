// Package report renders the outcome of a run as text or as JSON. The JSON
// form goes through go-cty so the shape of the document is derived from the
// report types.
package report

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/vk/tyckorder/internal/diag"
	"github.com/vk/tyckorder/internal/scheduler"
	"github.com/vk/tyckorder/internal/statestore"
	"github.com/vk/tyckorder/internal/unit"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Formats accepted by Write.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Report is the serialisable outcome of one run.
type Report struct {
	SessionID   string       `cty:"session_id"`
	OK          bool         `cty:"ok"`
	Summary     Summary      `cty:"summary"`
	Units       []Entry      `cty:"units"`
	Diagnostics []Diagnostic `cty:"diagnostics"`
}

// Summary holds the counts of a run.
type Summary struct {
	Succeeded        int `cty:"succeeded"`
	Failed           int `cty:"failed"`
	Skipped          int `cty:"skipped"`
	NonTerminating   int `cty:"non_terminating"`
	StructuralErrors int `cty:"structural_errors"`
}

// Entry is the final state of one unit.
type Entry struct {
	Unit           string `cty:"unit"`
	Kind           string `cty:"kind"`
	Module         string `cty:"module"`
	Status         string `cty:"status"`
	NonTerminating bool   `cty:"non_terminating"`
	Error          string `cty:"error"`
}

// Diagnostic is the serialisable form of diag.Diagnostic.
type Diagnostic struct {
	Severity string   `cty:"severity"`
	Kind     string   `cty:"kind"`
	Message  string   `cty:"message"`
	Units    []string `cty:"units"`
	Path     []string `cty:"path"`
}

// New builds a report for units from the state recorded in state.
func New(ctx context.Context, sessionID string, units []*unit.Unit, state statestore.Store, res *scheduler.Result, diags []diag.Diagnostic) *Report {
	r := &Report{
		SessionID: sessionID,
		OK:        res.OK(),
		Summary: Summary{
			Succeeded:        len(res.Succeeded),
			Failed:           len(res.Failed),
			Skipped:          len(res.Skipped),
			NonTerminating:   len(res.NonTerminating),
			StructuralErrors: res.StructuralErrors,
		},
		Units:       make([]Entry, 0, len(units)),
		Diagnostics: make([]Diagnostic, 0, len(diags)),
	}
	for _, u := range units {
		e := Entry{
			Unit:           u.ID(),
			Kind:           u.Kind.String(),
			Module:         u.Module,
			Status:         state.Status(ctx, u).String(),
			NonTerminating: u.NonTerminating(),
		}
		if err := state.Error(ctx, u); err != nil {
			e.Error = err.Error()
		}
		r.Units = append(r.Units, e)
	}
	for _, d := range diags {
		r.Diagnostics = append(r.Diagnostics, Diagnostic{
			Severity: d.Severity.String(),
			Kind:     string(d.Kind),
			Message:  d.Message,
			Units:    nonNil(d.Units),
			Path:     nonNil(d.Path),
		})
	}
	return r
}

// Value converts the report into a cty object.
func (r *Report) Value() (cty.Value, error) {
	ty, err := gocty.ImpliedType(*r)
	if err != nil {
		return cty.NilVal, fmt.Errorf("deriving report type: %w", err)
	}
	v, err := gocty.ToCtyValue(*r, ty)
	if err != nil {
		return cty.NilVal, fmt.Errorf("converting report: %w", err)
	}
	return v, nil
}

// JSON encodes the report.
func (r *Report) JSON() ([]byte, error) {
	v, err := r.Value()
	if err != nil {
		return nil, err
	}
	return ctyjson.Marshal(v, v.Type())
}

// Write renders the report to w in format.
func (r *Report) Write(w io.Writer, format string) error {
	switch format {
	case FormatJSON:
		b, err := r.JSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", b)
		return err
	case FormatText, "":
		return r.writeText(w)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

func (r *Report) writeText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "UNIT\tKIND\tSTATUS\tNOTE")
	for _, e := range r.Units {
		note := e.Error
		if e.NonTerminating {
			note = "non-terminating"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Unit, e.Kind, e.Status, note)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	s := r.Summary
	fmt.Fprintf(w, "\n%d succeeded (%d non-terminating), %d failed, %d skipped, %d structural errors\n",
		s.Succeeded, s.NonTerminating, s.Failed, s.Skipped, s.StructuralErrors)

	if len(r.Diagnostics) > 0 {
		fmt.Fprintln(w, "\nDiagnostics:")
		for _, d := range r.Diagnostics {
			fmt.Fprintf(w, "  %s[%s]: %s\n", d.Severity, d.Kind, d.Message)
		}
	}
	_, err := fmt.Fprintf(w, "\nsession %s\n", r.SessionID)
	return err
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
