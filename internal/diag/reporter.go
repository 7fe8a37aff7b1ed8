package diag

import (
	"context"
	"log/slog"
	"sync"

	"github.com/vk/tyckorder/internal/ctxlog"
)

// LogReporter writes diagnostics to the context logger.
type LogReporter struct{}

// Report implements Reporter.
func (LogReporter) Report(ctx context.Context, d Diagnostic) {
	level := slog.LevelInfo
	switch d.Severity {
	case SeverityWarning:
		level = slog.LevelWarn
	case SeverityError:
		level = slog.LevelError
	}
	attrs := []any{"kind", string(d.Kind), "units", d.Units}
	if len(d.Path) > 0 {
		attrs = append(attrs, "path", d.Path)
	}
	ctxlog.FromContext(ctx).Log(ctx, level, d.Message, attrs...)
}

// Collector keeps every diagnostic in memory.
type Collector struct {
	mu    sync.Mutex
	diags []Diagnostic
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Report implements Reporter.
func (c *Collector) Report(_ context.Context, d Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.diags = append(c.diags, d)
}

// Diagnostics returns a snapshot in report order.
func (c *Collector) Diagnostics() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Diagnostic(nil), c.diags...)
}

// OfKind returns the collected diagnostics of one kind.
func (c *Collector) OfKind(kind Kind) []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Diagnostic
	for _, d := range c.diags {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

// Multi fans a diagnostic out to several reporters in order.
type Multi []Reporter

// Report implements Reporter.
func (m Multi) Report(ctx context.Context, d Diagnostic) {
	for _, r := range m {
		if r != nil {
			r.Report(ctx, d)
		}
	}
}
