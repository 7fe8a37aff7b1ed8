package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/vk/tyckorder/internal/app"
)

const usage = `
tyckorder - orders and checks the declarations of a program, one strongly
connected component at a time.

Usage:
  tyckorder [options] [PROGRAM_PATH]

Arguments:
  PROGRAM_PATH
    Path to a single .hcl/.yaml program file or a directory containing them.

Options:
`

var (
	logFormats = []string{"text", "json"}
	logLevels  = []string{"debug", "info", "warn", "error"}
)

// ExitError carries the process exit code alongside the message.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

func usageError(format string, args ...any) *ExitError {
	return &ExitError{Code: 2, Message: fmt.Sprintf(format, args...)}
}

// Parse turns command-line arguments into an app.Config. The boolean result
// reports that usage was printed and the process should exit cleanly.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	fs := flag.NewFlagSet("tyckorder", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprint(output, usage)
		fs.PrintDefaults()
	}

	var (
		program, short  string
		logFormat       string
		logLevel        string
		reportFormat    string
		changed         string
		diagURL, diagNS string
	)
	fs.StringVar(&program, "program", "", "Path to the program file or directory.")
	fs.StringVar(&short, "p", "", "Path to the program file or directory (shorthand).")
	fs.StringVar(&logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")
	fs.StringVar(&logLevel, "log-level", "info", "Logging level. Options: 'debug', 'info', 'warn', 'error'.")
	fs.StringVar(&reportFormat, "report", "text", "Report format. Options: 'text' or 'json'.")
	fs.StringVar(&changed, "changed", "", "Comma separated files to re-check incrementally after the first pass.")
	fs.StringVar(&diagURL, "diagnostics-url", "", "socket.io endpoint to stream diagnostics to. Empty disables streaming.")
	fs.StringVar(&diagNS, "diagnostics-namespace", "/", "socket.io namespace for streamed diagnostics.")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, usageError("%s", err)
	}

	path := firstNonEmpty(program, short, fs.Arg(0))
	if path == "" {
		slog.Debug("No program path given.")
		fs.Usage()
		return nil, true, nil
	}

	logFormat = strings.ToLower(logFormat)
	if !slices.Contains(logFormats, logFormat) {
		return nil, false, usageError("invalid log-format %q: must be one of %s", logFormat, strings.Join(logFormats, ", "))
	}
	logLevel = strings.ToLower(logLevel)
	if !slices.Contains(logLevels, logLevel) {
		return nil, false, usageError("invalid log-level %q: must be one of %s", logLevel, strings.Join(logLevels, ", "))
	}

	cfg, err := app.NewConfig(app.Config{
		ProgramPath:          path,
		Changed:              splitList(changed),
		LogFormat:            logFormat,
		LogLevel:             logLevel,
		ReportFormat:         strings.ToLower(reportFormat),
		DiagnosticsURL:       diagURL,
		DiagnosticsNamespace: diagNS,
	})
	if err != nil {
		return nil, false, usageError("%s", err)
	}
	slog.Debug("Parsed command line.", "config", cfg)
	return cfg, false, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
