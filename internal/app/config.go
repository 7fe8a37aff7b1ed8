package app

import (
	"errors"
	"fmt"
	"net/url"
	"slices"

	"github.com/vk/tyckorder/internal/report"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// ProgramPath is a program file or a directory of .hcl/.yaml files.
	ProgramPath string
	// Changed lists files to re-check incrementally after the first pass.
	Changed []string

	LogFormat    string
	LogLevel     string
	ReportFormat string

	// DiagnosticsURL, when set, is a socket.io endpoint every diagnostic is
	// streamed to.
	DiagnosticsURL       string
	DiagnosticsNamespace string
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ProgramPath == "" {
		return nil, errors.New("ProgramPath is a required configuration field and cannot be empty")
	}
	if cfg.ReportFormat == "" {
		cfg.ReportFormat = report.FormatText
	}
	if !slices.Contains([]string{report.FormatText, report.FormatJSON}, cfg.ReportFormat) {
		return nil, fmt.Errorf("invalid report format %q: must be 'text' or 'json'", cfg.ReportFormat)
	}
	if cfg.DiagnosticsURL != "" {
		u, err := url.Parse(cfg.DiagnosticsURL)
		if err != nil {
			return nil, fmt.Errorf("invalid diagnostics URL: %w", err)
		}
		if !slices.Contains([]string{"http", "https", "ws", "wss"}, u.Scheme) || u.Host == "" {
			return nil, fmt.Errorf("invalid diagnostics URL %q: need http(s) or ws(s) with a host", cfg.DiagnosticsURL)
		}
		if cfg.DiagnosticsNamespace == "" {
			cfg.DiagnosticsNamespace = "/"
		}
	}
	return &cfg, nil
}
