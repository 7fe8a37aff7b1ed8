package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/tyckorder/internal/config"
	"github.com/vk/tyckorder/internal/ctxlog"
	"github.com/vk/tyckorder/internal/diag"
	"github.com/vk/tyckorder/internal/hcl"
	"github.com/vk/tyckorder/internal/localsession"
	"github.com/vk/tyckorder/internal/session"
	"github.com/vk/tyckorder/internal/yamlconf"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	loader   config.Loader
	sessions session.Factory
}

// NewApp is the constructor for the main application. The report goes to
// outW and logs to logW. Without explicit loaders every supported program
// format is read.
func NewApp(outW, logW io.Writer, cfg *Config, loaders ...config.Loader) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Logger configured successfully.")

	if len(loaders) == 0 {
		loaders = []config.Loader{hcl.NewLoader(), yamlconf.NewLoader()}
	}
	return &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		loader:   config.Loaders(loaders),
		sessions: &localsession.SessionFactory{},
	}
}

// newSession opens a session whose diagnostics go to the log, to collector
// and, when configured, to the socket.io stream.
func (a *App) newSession(ctx context.Context, collector *diag.Collector) (*session.Session, error) {
	sess, err := a.sessions.NewSession(ctx, diag.Multi{diag.LogReporter{}, collector})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	if a.config.DiagnosticsURL == "" {
		return sess, nil
	}

	sock, err := diag.Dial(ctx, a.config.DiagnosticsURL, a.config.DiagnosticsNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to open diagnostics stream: %w", err)
	}
	sess.OnClose(func() error {
		sock.Disconnect()
		return nil
	})
	sess.Reporter = diag.Multi{sess.Reporter, diag.NewSocketReporter(sock, sess.ID)}
	ctxlog.FromContext(ctx).Info("Streaming diagnostics.", "url", a.config.DiagnosticsURL, "session_id", sess.ID)
	return sess, nil
}
