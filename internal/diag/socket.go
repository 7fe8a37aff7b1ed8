package diag

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/vk/tyckorder/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// EventName is the socket.io event every diagnostic is emitted under.
const EventName = "diagnostic"

const connectTimeout = 15 * time.Second

// Emitter is the part of a socket.io client the reporter needs.
type Emitter interface {
	Emit(ev string, args ...any) error
}

// SocketReporter streams diagnostics to a socket.io listener such as an
// editor plugin or a dashboard.
type SocketReporter struct {
	emitter   Emitter
	sessionID string
}

// NewSocketReporter creates a reporter emitting on e. Every payload carries
// sessionID so listeners can group events per run.
func NewSocketReporter(e Emitter, sessionID string) *SocketReporter {
	return &SocketReporter{emitter: e, sessionID: sessionID}
}

// Report implements Reporter. Emit failures are logged and otherwise ignored:
// a missing listener must not fail the run.
func (r *SocketReporter) Report(ctx context.Context, d Diagnostic) {
	payload := map[string]any{
		"session_id": r.sessionID,
		"severity":   d.Severity.String(),
		"kind":       string(d.Kind),
		"message":    d.Message,
		"units":      d.Units,
		"path":       d.Path,
	}
	if err := r.emitter.Emit(EventName, payload); err != nil {
		ctxlog.FromContext(ctx).Warn("Failed to stream diagnostic.", "kind", string(d.Kind), "error", err)
	}
}

// Dial connects a socket.io client to rawURL and waits for the namespace to
// accept it. The caller owns the returned socket and must Disconnect it.
func Dial(ctx context.Context, rawURL, namespace string) (*socket.Socket, error) {
	logger := ctxlog.FromContext(ctx).With("url", rawURL, "namespace", namespace)

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse diagnostics URL: %w", err)
	}

	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	opts.SetTransports(types.NewSet(transports.WebSocket))

	connectChan := make(chan error, 1)

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(namespace, opts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Diagnostics stream connected.", "sid", io.Id())
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := fmt.Errorf("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		connectChan <- err
	})

	logger.Debug("Connecting diagnostics stream...")
	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return io, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("waiting for socket.io connection: %w", ctx.Err())
	case <-time.After(connectTimeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", connectTimeout)
	}
}
