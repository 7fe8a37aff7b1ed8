// Package localsession provides the in-process session.Factory: topology and
// state live in memory for the lifetime of the process.
package localsession

import (
	"context"

	"github.com/vk/tyckorder/internal/ctxlog"
	"github.com/vk/tyckorder/internal/diag"
	"github.com/vk/tyckorder/internal/inmemorystore"
	"github.com/vk/tyckorder/internal/inmemorytopology"
	"github.com/vk/tyckorder/internal/session"
)

// SessionFactory implements session.Factory for local runs.
type SessionFactory struct{}

var _ session.Factory = (*SessionFactory)(nil)

// NewSession wires in-memory stores into a new session.
func (f *SessionFactory) NewSession(ctx context.Context, reporter diag.Reporter) (*session.Session, error) {
	s := session.New(inmemorytopology.New(), inmemorystore.New(), reporter)
	ctxlog.FromContext(ctx).Debug("Local session created.", "session_id", s.ID)
	return s, nil
}
