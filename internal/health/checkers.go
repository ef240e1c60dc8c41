package health

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/retailctl/internal/session"
	"github.com/felixgeelhaar/retailctl/internal/storage"
)

// StateSource provides session snapshots. *session.Store satisfies it.
type StateSource interface {
	State() session.State
}

// SessionChecker reports degraded while the stored session is still being
// restored.
type SessionChecker struct {
	Source StateSource
}

func (SessionChecker) Name() string { return "session-store" }

func (c SessionChecker) Check(_ context.Context) *Result {
	st := c.Source.State()
	switch {
	case st.Loading:
		return Degraded("restoring session")
	case st.User != nil:
		return Healthy("signed in").WithDetail("role", string(st.User.Role))
	default:
		return Healthy("anonymous")
	}
}

// StorageChecker reads the token key to prove the backing store answers.
type StorageChecker struct {
	Storage storage.Storage
}

func (StorageChecker) Name() string { return "storage" }

func (c StorageChecker) Check(ctx context.Context) *Result {
	_, err := c.Storage.Get(ctx, storage.KeyToken)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return Unhealthy(err.Error())
	}
	return Healthy("readable")
}

// Pinger is implemented by *backend.Client.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BackendChecker reports whether the retail backend answers.
type BackendChecker struct {
	Backend Pinger
	URL     string
}

func (BackendChecker) Name() string { return "backend" }

func (c BackendChecker) Check(ctx context.Context) *Result {
	if err := c.Backend.Ping(ctx); err != nil {
		return Unhealthy("unreachable").WithDetail("url", c.URL).WithDetail("error", err.Error())
	}
	return Healthy("reachable").WithDetail("url", c.URL)
}
