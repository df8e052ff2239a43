package sessionstate

import (
	"context"
	"errors"
)

type contextKey struct{}

// WithManager returns a context carrying the manager.
func WithManager(ctx context.Context, m *Manager) context.Context {
	return context.WithValue(ctx, contextKey{}, m)
}

// ErrNoManager is returned by FromContext when no manager was attached.
var ErrNoManager = errors.New("sessionstate: no manager in context; wrap the context with sessionstate.WithManager first")

// FromContext retrieves the manager from the context. Using session state
// outside a context prepared with WithManager is a programming error, so the
// failure is loud instead of returning a zero-value manager.
func FromContext(ctx context.Context) (*Manager, error) {
	m, ok := ctx.Value(contextKey{}).(*Manager)
	if !ok || m == nil {
		return nil, ErrNoManager
	}
	return m, nil
}
