// Package sessionstate keeps one process-wide view of "who is signed in".
// It wraps the account service with an observable state machine that embedded
// clients (CLI tools, desktop shells) can subscribe to, mirroring the
// session-restoration flow a web client runs at startup.
package sessionstate

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/linkamarket/linka-api/internal/modules/account"
)

// Phase describes where the manager is in its lifecycle.
type Phase string

const (
	// PhaseInitializing is the state before Start has resolved the stored
	// session. Callers must treat authorization as undecided, not denied.
	PhaseInitializing  Phase = "initializing"
	PhaseAnonymous     Phase = "anonymous"
	PhaseAuthenticated Phase = "authenticated"
)

// Snapshot is an immutable view of the session state at one instant.
type Snapshot struct {
	Phase   Phase
	Loading bool
	Account *account.Account
}

// Manager owns the signed-in state. All mutating operations set the Loading
// flag for their duration and clear it on every exit path, success or failure.
type Manager struct {
	service account.Service
	tokens  TokenStore
	logger  *slog.Logger

	mu           sync.Mutex
	phase        Phase
	loading      bool
	current      *account.Account
	sessionToken string
	subscribers  []chan Snapshot
	closed       bool
}

// NewManager creates a manager in the Initializing phase. Call Start to
// resolve the stored session.
func NewManager(service account.Service, tokens TokenStore, logger *slog.Logger) (*Manager, error) {
	if service == nil {
		return nil, errors.New("sessionstate: account service is required")
	}
	if tokens == nil {
		tokens = NewMemoryTokenStore()
	}
	return &Manager{
		service: service,
		tokens:  tokens,
		logger:  logger,
		phase:   PhaseInitializing,
	}, nil
}

// Start resolves the stored session token into an account, moving the manager
// out of the Initializing phase. A missing or dead session is a normal
// outcome and lands in Anonymous; only infrastructure failures are returned,
// and even those leave the manager Anonymous rather than stuck Initializing.
func (m *Manager) Start(ctx context.Context) error {
	m.setLoading(true)
	defer m.setLoading(false)

	token, err := m.tokens.Load()
	if err != nil {
		m.logger.Warn("failed to load stored session token", "error", err)
		m.transition(PhaseAnonymous, nil, "")
		return err
	}
	if token == "" {
		m.transition(PhaseAnonymous, nil, "")
		return nil
	}

	acct, err := m.service.CurrentUser(ctx, token)
	if err != nil {
		m.logger.Error("failed to resolve stored session", "error", err)
		m.transition(PhaseAnonymous, nil, "")
		return err
	}
	if acct == nil {
		// Stored token no longer maps to a live session.
		_ = m.tokens.Clear()
		m.transition(PhaseAnonymous, nil, "")
		return nil
	}

	m.transition(PhaseAuthenticated, acct, token)
	m.logger.Info("session restored", "account_id", acct.ID, "role", acct.Role)
	return nil
}

// Login authenticates and, on success, moves the manager to Authenticated.
func (m *Manager) Login(ctx context.Context, email, password string) (*account.LoginResult, error) {
	m.setLoading(true)
	defer m.setLoading(false)

	result, err := m.service.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	if err := m.tokens.Save(result.SessionToken); err != nil {
		m.logger.Warn("failed to persist session token", "error", err)
	}
	m.transition(PhaseAuthenticated, result.Account, result.SessionToken)
	return result, nil
}

// Register creates an account and signs it in.
func (m *Manager) Register(ctx context.Context, input account.RegisterInput) (*account.RegisterResult, error) {
	m.setLoading(true)
	defer m.setLoading(false)

	result, err := m.service.Register(ctx, input)
	if err != nil {
		return nil, err
	}

	if err := m.tokens.Save(result.SessionToken); err != nil {
		m.logger.Warn("failed to persist session token", "error", err)
	}
	m.transition(PhaseAuthenticated, result.Account, result.SessionToken)
	return result, nil
}

// Logout invalidates the session and moves the manager to Anonymous. The
// local state is cleared even when the remote invalidation fails.
func (m *Manager) Logout(ctx context.Context) error {
	m.setLoading(true)
	defer m.setLoading(false)

	m.mu.Lock()
	token := m.sessionToken
	m.mu.Unlock()

	err := m.service.Logout(ctx, token)
	_ = m.tokens.Clear()
	m.transition(PhaseAnonymous, nil, "")
	return err
}

// UpdateProfile applies a profile update and refreshes the held account.
func (m *Manager) UpdateProfile(ctx context.Context, input account.UpdateProfileInput) (*account.Account, error) {
	m.setLoading(true)
	defer m.setLoading(false)

	m.mu.Lock()
	current := m.current
	token := m.sessionToken
	m.mu.Unlock()
	if current == nil {
		return nil, account.ErrUnauthorized
	}

	acct, err := m.service.UpdateProfile(ctx, current.ID, input)
	if err != nil {
		return nil, err
	}

	m.transition(PhaseAuthenticated, acct, token)
	return acct, nil
}

// VerifyEmail confirms the held account's email with a code and refreshes the
// account view when the code is accepted.
func (m *Manager) VerifyEmail(ctx context.Context, code string) (bool, error) {
	m.setLoading(true)
	defer m.setLoading(false)

	m.mu.Lock()
	current := m.current
	token := m.sessionToken
	m.mu.Unlock()
	if current == nil {
		return false, account.ErrUnauthorized
	}

	verified, err := m.service.VerifyEmail(ctx, current.Email, code)
	if err != nil || !verified {
		return verified, err
	}

	acct, err := m.service.GetProfile(ctx, current.ID)
	if err != nil {
		// The verification itself succeeded; keep the stale view.
		m.logger.Warn("failed to refresh account after verification", "error", err)
		return true, nil
	}
	m.transition(PhaseAuthenticated, acct, token)
	return true, nil
}

// Snapshot returns the current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{Phase: m.phase, Loading: m.loading, Account: m.current}
}

// Subscribe returns a channel that receives a snapshot after every state
// change. The channel is buffered; a slow consumer drops intermediate
// snapshots rather than blocking the manager.
func (m *Manager) Subscribe() <-chan Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan Snapshot, 8)
	m.subscribers = append(m.subscribers, ch)
	return ch
}

// Close releases all subscriber channels.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	for _, ch := range m.subscribers {
		close(ch)
	}
	m.subscribers = nil
}

func (m *Manager) setLoading(v bool) {
	m.mu.Lock()
	m.loading = v
	snap := Snapshot{Phase: m.phase, Loading: m.loading, Account: m.current}
	m.notifyLocked(snap)
	m.mu.Unlock()
}

func (m *Manager) transition(phase Phase, acct *account.Account, token string) {
	m.mu.Lock()
	m.phase = phase
	m.current = acct
	m.sessionToken = token
	snap := Snapshot{Phase: m.phase, Loading: m.loading, Account: m.current}
	m.notifyLocked(snap)
	m.mu.Unlock()
}

// notifyLocked fans a snapshot out to subscribers. Callers hold m.mu.
func (m *Manager) notifyLocked(snap Snapshot) {
	if m.closed {
		return
	}
	for _, ch := range m.subscribers {
		select {
		case ch <- snap:
		default:
		}
	}
}
