package sessionstate

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkamarket/linka-api/internal/config"
	"github.com/linkamarket/linka-api/internal/modules/account"
	"github.com/linkamarket/linka-api/internal/notification"
	"github.com/linkamarket/linka-api/internal/notification/templates"
	"github.com/linkamarket/linka-api/internal/session"
)

func newTestAccountService(t *testing.T) account.Service {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := templates.NewEngine(templates.Config{}, logger)
	notif := notification.NewService(logger, notification.NewLogEmailSender(logger), notification.NewDummySMSSender(logger), engine)

	return account.NewService(&account.Config{
		Repo:         account.NewMemoryRepository(),
		Sessions:     session.NewMemoryProvider(session.Config{}),
		Notification: notif,
		Logger:       logger,
		Config: &config.Config{
			JWTSecret:    "test-secret",
			Verification: config.VerificationConfig{TTLMinutes: 10},
		},
	})
}

func newTestManager(t *testing.T, svc account.Service, tokens TokenStore) *Manager {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m, err := NewManager(svc, tokens, logger)
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m
}

func registerInput() account.RegisterInput {
	return account.RegisterInput{
		FullName: "Dilnoza Karimova",
		Email:    "dilnoza@example.com",
		Password: "a-long-enough-pass",
		Role:     account.RoleCustomer,
	}
}

func TestManagerRequiresService(t *testing.T) {
	_, err := NewManager(nil, NewMemoryTokenStore(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}

func TestManagerStartsInitializing(t *testing.T) {
	m := newTestManager(t, newTestAccountService(t), NewMemoryTokenStore())

	snap := m.Snapshot()
	assert.Equal(t, PhaseInitializing, snap.Phase)
	assert.Nil(t, snap.Account)
}

func TestStartWithEmptyStoreIsAnonymous(t *testing.T) {
	m := newTestManager(t, newTestAccountService(t), NewMemoryTokenStore())

	require.NoError(t, m.Start(context.Background()))

	snap := m.Snapshot()
	assert.Equal(t, PhaseAnonymous, snap.Phase)
	assert.False(t, snap.Loading, "loading must be cleared once startup resolves")
	assert.Nil(t, snap.Account)
}

func TestLoginMovesToAuthenticated(t *testing.T) {
	svc := newTestAccountService(t)
	tokens := NewMemoryTokenStore()
	m := newTestManager(t, svc, tokens)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)
	require.NoError(t, m.Start(ctx))

	result, err := m.Login(ctx, "dilnoza@example.com", "a-long-enough-pass")
	require.NoError(t, err)

	snap := m.Snapshot()
	assert.Equal(t, PhaseAuthenticated, snap.Phase)
	assert.False(t, snap.Loading)
	require.NotNil(t, snap.Account)
	assert.Equal(t, result.Account.ID, snap.Account.ID)

	stored, err := tokens.Load()
	require.NoError(t, err)
	assert.Equal(t, result.SessionToken, stored)
}

func TestLoginFailureClearsLoadingAndKeepsPhase(t *testing.T) {
	svc := newTestAccountService(t)
	m := newTestManager(t, svc, NewMemoryTokenStore())
	ctx := context.Background()
	require.NoError(t, m.Start(ctx))

	_, err := m.Login(ctx, "nobody@example.com", "wrong")
	require.ErrorIs(t, err, account.ErrInvalidCredentials)

	snap := m.Snapshot()
	assert.Equal(t, PhaseAnonymous, snap.Phase)
	assert.False(t, snap.Loading, "loading must clear on the failure path too")
}

func TestStartRestoresPersistedSession(t *testing.T) {
	svc := newTestAccountService(t)
	tokens := NewMemoryTokenStore()
	ctx := context.Background()

	first := newTestManager(t, svc, tokens)
	_, err := first.Register(ctx, registerInput())
	require.NoError(t, err)

	// A second manager over the same store plays the part of a restart.
	second := newTestManager(t, svc, tokens)
	require.NoError(t, second.Start(ctx))

	snap := second.Snapshot()
	assert.Equal(t, PhaseAuthenticated, snap.Phase)
	require.NotNil(t, snap.Account)
	assert.Equal(t, "dilnoza@example.com", snap.Account.Email)
}

func TestStartClearsDeadStoredToken(t *testing.T) {
	svc := newTestAccountService(t)
	tokens := NewMemoryTokenStore()
	require.NoError(t, tokens.Save("auth:long-dead-token"))

	m := newTestManager(t, svc, tokens)
	require.NoError(t, m.Start(context.Background()))

	snap := m.Snapshot()
	assert.Equal(t, PhaseAnonymous, snap.Phase)

	stored, err := tokens.Load()
	require.NoError(t, err)
	assert.Empty(t, stored, "a dead token must not be retried forever")
}

func TestLogoutMovesToAnonymous(t *testing.T) {
	svc := newTestAccountService(t)
	tokens := NewMemoryTokenStore()
	m := newTestManager(t, svc, tokens)
	ctx := context.Background()

	_, err := m.Register(ctx, registerInput())
	require.NoError(t, err)

	require.NoError(t, m.Logout(ctx))

	snap := m.Snapshot()
	assert.Equal(t, PhaseAnonymous, snap.Phase)
	assert.Nil(t, snap.Account)

	stored, err := tokens.Load()
	require.NoError(t, err)
	assert.Empty(t, stored)
}

// blockingService suspends Login until released so a test can observe the
// manager's state while the operation is still in flight.
type blockingService struct {
	account.Service
	entered chan struct{}
	release chan struct{}
}

func (s *blockingService) Login(ctx context.Context, email, password string) (*account.LoginResult, error) {
	close(s.entered)
	<-s.release
	return s.Service.Login(ctx, email, password)
}

func TestLoadingIsSetForWholeOperation(t *testing.T) {
	svc := newTestAccountService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)

	blocking := &blockingService{
		Service: svc,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	m := newTestManager(t, blocking, NewMemoryTokenStore())
	require.NoError(t, m.Start(ctx))

	done := make(chan error, 1)
	go func() {
		_, err := m.Login(ctx, "dilnoza@example.com", "a-long-enough-pass")
		done <- err
	}()

	// While the service call is suspended the manager reports loading.
	<-blocking.entered
	assert.True(t, m.Snapshot().Loading, "loading must hold for the in-flight operation")

	close(blocking.release)
	require.NoError(t, <-done)
	assert.False(t, m.Snapshot().Loading, "loading must clear once the operation settles")
}

func TestSubscribeObservesTransitions(t *testing.T) {
	svc := newTestAccountService(t)
	m := newTestManager(t, svc, NewMemoryTokenStore())
	ctx := context.Background()

	ch := m.Subscribe()
	require.NoError(t, m.Start(ctx))

	var last Snapshot
	for {
		select {
		case snap := <-ch:
			last = snap
			if snap.Phase == PhaseAnonymous && !snap.Loading {
				assert.Nil(t, last.Account)
				return
			}
		default:
			t.Fatalf("never observed a settled anonymous snapshot, last: %+v", last)
		}
	}
}

func TestUpdateProfileRequiresAuthentication(t *testing.T) {
	m := newTestManager(t, newTestAccountService(t), NewMemoryTokenStore())
	require.NoError(t, m.Start(context.Background()))

	_, err := m.UpdateProfile(context.Background(), account.UpdateProfileInput{})
	assert.ErrorIs(t, err, account.ErrUnauthorized)
}

func TestFromContext(t *testing.T) {
	_, err := FromContext(context.Background())
	assert.ErrorIs(t, err, ErrNoManager)

	m := newTestManager(t, newTestAccountService(t), NewMemoryTokenStore())
	ctx := WithManager(context.Background(), m)
	got, err := FromContext(ctx)
	require.NoError(t, err)
	assert.Same(t, m, got)
}
