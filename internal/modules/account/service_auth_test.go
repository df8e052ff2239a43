package account

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkamarket/linka-api/internal/config"
	"github.com/linkamarket/linka-api/internal/notification"
	"github.com/linkamarket/linka-api/internal/notification/templates"
	"github.com/linkamarket/linka-api/internal/session"
)

// fakeClock is a mutable clock shared between the service and the test.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type testEnv struct {
	svc   Service
	repo  Repository
	clock *fakeClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := newFakeClock()

	engine := templates.NewEngine(templates.Config{}, logger)
	notif := notification.NewService(logger, notification.NewLogEmailSender(logger), notification.NewDummySMSSender(logger), engine)

	repo := NewMemoryRepository()
	cfg := &config.Config{
		JWTSecret:    "test-secret",
		AppBaseURL:   "http://localhost:5173",
		Verification: config.VerificationConfig{TTLMinutes: 10},
	}
	svc := NewService(&Config{
		Repo:         repo,
		Sessions:     session.NewMemoryProvider(session.Config{Now: clock.Now}),
		Notification: notif,
		Logger:       logger,
		Config:       cfg,
		Now:          clock.Now,
	})
	return &testEnv{svc: svc, repo: repo, clock: clock}
}

func merchantInput() RegisterInput {
	name := "Bazaar Central"
	addr := "12 Chorsu Lane"
	return RegisterInput{
		FullName:        "Malika Tosheva",
		Email:           "malika@example.com",
		Password:        "correct-horse-battery",
		Role:            RoleMerchant,
		BusinessName:    &name,
		BusinessAddress: &addr,
	}
}

func TestRegisterThenLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	reg, err := env.svc.Register(ctx, merchantInput())
	require.NoError(t, err)
	require.NotNil(t, reg.Account)
	assert.Equal(t, RoleMerchant, reg.Account.Role)
	assert.True(t, reg.RequiresVerification)
	assert.NotEmpty(t, reg.AccessToken)
	assert.NotEmpty(t, reg.SessionToken)

	result, err := env.svc.Login(ctx, "malika@example.com", "correct-horse-battery")
	require.NoError(t, err)
	assert.Equal(t, reg.Account.ID, result.Account.ID)
	assert.Equal(t, RoleMerchant, result.Account.Role)
	assert.True(t, result.EmailUnconfirmed)

	claims, err := ParseAccessToken("test-secret", result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, reg.Account.ID, claims.Subject)
	assert.Equal(t, "merchant", claims.Role)
}

func TestLoginRoleComesFromProfileRow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	reg, err := env.svc.Register(ctx, merchantInput())
	require.NoError(t, err)

	// Even if the identity metadata drifts, the profile row wins.
	identity, err := env.repo.FindIdentityByID(ctx, reg.Account.ID)
	require.NoError(t, err)
	identity.MetaRole = RoleCustomer
	require.NoError(t, env.repo.CreateIdentity(ctx, identity))

	result, err := env.svc.Login(ctx, "malika@example.com", "correct-horse-battery")
	require.NoError(t, err)
	assert.Equal(t, RoleMerchant, result.Account.Role)
}

func TestLoginSynthesizesAccountWhenProfileMissing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	hash, err := hashPassword("some-password")
	require.NoError(t, err)
	require.NoError(t, env.repo.CreateIdentity(ctx, &Identity{
		ID:           "11111111-0000-7000-8000-000000000001",
		Email:        "courier@example.com",
		PasswordHash: hash,
		MetaFullName: "Bekzod K",
		MetaRole:     RoleCourier,
	}))

	result, err := env.svc.Login(ctx, "courier@example.com", "some-password")
	require.NoError(t, err)
	assert.Equal(t, RoleCourier, result.Account.Role)
	assert.Equal(t, "Bekzod K", result.Account.FullName)
	assert.False(t, result.Account.ProfileCompleted)
}

func TestLoginSynthesizedRoleFallsBackToCustomer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	hash, err := hashPassword("some-password")
	require.NoError(t, err)
	require.NoError(t, env.repo.CreateIdentity(ctx, &Identity{
		ID:           "11111111-0000-7000-8000-000000000002",
		Email:        "mystery@example.com",
		PasswordHash: hash,
		MetaRole:     Role("squatter"),
	}))

	result, err := env.svc.Login(ctx, "mystery@example.com", "some-password")
	require.NoError(t, err)
	assert.Equal(t, RoleCustomer, result.Account.Role)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Register(ctx, merchantInput())
	require.NoError(t, err)

	_, err = env.svc.Login(ctx, "malika@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// Unknown email gets the same error, so responses don't reveal which
	// emails are registered.
	_, err = env.svc.Login(ctx, "nobody@example.com", "whatever-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Register(ctx, merchantInput())
	require.NoError(t, err)

	_, err = env.svc.Register(ctx, merchantInput())
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	env := newTestEnv(t)

	input := merchantInput()
	input.Role = Role("warlord")
	_, err := env.svc.Register(context.Background(), input)
	assert.ErrorIs(t, err, ErrInvalidRole)
}

// profileFailRepo fails every profile insert while delegating everything else.
type profileFailRepo struct {
	Repository
}

func (r *profileFailRepo) CreateProfile(ctx context.Context, p *Profile) error {
	return errors.New("profiles table unavailable")
}

func TestRegisterSurvivesProfileWriteFailure(t *testing.T) {
	env := newTestEnv(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := templates.NewEngine(templates.Config{}, logger)
	notif := notification.NewService(logger, notification.NewLogEmailSender(logger), notification.NewDummySMSSender(logger), engine)

	svc := NewService(&Config{
		Repo:         &profileFailRepo{Repository: env.repo},
		Sessions:     session.NewMemoryProvider(session.Config{Now: env.clock.Now}),
		Notification: notif,
		Logger:       logger,
		Config:       &config.Config{JWTSecret: "test-secret", Verification: config.VerificationConfig{TTLMinutes: 10}},
		Now:          env.clock.Now,
	})

	reg, err := svc.Register(context.Background(), merchantInput())
	require.NoError(t, err)
	require.NotNil(t, reg.Account)
	assert.Equal(t, RoleMerchant, reg.Account.Role)
	assert.Equal(t, "Malika Tosheva", reg.Account.FullName)
	assert.NotEmpty(t, reg.SessionToken)
}

func TestCurrentUserLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	acct, err := env.svc.CurrentUser(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, acct)

	acct, err = env.svc.CurrentUser(ctx, "auth:no-such-session")
	require.NoError(t, err)
	assert.Nil(t, acct)

	reg, err := env.svc.Register(ctx, merchantInput())
	require.NoError(t, err)

	acct, err = env.svc.CurrentUser(ctx, reg.SessionToken)
	require.NoError(t, err)
	require.NotNil(t, acct)
	assert.Equal(t, reg.Account.ID, acct.ID)

	require.NoError(t, env.svc.Logout(ctx, reg.SessionToken))

	acct, err = env.svc.CurrentUser(ctx, reg.SessionToken)
	require.NoError(t, err)
	assert.Nil(t, acct)
}

func TestLogoutWithEmptyTokenIsNoop(t *testing.T) {
	env := newTestEnv(t)
	assert.NoError(t, env.svc.Logout(context.Background(), ""))
}
