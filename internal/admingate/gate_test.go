package admingate

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkamarket/linka-api/internal/config"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
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

func newTestGate(t *testing.T) (*Gate, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	cfg := config.AdminGateConfig{
		Username: "NOZIMA",
		Password: "TOUT2000@",
		Question: "What is the name of the founder's first shop?",
		Answer:   "Chorsu",
		TTLHours: 24,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(NewMemoryStore(), cfg, logger, clock.Now), clock
}

func TestGateStartsLocked(t *testing.T) {
	gate, _ := newTestGate(t)

	status, err := gate.Check(context.Background())
	require.NoError(t, err)
	assert.False(t, status.Authenticated)
	assert.False(t, status.Verified)
	assert.NotEmpty(t, status.Question)
}

func TestGateUnlockRequiresExactCredentials(t *testing.T) {
	gate, _ := newTestGate(t)
	ctx := context.Background()

	assert.ErrorIs(t, gate.Unlock(ctx, "NOZIMA", "wrong"), ErrGateRejected)
	assert.ErrorIs(t, gate.Unlock(ctx, "nozima", "TOUT2000@"), ErrGateRejected)
	assert.ErrorIs(t, gate.Unlock(ctx, "", ""), ErrGateRejected)

	require.NoError(t, gate.Unlock(ctx, "NOZIMA", "TOUT2000@"))

	status, err := gate.Check(ctx)
	require.NoError(t, err)
	assert.True(t, status.Authenticated)
	assert.False(t, status.Verified, "unlock alone must not verify")
}

func TestGateVerifyAnswerNormalizesInput(t *testing.T) {
	gate, _ := newTestGate(t)
	ctx := context.Background()
	require.NoError(t, gate.Unlock(ctx, "NOZIMA", "TOUT2000@"))

	assert.ErrorIs(t, gate.VerifyAnswer(ctx, "Samarkand"), ErrGateRejected)

	// Case and surrounding whitespace are forgiven.
	require.NoError(t, gate.VerifyAnswer(ctx, "  chorsu  "))

	status, err := gate.Check(ctx)
	require.NoError(t, err)
	assert.True(t, status.Authenticated)
	assert.True(t, status.Verified)
}

func TestGateVerifyAnswerMismatchRevokesPriorVerification(t *testing.T) {
	gate, _ := newTestGate(t)
	ctx := context.Background()
	require.NoError(t, gate.Unlock(ctx, "NOZIMA", "TOUT2000@"))
	require.NoError(t, gate.VerifyAnswer(ctx, "Chorsu"))

	assert.ErrorIs(t, gate.VerifyAnswer(ctx, "wrong-answer"), ErrGateRejected)

	// A wrong answer demotes the gate back to unlocked-but-unverified;
	// the unlock itself survives.
	status, err := gate.Check(ctx)
	require.NoError(t, err)
	assert.True(t, status.Authenticated)
	assert.False(t, status.Verified, "verified sub-flag must be cleared after a mismatched answer")

	// Answering correctly again restores verification.
	require.NoError(t, gate.VerifyAnswer(ctx, "Chorsu"))
	status, err = gate.Check(ctx)
	require.NoError(t, err)
	assert.True(t, status.Verified)
}

func TestGateRefusesUnlockWhenCredentialsUnconfigured(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gate := New(NewMemoryStore(), config.AdminGateConfig{TTLHours: 24}, logger, nil)
	ctx := context.Background()

	// An unconfigured deployment must not fall open to empty input.
	assert.ErrorIs(t, gate.Unlock(ctx, "", ""), ErrGateRejected)

	status, err := gate.Check(ctx)
	require.NoError(t, err)
	assert.False(t, status.Authenticated)
}

func TestGateVerifyAnswerRequiresUnlockedGate(t *testing.T) {
	gate, _ := newTestGate(t)
	assert.ErrorIs(t, gate.VerifyAnswer(context.Background(), "Chorsu"), ErrGateRejected)
}

func TestGateUnlockExpiresLazily(t *testing.T) {
	gate, clock := newTestGate(t)
	ctx := context.Background()
	require.NoError(t, gate.Unlock(ctx, "NOZIMA", "TOUT2000@"))
	require.NoError(t, gate.VerifyAnswer(ctx, "Chorsu"))

	// Just inside the window the unlock holds.
	clock.Advance(24*time.Hour - time.Minute)
	status, err := gate.Check(ctx)
	require.NoError(t, err)
	assert.True(t, status.Authenticated)

	// At exactly 24h the unlock is already dead; no sweeper needed.
	clock.Advance(time.Minute)
	status, err = gate.Check(ctx)
	require.NoError(t, err)
	assert.False(t, status.Authenticated)
	assert.False(t, status.Verified)

	// The stale flag was cleared on that read.
	_, err = gate.store.Get(ctx)
	assert.ErrorIs(t, err, ErrFlagNotFound)
}

func TestGateLock(t *testing.T) {
	gate, _ := newTestGate(t)
	ctx := context.Background()
	require.NoError(t, gate.Unlock(ctx, "NOZIMA", "TOUT2000@"))

	require.NoError(t, gate.Lock(ctx))

	status, err := gate.Check(ctx)
	require.NoError(t, err)
	assert.False(t, status.Authenticated)
}

func TestGateVerifyRefreshesTimestamp(t *testing.T) {
	gate, clock := newTestGate(t)
	ctx := context.Background()
	require.NoError(t, gate.Unlock(ctx, "NOZIMA", "TOUT2000@"))

	clock.Advance(12 * time.Hour)
	require.NoError(t, gate.VerifyAnswer(ctx, "Chorsu"))

	// 13h after the verification (25h after unlock) the gate still holds,
	// because verification restarted the window.
	clock.Advance(13 * time.Hour)
	status, err := gate.Check(ctx)
	require.NoError(t, err)
	assert.True(t, status.Authenticated)
	assert.True(t, status.Verified)
}
