package account

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedVerifiedlessAccount(t *testing.T, env *testEnv) string {
	t.Helper()
	reg, err := env.svc.Register(context.Background(), merchantInput())
	require.NoError(t, err)
	return reg.Account.ID
}

func TestVerifyEmailHappyPath(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	accountID := seedVerifiedlessAccount(t, env)

	code, err := env.svc.SendVerificationCode(ctx, "malika@example.com")
	require.NoError(t, err)
	require.Len(t, code, 8)

	verified, err := env.svc.VerifyEmail(ctx, "malika@example.com", code)
	require.NoError(t, err)
	assert.True(t, verified)

	identity, err := env.repo.FindIdentityByID(ctx, accountID)
	require.NoError(t, err)
	assert.True(t, identity.EmailVerified)
}

func TestVerifyEmailCodeIsSingleUse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedVerifiedlessAccount(t, env)

	code, err := env.svc.SendVerificationCode(ctx, "malika@example.com")
	require.NoError(t, err)

	verified, err := env.svc.VerifyEmail(ctx, "malika@example.com", code)
	require.NoError(t, err)
	require.True(t, verified)

	// Replaying the consumed code is a recoverable rejection, not an error.
	verified, err = env.svc.VerifyEmail(ctx, "malika@example.com", code)
	require.NoError(t, err)
	assert.False(t, verified)
}

func TestVerifyEmailRejectsWrongCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedVerifiedlessAccount(t, env)

	code, err := env.svc.SendVerificationCode(ctx, "malika@example.com")
	require.NoError(t, err)

	wrong := "00000000"
	if code == wrong {
		wrong = "00000001"
	}
	verified, err := env.svc.VerifyEmail(ctx, "malika@example.com", wrong)
	require.NoError(t, err)
	assert.False(t, verified)

	// The pending code survives a wrong guess.
	verified, err = env.svc.VerifyEmail(ctx, "malika@example.com", code)
	require.NoError(t, err)
	assert.True(t, verified)
}

func TestVerifyEmailCodeExpiresAfterTTL(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedVerifiedlessAccount(t, env)

	code, err := env.svc.SendVerificationCode(ctx, "malika@example.com")
	require.NoError(t, err)

	env.clock.Advance(10*time.Minute + time.Second)

	verified, err := env.svc.VerifyEmail(ctx, "malika@example.com", code)
	require.NoError(t, err)
	assert.False(t, verified)
}

func TestVerifyEmailCodeIsDeadAtExactExpiryInstant(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedVerifiedlessAccount(t, env)

	code, err := env.svc.SendVerificationCode(ctx, "malika@example.com")
	require.NoError(t, err)

	// Exactly at expires_at the code is already unusable.
	env.clock.Advance(10 * time.Minute)

	verified, err := env.svc.VerifyEmail(ctx, "malika@example.com", code)
	require.NoError(t, err)
	assert.False(t, verified)
}

func TestSendVerificationCodeReplacesPendingCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedVerifiedlessAccount(t, env)

	first, err := env.svc.SendVerificationCode(ctx, "malika@example.com")
	require.NoError(t, err)
	second, err := env.svc.SendVerificationCode(ctx, "malika@example.com")
	require.NoError(t, err)

	if first != second {
		verified, err := env.svc.VerifyEmail(ctx, "malika@example.com", first)
		require.NoError(t, err)
		assert.False(t, verified, "the replaced code must be dead")
	}

	verified, err := env.svc.VerifyEmail(ctx, "malika@example.com", second)
	require.NoError(t, err)
	assert.True(t, verified)
}

func TestSendVerificationCodeHidesUnknownEmails(t *testing.T) {
	env := newTestEnv(t)

	code, err := env.svc.SendVerificationCode(context.Background(), "ghost@example.com")
	require.NoError(t, err)
	assert.Empty(t, code)
}

func TestVerifyEmailUnknownEmailIsRejectedQuietly(t *testing.T) {
	env := newTestEnv(t)

	verified, err := env.svc.VerifyEmail(context.Background(), "ghost@example.com", "12345678")
	require.NoError(t, err)
	assert.False(t, verified)
}
