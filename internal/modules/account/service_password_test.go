package account

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinalizeResetPasswordHappyPath(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	reg, err := env.svc.Register(ctx, merchantInput())
	require.NoError(t, err)

	token := "plain-reset-token"
	expiry := env.clock.Now().Add(time.Hour)
	require.NoError(t, env.repo.UpdatePasswordResetInfo(ctx, reg.Account.ID, hashToken(token), expiry))

	require.NoError(t, env.svc.FinalizeResetPassword(ctx, token, "brand-new-password"))

	_, err = env.svc.Login(ctx, "malika@example.com", "correct-horse-battery")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	result, err := env.svc.Login(ctx, "malika@example.com", "brand-new-password")
	require.NoError(t, err)
	assert.Equal(t, reg.Account.ID, result.Account.ID)
}

func TestFinalizeResetPasswordTokenIsSingleUse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	reg, err := env.svc.Register(ctx, merchantInput())
	require.NoError(t, err)

	token := "plain-reset-token"
	require.NoError(t, env.repo.UpdatePasswordResetInfo(ctx, reg.Account.ID, hashToken(token), env.clock.Now().Add(time.Hour)))
	require.NoError(t, env.svc.FinalizeResetPassword(ctx, token, "brand-new-password"))

	err = env.svc.FinalizeResetPassword(ctx, token, "another-password")
	assert.ErrorIs(t, err, ErrInvalidResetToken)
}

func TestFinalizeResetPasswordRejectsExpiredToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	reg, err := env.svc.Register(ctx, merchantInput())
	require.NoError(t, err)

	token := "plain-reset-token"
	require.NoError(t, env.repo.UpdatePasswordResetInfo(ctx, reg.Account.ID, hashToken(token), env.clock.Now().Add(time.Hour)))

	env.clock.Advance(time.Hour + time.Second)

	err = env.svc.FinalizeResetPassword(ctx, token, "brand-new-password")
	assert.ErrorIs(t, err, ErrInvalidResetToken)
}

func TestFinalizeResetPasswordRejectsUnknownToken(t *testing.T) {
	env := newTestEnv(t)
	err := env.svc.FinalizeResetPassword(context.Background(), "never-issued", "whatever-pass")
	assert.ErrorIs(t, err, ErrInvalidResetToken)
}

func TestResetPasswordHidesUnknownEmails(t *testing.T) {
	env := newTestEnv(t)
	assert.NoError(t, env.svc.ResetPassword(context.Background(), "ghost@example.com"))
}

func TestUpdatePasswordWithSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	reg, err := env.svc.Register(ctx, merchantInput())
	require.NoError(t, err)

	require.NoError(t, env.svc.UpdatePassword(ctx, reg.SessionToken, "rotated-password"))

	result, err := env.svc.Login(ctx, "malika@example.com", "rotated-password")
	require.NoError(t, err)
	assert.Equal(t, reg.Account.ID, result.Account.ID)
}

func TestUpdatePasswordRequiresLiveSession(t *testing.T) {
	env := newTestEnv(t)
	err := env.svc.UpdatePassword(context.Background(), "auth:stale-token", "rotated-password")
	assert.ErrorIs(t, err, ErrUnauthorized)
}
