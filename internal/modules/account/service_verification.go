package account

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/linkamarket/linka-api/internal/notification"
	"github.com/linkamarket/linka-api/internal/notification/templates"
)

const verificationCodeLength = 8

// SendVerificationCode generates a fresh 8-digit code for the email and
// delivers it. Any previously pending code for the same email is overwritten,
// so only the latest code is ever valid. The plaintext code is returned so
// demo mode can surface it to the caller when no mail transport exists.
func (s *service) SendVerificationCode(ctx context.Context, email string) (string, error) {
	identity, err := s.repo.FindIdentityByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Do not reveal whether the email is registered.
			s.logger.Info("verification code requested for unknown email")
			return "", nil
		}
		s.logger.Error("failed to look up identity for verification", "error", err)
		return "", ErrInternal.WithCause(err)
	}

	code, err := generateNumericCode(verificationCodeLength)
	if err != nil {
		s.logger.Error("failed to generate verification code", "error", err)
		return "", ErrInternal.WithCause(err)
	}

	now := s.now()
	vc := &VerificationCode{
		Email:      identity.Email,
		CodeHash:   hashToken(code),
		ExpiresAt:  now.Add(time.Duration(s.config.Verification.TTLMinutes) * time.Minute),
		LastSentAt: now,
		CreatedAt:  now,
	}
	if err := s.repo.UpsertVerificationCode(ctx, vc); err != nil {
		s.logger.Error("failed to store verification code", "error", err)
		return "", ErrInternal.WithCause(err)
	}

	err = notification.SendTemplate(ctx, s.notification, templates.VerifyEmail,
		identity.Email,
		[]notification.Channel{notification.ChannelEmail},
		notification.PriorityHigh,
		templates.VerifyEmailData{
			FullName:     identity.MetaFullName,
			Code:         code,
			SupportEmail: s.config.SMTP.From,
		})
	if err != nil {
		s.logger.Error("failed to dispatch verification email", "error", err)
		return "", ErrInternal.WithCause(err)
	}

	s.logger.Info("verification code sent", "account_id", identity.ID)
	return code, nil
}

// VerifyEmail checks the submitted code against the pending one for the email
// and, on success, marks the identity's email as confirmed and consumes the
// code so it cannot be replayed.
//
// A wrong, expired, or already-used code is a recoverable outcome, not an
// error: the caller gets (false, nil) and may request a fresh code.
func (s *service) VerifyEmail(ctx context.Context, email, code string) (bool, error) {
	identity, err := s.repo.FindIdentityByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		s.logger.Error("failed to look up identity for verification", "error", err)
		return false, ErrInternal.WithCause(err)
	}

	vc, err := s.repo.GetVerificationCode(ctx, identity.Email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		s.logger.Error("failed to load verification code", "error", err)
		return false, ErrInternal.WithCause(err)
	}

	if vc.ConsumedAt != nil {
		return false, nil
	}
	// A code is usable strictly before its expiry instant, not at it.
	if !s.now().Before(vc.ExpiresAt) {
		return false, nil
	}
	if subtle.ConstantTimeCompare([]byte(vc.CodeHash), []byte(hashToken(code))) != 1 {
		return false, nil
	}

	if err := s.repo.ConsumeVerificationCode(ctx, identity.Email); err != nil {
		s.logger.Error("failed to consume verification code", "error", err)
		return false, ErrInternal.WithCause(err)
	}
	if err := s.repo.SetEmailVerified(ctx, identity.ID); err != nil {
		s.logger.Error("failed to mark email verified", "error", err, "account_id", identity.ID)
		return false, ErrInternal.WithCause(err)
	}

	s.logger.Info("email verified successfully", "account_id", identity.ID)
	return true, nil
}
