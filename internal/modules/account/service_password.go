package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/linkamarket/linka-api/internal/notification"
	"github.com/linkamarket/linka-api/internal/notification/templates"
	"github.com/linkamarket/linka-api/internal/session"
)

const passwordResetTokenTTL = time.Hour

// ResetPassword begins the password recovery flow by emailing a single-use
// reset link. It always returns success to the caller, whether or not the
// email is registered, so the endpoint cannot be used for enumeration.
func (s *service) ResetPassword(ctx context.Context, email string) error {
	identity, err := s.repo.FindIdentityByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.Info("password reset requested for unknown email")
			return nil
		}
		s.logger.Error("failed to look up identity for password reset", "error", err)
		return ErrInternal.WithCause(err)
	}

	token, err := generateSecureToken(32)
	if err != nil {
		s.logger.Error("failed to generate reset token", "error", err)
		return ErrInternal.WithCause(err)
	}

	expiry := s.now().Add(passwordResetTokenTTL)
	if err := s.repo.UpdatePasswordResetInfo(ctx, identity.ID, hashToken(token), expiry); err != nil {
		s.logger.Error("failed to store reset token", "error", err, "account_id", identity.ID)
		return ErrInternal.WithCause(err)
	}

	resetURL := fmt.Sprintf("%s/reset-password?token=%s", s.config.AppBaseURL, token)
	err = notification.SendTemplate(ctx, s.notification, templates.PasswordReset,
		identity.Email,
		[]notification.Channel{notification.ChannelEmail},
		notification.PriorityHigh,
		templates.PasswordResetData{
			FullName:     identity.MetaFullName,
			ResetURL:     resetURL,
			SupportEmail: s.config.SMTP.From,
		})
	if err != nil {
		s.logger.Error("failed to dispatch password reset email", "error", err)
		return ErrInternal.WithCause(err)
	}

	s.logger.Info("password reset email sent", "account_id", identity.ID)
	return nil
}

// FinalizeResetPassword completes the recovery flow: it validates the token
// from the emailed link and replaces the password. The token is single-use.
func (s *service) FinalizeResetPassword(ctx context.Context, token, newPassword string) error {
	identity, err := s.repo.FindIdentityByPasswordResetToken(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidResetToken
		}
		s.logger.Error("failed to look up reset token", "error", err)
		return ErrInternal.WithCause(err)
	}

	if identity.PasswordResetTokenExpiry == nil || s.now().After(*identity.PasswordResetTokenExpiry) {
		return ErrInvalidResetToken
	}

	hashedPassword, err := hashPassword(newPassword)
	if err != nil {
		s.logger.Error("failed to hash new password", "error", err)
		return ErrInternal.WithCause(err)
	}

	if err := s.repo.UpdatePassword(ctx, identity.ID, hashedPassword); err != nil {
		s.logger.Error("failed to update password", "error", err, "account_id", identity.ID)
		return ErrInternal.WithCause(err)
	}

	s.logger.Info("password reset completed", "account_id", identity.ID)
	return nil
}

// UpdatePassword changes the password for the caller identified by an active
// session. Unlike the recovery flow, this requires being signed in.
func (s *service) UpdatePassword(ctx context.Context, sessionToken, newPassword string) error {
	accountID, err := s.sessions.GetAndExtend(ctx, sessionToken)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) || errors.Is(err, session.ErrExpired) {
			return ErrUnauthorized
		}
		s.logger.Error("failed to look up session", "error", err)
		return ErrInternal.WithCause(err)
	}

	hashedPassword, err := hashPassword(newPassword)
	if err != nil {
		s.logger.Error("failed to hash new password", "error", err)
		return ErrInternal.WithCause(err)
	}

	if err := s.repo.UpdatePassword(ctx, accountID, hashedPassword); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrUnauthorized
		}
		s.logger.Error("failed to update password", "error", err, "account_id", accountID)
		return ErrInternal.WithCause(err)
	}

	s.logger.Info("password updated", "account_id", accountID)
	return nil
}
