package account

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/linkamarket/linka-api/internal/session"
)

// Login authenticates an email/password pair against the identity store and
// resolves the caller's marketplace profile.
//
// The role on the returned account always comes from the profile row when one
// exists; the identity metadata is only consulted when the profile row is
// missing (desynchronized registration), in which case a minimal account is
// synthesized and the desync is never surfaced as an error.
func (s *service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	identity, err := s.repo.FindIdentityByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Use a generic error to avoid telling attackers that the email exists.
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("failed to find identity by email", "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	if !checkPasswordHash(password, identity.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	acct, err := s.resolveAccount(ctx, identity)
	if err != nil {
		return nil, err
	}

	accessToken, err := generateAccessToken(s.config.JWTSecret, acct.ID, acct.Role)
	if err != nil {
		s.logger.Error("failed to generate access token", "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	sessionToken, err := s.sessions.Create(ctx, acct.ID, "", "")
	if err != nil {
		s.logger.Error("failed to create auth session", "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	s.logger.Info("account logged in successfully", "account_id", acct.ID, "role", acct.Role)

	return &LoginResult{
		Account:          acct,
		AccessToken:      accessToken,
		SessionToken:     sessionToken,
		EmailUnconfirmed: !identity.EmailVerified,
	}, nil
}

// Register creates a new identity and its marketplace profile.
//
// The profile write is deliberately non-fatal: if it fails, the returned
// account is synthesized from the submitted data and registration still
// succeeds. The missing row is healed on the next profile update.
func (s *service) Register(ctx context.Context, input RegisterInput) (*RegisterResult, error) {
	role := input.Role
	if role == "" {
		role = RoleCustomer
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	// Check if an identity with the given email already exists.
	_, err := s.repo.FindIdentityByEmail(ctx, input.Email)
	if err == nil {
		return nil, ErrEmailExists
	}
	if !errors.Is(err, ErrNotFound) {
		s.logger.Error("failed to check existing identity", "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	hashedPassword, err := hashPassword(input.Password)
	if err != nil {
		s.logger.Error("failed to hash password", "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	newID, err := uuid.NewV7()
	if err != nil {
		return nil, ErrInternal.WithCause(err)
	}

	now := s.now()
	identity := &Identity{
		ID:            newID.String(),
		Email:         input.Email,
		PasswordHash:  hashedPassword,
		EmailVerified: false,
		MetaFullName:  input.FullName,
		MetaRole:      role,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.CreateIdentity(ctx, identity); err != nil {
		s.logger.Error("failed to create identity", "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	profile := &Profile{
		ID:              identity.ID,
		FullName:        input.FullName,
		Role:            role,
		Phone:           input.Phone,
		BusinessName:    input.BusinessName,
		BusinessAddress: input.BusinessAddress,
		VehicleType:     input.VehicleType,
		DeliveryZone:    input.DeliveryZone,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.CreateProfile(ctx, profile); err != nil {
		// Registration mostly succeeded: the identity exists, so recover with
		// an account built from the submitted data instead of failing. The
		// missing row is healed on the next profile update.
		s.logger.Warn("profile row creation failed, continuing with synthesized account",
			"error", err, "account_id", identity.ID)
	}
	acct := merge(identity, profile)

	accessToken, err := generateAccessToken(s.config.JWTSecret, acct.ID, acct.Role)
	if err != nil {
		s.logger.Error("failed to generate access token", "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	sessionToken, err := s.sessions.Create(ctx, acct.ID, "", "")
	if err != nil {
		s.logger.Error("failed to create auth session", "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	s.logger.Info("account registered successfully", "account_id", acct.ID, "role", acct.Role)

	// Kick off the email verification flow. Delivery is already asynchronous
	// inside the notification service; failures here are logged, never
	// propagated into the registration result.
	if _, err := s.SendVerificationCode(ctx, identity.Email); err != nil {
		s.logger.Error("failed to send initial verification code", "error", err, "account_id", identity.ID)
	}

	return &RegisterResult{
		Account:              acct,
		AccessToken:          accessToken,
		SessionToken:         sessionToken,
		RequiresVerification: true,
	}, nil
}

// Logout invalidates the given session. Logout is best-effort: failures are
// logged, not returned, since leaving a stale session row behind is preferred
// over blocking the caller.
func (s *service) Logout(ctx context.Context, sessionToken string) error {
	if sessionToken == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionToken); err != nil {
		s.logger.Error("failed to delete session during logout", "error", err)
	}
	return nil
}

// CurrentUser re-derives the account from whatever session the store
// currently holds. Used at application startup; returns (nil, nil) when no
// valid session exists.
func (s *service) CurrentUser(ctx context.Context, sessionToken string) (*Account, error) {
	if sessionToken == "" {
		return nil, nil
	}

	accountID, err := s.sessions.GetAndExtend(ctx, sessionToken)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) || errors.Is(err, session.ErrExpired) {
			return nil, nil
		}
		s.logger.Error("failed to look up session", "error", err)
		return nil, ErrInternal.WithCause(err)
	}

	identity, err := s.repo.FindIdentityByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Session points at a deleted identity; treat as signed out.
			return nil, nil
		}
		s.logger.Error("failed to load identity for session", "error", err, "account_id", accountID)
		return nil, ErrInternal.WithCause(err)
	}

	return s.resolveAccount(ctx, identity)
}

// resolveAccount loads the profile row for an identity, synthesizing a
// minimal account from identity metadata when the row is missing.
func (s *service) resolveAccount(ctx context.Context, identity *Identity) (*Account, error) {
	profile, err := s.repo.FindProfileByID(ctx, identity.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.Warn("profile row missing for identity, synthesizing account", "account_id", identity.ID)
			return synthesize(identity), nil
		}
		s.logger.Error("failed to load profile", "error", err, "account_id", identity.ID)
		return nil, ErrInternal.WithCause(err)
	}
	return merge(identity, profile), nil
}
