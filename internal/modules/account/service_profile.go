package account

import (
	"context"
	"errors"
)

// UpdateProfileInput carries the mutable profile fields. Nil pointers mean
// "leave unchanged". Email and role are immutable and deliberately absent.
type UpdateProfileInput struct {
	FullName        *string
	Phone           *string
	AvatarURL       *string
	BusinessName    *string
	BusinessAddress *string
	VehicleType     *string
	DeliveryZone    *string
}

// GetProfile returns the full account view for an account ID.
func (s *service) GetProfile(ctx context.Context, accountID string) (*Account, error) {
	identity, err := s.repo.FindIdentityByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		s.logger.Error("failed to load identity", "error", err, "account_id", accountID)
		return nil, ErrInternal.WithCause(err)
	}
	return s.resolveAccount(ctx, identity)
}

// UpdateProfile applies a partial update to the caller's profile row. When the
// row is missing (registration desync), it is created here from the identity
// metadata plus the submitted fields, healing the desynchronization.
func (s *service) UpdateProfile(ctx context.Context, accountID string, input UpdateProfileInput) (*Account, error) {
	identity, err := s.repo.FindIdentityByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		s.logger.Error("failed to load identity", "error", err, "account_id", accountID)
		return nil, ErrInternal.WithCause(err)
	}

	profile, err := s.repo.FindProfileByID(ctx, accountID)
	switch {
	case err == nil:
		// fall through to the update below
	case errors.Is(err, ErrNotFound):
		role := identity.MetaRole
		if !role.Valid() {
			role = RoleCustomer
		}
		now := s.now()
		profile = &Profile{
			ID:        accountID,
			FullName:  identity.MetaFullName,
			Role:      role,
			CreatedAt: now,
			UpdatedAt: now,
		}
		applyProfileInput(profile, input)
		profile.ProfileCompleted = true
		if err := s.repo.CreateProfile(ctx, profile); err != nil {
			s.logger.Error("failed to heal missing profile row", "error", err, "account_id", accountID)
			return nil, ErrInternal.WithCause(err)
		}
		s.logger.Info("profile row healed during update", "account_id", accountID)
		return merge(identity, profile), nil
	default:
		s.logger.Error("failed to load profile", "error", err, "account_id", accountID)
		return nil, ErrInternal.WithCause(err)
	}

	applyProfileInput(profile, input)
	profile.ProfileCompleted = true
	profile.UpdatedAt = s.now()
	if err := s.repo.UpdateProfile(ctx, profile); err != nil {
		s.logger.Error("failed to update profile", "error", err, "account_id", accountID)
		return nil, ErrInternal.WithCause(err)
	}

	s.logger.Info("profile updated", "account_id", accountID)
	return merge(identity, profile), nil
}

func applyProfileInput(p *Profile, in UpdateProfileInput) {
	if in.FullName != nil {
		p.FullName = *in.FullName
	}
	if in.Phone != nil {
		p.Phone = in.Phone
	}
	if in.AvatarURL != nil {
		p.AvatarURL = in.AvatarURL
	}
	if in.BusinessName != nil {
		p.BusinessName = in.BusinessName
	}
	if in.BusinessAddress != nil {
		p.BusinessAddress = in.BusinessAddress
	}
	if in.VehicleType != nil {
		p.VehicleType = in.VehicleType
	}
	if in.DeliveryZone != nil {
		p.DeliveryZone = in.DeliveryZone
	}
}
