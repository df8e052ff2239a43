package account

import (
	"context"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
)

// --- Identities ---

// CreateIdentity inserts a new identity record into the database.
func (r *repository) CreateIdentity(ctx context.Context, id *Identity) error {
	query, args, err := r.psql.Insert("identities").
		Columns("id", "email", "password_hash", "email_verified", "meta_full_name", "meta_role", "created_at", "updated_at").
		Values(id.ID, id.Email, id.PasswordHash, id.EmailVerified, id.MetaFullName, string(id.MetaRole), id.CreatedAt, id.UpdatedAt).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, query, args...)
	return err
}

// FindIdentityByEmail retrieves an identity by its email address.
// It returns ErrNotFound if no identity exists.
func (r *repository) FindIdentityByEmail(ctx context.Context, email string) (*Identity, error) {
	return r.findIdentity(ctx, squirrel.Eq{"email": email})
}

// FindIdentityByID retrieves an identity by its unique ID.
// It returns ErrNotFound if no identity exists.
func (r *repository) FindIdentityByID(ctx context.Context, id string) (*Identity, error) {
	return r.findIdentity(ctx, squirrel.Eq{"id": id})
}

// FindIdentityByPasswordResetToken finds an identity by its hashed password reset token.
func (r *repository) FindIdentityByPasswordResetToken(ctx context.Context, tokenHash string) (*Identity, error) {
	return r.findIdentity(ctx, squirrel.Eq{"password_reset_token": tokenHash})
}

// findIdentity is a helper method to find a single identity by a given condition.
func (r *repository) findIdentity(ctx context.Context, condition squirrel.Sqlizer) (*Identity, error) {
	query, args, err := r.psql.Select(
		"id", "email", "password_hash", "email_verified", "meta_full_name", "meta_role",
		"password_reset_token", "password_reset_token_expiry",
		"created_at", "updated_at",
	).From("identities").Where(condition).Limit(1).ToSql()
	if err != nil {
		return nil, err
	}

	var identity Identity
	if err := pgxscan.Get(ctx, r.db, &identity, query, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound.WithCause(err)
		}
		return nil, err
	}
	return &identity, nil
}

// SetEmailVerified marks the identity's email address as confirmed.
func (r *repository) SetEmailVerified(ctx context.Context, identityID string) error {
	query, args, err := r.psql.Update("identities").
		Set("email_verified", true).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": identityID}).
		ToSql()
	if err != nil {
		return err
	}

	ct, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePassword sets a new password hash and clears any pending reset token.
func (r *repository) UpdatePassword(ctx context.Context, identityID string, newPasswordHash string) error {
	query, args, err := r.psql.Update("identities").
		Set("password_hash", newPasswordHash).
		Set("password_reset_token", nil).
		Set("password_reset_token_expiry", nil).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": identityID}).
		ToSql()
	if err != nil {
		return err
	}

	ct, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePasswordResetInfo stores the hashed reset token and its expiry for a given identity.
func (r *repository) UpdatePasswordResetInfo(ctx context.Context, identityID string, tokenHash string, expiry time.Time) error {
	query, args, err := r.psql.Update("identities").
		Set("password_reset_token", tokenHash).
		Set("password_reset_token_expiry", expiry).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": identityID}).
		ToSql()
	if err != nil {
		return err
	}

	ct, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Profiles ---

// CreateProfile inserts the marketplace profile row for an identity.
func (r *repository) CreateProfile(ctx context.Context, p *Profile) error {
	query, args, err := r.psql.Insert("profiles").
		Columns("id", "full_name", "role", "phone", "avatar_url", "business_name", "business_address",
			"vehicle_type", "delivery_zone", "profile_completed", "created_at", "updated_at").
		Values(p.ID, p.FullName, string(p.Role), p.Phone, p.AvatarURL, p.BusinessName, p.BusinessAddress,
			p.VehicleType, p.DeliveryZone, p.ProfileCompleted, p.CreatedAt, p.UpdatedAt).
		ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, query, args...)
	return err
}

// FindProfileByID retrieves the profile row keyed by identity ID.
// It returns ErrNotFound if the row is missing.
func (r *repository) FindProfileByID(ctx context.Context, id string) (*Profile, error) {
	query, args, err := r.psql.Select(
		"id", "full_name", "role", "phone", "avatar_url", "business_name", "business_address",
		"vehicle_type", "delivery_zone", "profile_completed", "created_at", "updated_at",
	).From("profiles").Where(squirrel.Eq{"id": id}).Limit(1).ToSql()
	if err != nil {
		return nil, err
	}

	var p Profile
	if err := pgxscan.Get(ctx, r.db, &p, query, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound.WithCause(err)
		}
		return nil, err
	}
	return &p, nil
}

// UpdateProfile modifies an existing profile row. The role column is
// deliberately never updated: roles are fixed at registration.
func (r *repository) UpdateProfile(ctx context.Context, p *Profile) error {
	query, args, err := r.psql.Update("profiles").
		Set("full_name", p.FullName).
		Set("phone", p.Phone).
		Set("avatar_url", p.AvatarURL).
		Set("business_name", p.BusinessName).
		Set("business_address", p.BusinessAddress).
		Set("vehicle_type", p.VehicleType).
		Set("delivery_zone", p.DeliveryZone).
		Set("profile_completed", p.ProfileCompleted).
		Set("updated_at", p.UpdatedAt).
		Where(squirrel.Eq{"id": p.ID}).
		ToSql()
	if err != nil {
		return err
	}

	ct, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
