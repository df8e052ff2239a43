package account

import (
	"time"
)

// Role is the marketplace role assigned to an account at registration.
// The role is immutable after registration: no update path changes it.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleMerchant Role = "merchant"
	RoleCourier  Role = "courier"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is one of the known marketplace roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleMerchant, RoleCourier, RoleAdmin:
		return true
	}
	return false
}

// Identity is the authentication record for an account. It mirrors what a
// hosted identity provider would hold: credentials plus lightweight metadata
// captured at sign-up, used to synthesize an Account when the profile row is
// missing (see Login).
type Identity struct {
	ID                       string     `db:"id"`
	Email                    string     `db:"email"`
	PasswordHash             string     `db:"password_hash"`
	EmailVerified            bool       `db:"email_verified"`
	MetaFullName             string     `db:"meta_full_name"`
	MetaRole                 Role       `db:"meta_role"`
	PasswordResetToken       *string    `db:"password_reset_token"`
	PasswordResetTokenExpiry *time.Time `db:"password_reset_token_expiry"`
	CreatedAt                time.Time  `db:"created_at"`
	UpdatedAt                time.Time  `db:"updated_at"`
}

// Profile is the application-level profile row keyed by identity ID.
// Role-specific fields are optional and only meaningful for the matching role.
type Profile struct {
	ID               string    `db:"id"`
	FullName         string    `db:"full_name"`
	Role             Role      `db:"role"`
	Phone            *string   `db:"phone"`
	AvatarURL        *string   `db:"avatar_url"`
	BusinessName     *string   `db:"business_name"`
	BusinessAddress  *string   `db:"business_address"`
	VehicleType      *string   `db:"vehicle_type"`
	DeliveryZone     *string   `db:"delivery_zone"`
	ProfileCompleted bool      `db:"profile_completed"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

// Account is the authenticated principal as seen by the rest of the system:
// identity data combined with the profile row (or synthesized from identity
// metadata when the profile row is missing).
type Account struct {
	ID               string
	Email            string
	FullName         string
	Role             Role
	Phone            *string
	AvatarURL        *string
	BusinessName     *string
	BusinessAddress  *string
	VehicleType      *string
	DeliveryZone     *string
	EmailVerified    bool
	ProfileCompleted bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// merge combines an identity with its profile row into an Account.
func merge(id *Identity, p *Profile) *Account {
	return &Account{
		ID:               id.ID,
		Email:            id.Email,
		FullName:         p.FullName,
		Role:             p.Role,
		Phone:            p.Phone,
		AvatarURL:        p.AvatarURL,
		BusinessName:     p.BusinessName,
		BusinessAddress:  p.BusinessAddress,
		VehicleType:      p.VehicleType,
		DeliveryZone:     p.DeliveryZone,
		EmailVerified:    id.EmailVerified,
		ProfileCompleted: p.ProfileCompleted,
		CreatedAt:        id.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

// synthesize builds a minimal Account from identity metadata alone. Used when
// the profile row is missing (registration raced or the profile write failed);
// the caller never sees the desynchronization as an error.
func synthesize(id *Identity) *Account {
	role := id.MetaRole
	if !role.Valid() {
		role = RoleCustomer
	}
	return &Account{
		ID:            id.ID,
		Email:         id.Email,
		FullName:      id.MetaFullName,
		Role:          role,
		EmailVerified: id.EmailVerified,
		CreatedAt:     id.CreatedAt,
		UpdatedAt:     id.UpdatedAt,
	}
}

// VerificationCode is the pending email-ownership proof for one address.
// Codes are keyed by email: issuing a new code replaces the pending one.
// A code is valid only while unconsumed and before its expiry.
type VerificationCode struct {
	Email      string     `db:"email"`
	CodeHash   string     `db:"code_hash"`
	ExpiresAt  time.Time  `db:"expires_at"`
	ConsumedAt *time.Time `db:"consumed_at"`
	LastSentAt time.Time  `db:"last_sent_at"`
	CreatedAt  time.Time  `db:"created_at"`
}

// OAuthProvider identifies a supported social sign-in provider.
type OAuthProvider string

const (
	OAuthProviderGoogle OAuthProvider = "google"
)

// OAuthState is a short-lived CSRF state row for a social sign-in flow.
type OAuthState struct {
	State     string        `db:"state"`
	Provider  OAuthProvider `db:"provider"`
	Verifier  string        `db:"verifier"`
	ExpiresAt time.Time     `db:"expires_at"`
	CreatedAt time.Time     `db:"created_at"`
}
