package account

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/linkamarket/linka-api/internal/database"
)

// Repository defines the interface for database operations for the account
// module. This abstraction keeps the service layer independent of the storage
// implementation; demo mode swaps in an in-memory fixture implementation.
type Repository interface {
	// Identities
	CreateIdentity(ctx context.Context, id *Identity) error
	FindIdentityByEmail(ctx context.Context, email string) (*Identity, error)
	FindIdentityByID(ctx context.Context, id string) (*Identity, error)
	SetEmailVerified(ctx context.Context, identityID string) error
	UpdatePassword(ctx context.Context, identityID string, newPasswordHash string) error
	UpdatePasswordResetInfo(ctx context.Context, identityID string, tokenHash string, expiry time.Time) error
	FindIdentityByPasswordResetToken(ctx context.Context, tokenHash string) (*Identity, error)

	// Profiles
	CreateProfile(ctx context.Context, p *Profile) error
	FindProfileByID(ctx context.Context, id string) (*Profile, error)
	UpdateProfile(ctx context.Context, p *Profile) error

	// Verification codes (single pending code per email, upsert overwrites)
	UpsertVerificationCode(ctx context.Context, vc *VerificationCode) error
	GetVerificationCode(ctx context.Context, email string) (*VerificationCode, error)
	ConsumeVerificationCode(ctx context.Context, email string) error

	// OAuth states (for social login)
	InsertOAuthState(ctx context.Context, state *OAuthState) error
	GetOAuthStateByState(ctx context.Context, state string) (*OAuthState, error)
	DeleteOAuthState(ctx context.Context, state string) error
	DeleteExpiredOAuthStates(ctx context.Context) error
}

// repository implements the Repository interface using pgx and squirrel.
type repository struct {
	db   database.DBTX
	psql squirrel.StatementBuilderType
}

// NewRepository creates a new account repository with the given database connection.
func NewRepository(db database.DBTX) Repository {
	return &repository{
		db:   db,
		psql: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}
