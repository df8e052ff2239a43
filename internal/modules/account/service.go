package account

import (
	"context"
	"log/slog"
	"time"

	"github.com/linkamarket/linka-api/internal/config"
	"github.com/linkamarket/linka-api/internal/notification"
	"github.com/linkamarket/linka-api/internal/session"
)

// Service defines the interface for the account module's business logic.
// It is the application-level facade over the identity store, the profile
// rows, and the session provider.
type Service interface {
	// Auth
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Register(ctx context.Context, input RegisterInput) (*RegisterResult, error)
	Logout(ctx context.Context, sessionToken string) error
	CurrentUser(ctx context.Context, sessionToken string) (*Account, error)

	// Email verification
	SendVerificationCode(ctx context.Context, email string) (string, error)
	VerifyEmail(ctx context.Context, email, code string) (bool, error)

	// Password management
	ResetPassword(ctx context.Context, email string) error
	FinalizeResetPassword(ctx context.Context, token, newPassword string) error
	UpdatePassword(ctx context.Context, sessionToken, newPassword string) error

	// Profile
	GetProfile(ctx context.Context, accountID string) (*Account, error)
	UpdateProfile(ctx context.Context, accountID string, input UpdateProfileInput) (*Account, error)

	// Social sign-in
	InitiateOAuthLogin(ctx context.Context, provider OAuthProvider) (redirectURL string, err error)
	HandleOAuthCallback(ctx context.Context, provider OAuthProvider, state, code string) (*LoginResult, error)
}

// LoginResult is what a successful authentication yields: the resolved
// account, a short-lived access token, the opaque session token, and whether
// the account's email is still unconfirmed.
type LoginResult struct {
	Account          *Account
	AccessToken      string
	SessionToken     string
	EmailUnconfirmed bool
}

// RegisterInput carries the full registration payload. Role-specific fields
// are optional and only meaningful for the matching role.
type RegisterInput struct {
	FullName        string
	Email           string
	Password        string
	Role            Role
	Phone           *string
	BusinessName    *string
	BusinessAddress *string
	VehicleType     *string
	DeliveryZone    *string
}

// RegisterResult carries the created account and whether email verification
// is still required before the account is fully usable.
type RegisterResult struct {
	Account              *Account
	AccessToken          string
	SessionToken         string
	RequiresVerification bool
}

// service implements the Service interface.
type service struct {
	repo         Repository
	sessions     session.Provider
	notification notification.Service
	logger       *slog.Logger
	config       *config.Config
	now          func() time.Time
}

// Config holds the dependencies for the account service.
type Config struct {
	Repo         Repository
	Sessions     session.Provider
	Notification notification.Service
	Logger       *slog.Logger
	Config       *config.Config

	// Now is the clock used for expiry checks; defaults to time.Now.
	Now func() time.Time
}

// NewService creates a new account service with the given dependencies.
func NewService(cfg *Config) Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:         cfg.Repo,
		sessions:     cfg.Sessions,
		notification: cfg.Notification,
		logger:       cfg.Logger,
		config:       cfg.Config,
		now:          now,
	}
}
