package account

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// Handler holds the dependencies for the account module's HTTP handlers.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// NewHandler creates a new handler for the account module.
func NewHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes sets up the routing for the account module. Operations that
// require an authenticated caller carry the given auth middleware; everything
// else is public.
func (h *Handler) RegisterRoutes(api huma.API, auth func(huma.Context, func(huma.Context))) {
	bearer := []map[string][]string{{"bearer": {}}}

	// --- Authentication ---
	huma.Register(api, huma.Operation{
		OperationID: "auth-register",
		Method:      http.MethodPost,
		Path:        "/auth/register",
		Summary:     "Register a new account",
	}, h.RegisterHandler)

	huma.Register(api, huma.Operation{
		OperationID: "auth-login",
		Method:      http.MethodPost,
		Path:        "/auth/login",
		Summary:     "Log in with email and password",
	}, h.LoginHandler)

	huma.Register(api, huma.Operation{
		OperationID: "auth-logout",
		Method:      http.MethodPost,
		Path:        "/auth/logout",
		Summary:     "Log out and invalidate the session",
	}, h.LogoutHandler)

	huma.Register(api, huma.Operation{
		OperationID: "auth-session",
		Method:      http.MethodGet,
		Path:        "/auth/session",
		Summary:     "Resolve the account behind a session token",
	}, h.SessionHandler)

	// --- Email verification ---
	huma.Register(api, huma.Operation{
		OperationID: "auth-verification-send",
		Method:      http.MethodPost,
		Path:        "/auth/verification/send",
		Summary:     "Send a fresh email verification code",
	}, h.SendVerificationHandler)

	huma.Register(api, huma.Operation{
		OperationID: "auth-verification-confirm",
		Method:      http.MethodPost,
		Path:        "/auth/verification/confirm",
		Summary:     "Confirm an email with an 8-digit code",
	}, h.ConfirmVerificationHandler)

	// --- Password management ---
	huma.Register(api, huma.Operation{
		OperationID: "auth-password-forgot",
		Method:      http.MethodPost,
		Path:        "/auth/password/forgot",
		Summary:     "Initiate password recovery",
	}, h.ForgotPasswordHandler)

	huma.Register(api, huma.Operation{
		OperationID: "auth-password-reset",
		Method:      http.MethodPost,
		Path:        "/auth/password/reset",
		Summary:     "Reset password with a recovery token",
	}, h.ResetPasswordHandler)

	huma.Register(api, huma.Operation{
		OperationID: "auth-password-update",
		Method:      http.MethodPost,
		Path:        "/auth/password/update",
		Summary:     "Change password while signed in",
	}, h.UpdatePasswordHandler)

	// --- Social sign-in ---
	huma.Register(api, huma.Operation{
		OperationID: "auth-oauth-initiate",
		Method:      http.MethodGet,
		Path:        "/auth/oauth/{provider}",
		Summary:     "Initiate a social sign-in flow",
	}, h.OAuthLoginHandler)

	huma.Register(api, huma.Operation{
		OperationID: "auth-oauth-callback",
		Method:      http.MethodGet,
		Path:        "/auth/oauth/{provider}/callback",
		Summary:     "Handle a social sign-in callback",
	}, h.OAuthCallbackHandler)

	// --- Profile (requires an authenticated caller) ---
	huma.Register(api, huma.Operation{
		OperationID: "profile-get",
		Method:      http.MethodGet,
		Path:        "/profile",
		Summary:     "Get the current account's profile",
		Security:    bearer,
		Middlewares: huma.Middlewares{auth},
	}, h.GetProfileHandler)

	huma.Register(api, huma.Operation{
		OperationID: "profile-update",
		Method:      http.MethodPatch,
		Path:        "/profile",
		Summary:     "Update the current account's profile",
		Security:    bearer,
		Middlewares: huma.Middlewares{auth},
	}, h.UpdateProfileHandler)
}
