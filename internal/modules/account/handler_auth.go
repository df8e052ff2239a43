package account

import (
	"context"
	"time"

	"github.com/linkamarket/linka-api/internal/httpx"
	"github.com/linkamarket/linka-api/internal/validation"
)

// --- DTOs ---

// AccountDTO is the wire representation of an authenticated account.
type AccountDTO struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	FullName         string    `json:"fullName"`
	Role             string    `json:"role"`
	Phone            *string   `json:"phone,omitempty"`
	AvatarURL        *string   `json:"avatarUrl,omitempty"`
	BusinessName     *string   `json:"businessName,omitempty"`
	BusinessAddress  *string   `json:"businessAddress,omitempty"`
	VehicleType      *string   `json:"vehicleType,omitempty"`
	DeliveryZone     *string   `json:"deliveryZone,omitempty"`
	EmailVerified    bool      `json:"emailVerified"`
	ProfileCompleted bool      `json:"profileCompleted"`
	CreatedAt        time.Time `json:"createdAt"`
}

func toAccountDTO(a *Account) AccountDTO {
	return AccountDTO{
		ID:               a.ID,
		Email:            a.Email,
		FullName:         a.FullName,
		Role:             string(a.Role),
		Phone:            a.Phone,
		AvatarURL:        a.AvatarURL,
		BusinessName:     a.BusinessName,
		BusinessAddress:  a.BusinessAddress,
		VehicleType:      a.VehicleType,
		DeliveryZone:     a.DeliveryZone,
		EmailVerified:    a.EmailVerified,
		ProfileCompleted: a.ProfileCompleted,
		CreatedAt:        a.CreatedAt,
	}
}

// RegisterRequest defines the structure for the registration request body.
// Role-specific fields are validated conditionally against the chosen role.
type RegisterRequest struct {
	Body struct {
		FullName        string  `json:"fullName" validate:"required,min=2"`
		Email           string  `json:"email" validate:"required,email"`
		Password        string  `json:"password" validate:"required,min=8"`
		Role            string  `json:"role" validate:"required,oneof=customer merchant courier admin"`
		Phone           *string `json:"phone,omitempty"`
		BusinessName    *string `json:"businessName,omitempty" validate:"omitempty,min=2"`
		BusinessAddress *string `json:"businessAddress,omitempty"`
		VehicleType     *string `json:"vehicleType,omitempty"`
		DeliveryZone    *string `json:"deliveryZone,omitempty"`
	}
}

// RegisterResponse carries the new account plus its token pair.
type RegisterResponse struct {
	Body struct {
		Account              AccountDTO `json:"account"`
		AccessToken          string     `json:"accessToken"`
		SessionToken         string     `json:"sessionToken"`
		RequiresVerification bool       `json:"requiresVerification"`
	}
}

// LoginRequest defines the structure for the login request body.
type LoginRequest struct {
	Body struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
}

// LoginResponse carries the resolved account plus its token pair.
type LoginResponse struct {
	Body struct {
		Account          AccountDTO `json:"account"`
		AccessToken      string     `json:"accessToken"`
		SessionToken     string     `json:"sessionToken"`
		EmailUnconfirmed bool       `json:"emailUnconfirmed"`
	}
}

// LogoutRequest carries the session token to invalidate.
type LogoutRequest struct {
	SessionToken string `header:"X-Session-Token"`
}

type LogoutResponse struct{}

// SessionRequest resolves the account behind an existing session token.
type SessionRequest struct {
	SessionToken string `header:"X-Session-Token"`
}

// SessionResponse carries the resolved account, or a null account when no
// valid session exists. An absent session is a normal state, not an error.
type SessionResponse struct {
	Body struct {
		Account *AccountDTO `json:"account"`
	}
}

// --- Handlers ---

// RegisterHandler handles the account registration endpoint.
func (h *Handler) RegisterHandler(ctx context.Context, input *RegisterRequest) (*RegisterResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	result, err := h.service.Register(ctx, RegisterInput{
		FullName:        input.Body.FullName,
		Email:           input.Body.Email,
		Password:        input.Body.Password,
		Role:            Role(input.Body.Role),
		Phone:           input.Body.Phone,
		BusinessName:    input.Body.BusinessName,
		BusinessAddress: input.Body.BusinessAddress,
		VehicleType:     input.Body.VehicleType,
		DeliveryZone:    input.Body.DeliveryZone,
	})
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}

	resp := &RegisterResponse{}
	resp.Body.Account = toAccountDTO(result.Account)
	resp.Body.AccessToken = result.AccessToken
	resp.Body.SessionToken = result.SessionToken
	resp.Body.RequiresVerification = result.RequiresVerification
	return resp, nil
}

// LoginHandler handles the login endpoint.
func (h *Handler) LoginHandler(ctx context.Context, input *LoginRequest) (*LoginResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	result, err := h.service.Login(ctx, input.Body.Email, input.Body.Password)
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}

	resp := &LoginResponse{}
	resp.Body.Account = toAccountDTO(result.Account)
	resp.Body.AccessToken = result.AccessToken
	resp.Body.SessionToken = result.SessionToken
	resp.Body.EmailUnconfirmed = result.EmailUnconfirmed
	return resp, nil
}

// LogoutHandler invalidates the caller's session.
func (h *Handler) LogoutHandler(ctx context.Context, input *LogoutRequest) (*LogoutResponse, error) {
	if err := h.service.Logout(ctx, input.SessionToken); err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}
	return &LogoutResponse{}, nil
}

// SessionHandler resolves the account behind the submitted session token.
// Used by clients at startup to restore a signed-in state.
func (h *Handler) SessionHandler(ctx context.Context, input *SessionRequest) (*SessionResponse, error) {
	acct, err := h.service.CurrentUser(ctx, input.SessionToken)
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}

	resp := &SessionResponse{}
	if acct != nil {
		dto := toAccountDTO(acct)
		resp.Body.Account = &dto
	}
	return resp, nil
}
