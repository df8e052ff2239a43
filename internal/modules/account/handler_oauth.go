package account

import (
	"context"

	"github.com/linkamarket/linka-api/internal/httpx"
)

// --- DTOs ---

// OAuthLoginRequest names the provider being requested from the URL path.
type OAuthLoginRequest struct {
	Provider string `path:"provider"`
}

// OAuthLoginResponse carries the provider redirect URL back to the client,
// which performs the actual browser redirect.
type OAuthLoginResponse struct {
	Body struct {
		RedirectURL string `json:"redirectUrl"`
	}
}

// OAuthCallbackRequest defines the query parameters forwarded from the
// provider's callback redirect.
type OAuthCallbackRequest struct {
	Provider string `path:"provider"`
	Code     string `query:"code"`
	State    string `query:"state"`
}

// OAuthCallbackResponse mirrors LoginResponse: social sign-in ends in the
// same authenticated state as a password login.
type OAuthCallbackResponse struct {
	Body struct {
		Account          AccountDTO `json:"account"`
		AccessToken      string     `json:"accessToken"`
		SessionToken     string     `json:"sessionToken"`
		EmailUnconfirmed bool       `json:"emailUnconfirmed"`
	}
}

// --- Handlers ---

// OAuthLoginHandler initiates a social sign-in flow by returning the provider
// redirect URL.
func (h *Handler) OAuthLoginHandler(ctx context.Context, input *OAuthLoginRequest) (*OAuthLoginResponse, error) {
	h.logger.Info("initiating oauth login", "provider", input.Provider)

	redirectURL, err := h.service.InitiateOAuthLogin(ctx, OAuthProvider(input.Provider))
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}

	resp := &OAuthLoginResponse{}
	resp.Body.RedirectURL = redirectURL
	return resp, nil
}

// OAuthCallbackHandler completes a social sign-in flow.
func (h *Handler) OAuthCallbackHandler(ctx context.Context, input *OAuthCallbackRequest) (*OAuthCallbackResponse, error) {
	h.logger.Info("handling oauth callback", "provider", input.Provider)

	result, err := h.service.HandleOAuthCallback(ctx, OAuthProvider(input.Provider), input.State, input.Code)
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}

	resp := &OAuthCallbackResponse{}
	resp.Body.Account = toAccountDTO(result.Account)
	resp.Body.AccessToken = result.AccessToken
	resp.Body.SessionToken = result.SessionToken
	resp.Body.EmailUnconfirmed = result.EmailUnconfirmed
	return resp, nil
}
