package account

import (
	"context"

	"github.com/linkamarket/linka-api/internal/httpx"
	"github.com/linkamarket/linka-api/internal/validation"
)

// --- DTOs ---

type ForgotPasswordRequest struct {
	Body struct {
		Email string `json:"email" validate:"required,email"`
	}
}

type ForgotPasswordResponse struct{}

type ResetPasswordRequest struct {
	Body struct {
		Token       string `json:"token" validate:"required"`
		NewPassword string `json:"newPassword" validate:"required,min=8"`
	}
}

type ResetPasswordResponse struct{}

type UpdatePasswordRequest struct {
	SessionToken string `header:"X-Session-Token"`
	Body         struct {
		NewPassword string `json:"newPassword" validate:"required,min=8"`
	}
}

type UpdatePasswordResponse struct{}

// --- Handlers ---

// ForgotPasswordHandler starts password recovery by emailing a reset link.
// The response is the same whether or not the email is registered.
func (h *Handler) ForgotPasswordHandler(ctx context.Context, input *ForgotPasswordRequest) (*ForgotPasswordResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	if err := h.service.ResetPassword(ctx, input.Body.Email); err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}

	return &ForgotPasswordResponse{}, nil
}

// ResetPasswordHandler completes recovery using the token from the emailed link.
func (h *Handler) ResetPasswordHandler(ctx context.Context, input *ResetPasswordRequest) (*ResetPasswordResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	if err := h.service.FinalizeResetPassword(ctx, input.Body.Token, input.Body.NewPassword); err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}

	return &ResetPasswordResponse{}, nil
}

// UpdatePasswordHandler changes the password for a signed-in caller.
func (h *Handler) UpdatePasswordHandler(ctx context.Context, input *UpdatePasswordRequest) (*UpdatePasswordResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	if err := h.service.UpdatePassword(ctx, input.SessionToken, input.Body.NewPassword); err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}

	return &UpdatePasswordResponse{}, nil
}
