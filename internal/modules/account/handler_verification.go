package account

import (
	"context"

	"github.com/linkamarket/linka-api/internal/httpx"
	"github.com/linkamarket/linka-api/internal/validation"
)

// --- DTOs ---

type SendVerificationRequest struct {
	Body struct {
		Email string `json:"email" validate:"required,email"`
	}
}

type SendVerificationResponse struct{}

// ConfirmVerificationRequest confirms an email with an 8-digit code.
type ConfirmVerificationRequest struct {
	Body struct {
		Email string `json:"email" validate:"required,email"`
		Code  string `json:"code" validate:"required,len=8,numeric"`
	}
}

// ConfirmVerificationResponse reports whether the code was accepted. A
// rejected code is a 200 with verified=false: the client recovers by
// requesting a fresh code.
type ConfirmVerificationResponse struct {
	Body struct {
		Verified bool `json:"verified"`
	}
}

// --- Handlers ---

// SendVerificationHandler issues a fresh 8-digit code for an email address,
// replacing any pending one. The response never reveals whether the email is
// registered.
func (h *Handler) SendVerificationHandler(ctx context.Context, input *SendVerificationRequest) (*SendVerificationResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	if _, err := h.service.SendVerificationCode(ctx, input.Body.Email); err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}

	return &SendVerificationResponse{}, nil
}

// ConfirmVerificationHandler validates the 8-digit code and marks the email as confirmed.
func (h *Handler) ConfirmVerificationHandler(ctx context.Context, input *ConfirmVerificationRequest) (*ConfirmVerificationResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	verified, err := h.service.VerifyEmail(ctx, input.Body.Email, input.Body.Code)
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}

	resp := &ConfirmVerificationResponse{}
	resp.Body.Verified = verified
	return resp, nil
}
