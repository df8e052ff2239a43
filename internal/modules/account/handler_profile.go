package account

import (
	"context"

	"github.com/linkamarket/linka-api/internal/contextx"
	"github.com/linkamarket/linka-api/internal/httpx"
	"github.com/linkamarket/linka-api/internal/validation"
)

// --- DTOs ---

// ProfileResponse is the DTO for the caller's own profile.
type ProfileResponse struct {
	Body struct {
		Account AccountDTO `json:"account"`
	}
}

// UpdateProfileRequest defines the fields that can be updated on a profile.
// Email and role are immutable and deliberately not accepted here.
type UpdateProfileRequest struct {
	Body struct {
		FullName        *string `json:"fullName,omitempty" validate:"omitempty,min=2"`
		Phone           *string `json:"phone,omitempty"`
		AvatarURL       *string `json:"avatarUrl,omitempty" validate:"omitempty,url"`
		BusinessName    *string `json:"businessName,omitempty" validate:"omitempty,min=2"`
		BusinessAddress *string `json:"businessAddress,omitempty"`
		VehicleType     *string `json:"vehicleType,omitempty"`
		DeliveryZone    *string `json:"deliveryZone,omitempty"`
	}
}

// --- Handlers ---

// GetProfileHandler retrieves the profile of the currently authenticated account.
// It relies on the auth middleware to have set the account ID in the context.
func (h *Handler) GetProfileHandler(ctx context.Context, input *struct{}) (*ProfileResponse, error) {
	accountID, ok := ctx.Value(contextx.AccountIDKey).(string)
	if !ok || accountID == "" {
		h.logger.Error("account ID not found in context")
		return nil, httpx.UnauthorizedProblem(ctx, "ErrUnauthorized", "invalid authentication context")
	}

	acct, err := h.service.GetProfile(ctx, accountID)
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}

	resp := &ProfileResponse{}
	resp.Body.Account = toAccountDTO(acct)
	return resp, nil
}

// UpdateProfileHandler applies a partial update to the caller's profile.
func (h *Handler) UpdateProfileHandler(ctx context.Context, input *UpdateProfileRequest) (*ProfileResponse, error) {
	accountID, ok := ctx.Value(contextx.AccountIDKey).(string)
	if !ok || accountID == "" {
		h.logger.Error("account ID not found in context for profile update")
		return nil, httpx.UnauthorizedProblem(ctx, "ErrUnauthorized", "invalid authentication context")
	}

	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	acct, err := h.service.UpdateProfile(ctx, accountID, UpdateProfileInput{
		FullName:        input.Body.FullName,
		Phone:           input.Body.Phone,
		AvatarURL:       input.Body.AvatarURL,
		BusinessName:    input.Body.BusinessName,
		BusinessAddress: input.Body.BusinessAddress,
		VehicleType:     input.Body.VehicleType,
		DeliveryZone:    input.Body.DeliveryZone,
	})
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}

	h.logger.Info("profile updated successfully", "account_id", accountID)
	resp := &ProfileResponse{}
	resp.Body.Account = toAccountDTO(acct)
	return resp, nil
}
