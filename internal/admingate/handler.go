package admingate

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/linkamarket/linka-api/internal/httpx"
	"github.com/linkamarket/linka-api/internal/validation"
)

// Handler exposes the gate lifecycle over HTTP. All endpoints additionally
// sit behind the admin-role route guard; the gate is the second factor, not
// a replacement for it.
type Handler struct {
	gate   *Gate
	logger *slog.Logger
}

// NewHandler creates a new handler for the admin gate.
func NewHandler(gate *Gate, logger *slog.Logger) *Handler {
	return &Handler{gate: gate, logger: logger}
}

// RegisterRoutes sets up the gate endpoints. The given middlewares (JWT auth
// plus admin-role guard) wrap every operation.
func (h *Handler) RegisterRoutes(api huma.API, middlewares huma.Middlewares) {
	bearer := []map[string][]string{{"bearer": {}}}

	huma.Register(api, huma.Operation{
		OperationID: "admin-gate-status",
		Method:      http.MethodGet,
		Path:        "/admin/gate",
		Summary:     "Get the admin gate state",
		Security:    bearer,
		Middlewares: middlewares,
	}, h.StatusHandler)

	huma.Register(api, huma.Operation{
		OperationID: "admin-gate-unlock",
		Method:      http.MethodPost,
		Path:        "/admin/gate/unlock",
		Summary:     "Unlock the admin gate with its credentials",
		Security:    bearer,
		Middlewares: middlewares,
	}, h.UnlockHandler)

	huma.Register(api, huma.Operation{
		OperationID: "admin-gate-verify",
		Method:      http.MethodPost,
		Path:        "/admin/gate/verify",
		Summary:     "Answer the gate security question",
		Security:    bearer,
		Middlewares: middlewares,
	}, h.VerifyHandler)

	huma.Register(api, huma.Operation{
		OperationID: "admin-gate-lock",
		Method:      http.MethodPost,
		Path:        "/admin/gate/lock",
		Summary:     "Re-lock the admin gate",
		Security:    bearer,
		Middlewares: middlewares,
	}, h.LockHandler)
}

// --- DTOs ---

// StatusResponse reports the gate state plus the security question to show
// when a verification step is still pending.
type StatusResponse struct {
	Body struct {
		Authenticated bool   `json:"authenticated"`
		Verified      bool   `json:"verified"`
		Question      string `json:"question,omitempty"`
	}
}

type UnlockRequest struct {
	Body struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
}

type UnlockResponse struct {
	Body struct {
		Question string `json:"question"`
	}
}

type VerifyRequest struct {
	Body struct {
		Answer string `json:"answer" validate:"required"`
	}
}

type VerifyResponse struct{}

type LockResponse struct{}

// --- Handlers ---

// StatusHandler reports the current gate state.
func (h *Handler) StatusHandler(ctx context.Context, input *struct{}) (*StatusResponse, error) {
	status, err := h.gate.Check(ctx)
	if err != nil {
		h.logger.Error("failed to check admin gate", "error", err)
		return nil, httpx.InternalProblem(ctx, "failed to check admin gate")
	}

	resp := &StatusResponse{}
	resp.Body.Authenticated = status.Authenticated
	resp.Body.Verified = status.Verified
	if !status.Verified {
		resp.Body.Question = status.Question
	}
	return resp, nil
}

// UnlockHandler validates the gate credentials and unlocks the gate.
func (h *Handler) UnlockHandler(ctx context.Context, input *UnlockRequest) (*UnlockResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	if err := h.gate.Unlock(ctx, input.Body.Username, input.Body.Password); err != nil {
		if errors.Is(err, ErrGateRejected) {
			return nil, httpx.UnauthorizedProblem(ctx, "ErrGateRejected", "invalid gate credentials")
		}
		h.logger.Error("failed to unlock admin gate", "error", err)
		return nil, httpx.InternalProblem(ctx, "failed to unlock admin gate")
	}

	resp := &UnlockResponse{}
	resp.Body.Question = h.gate.cfg.Question
	return resp, nil
}

// VerifyHandler checks the security-question answer.
func (h *Handler) VerifyHandler(ctx context.Context, input *VerifyRequest) (*VerifyResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	if err := h.gate.VerifyAnswer(ctx, input.Body.Answer); err != nil {
		if errors.Is(err, ErrGateRejected) {
			return nil, httpx.UnauthorizedProblem(ctx, "ErrGateRejected", "gate verification failed")
		}
		h.logger.Error("failed to verify admin gate answer", "error", err)
		return nil, httpx.InternalProblem(ctx, "failed to verify admin gate answer")
	}

	return &VerifyResponse{}, nil
}

// LockHandler re-locks the gate.
func (h *Handler) LockHandler(ctx context.Context, input *struct{}) (*LockResponse, error) {
	if err := h.gate.Lock(ctx); err != nil {
		h.logger.Error("failed to lock admin gate", "error", err)
		return nil, httpx.InternalProblem(ctx, "failed to lock admin gate")
	}
	return &LockResponse{}, nil
}
