package middleware

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/linkamarket/linka-api/internal/admingate"
)

// AdminGateGuard rejects requests while the admin gate is locked or its
// unlock has lapsed. It protects the admin area's content routes; the gate's
// own lifecycle endpoints stay outside it so a locked-out admin can unlock.
// Runs after Authenticator and the admin RequireRole guard.
func AdminGateGuard(gate *admingate.Gate, logger *slog.Logger) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		r, w := humachi.Unwrap(ctx)

		status, err := gate.Check(ctx.Context())
		if err != nil {
			logger.Error("failed to check admin gate", "error", err)
			writeProblem(w, r, http.StatusInternalServerError, "ErrInternal", "failed to check admin gate")
			return
		}
		if !status.Authenticated || !status.Verified {
			writeProblem(w, r, http.StatusForbidden, "ErrGateLocked", "the admin gate is locked")
			return
		}
		next(ctx)
	}
}
