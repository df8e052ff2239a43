// Package middleware holds the route guards: JWT authentication, role
// checks, and the admin gate check. Guards compose; the admin area runs all
// three.
package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/linkamarket/linka-api/internal/contextx"
	"github.com/linkamarket/linka-api/internal/httpx"
	"github.com/linkamarket/linka-api/internal/modules/account"
)

// Authenticator is a Huma middleware that validates the bearer access token
// and injects the account ID and role into the request context. On failure it
// writes an RFC 7807 problem+json response.
func Authenticator(jwtSecret string, logger *slog.Logger) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		r, w := humachi.Unwrap(ctx)

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeProblem(w, r, http.StatusUnauthorized, "ErrUnauthorized", "missing authorization header")
			return
		}

		tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found {
			writeProblem(w, r, http.StatusUnauthorized, "ErrUnauthorized", "invalid authorization header format")
			return
		}

		claims, err := account.ParseAccessToken(jwtSecret, tokenString)
		if err != nil {
			logger.Warn("invalid access token", "error", err)
			writeProblem(w, r, http.StatusUnauthorized, "ErrUnauthorized", "invalid or expired token")
			return
		}
		if claims.Subject == "" {
			writeProblem(w, r, http.StatusUnauthorized, "ErrUnauthorized", "invalid token claims")
			return
		}

		ctx = huma.WithValue(ctx, contextx.AccountIDKey, claims.Subject)
		ctx = huma.WithValue(ctx, contextx.RoleKey, account.Role(claims.Role))
		if st := r.Header.Get("X-Session-Token"); st != "" {
			ctx = huma.WithValue(ctx, contextx.SessionTokenKey, st)
		}
		next(ctx)
	}
}

// RequireRole is a Huma middleware that rejects callers whose role claim is
// not in the allowed set. It must run after Authenticator.
func RequireRole(logger *slog.Logger, roles ...account.Role) func(huma.Context, func(huma.Context)) {
	allowed := make(map[account.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(ctx huma.Context, next func(huma.Context)) {
		r, w := humachi.Unwrap(ctx)

		role, ok := ctx.Context().Value(contextx.RoleKey).(account.Role)
		if !ok {
			logger.Error("role not found in context; RequireRole must run after Authenticator")
			writeProblem(w, r, http.StatusUnauthorized, "ErrUnauthorized", "invalid authentication context")
			return
		}
		if _, ok := allowed[role]; !ok {
			logger.Warn("role denied for route", "role", role, "path", r.URL.Path)
			writeProblem(w, r, http.StatusForbidden, "ErrForbidden", "your role does not grant access to this area")
			return
		}
		next(ctx)
	}
}

// writeProblem emits a problem+json body directly, for failures that occur
// before a Huma handler is reached.
func writeProblem(w http.ResponseWriter, r *http.Request, status int, code, detail string) {
	p := &httpx.Problem{
		Type:      "urn:problem:auth/" + strings.ToLower(code),
		Title:     http.StatusText(status),
		Status:    status,
		Detail:    detail,
		Code:      code,
		RequestID: chimw.GetReqID(r.Context()),
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(p)
}
