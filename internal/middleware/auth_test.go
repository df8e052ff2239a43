package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkamarket/linka-api/internal/admingate"
	"github.com/linkamarket/linka-api/internal/config"
	"github.com/linkamarket/linka-api/internal/contextx"
	"github.com/linkamarket/linka-api/internal/modules/account"
	"github.com/linkamarket/linka-api/internal/notification"
	"github.com/linkamarket/linka-api/internal/notification/templates"
	"github.com/linkamarket/linka-api/internal/session"
)

const testSecret = "guard-test-secret"

type guardFixture struct {
	router chi.Router
	gate   *admingate.Gate
	svc    account.Service
}

func newGuardFixture(t *testing.T) *guardFixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := templates.NewEngine(templates.Config{}, logger)
	notif := notification.NewService(logger, notification.NewLogEmailSender(logger), notification.NewDummySMSSender(logger), engine)

	svc := account.NewService(&account.Config{
		Repo:         account.NewMemoryRepository(),
		Sessions:     session.NewMemoryProvider(session.Config{}),
		Notification: notif,
		Logger:       logger,
		Config: &config.Config{
			JWTSecret:    testSecret,
			Verification: config.VerificationConfig{TTLMinutes: 10},
		},
	})

	gateCfg := config.AdminGateConfig{
		Username: "NOZIMA",
		Password: "TOUT2000@",
		Question: "First shop?",
		Answer:   "Chorsu",
		TTLHours: 24,
	}
	gate := admingate.New(admingate.NewMemoryStore(), gateCfg, logger, nil)

	router := chi.NewMux()
	api := humachi.New(router, huma.DefaultConfig("guard-test", "0.0.0"))

	auth := Authenticator(testSecret, logger)
	adminOnly := RequireRole(logger, account.RoleAdmin)
	gateGuard := AdminGateGuard(gate, logger)

	type echoResponse struct {
		Body struct {
			AccountID string `json:"accountId"`
		}
	}
	echo := func(ctx context.Context, input *struct{}) (*echoResponse, error) {
		resp := &echoResponse{}
		resp.Body.AccountID, _ = ctx.Value(contextx.AccountIDKey).(string)
		return resp, nil
	}

	huma.Register(api, huma.Operation{
		OperationID: "whoami",
		Method:      http.MethodGet,
		Path:        "/whoami",
		Middlewares: huma.Middlewares{auth},
	}, echo)

	huma.Register(api, huma.Operation{
		OperationID: "admin-area",
		Method:      http.MethodGet,
		Path:        "/admin-area",
		Middlewares: huma.Middlewares{auth, adminOnly, gateGuard},
	}, echo)

	return &guardFixture{router: router, gate: gate, svc: svc}
}

func (f *guardFixture) tokenFor(t *testing.T, role account.Role, email string) string {
	t.Helper()
	reg, err := f.svc.Register(context.Background(), account.RegisterInput{
		FullName: "Guard Test",
		Email:    email,
		Password: "long-enough-pass",
		Role:     role,
	})
	require.NoError(t, err)
	return reg.AccessToken
}

func (f *guardFixture) get(path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestAuthenticatorRejectsMissingOrBadTokens(t *testing.T) {
	f := newGuardFixture(t)

	rec := f.get("/whoami", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	rec = f.get("/whoami", "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticatorInjectsAccountIdentity(t *testing.T) {
	f := newGuardFixture(t)
	token := f.tokenFor(t, account.RoleCustomer, "customer@example.com")

	rec := f.get("/whoami", token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"accountId"`)
}

func TestRequireRoleBlocksOtherRoles(t *testing.T) {
	f := newGuardFixture(t)
	customer := f.tokenFor(t, account.RoleCustomer, "customer@example.com")

	rec := f.get("/admin-area", customer)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminAreaNeedsRoleAndGate(t *testing.T) {
	f := newGuardFixture(t)
	admin := f.tokenFor(t, account.RoleAdmin, "admin@example.com")
	ctx := context.Background()

	// Admin role alone is not enough while the gate is locked.
	rec := f.get("/admin-area", admin)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Unlocked but unverified is still not enough.
	require.NoError(t, f.gate.Unlock(ctx, "NOZIMA", "TOUT2000@"))
	rec = f.get("/admin-area", admin)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Role + unlocked + verified gate opens the area.
	require.NoError(t, f.gate.VerifyAnswer(ctx, "Chorsu"))
	rec = f.get("/admin-area", admin)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Passing the gate grants nothing to a non-admin.
	customer := f.tokenFor(t, account.RoleCustomer, "other@example.com")
	rec = f.get("/admin-area", customer)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
