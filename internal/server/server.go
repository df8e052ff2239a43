package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/linkamarket/linka-api/internal/admingate"
	"github.com/linkamarket/linka-api/internal/config"
	"github.com/linkamarket/linka-api/internal/middleware"
	"github.com/linkamarket/linka-api/internal/modules/account"
)

// New creates and configures the HTTP router: chi for the outer middleware
// stack, Huma for the typed API surface.
func New(cfg *config.Config, log *slog.Logger, accountService account.Service, gate *admingate.Gate) chi.Router {
	router := chi.NewMux()
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(chimw.Logger)
	router.Use(chimw.Recoverer)
	router.Use(chimw.Timeout(60 * time.Second))

	apiConfig := huma.DefaultConfig("LinkaMarket API", "1.0.0")
	apiConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
	}
	api := humachi.New(router, apiConfig)

	auth := middleware.Authenticator(cfg.JWTSecret, log)
	adminOnly := middleware.RequireRole(log, account.RoleAdmin)
	gateGuard := middleware.AdminGateGuard(gate, log)

	accountHandler := account.NewHandler(accountService, log)
	accountHandler.RegisterRoutes(api, auth)

	// The gate's own lifecycle endpoints sit behind auth + admin role but NOT
	// behind the gate guard, otherwise a locked-out admin could never unlock.
	gateHandler := admingate.NewHandler(gate, log)
	gateHandler.RegisterRoutes(api, huma.Middlewares{auth, adminOnly})

	registerAdminRoutes(api, cfg, huma.Middlewares{auth, adminOnly, gateGuard})

	huma.Register(api, huma.Operation{
		OperationID: "get-health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health Check",
		Description: "Responds with the server's health status.",
	}, func(ctx context.Context, input *struct{}) (*struct {
		Body struct {
			Status string `json:"status"`
			Demo   bool   `json:"demo"`
		}
	}, error) {
		resp := &struct {
			Body struct {
				Status string `json:"status"`
				Demo   bool   `json:"demo"`
			}
		}{}
		resp.Body.Status = "ok"
		resp.Body.Demo = cfg.DemoMode()
		return resp, nil
	})

	return router
}

// AdminOverviewResponse is the admin landing payload. It exists mostly so the
// admin area has a content route distinct from the gate lifecycle.
type AdminOverviewResponse struct {
	Body struct {
		Environment string `json:"environment"`
		Demo        bool   `json:"demo"`
	}
}

// registerAdminRoutes mounts the admin content area. Every route here
// requires the full guard chain: valid token, admin role, unlocked gate.
func registerAdminRoutes(api huma.API, cfg *config.Config, guards huma.Middlewares) {
	huma.Register(api, huma.Operation{
		OperationID: "admin-overview",
		Method:      http.MethodGet,
		Path:        "/admin/overview",
		Summary:     "Admin area overview",
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: guards,
	}, func(ctx context.Context, input *struct{}) (*AdminOverviewResponse, error) {
		resp := &AdminOverviewResponse{}
		resp.Body.Environment = cfg.Server.Env
		resp.Body.Demo = cfg.DemoMode()
		return resp, nil
	})
}
