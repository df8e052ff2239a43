package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/linkamarket/linka-api/internal/admingate"
	"github.com/linkamarket/linka-api/internal/cache"
	"github.com/linkamarket/linka-api/internal/config"
	"github.com/linkamarket/linka-api/internal/database"
	"github.com/linkamarket/linka-api/internal/modules/account"
	"github.com/linkamarket/linka-api/internal/notification"
	"github.com/linkamarket/linka-api/internal/notification/templates"
	"github.com/linkamarket/linka-api/internal/server"
	"github.com/linkamarket/linka-api/internal/session"
)

// Options for the CLI.
type Options struct {
	Port int `help:"Port to listen on" short:"p" default:"8080"`
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, options *Options) {
		logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
		cfg := config.Load()
		if cfg == nil {
			logger.Error("failed to load configuration")
			os.Exit(1)
		}
		logger.Info("configuration loaded successfully", "env", cfg.Server.Env, "demo", cfg.DemoMode())

		engine := templates.NewEngine(templates.Config{}, logger)

		// --- Storage selection ---
		// When the backing stores are unconfigured the service runs in demo
		// mode against seeded in-memory fixtures instead of refusing to start.
		var (
			accountRepo account.Repository
			sessions    session.Provider
			gateStore   admingate.Store
			emailSender notification.EmailSender
		)
		if cfg.DemoMode() {
			logger.Warn("running in demo mode: data is held in memory and lost on restart")
			repo, err := account.NewSeededMemoryRepository(demoSeeds())
			if err != nil {
				logger.Error("failed to seed demo accounts", "error", err)
				os.Exit(1)
			}
			accountRepo = repo
			sessions = session.NewMemoryProvider(session.Config{})
			gateStore = admingate.NewMemoryStore()
			emailSender = notification.NewLogEmailSender(logger)
		} else {
			dbPool := database.NewPostgresPool(cfg.Database.URL)
			if dbPool == nil {
				logger.Error("failed to connect to postgres")
				os.Exit(1)
			}
			hooks.OnStop(dbPool.Close)
			logger.Info("successfully connected to postgres database")

			redisClient := cache.NewRedisClient(cfg.Redis.URL)
			if redisClient == nil {
				logger.Error("failed to connect to redis")
				os.Exit(1)
			}
			hooks.OnStop(func() { redisClient.Close() })
			logger.Info("successfully connected to redis")

			accountRepo = account.NewRepository(dbPool)
			sessions = session.NewPostgresProvider(dbPool, session.Config{})
			gateStore = admingate.NewRedisStore(redisClient)
			emailSender = notification.NewSMTPEmailSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From, logger)
		}

		// --- Module initialization (bottom-up) ---
		notificationService := notification.NewService(logger, emailSender, notification.NewDummySMSSender(logger), engine)
		accountService := account.NewService(&account.Config{
			Repo:         accountRepo,
			Sessions:     sessions,
			Notification: notificationService,
			Logger:       logger,
			Config:       cfg,
		})
		gate := admingate.New(gateStore, cfg.AdminGate, logger, nil)

		router := server.New(cfg, logger, accountService, gate)
		hooks.OnStart(func() {
			logger.Info(fmt.Sprintf("Starting server on port %d...", options.Port))
			if err := http.ListenAndServe(fmt.Sprintf(":%d", options.Port), router); err != nil {
				slog.Error("Server failed to start", "error", err)
				os.Exit(1)
			}
		})
	})
	cli.Run()
}

// demoSeeds returns one explorable fixture account per marketplace role.
// These exist only in demo mode and only in memory.
func demoSeeds() []account.SeedAccount {
	return []account.SeedAccount{
		{ID: "00000000-0000-7000-8000-000000000001", Email: "customer@demo.linkamarket.local", Password: "demo-customer-pass", FullName: "Demo Customer", Role: account.RoleCustomer},
		{ID: "00000000-0000-7000-8000-000000000002", Email: "merchant@demo.linkamarket.local", Password: "demo-merchant-pass", FullName: "Demo Merchant", Role: account.RoleMerchant},
		{ID: "00000000-0000-7000-8000-000000000003", Email: "courier@demo.linkamarket.local", Password: "demo-courier-pass", FullName: "Demo Courier", Role: account.RoleCourier},
		{ID: "00000000-0000-7000-8000-000000000004", Email: "admin@demo.linkamarket.local", Password: "demo-admin-pass", FullName: "Demo Admin", Role: account.RoleAdmin},
	}
}
