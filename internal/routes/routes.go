package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/savanna-labs/savanna/internal/auth"
	"github.com/savanna-labs/savanna/internal/config"
	"github.com/savanna-labs/savanna/internal/identity"
	"github.com/savanna-labs/savanna/internal/ledger"
	"github.com/savanna-labs/savanna/internal/lending"
	"github.com/savanna-labs/savanna/internal/middleware"
	"github.com/savanna-labs/savanna/internal/notification"
	"github.com/savanna-labs/savanna/internal/staking"
	"github.com/savanna-labs/savanna/internal/supply"
	"github.com/savanna-labs/savanna/internal/transfer"
	"github.com/savanna-labs/savanna/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though config also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.Env)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.Env)
		}
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	// Health
	RegisterHealthRoutes(app, d)

	// Ledger backend
	var ledgerBackend ledger.Ledger
	if d.DB != nil {
		ledgerBackend = ledger.NewPostgresLedger(d.DB, nil)
	} else {
		ledgerBackend = ledger.NewInMemory(nil)
	}

	// Repositories
	var walletRepo wallet.Repository
	var identityRepo identity.Repository
	if d.DB != nil {
		walletRepo = wallet.NewPostgresRepository(d.DB)
		identityRepo = identity.NewPostgresRepository(d.DB)
	} else {
		walletRepo = wallet.NewMemoryRepository()
		identityRepo = identity.NewMemoryRepository()
	}

	// Services and handlers
	events := notification.NewLoggerSink(d.Logger)
	walletSvc := wallet.NewService(walletRepo, ledgerBackend)
	identitySvc := identity.NewService(identityRepo)
	authSvc := auth.NewService(d.Cfg, identityRepo)
	transferSvc := transfer.NewService(ledgerBackend, walletSvc, events)
	stakingSvc := staking.NewService(ledgerBackend, walletSvc, events)
	lendingSvc := lending.NewService(ledgerBackend, walletSvc, events)
	supplySvc := supply.NewService(ledgerBackend, walletSvc, events, d.Cfg.InitialSupply)

	authHandler := auth.NewHandler(identitySvc, authSvc, walletSvc)
	walletHandler := wallet.NewHandler(walletSvc)
	transferHandler := transfer.NewHandler(transferSvc)
	stakingHandler := staking.NewHandler(stakingSvc)
	lendingHandler := lending.NewHandler(lendingSvc)
	supplyHandler := supply.NewHandler(supplySvc, d.Cfg.MintToken)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public routes
	rateLimiter := middleware.LoginRateLimit(d.Cache, 5)
	RegisterAuthRoutes(api, authHandler, rateLimiter)
	RegisterSupplyInfoRoute(api, supplyHandler)

	// Protected routes
	jwtmw := middleware.JWTAuth(d.Cfg, identityRepo)
	protected := api.Group("", jwtmw, middleware.Audit(d.Logger))
	protected.Get("/me", func(c *fiber.Ctx) error {
		uid, _ := c.Locals("user_id").(string)
		if uid == "" {
			return c.SendStatus(http.StatusUnauthorized)
		}
		user, err := identityRepo.FindByID(c.UserContext(), uid)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "user not found")
		}
		w, err := walletSvc.GetByOwner(c.UserContext(), uid)
		if err != nil {
			return fiber.NewError(http.StatusNotFound, "wallet not found")
		}
		return c.JSON(fiber.Map{
			"user_id":    user.ID,
			"email":      user.Email,
			"wallet_id":  w.ID,
			"created_at": user.CreatedAt,
			"last_login": user.LastLogin,
		})
	})
	RegisterLogoutRoute(protected, authHandler)
	RegisterWalletRoutes(protected, walletHandler)
	RegisterTransferRoutes(protected, transferHandler)
	RegisterStakingRoutes(protected, stakingHandler)
	RegisterLendingRoutes(protected, lendingHandler)
	RegisterSupplyMintRoute(protected, supplyHandler)

	return nil
}
