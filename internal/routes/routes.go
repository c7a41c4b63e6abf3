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

	"github.com/bazaarpay/bazaar_wallet/internal/auth"
	"github.com/bazaarpay/bazaar_wallet/internal/config"
	"github.com/bazaarpay/bazaar_wallet/internal/identity"
	"github.com/bazaarpay/bazaar_wallet/internal/ledger"
	"github.com/bazaarpay/bazaar_wallet/internal/middleware"
	"github.com/bazaarpay/bazaar_wallet/internal/notification"
	"github.com/bazaarpay/bazaar_wallet/internal/requests"
	"github.com/bazaarpay/bazaar_wallet/internal/rewards"
	"github.com/bazaarpay/bazaar_wallet/internal/wallet"
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
	// Memory backends are a dev-only convenience.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
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
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	// Health
	RegisterHealthRoutes(app, d)

	// Backends
	var ledgerBackend ledger.Ledger
	var userRepo identity.Repository
	var rewardRepo rewards.Repository
	var requestRepo requests.Repository
	var feedStore notification.FeedStore

	if d.DB != nil {
		ledgerBackend = ledger.NewPostgresLedger(d.DB)
		userRepo = identity.NewPostgresRepository(d.DB)
		rewardRepo = rewards.NewPostgresRepository(d.DB)
		requestRepo = requests.NewPostgresRepository(d.DB)
	} else {
		ledgerBackend = ledger.NewInMemory()
		userRepo = identity.NewMemoryRepository()
		rewardRepo = rewards.NewMemoryRepository()
		requestRepo = requests.NewMemoryRepository()
	}
	if d.Cache != nil {
		feedStore = notification.NewRedisFeedStore(d.Cache)
	} else {
		feedStore = notification.NewMemoryFeedStore()
	}

	// Services and handlers
	notifier := notification.NewService(feedStore, d.Cfg.AdminFeedCap, d.Cfg.UserFeedCap, d.Logger)
	walletSvc := wallet.NewService(ledgerBackend, userRepo, notifier)
	rewardSvc := rewards.NewService(rewardRepo, ledgerBackend, userRepo, notifier)
	requestSvc := requests.NewService(requestRepo, walletSvc, userRepo, notifier)
	identitySvc := identity.NewService(userRepo)
	authSvc := auth.NewService(d.Cfg)

	authHandler := auth.NewHandler(identitySvc, authSvc)
	walletHandler := wallet.NewHandler(walletSvc)
	rewardHandler := rewards.NewHandler(rewardSvc)
	requestHandler := requests.NewHandler(requestSvc)
	notificationHandler := notification.NewHandler(notifier)

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

	// Customer surface: token subject must match the path user id.
	userGate := middleware.RequireUser(authSvc)
	RegisterWalletRoutes(api, walletHandler, rewardHandler, notificationHandler, userGate)
	RegisterRequestRoutes(api, requestHandler, userGate)

	// Admin console surface.
	adminGate := middleware.RequireAdmin(authSvc)
	admin := api.Group("/admin", adminGate)
	RegisterAdminRoutes(admin, walletHandler, rewardHandler, requestHandler, notificationHandler)

	return nil
}
