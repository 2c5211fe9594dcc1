package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/vidora/monetization/internal/config"
	"github.com/vidora/monetization/internal/db"
	"github.com/vidora/monetization/internal/events"
	apphttp "github.com/vidora/monetization/internal/http"
	"github.com/vidora/monetization/internal/http/handlers"
	"github.com/vidora/monetization/internal/landing"
	"github.com/vidora/monetization/internal/repositories"
	"github.com/vidora/monetization/internal/services"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	// money is rendered as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	// Run migrations
	if err := db.RunMigrations(ctx, pool, cfg.MigrationsDir, log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repositories
	userRepo := repositories.NewUserRepo(pool)
	videoRepo := repositories.NewVideoRepo(pool)
	viewRepo := repositories.NewViewRepo(pool)
	campaignRepo := repositories.NewCampaignRepo(pool)
	ledgerRepo := repositories.NewLedgerRepo(pool)
	withdrawRepo := repositories.NewWithdrawRepo(pool)
	paymentMethodRepo := repositories.NewPaymentMethodRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)

	// Events
	publisher := events.NewRedisPublisher(rdb, log)
	subscriber := events.NewRedisSubscriber(rdb, log)

	// Services
	previewer := landing.NewFetcher(cfg.LandingFetchTimeoutMS, cfg.LandingFetchMaxRetries, log)
	guard := services.NewImpressionGuard(rdb, viewRepo, cfg.ImpressionDedupeWindow, log)
	campaignService := services.NewCampaignService(campaignRepo, auditRepo, previewer, publisher, cfg, log)
	impressionService := services.NewImpressionService(campaignRepo, viewRepo, guard, log)
	revenueService := services.NewRevenueService(videoRepo, viewRepo, campaignRepo, ledgerRepo, auditRepo, publisher, log)
	withdrawService := services.NewWithdrawService(ledgerRepo, withdrawRepo, paymentMethodRepo, auditRepo, publisher, cfg, log)

	// Handlers
	adHandler := handlers.NewAdHandler(campaignService, impressionService, log)
	campaignHandler := handlers.NewCampaignHandler(campaignService, log)
	revenueHandler := handlers.NewRevenueHandler(revenueService, log)
	withdrawHandler := handlers.NewWithdrawHandler(withdrawService, log)
	userHandler := handlers.NewUserHandler(userRepo, log)
	auditHandler := handlers.NewAuditHandler(auditRepo, log)
	wsHub := handlers.NewWSHub(cfg, subscriber, log)

	// Start WS hub
	if err := wsHub.Start(ctx); err != nil {
		log.Error("ws hub subscription failed, realtime events disabled", zap.Error(err))
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"success": false, "message": err.Error()})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb,
		adHandler, campaignHandler, revenueHandler, withdrawHandler, userHandler, auditHandler, wsHub)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
