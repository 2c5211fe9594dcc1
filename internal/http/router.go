package http

import (
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/vidora/monetization/internal/config"
	"github.com/vidora/monetization/internal/http/handlers"
	"github.com/vidora/monetization/internal/middleware"
	"github.com/vidora/monetization/internal/rbac"
	"go.uber.org/zap"
)

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	adHandler *handlers.AdHandler,
	campaignHandler *handlers.CampaignHandler,
	revenueHandler *handlers.RevenueHandler,
	withdrawHandler *handlers.WithdrawHandler,
	userHandler *handlers.UserHandler,
	auditHandler *handlers.AuditHandler,
	wsHub *handlers.WSHub,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))
	app.Use(middleware.MetricsMiddleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api/v1")
	api.Use(middleware.RateLimitMiddleware(rdb, cfg.RateLimitPerMinute, time.Minute))

	// Player (public)
	api.Get("/ads/active", adHandler.ActiveAds)
	api.Post("/ads/impressions", adHandler.RecordImpression)
	api.Post("/ads/:id/click", adHandler.RecordClick)

	protected := api.Group("", middleware.AuthMiddleware(cfg, log))

	// Creator
	protected.Get("/me", userHandler.GetMe)
	protected.Get("/me/analytics", middleware.RequirePermission(rbac.PermViewAnalytics), revenueHandler.Analytics)
	protected.Get("/me/balance", revenueHandler.Balance)
	protected.Get("/me/balance/transactions", revenueHandler.Transactions)
	protected.Post("/me/revenue/transfer", middleware.RequirePermission(rbac.PermTransferRevenue), revenueHandler.Transfer)

	protected.Post("/me/withdrawals", middleware.RequirePermission(rbac.PermRequestWithdrawal), withdrawHandler.CreateWithdrawal)
	protected.Get("/me/withdrawals", withdrawHandler.ListMine)
	protected.Get("/me/withdrawals/:id", withdrawHandler.GetMine)
	protected.Get("/me/payment-methods", withdrawHandler.ListPaymentMethods)
	protected.Put("/me/payment-methods/:method", middleware.RequirePermission(rbac.PermRequestWithdrawal), withdrawHandler.SavePaymentMethod)

	// Admin
	campaigns := protected.Group("/admin/campaigns", middleware.RequirePermission(rbac.PermManageCampaigns))
	campaigns.Post("", campaignHandler.CreateCampaign)
	campaigns.Get("", campaignHandler.ListCampaigns)
	campaigns.Get("/:id", campaignHandler.GetCampaign)
	campaigns.Post("/:id/toggle", campaignHandler.ToggleCampaign)

	withdrawals := protected.Group("/admin/withdrawals", middleware.RequirePermission(rbac.PermProcessWithdrawal))
	withdrawals.Get("", withdrawHandler.AdminList)
	withdrawals.Put("/:id", withdrawHandler.AdminProcess)

	protected.Get("/admin/audit/:entityType/:id", middleware.RequirePermission(rbac.PermViewAudit), auditHandler.History)

	// WebSocket
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws", websocket.New(wsHub.HandleWS))
}
