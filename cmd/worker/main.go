package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vidora/monetization/internal/config"
	"github.com/vidora/monetization/internal/db"
	"github.com/vidora/monetization/internal/events"
	"github.com/vidora/monetization/internal/repositories"
	"github.com/vidora/monetization/internal/services"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repos
	campaignRepo := repositories.NewCampaignRepo(pool)
	ledgerRepo := repositories.NewLedgerRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)

	// Services
	publisher := events.NewRedisPublisher(rdb, log)
	campaignService := services.NewCampaignService(campaignRepo, auditRepo, nil, publisher, cfg, log)
	revenueService := services.NewRevenueService(nil, nil, campaignRepo, ledgerRepo, auditRepo, publisher, log)

	log.Info("worker started",
		zap.Duration("expiry_interval", cfg.ExpiryInterval),
		zap.Duration("reconcile_interval", cfg.ReconcileInterval),
	)

	// Run jobs on tickers
	expiryTicker := time.NewTicker(cfg.ExpiryInterval)
	reconcileTicker := time.NewTicker(cfg.ReconcileInterval)
	defer expiryTicker.Stop()
	defer reconcileTicker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-expiryTicker.C:
			runCampaignExpiry(ctx, campaignService, log)
		case <-reconcileTicker.C:
			runReconciliation(ctx, revenueService, log)
		case <-sigCh:
			log.Info("shutting down worker")
			cancel()
			return
		case <-ctx.Done():
			return
		}
	}
}

func runCampaignExpiry(ctx context.Context, campaignService *services.CampaignService, log *zap.Logger) {
	n, err := campaignService.ExpireFinished(ctx)
	if err != nil {
		log.Error("campaign expiry failed", zap.Error(err))
		return
	}
	if n > 0 {
		log.Info("campaigns deactivated", zap.Int("count", n))
	}
}

func runReconciliation(ctx context.Context, revenueService *services.RevenueService, log *zap.Logger) {
	drift, err := revenueService.Reconcile(ctx)
	if err != nil {
		log.Error("ledger reconciliation failed", zap.Error(err))
		return
	}
	log.Info("ledger reconciled", zap.Int("drifted_balances", len(drift)))
}
