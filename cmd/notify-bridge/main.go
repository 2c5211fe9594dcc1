package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/vidora/monetization/internal/config"
	"github.com/vidora/monetization/internal/db"
	"github.com/vidora/monetization/internal/events"
	"github.com/vidora/monetization/internal/notify"
	"go.uber.org/zap"
)

// notify-bridge subscribes to ledger events and forwards them to an
// external notification webhook.

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	if cfg.NotifyWebhookURL == "" {
		log.Fatal("NOTIFY_WEBHOOK_URL is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	forwarder := notify.NewWebhookForwarder(cfg.NotifyWebhookURL, log)
	subscriber := events.NewRedisSubscriber(rdb, log)

	if err := subscriber.Subscribe(ctx, events.StreamLedger, func(event events.Event) {
		forwarder.Forward(ctx, event)
	}); err != nil {
		log.Fatal("failed to subscribe", zap.String("stream", events.StreamLedger), zap.Error(err))
	}

	log.Info("notify-bridge started", zap.String("stream", events.StreamLedger))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down notify-bridge")
	cancel()
}
