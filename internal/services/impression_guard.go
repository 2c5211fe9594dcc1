package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/vidora/monetization/internal/metrics"
	"go.uber.org/zap"
)

// ImpressionKey identifies a viewing event for duplicate suppression.
type ImpressionKey struct {
	VideoID   uuid.UUID
	SessionID string
	AdID      uuid.UUID
	AdType    string
}

func (k ImpressionKey) String() string {
	return fmt.Sprintf("imp:dedupe:%s:%s:%s:%s", k.VideoID, k.SessionID, k.AdID, k.AdType)
}

// RecentImpressionChecker answers the dedupe question from durable storage.
type RecentImpressionChecker interface {
	HasRecentImpression(ctx context.Context, videoID uuid.UUID, sessionID string, adID uuid.UUID, adType string, since time.Time) (bool, error)
}

// ImpressionGuard suppresses repeated impressions for the same key inside a
// time window. Redis SET NX is authoritative; postgres answers when redis is down.
type ImpressionGuard struct {
	rdb      *redis.Client
	fallback RecentImpressionChecker
	window   time.Duration
	log      *zap.Logger
}

func NewImpressionGuard(rdb *redis.Client, fallback RecentImpressionChecker, window time.Duration, log *zap.Logger) *ImpressionGuard {
	return &ImpressionGuard{rdb: rdb, fallback: fallback, window: window, log: log}
}

// Claim reports whether the caller is the first to present key within the window.
func (g *ImpressionGuard) Claim(ctx context.Context, key ImpressionKey, at time.Time) (bool, error) {
	ok, err := g.rdb.SetNX(ctx, key.String(), at.UTC().Format(time.RFC3339Nano), g.window).Result()
	if err == nil {
		return ok, nil
	}

	metrics.DedupeFallbacks.Inc()
	g.log.Warn("dedupe redis unavailable, using postgres", zap.Error(err))

	seen, ferr := g.fallback.HasRecentImpression(ctx, key.VideoID, key.SessionID, key.AdID, key.AdType, at.Add(-g.window))
	if ferr != nil {
		return false, fmt.Errorf("dedupe fallback: %w", ferr)
	}
	return !seen, nil
}

// Release forgets key so that a retry after a failed write is not treated as a duplicate.
func (g *ImpressionGuard) Release(ctx context.Context, key ImpressionKey) {
	if err := g.rdb.Del(ctx, key.String()).Err(); err != nil {
		g.log.Debug("dedupe release failed", zap.String("key", key.String()), zap.Error(err))
	}
}
