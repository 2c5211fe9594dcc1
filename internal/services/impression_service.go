package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avct/uasurfer"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vidora/monetization/internal/metrics"
	"github.com/vidora/monetization/internal/models"
	"github.com/vidora/monetization/internal/repositories"
	"go.uber.org/zap"
)

const DuplicateImpressionMessage = "Duplicate impression - not counted"

type ImpressionService struct {
	campaigns   CampaignStore
	impressions ImpressionStore
	guard       *ImpressionGuard
	log         *zap.Logger
	now         func() time.Time
}

func NewImpressionService(
	campaigns CampaignStore,
	impressions ImpressionStore,
	guard *ImpressionGuard,
	log *zap.Logger,
) *ImpressionService {
	return &ImpressionService{
		campaigns:   campaigns,
		impressions: impressions,
		guard:       guard,
		log:         log,
		now:         time.Now,
	}
}

type RecordImpressionInput struct {
	VideoID      uuid.UUID
	AdID         uuid.UUID
	AdType       string
	Timestamp    *time.Time
	ImpressionID string
	SessionID    string
	UserAgent    string
}

type ImpressionResult struct {
	Counted       bool
	RevenueEarned decimal.Decimal
	AdTitle       string
	Message       string
}

// SessionFingerprint derives a stable session id for clients that send none.
func SessionFingerprint(ip, userAgent string) string {
	sum := sha256.Sum256([]byte(ip + "|" + userAgent))
	return "fp-" + hex.EncodeToString(sum[:12])
}

// DeviceType classifies a user agent as desktop, mobile, tablet or other.
func DeviceType(userAgent string) string {
	switch uasurfer.Parse(userAgent).DeviceType {
	case uasurfer.DeviceComputer:
		return "desktop"
	case uasurfer.DevicePhone:
		return "mobile"
	case uasurfer.DeviceTablet:
		return "tablet"
	default:
		return "other"
	}
}

// Record counts one ad impression during playback of a video.
func (s *ImpressionService) Record(ctx context.Context, in RecordImpressionInput) (*ImpressionResult, error) {
	if in.VideoID == uuid.Nil || in.AdID == uuid.Nil {
		return nil, invalidInput("videoId and adId are required")
	}
	if !models.IsValidAdType(in.AdType) {
		return nil, invalidInput("unknown ad type %q", in.AdType)
	}
	in.SessionID = strings.TrimSpace(in.SessionID)
	if in.SessionID == "" {
		return nil, invalidInput("session id is required")
	}

	ad, err := s.campaigns.GetByID(ctx, in.AdID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			metrics.ImpressionCount.WithLabelValues(in.AdType, "not_found").Inc()
		}
		return nil, fmt.Errorf("load ad: %w", err)
	}

	if in.ImpressionID != "" {
		exists, err := s.impressions.ImpressionExists(ctx, in.ImpressionID)
		if err != nil {
			return nil, fmt.Errorf("check impression id: %w", err)
		}
		if exists {
			return s.duplicate(ad, in.AdType), nil
		}
	}

	eventTime := s.now()
	if in.Timestamp != nil && !in.Timestamp.IsZero() {
		eventTime = *in.Timestamp
	}

	key := ImpressionKey{VideoID: in.VideoID, SessionID: in.SessionID, AdID: in.AdID, AdType: in.AdType}
	fresh, err := s.guard.Claim(ctx, key, s.now())
	if err != nil {
		return nil, err
	}
	if !fresh {
		return s.duplicate(ad, in.AdType), nil
	}

	var idemKey *string
	if in.ImpressionID != "" {
		idemKey = &in.ImpressionID
	}

	imp := &models.AdImpression{
		VideoID:        in.VideoID,
		AdID:           ad.ID,
		AdType:         in.AdType,
		EventTime:      eventTime,
		RevenueEarned:  ad.RevenuePerView,
		IdempotencyKey: idemKey,
		SessionID:      in.SessionID,
		CreatedAt:      s.now(),
	}

	err = s.impressions.InTx(ctx, func(tx repositories.ImpressionTx) error {
		ok, err := tx.ConsumeInventory(ctx, ad.ID)
		if err != nil {
			return err
		}
		if !ok {
			return models.ErrInventoryExhausted
		}

		view := &models.ViewRecord{
			VideoID:    in.VideoID,
			SessionID:  in.SessionID,
			UserAgent:  in.UserAgent,
			DeviceType: DeviceType(in.UserAgent),
		}
		if err := tx.InsertViewRecord(ctx, view); err != nil {
			return err
		}

		imp.ViewRecordID = view.ID
		return tx.InsertImpression(ctx, imp)
	})
	if err != nil {
		s.guard.Release(ctx, key)
		switch {
		case errors.Is(err, models.ErrDuplicateImpression):
			return s.duplicate(ad, in.AdType), nil
		case errors.Is(err, models.ErrInventoryExhausted):
			metrics.ImpressionCount.WithLabelValues(in.AdType, "exhausted").Inc()
			return nil, fmt.Errorf("ad %s: %w", ad.ID, err)
		default:
			metrics.ImpressionCount.WithLabelValues(in.AdType, "error").Inc()
			return nil, fmt.Errorf("record impression: %w", err)
		}
	}

	metrics.ImpressionCount.WithLabelValues(in.AdType, "counted").Inc()
	s.log.Debug("impression recorded",
		zap.String("ad_id", ad.ID.String()),
		zap.String("video_id", in.VideoID.String()),
		zap.String("revenue", imp.RevenueEarned.String()),
	)

	return &ImpressionResult{
		Counted:       true,
		RevenueEarned: imp.RevenueEarned,
		AdTitle:       ad.Title,
	}, nil
}

func (s *ImpressionService) duplicate(ad *models.AdCampaign, adType string) *ImpressionResult {
	metrics.ImpressionCount.WithLabelValues(adType, "duplicate").Inc()
	return &ImpressionResult{
		Counted:       false,
		RevenueEarned: decimal.Zero,
		AdTitle:       ad.Title,
		Message:       DuplicateImpressionMessage,
	}
}
