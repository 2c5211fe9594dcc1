package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vidora/monetization/internal/config"
	"github.com/vidora/monetization/internal/events"
	"github.com/vidora/monetization/internal/metrics"
	"github.com/vidora/monetization/internal/models"
	"github.com/vidora/monetization/internal/repositories"
	"go.uber.org/zap"
)

type CampaignService struct {
	campaigns CampaignStore
	auditRepo Auditor
	previewer LandingPreviewer
	publisher events.Publisher
	cfg       *config.Config
	log       *zap.Logger
	now       func() time.Time
}

// NewCampaignService builds the ad catalog. previewer may be nil.
func NewCampaignService(
	campaigns CampaignStore,
	auditRepo Auditor,
	previewer LandingPreviewer,
	publisher events.Publisher,
	cfg *config.Config,
	log *zap.Logger,
) *CampaignService {
	return &CampaignService{
		campaigns: campaigns,
		auditRepo: auditRepo,
		previewer: previewer,
		publisher: publisher,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
}

type CreateCampaignInput struct {
	Title             string
	AdType            string
	TargetURL         string
	CreativeURL       *string
	Budget            decimal.Decimal
	CPM               decimal.Decimal
	CompanyPercentage *decimal.Decimal
	RevenuePerView    *decimal.Decimal
	StartDate         *time.Time
	EndDate           *time.Time
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", models.ErrInvalidInput, fmt.Sprintf(format, args...))
}

func (s *CampaignService) Create(ctx context.Context, adminID uuid.UUID, in CreateCampaignInput) (*models.AdCampaign, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.TargetURL = strings.TrimSpace(in.TargetURL)

	if in.Title == "" {
		return nil, invalidInput("title is required")
	}
	if !models.IsValidAdType(in.AdType) {
		return nil, invalidInput("adType must be one of %s", strings.Join(models.AllAdTypes, ", "))
	}
	if u, err := url.Parse(in.TargetURL); err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, invalidInput("targetUrl must be an absolute http(s) url")
	}
	if in.Budget.IsNegative() || in.CPM.IsNegative() {
		return nil, invalidInput("budget and cpm must not be negative")
	}

	pct := s.cfg.DefaultCompanyPercentage
	if in.CompanyPercentage != nil {
		pct = *in.CompanyPercentage
	}
	if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
		return nil, invalidInput("companyPercentage must be between 0 and 100")
	}

	rpv := models.RevenuePerView(in.CPM, pct)
	if in.RevenuePerView != nil {
		if in.RevenuePerView.IsNegative() {
			return nil, invalidInput("revenuePerView must not be negative")
		}
		rpv = *in.RevenuePerView
	}

	start := s.now()
	if in.StartDate != nil {
		start = *in.StartDate
	}
	end := start.Add(s.cfg.CampaignDefaultDuration)
	if in.EndDate != nil {
		end = *in.EndDate
	}
	if end.Before(start) {
		return nil, invalidInput("endDate must not be before startDate")
	}

	target := models.TargetImpressions(in.Budget, in.CPM)
	c := &models.AdCampaign{
		Title:                in.Title,
		TargetURL:            in.TargetURL,
		CreativeURL:          in.CreativeURL,
		AdType:               in.AdType,
		IsActive:             true,
		StartDate:            start,
		EndDate:              end,
		Budget:               in.Budget,
		CPM:                  in.CPM,
		RevenuePerView:       rpv,
		TargetImpressions:    target,
		RemainingImpressions: target,
		CompanyPercentage:    pct,
		CreatedBy:            &adminID,
	}

	if c.CreativeURL == nil {
		c.CreativeURL = s.previewImage(ctx, c.TargetURL)
	}

	if err := s.campaigns.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create campaign: %w", err)
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorUserID: &adminID,
		ActorType:   models.ActorAdmin,
		Action:      "campaign_created",
		EntityType:  "ad_campaign",
		EntityID:    &c.ID,
		Meta: map[string]any{
			"cpm":                c.CPM.String(),
			"budget":             c.Budget.String(),
			"revenue_per_view":   c.RevenuePerView.String(),
			"target_impressions": c.TargetImpressions,
		},
	})

	s.log.Info("campaign created",
		zap.String("campaign_id", c.ID.String()),
		zap.String("ad_type", c.AdType),
		zap.Int64("target_impressions", c.TargetImpressions),
	)
	return c, nil
}

// previewImage uses the landing page's og:image as the creative reference. Failures only log.
func (s *CampaignService) previewImage(ctx context.Context, targetURL string) *string {
	if s.previewer == nil || !s.cfg.LandingPreviewEnabled {
		return nil
	}
	p, err := s.previewer.Fetch(ctx, targetURL)
	if err != nil {
		s.log.Warn("landing preview failed", zap.String("url", targetURL), zap.Error(err))
		return nil
	}
	if p.ImageURL == "" {
		return nil
	}
	return &p.ImageURL
}

// GetActive lists campaigns that can serve right now. adType may be empty.
func (s *CampaignService) GetActive(ctx context.Context, adType string) ([]models.AdCampaign, error) {
	if adType != "" && !models.IsValidAdType(adType) {
		return nil, invalidInput("unknown ad type %q", adType)
	}
	return s.campaigns.ListActive(ctx, adType, s.now())
}

// RecordClick counts a click. A missing ad is reported as not counted rather than an error.
func (s *CampaignService) RecordClick(ctx context.Context, adID uuid.UUID) (*models.AdCampaign, bool, error) {
	c, err := s.campaigns.RecordClick(ctx, adID)
	if errors.Is(err, models.ErrNotFound) {
		metrics.ClickCount.WithLabelValues("false").Inc()
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("record click: %w", err)
	}
	metrics.ClickCount.WithLabelValues("true").Inc()
	return c, true, nil
}

func (s *CampaignService) Get(ctx context.Context, id uuid.UUID) (*models.AdCampaign, error) {
	return s.campaigns.GetByID(ctx, id)
}

func (s *CampaignService) List(ctx context.Context, f repositories.CampaignFilter) ([]models.AdCampaign, error) {
	if f.AdType != nil && !models.IsValidAdType(*f.AdType) {
		return nil, invalidInput("unknown ad type %q", *f.AdType)
	}
	return s.campaigns.List(ctx, f)
}

// Toggle flips a campaign's isActive flag.
func (s *CampaignService) Toggle(ctx context.Context, adminID, id uuid.UUID) (*models.AdCampaign, error) {
	existing, err := s.campaigns.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	c, err := s.campaigns.SetActive(ctx, id, !existing.IsActive)
	if err != nil {
		return nil, err
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorUserID: &adminID,
		ActorType:   models.ActorAdmin,
		Action:      "campaign_toggled",
		EntityType:  "ad_campaign",
		EntityID:    &c.ID,
		Meta:        map[string]any{"is_active": c.IsActive},
	})
	return c, nil
}

// ExpireFinished deactivates campaigns past their end date or out of inventory.
func (s *CampaignService) ExpireFinished(ctx context.Context) (int, error) {
	expired, err := s.campaigns.DeactivateFinished(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("deactivate finished campaigns: %w", err)
	}

	for i := range expired {
		c := &expired[i]
		reason := "ended"
		if c.RemainingImpressions <= 0 {
			reason = "inventory_exhausted"
		}

		_ = s.auditRepo.Log(ctx, models.AuditLog{
			ActorType:  models.ActorSystem,
			Action:     "campaign_deactivated",
			EntityType: "ad_campaign",
			EntityID:   &c.ID,
			Meta:       map[string]any{"reason": reason},
		})
		_ = s.publisher.Publish(ctx, events.StreamLedger, events.Event{
			Type: events.EventCampaignExhausted,
			Payload: map[string]any{
				"campaign_id": c.ID.String(),
				"title":       c.Title,
				"reason":      reason,
			},
		})
	}

	metrics.CampaignsExpired.Add(float64(len(expired)))
	return len(expired), nil
}
