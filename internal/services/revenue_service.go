package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vidora/monetization/internal/events"
	"github.com/vidora/monetization/internal/metrics"
	"github.com/vidora/monetization/internal/models"
	"github.com/vidora/monetization/internal/repositories"
	"go.uber.org/zap"
)

type RevenueService struct {
	videos      VideoStore
	impressions ImpressionStore
	campaigns   CampaignStore
	ledger      LedgerStore
	auditRepo   Auditor
	publisher   events.Publisher
	log         *zap.Logger
}

func NewRevenueService(
	videos VideoStore,
	impressions ImpressionStore,
	campaigns CampaignStore,
	ledger LedgerStore,
	auditRepo Auditor,
	publisher events.Publisher,
	log *zap.Logger,
) *RevenueService {
	return &RevenueService{
		videos:      videos,
		impressions: impressions,
		campaigns:   campaigns,
		ledger:      ledger,
		auditRepo:   auditRepo,
		publisher:   publisher,
		log:         log,
	}
}

type VideoAnalytics struct {
	VideoID          uuid.UUID       `json:"videoId"`
	Title            string          `json:"title"`
	Views            int64           `json:"views"`
	Likes            int64           `json:"likes"`
	Comments         int64           `json:"comments"`
	EngagementRate   string          `json:"engagementRate"`
	AdImpressions    int             `json:"adImpressions"`
	TotalRevenue     decimal.Decimal `json:"totalRevenue"`
	AvailableRevenue decimal.Decimal `json:"availableRevenue"`
	CreatedAt        time.Time       `json:"createdAt"`

	engagement float64
}

type AnalyticsSummary struct {
	TotalVideos         int             `json:"totalVideos"`
	TotalViews          int64           `json:"totalViews"`
	TotalLikes          int64           `json:"totalLikes"`
	TotalComments       int64           `json:"totalComments"`
	TotalRevenue        decimal.Decimal `json:"totalRevenue"`
	AvailableRevenue    decimal.Decimal `json:"availableRevenue"`
	AverageViews        int64           `json:"averageViews"`
	MostViewed          *VideoAnalytics `json:"mostViewed"`
	HighestEngagement   *VideoAnalytics `json:"highestEngagement"`
	Balance             decimal.Decimal `json:"balance"`
	LastRevenueTransfer *time.Time      `json:"lastRevenueTransfer,omitempty"`
}

type Analytics struct {
	Videos  []VideoAnalytics `json:"videos"`
	Summary AnalyticsSummary `json:"summary"`
}

type TransferResult struct {
	TransferID        uuid.UUID       `json:"transferId"`
	TransferredAmount decimal.Decimal `json:"transferredAmount"`
	NewBalance        decimal.Decimal `json:"newBalance"`
	ImpressionCount   int             `json:"impressionCount"`
}

// Analytics computes per-video and total revenue for a creator. It only reads.
func (s *RevenueService) Analytics(ctx context.Context, userID uuid.UUID) (*Analytics, error) {
	videos, err := s.videos.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}

	balance, err := s.ledger.GetBalance(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load balance: %w", err)
	}

	out := &Analytics{
		Videos: make([]VideoAnalytics, 0, len(videos)),
		Summary: AnalyticsSummary{
			TotalRevenue:        decimal.Zero,
			AvailableRevenue:    decimal.Zero,
			Balance:             balance.Balance,
			LastRevenueTransfer: balance.LastRevenueTransfer,
		},
	}
	if len(videos) == 0 {
		return out, nil
	}

	ids := make([]uuid.UUID, len(videos))
	for i, v := range videos {
		ids[i] = v.ID
	}

	comments, err := s.videos.CommentCounts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("count comments: %w", err)
	}

	impressions, err := s.impressions.ListByVideos(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list impressions: %w", err)
	}

	ads, err := s.campaigns.GetByIDs(ctx, distinctAdIDs(impressions))
	if err != nil {
		return nil, fmt.Errorf("load ads: %w", err)
	}

	type tally struct {
		count            int
		total, available decimal.Decimal
	}
	perVideo := make(map[uuid.UUID]*tally, len(videos))
	for _, imp := range impressions {
		t := perVideo[imp.VideoID]
		if t == nil {
			t = &tally{}
			perVideo[imp.VideoID] = t
		}
		t.count++

		ad, ok := ads[imp.AdID]
		if !ok || !ad.EarnsRevenue() {
			continue
		}
		t.total = t.total.Add(imp.RevenueEarned)
		if !imp.Transferred {
			t.available = t.available.Add(imp.RevenueEarned)
		}
	}

	totalRevenue, totalAvailable := decimal.Zero, decimal.Zero
	for _, v := range videos {
		va := VideoAnalytics{
			VideoID:          v.ID,
			Title:            v.Title,
			Views:            v.Views,
			Likes:            v.Likes,
			Comments:         comments[v.ID],
			TotalRevenue:     decimal.Zero,
			AvailableRevenue: decimal.Zero,
			CreatedAt:        v.CreatedAt,
		}
		va.engagement, va.EngagementRate = engagementRate(v.Likes, v.Views)
		if t := perVideo[v.ID]; t != nil {
			va.AdImpressions = t.count
			va.TotalRevenue = t.total.Round(2)
			va.AvailableRevenue = t.available.Round(2)
			totalRevenue = totalRevenue.Add(t.total)
			totalAvailable = totalAvailable.Add(t.available)
		}

		out.Summary.TotalViews += v.Views
		out.Summary.TotalLikes += v.Likes
		out.Summary.TotalComments += va.Comments
		out.Videos = append(out.Videos, va)
	}

	out.Summary.TotalVideos = len(out.Videos)
	out.Summary.TotalRevenue = totalRevenue.Round(2)
	out.Summary.AvailableRevenue = totalAvailable.Round(2)
	out.Summary.AverageViews = decimal.NewFromInt(out.Summary.TotalViews).
		Div(decimal.NewFromInt(int64(len(out.Videos)))).Round(0).IntPart()

	byViews := sortedCopy(out.Videos, func(a, b *VideoAnalytics) bool { return a.Views > b.Views })
	out.Summary.MostViewed = &byViews[0]
	byEngagement := sortedCopy(out.Videos, func(a, b *VideoAnalytics) bool { return a.engagement > b.engagement })
	out.Summary.HighestEngagement = &byEngagement[0]

	return out, nil
}

// engagementRate returns likes/views*100 and its one-decimal rendering.
func engagementRate(likes, views int64) (float64, string) {
	if views <= 0 {
		return 0, "0.0"
	}
	rate := float64(likes) / float64(views) * 100
	return rate, fmt.Sprintf("%.1f", rate)
}

func sortedCopy(videos []VideoAnalytics, greater func(a, b *VideoAnalytics) bool) []VideoAnalytics {
	cp := make([]VideoAnalytics, len(videos))
	copy(cp, videos)
	sort.SliceStable(cp, func(i, j int) bool { return greater(&cp[i], &cp[j]) })
	return cp
}

func distinctAdIDs(impressions []models.AdImpression) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	ids := make([]uuid.UUID, 0)
	for _, imp := range impressions {
		if _, ok := seen[imp.AdID]; ok {
			continue
		}
		seen[imp.AdID] = struct{}{}
		ids = append(ids, imp.AdID)
	}
	return ids
}

// Transfer moves all available revenue into the creator's balance. Claiming
// the impressions and crediting the balance commit together.
func (s *RevenueService) Transfer(ctx context.Context, userID uuid.UUID) (*TransferResult, error) {
	transferID := uuid.New()
	result := &TransferResult{TransferID: transferID}

	err := s.ledger.InTx(ctx, func(tx repositories.LedgerTx) error {
		if _, err := tx.LockBalance(ctx, userID); err != nil {
			return err
		}

		amounts, err := tx.ClaimRevenue(ctx, userID, transferID)
		if err != nil {
			return err
		}
		total := decimal.Sum(decimal.Zero, amounts...)
		if !total.IsPositive() {
			return models.ErrNothingToTransfer
		}

		if err := tx.InsertTransfer(ctx, &models.RevenueTransfer{
			ID:              transferID,
			UserID:          userID,
			Amount:          total,
			ImpressionCount: len(amounts),
		}); err != nil {
			return err
		}

		entry := &models.BalanceTransaction{
			UserID:      userID,
			Amount:      total,
			Type:        models.TxRevenueTransfer,
			ReferenceID: &transferID,
		}
		if err := tx.PostEntry(ctx, entry); err != nil {
			return err
		}

		result.TransferredAmount = total
		result.NewBalance = entry.BalanceAfter
		result.ImpressionCount = len(amounts)
		return nil
	})
	if err != nil {
		if errors.Is(err, models.ErrNothingToTransfer) {
			metrics.TransferCount.WithLabelValues("nothing").Inc()
			return nil, err
		}
		metrics.TransferCount.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("transfer revenue: %w", err)
	}

	amount, _ := result.TransferredAmount.Float64()
	metrics.TransferCount.WithLabelValues("ok").Inc()
	metrics.RevenueTransferred.Add(amount)

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorUserID: &userID,
		ActorType:   models.ActorUser,
		Action:      "revenue_transferred",
		EntityType:  "revenue_transfer",
		EntityID:    &transferID,
		Meta: map[string]any{
			"amount":      result.TransferredAmount.String(),
			"impressions": result.ImpressionCount,
		},
	})
	_ = s.publisher.Publish(ctx, events.StreamLedger, events.ForUser(events.EventRevenueTransferred, userID, map[string]any{
		"transfer_id": transferID.String(),
		"amount":      result.TransferredAmount.String(),
		"new_balance": result.NewBalance.String(),
	}))

	s.log.Info("revenue transferred",
		zap.String("user_id", userID.String()),
		zap.String("amount", result.TransferredAmount.String()),
		zap.Int("impressions", result.ImpressionCount),
	)
	return result, nil
}

func (s *RevenueService) Balance(ctx context.Context, userID uuid.UUID) (*models.CreatorBalance, error) {
	return s.ledger.GetBalance(ctx, userID)
}

func (s *RevenueService) Transactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.BalanceTransaction, error) {
	return s.ledger.ListTransactions(ctx, userID, limit, offset)
}

// Reconcile compares every stored balance with its ledger and reports mismatches.
func (s *RevenueService) Reconcile(ctx context.Context) ([]models.BalanceDrift, error) {
	drift, err := s.ledger.FindDrift(ctx)
	if err != nil {
		return nil, fmt.Errorf("find balance drift: %w", err)
	}

	metrics.BalanceDrift.Set(float64(len(drift)))
	for _, d := range drift {
		s.log.Error("balance drift detected",
			zap.String("user_id", d.UserID.String()),
			zap.String("balance", d.Balance.String()),
			zap.String("ledger_sum", d.LedgerSum.String()),
		)
		userID := d.UserID
		_ = s.auditRepo.Log(ctx, models.AuditLog{
			ActorType:  models.ActorSystem,
			Action:     "balance_drift",
			EntityType: "creator_balance",
			EntityID:   &userID,
			Meta:       map[string]any{"balance": d.Balance.String(), "ledger_sum": d.LedgerSum.String()},
		})
		_ = s.publisher.Publish(ctx, events.StreamLedger, events.Event{
			Type:    events.EventBalanceDrift,
			Payload: map[string]any{"user_id": userID.String(), "balance": d.Balance.String(), "ledger_sum": d.LedgerSum.String()},
		})
	}
	return drift, nil
}
