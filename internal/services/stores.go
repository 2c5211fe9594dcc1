package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vidora/monetization/internal/landing"
	"github.com/vidora/monetization/internal/models"
	"github.com/vidora/monetization/internal/repositories"
)

// Storage contracts consumed by the services. The postgres repositories
// satisfy them; tests substitute in-memory versions.

type Auditor interface {
	Log(ctx context.Context, entry models.AuditLog) error
}

type CampaignStore interface {
	Create(ctx context.Context, c *models.AdCampaign) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.AdCampaign, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.AdCampaign, error)
	ListActive(ctx context.Context, adType string, now time.Time) ([]models.AdCampaign, error)
	List(ctx context.Context, f repositories.CampaignFilter) ([]models.AdCampaign, error)
	RecordClick(ctx context.Context, id uuid.UUID) (*models.AdCampaign, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*models.AdCampaign, error)
	DeactivateFinished(ctx context.Context, now time.Time) ([]models.AdCampaign, error)
}

type ImpressionStore interface {
	InTx(ctx context.Context, fn func(tx repositories.ImpressionTx) error) error
	ImpressionExists(ctx context.Context, key string) (bool, error)
	HasRecentImpression(ctx context.Context, videoID uuid.UUID, sessionID string, adID uuid.UUID, adType string, since time.Time) (bool, error)
	ListByVideos(ctx context.Context, videoIDs []uuid.UUID) ([]models.AdImpression, error)
}

type VideoStore interface {
	ListByOwner(ctx context.Context, userID uuid.UUID) ([]models.Video, error)
	CommentCounts(ctx context.Context, videoIDs []uuid.UUID) (map[uuid.UUID]int64, error)
}

type LedgerStore interface {
	InTx(ctx context.Context, fn func(tx repositories.LedgerTx) error) error
	GetBalance(ctx context.Context, userID uuid.UUID) (*models.CreatorBalance, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.BalanceTransaction, error)
	FindDrift(ctx context.Context) ([]models.BalanceDrift, error)
}

type WithdrawStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.WithdrawalRequest, error)
	ListWithUsers(ctx context.Context, f repositories.WithdrawFilter) ([]models.WithdrawalWithUser, error)
}

type PaymentMethodStore interface {
	Upsert(ctx context.Context, pm *models.PaymentMethod) error
	Get(ctx context.Context, userID uuid.UUID, method string) (*models.PaymentMethod, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.PaymentMethod, error)
}

type LandingPreviewer interface {
	Fetch(ctx context.Context, pageURL string) (*landing.Preview, error)
}
