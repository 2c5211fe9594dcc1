package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vidora/monetization/internal/models"
)

type CampaignRepo struct {
	pool *pgxpool.Pool
}

func NewCampaignRepo(pool *pgxpool.Pool) *CampaignRepo {
	return &CampaignRepo{pool: pool}
}

const campaignColumns = `
	id, title, target_url, creative_url, ad_type, is_active, start_date, end_date,
	budget, spent, impressions, clicks, ctr, cpm, revenue_per_view,
	target_impressions, remaining_impressions, company_percentage,
	last_shown, created_by, created_at, updated_at`

func scanCampaign(row pgx.Row) (*models.AdCampaign, error) {
	var c models.AdCampaign
	err := row.Scan(&c.ID, &c.Title, &c.TargetURL, &c.CreativeURL, &c.AdType, &c.IsActive, &c.StartDate, &c.EndDate,
		&c.Budget, &c.Spent, &c.Impressions, &c.Clicks, &c.CTR, &c.CPM, &c.RevenuePerView,
		&c.TargetImpressions, &c.RemainingImpressions, &c.CompanyPercentage,
		&c.LastShown, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func collectCampaigns(rows pgx.Rows) ([]models.AdCampaign, error) {
	defer rows.Close()
	var campaigns []models.AdCampaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, *c)
	}
	return campaigns, rows.Err()
}

func (r *CampaignRepo) Create(ctx context.Context, c *models.AdCampaign) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO ad_campaigns (
			title, target_url, creative_url, ad_type, is_active, start_date, end_date,
			budget, cpm, revenue_per_view, target_impressions, remaining_impressions,
			company_percentage, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, spent, impressions, clicks, ctr, created_at, updated_at
	`, c.Title, c.TargetURL, c.CreativeURL, c.AdType, c.IsActive, c.StartDate, c.EndDate,
		c.Budget, c.CPM, c.RevenuePerView, c.TargetImpressions, c.RemainingImpressions,
		c.CompanyPercentage, c.CreatedBy,
	).Scan(&c.ID, &c.Spent, &c.Impressions, &c.Clicks, &c.CTR, &c.CreatedAt, &c.UpdatedAt)
}

func (r *CampaignRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.AdCampaign, error) {
	c, err := scanCampaign(r.pool.QueryRow(ctx, `SELECT `+campaignColumns+` FROM ad_campaigns WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

// GetByIDs returns the campaigns that exist among ids, keyed by id.
func (r *CampaignRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.AdCampaign, error) {
	out := make(map[uuid.UUID]models.AdCampaign, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT `+campaignColumns+` FROM ad_campaigns WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	campaigns, err := collectCampaigns(rows)
	if err != nil {
		return nil, err
	}
	for _, c := range campaigns {
		out[c.ID] = c
	}
	return out, nil
}

// ListActive returns servable campaigns at now, oldest first. An empty adType matches every type.
func (r *CampaignRepo) ListActive(ctx context.Context, adType string, now time.Time) ([]models.AdCampaign, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+campaignColumns+`
		FROM ad_campaigns
		WHERE is_active = true
		  AND start_date <= $1 AND end_date >= $1
		  AND remaining_impressions > 0
		  AND ($2::text = '' OR ad_type = $2::text)
		ORDER BY created_at ASC, id ASC
	`, now, adType)
	if err != nil {
		return nil, err
	}
	return collectCampaigns(rows)
}

type CampaignFilter struct {
	AdType   *string
	IsActive *bool
	Limit    int
	Offset   int
}

func (r *CampaignRepo) List(ctx context.Context, f CampaignFilter) ([]models.AdCampaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM ad_campaigns`
	args := []any{}
	argIdx := 1
	where := []string{}

	if f.AdType != nil {
		where = append(where, fmt.Sprintf("ad_type = $%d", argIdx))
		args = append(args, *f.AdType)
		argIdx++
	}
	if f.IsActive != nil {
		where = append(where, fmt.Sprintf("is_active = $%d", argIdx))
		args = append(args, *f.IsActive)
		argIdx++
	}

	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, clampLimit(f.Limit), f.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectCampaigns(rows)
}

// RecordClick bumps the click counter and recomputes ctr in one statement.
func (r *CampaignRepo) RecordClick(ctx context.Context, id uuid.UUID) (*models.AdCampaign, error) {
	c, err := scanCampaign(r.pool.QueryRow(ctx, `
		UPDATE ad_campaigns SET
			clicks = clicks + 1,
			ctr = CASE WHEN impressions > 0 THEN (clicks + 1)::numeric / impressions * 100 ELSE 0 END,
			updated_at = now()
		WHERE id = $1
		RETURNING `+campaignColumns, id))
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

func (r *CampaignRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) (*models.AdCampaign, error) {
	c, err := scanCampaign(r.pool.QueryRow(ctx, `
		UPDATE ad_campaigns SET is_active = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+campaignColumns, id, active))
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

// DeactivateFinished switches off active campaigns that ended before now or ran out of inventory.
func (r *CampaignRepo) DeactivateFinished(ctx context.Context, now time.Time) ([]models.AdCampaign, error) {
	rows, err := r.pool.Query(ctx, `
		UPDATE ad_campaigns SET is_active = false, updated_at = now()
		WHERE is_active = true AND (end_date < $1 OR remaining_impressions = 0)
		RETURNING `+campaignColumns, now)
	if err != nil {
		return nil, err
	}
	return collectCampaigns(rows)
}
