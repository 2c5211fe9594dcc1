package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vidora/monetization/internal/db"
	"github.com/vidora/monetization/internal/models"
)

// ImpressionTx is the write side of impression recording, bound to one transaction.
type ImpressionTx interface {
	// ConsumeInventory takes one impression from the ad's remaining inventory.
	// It reports false when nothing was left.
	ConsumeInventory(ctx context.Context, adID uuid.UUID) (bool, error)
	InsertViewRecord(ctx context.Context, v *models.ViewRecord) error
	// InsertImpression returns models.ErrDuplicateImpression when the idempotency key was already used.
	InsertImpression(ctx context.Context, imp *models.AdImpression) error
}

type ViewRepo struct {
	pool *pgxpool.Pool
}

func NewViewRepo(pool *pgxpool.Pool) *ViewRepo {
	return &ViewRepo{pool: pool}
}

func (r *ViewRepo) InTx(ctx context.Context, fn func(tx ImpressionTx) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&impressionTx{tx: tx})
	})
}

type impressionTx struct {
	tx pgx.Tx
}

func (t *impressionTx) ConsumeInventory(ctx context.Context, adID uuid.UUID) (bool, error) {
	tag, err := t.tx.Exec(ctx, `
		UPDATE ad_campaigns SET
			impressions = impressions + 1,
			remaining_impressions = remaining_impressions - 1,
			spent = spent + cpm / 1000,
			last_shown = now(),
			updated_at = now()
		WHERE id = $1 AND remaining_impressions > 0
	`, adID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (t *impressionTx) InsertViewRecord(ctx context.Context, v *models.ViewRecord) error {
	return t.tx.QueryRow(ctx, `
		INSERT INTO view_records (video_id, session_id, user_agent, device_type)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, v.VideoID, v.SessionID, v.UserAgent, v.DeviceType).Scan(&v.ID, &v.CreatedAt)
}

func (t *impressionTx) InsertImpression(ctx context.Context, imp *models.AdImpression) error {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO ad_impressions (
			view_record_id, video_id, ad_id, ad_type, event_time,
			revenue_earned, idempotency_key, session_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, COALESCE($9, now()))
		ON CONFLICT (idempotency_key) DO NOTHING
		RETURNING id, transferred, created_at
	`, imp.ViewRecordID, imp.VideoID, imp.AdID, imp.AdType, imp.EventTime,
		imp.RevenueEarned, imp.IdempotencyKey, imp.SessionID, nullTime(imp.CreatedAt),
	).Scan(&imp.ID, &imp.Transferred, &imp.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) || isUniqueViolation(err) {
		return models.ErrDuplicateImpression
	}
	return err
}

// ImpressionExists reports whether an impression with the idempotency key was already stored.
func (r *ViewRepo) ImpressionExists(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM ad_impressions WHERE idempotency_key = $1)`, key).Scan(&exists)
	return exists, err
}

// HasRecentImpression is the postgres fallback for the redis dedupe window.
// It compares recording time, never the client supplied event_time.
func (r *ViewRepo) HasRecentImpression(ctx context.Context, videoID uuid.UUID, sessionID string, adID uuid.UUID, adType string, since time.Time) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM ad_impressions
			WHERE video_id = $1 AND session_id = $2 AND ad_id = $3 AND ad_type = $4
			  AND created_at >= $5
		)
	`, videoID, sessionID, adID, adType, since).Scan(&exists)
	return exists, err
}

// ListByVideos loads every impression attributed to videoIDs in one query.
func (r *ViewRepo) ListByVideos(ctx context.Context, videoIDs []uuid.UUID) ([]models.AdImpression, error) {
	if len(videoIDs) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, view_record_id, video_id, ad_id, ad_type, event_time,
		       revenue_earned, transferred, transfer_id, idempotency_key, session_id, created_at
		FROM ad_impressions
		WHERE video_id = ANY($1)
		ORDER BY event_time ASC, id ASC
	`, videoIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.AdImpression
	for rows.Next() {
		var i models.AdImpression
		if err := rows.Scan(&i.ID, &i.ViewRecordID, &i.VideoID, &i.AdID, &i.AdType, &i.EventTime,
			&i.RevenueEarned, &i.Transferred, &i.TransferID, &i.IdempotencyKey, &i.SessionID, &i.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
