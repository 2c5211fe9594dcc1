package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vidora/monetization/internal/models"
)

// VideoRepo reads the video catalog and comment tables.
type VideoRepo struct {
	pool *pgxpool.Pool
}

func NewVideoRepo(pool *pgxpool.Pool) *VideoRepo {
	return &VideoRepo{pool: pool}
}

func (r *VideoRepo) ListByOwner(ctx context.Context, userID uuid.UUID) ([]models.Video, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, title, views, likes, created_at
		FROM videos WHERE user_id = $1
		ORDER BY created_at DESC, id ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		var v models.Video
		if err := rows.Scan(&v.ID, &v.UserID, &v.Title, &v.Views, &v.Likes, &v.CreatedAt); err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

// CommentCounts returns comment totals per video. Videos without comments are absent.
func (r *VideoRepo) CommentCounts(ctx context.Context, videoIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(videoIDs))
	if len(videoIDs) == 0 {
		return counts, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT video_id, COUNT(*) FROM comments
		WHERE video_id = ANY($1)
		GROUP BY video_id
	`, videoIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var n int64
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}
