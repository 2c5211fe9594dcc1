package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vidora/monetization/internal/models"
)

type PaymentMethodRepo struct {
	pool *pgxpool.Pool
}

func NewPaymentMethodRepo(pool *pgxpool.Pool) *PaymentMethodRepo {
	return &PaymentMethodRepo{pool: pool}
}

func (r *PaymentMethodRepo) Upsert(ctx context.Context, pm *models.PaymentMethod) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO user_payment_methods (user_id, method, details)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, method) DO UPDATE SET
			details = EXCLUDED.details,
			updated_at = now()
		RETURNING updated_at
	`, pm.UserID, pm.Method, []byte(pm.Details)).Scan(&pm.UpdatedAt)
}

func (r *PaymentMethodRepo) Get(ctx context.Context, userID uuid.UUID, method string) (*models.PaymentMethod, error) {
	pm := models.PaymentMethod{UserID: userID, Method: method}
	var details []byte
	err := r.pool.QueryRow(ctx, `
		SELECT details, updated_at FROM user_payment_methods
		WHERE user_id = $1 AND method = $2
	`, userID, method).Scan(&details, &pm.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	pm.Details = details
	return &pm, nil
}

func (r *PaymentMethodRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.PaymentMethod, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT method, details, updated_at FROM user_payment_methods
		WHERE user_id = $1 ORDER BY method
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.PaymentMethod
	for rows.Next() {
		pm := models.PaymentMethod{UserID: userID}
		var details []byte
		if err := rows.Scan(&pm.Method, &details, &pm.UpdatedAt); err != nil {
			return nil, err
		}
		pm.Details = details
		out = append(out, pm)
	}
	return out, rows.Err()
}
