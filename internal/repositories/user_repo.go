package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vidora/monetization/internal/models"
)

// UserRepo reads accounts owned by the auth service.
type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	err := r.pool.QueryRow(ctx, `
		SELECT id, username, email, role FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.Username, &u.Email, &u.Role)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}
