package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vidora/monetization/internal/models"
)

type WithdrawRepo struct {
	pool *pgxpool.Pool
}

func NewWithdrawRepo(pool *pgxpool.Pool) *WithdrawRepo {
	return &WithdrawRepo{pool: pool}
}

const withdrawalColumns = `
	w.id, w.user_id, w.amount, w.method, w.account_details, w.status,
	w.requested_at, w.processed_at, w.processed_by, w.admin_notes, w.user_balance`

func scanWithdrawal(row pgx.Row, extra ...any) (*models.WithdrawalRequest, error) {
	var w models.WithdrawalRequest
	var details []byte
	dest := append([]any{&w.ID, &w.UserID, &w.Amount, &w.Method, &details, &w.Status,
		&w.RequestedAt, &w.ProcessedAt, &w.ProcessedBy, &w.AdminNotes, &w.UserBalance}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	w.AccountDetails = details
	return &w, nil
}

func (t *ledgerTx) InsertWithdrawal(ctx context.Context, w *models.WithdrawalRequest) error {
	return t.tx.QueryRow(ctx, `
		INSERT INTO withdrawal_requests (user_id, amount, method, account_details, status, user_balance)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, requested_at
	`, w.UserID, w.Amount, w.Method, []byte(w.AccountDetails), w.Status, w.UserBalance).Scan(&w.ID, &w.RequestedAt)
}

func (t *ledgerTx) LockWithdrawal(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error) {
	w, err := scanWithdrawal(t.tx.QueryRow(ctx, `
		SELECT `+withdrawalColumns+` FROM withdrawal_requests w WHERE w.id = $1 FOR UPDATE
	`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return w, nil
}

func (t *ledgerTx) UpdateWithdrawalStatus(ctx context.Context, w *models.WithdrawalRequest) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE withdrawal_requests SET status = $2, processed_at = $3, processed_by = $4, admin_notes = $5
		WHERE id = $1
	`, w.ID, w.Status, w.ProcessedAt, w.ProcessedBy, w.AdminNotes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *WithdrawRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error) {
	w, err := scanWithdrawal(r.pool.QueryRow(ctx, `
		SELECT `+withdrawalColumns+` FROM withdrawal_requests w WHERE w.id = $1
	`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return w, nil
}

func (r *WithdrawRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.WithdrawalRequest, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+withdrawalColumns+` FROM withdrawal_requests w
		WHERE w.user_id = $1
		ORDER BY w.requested_at DESC LIMIT $2 OFFSET $3
	`, userID, clampLimit(limit), offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.WithdrawalRequest
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *w)
	}
	return out, rows.Err()
}

type WithdrawFilter struct {
	Status *string
	Limit  int
	Offset int
}

// ListWithUsers is the admin view: requests joined with the requester and their current balance.
func (r *WithdrawRepo) ListWithUsers(ctx context.Context, f WithdrawFilter) ([]models.WithdrawalWithUser, error) {
	query := `
		SELECT ` + withdrawalColumns + `, u.username, u.email, COALESCE(b.balance, 0)
		FROM withdrawal_requests w
		LEFT JOIN users u ON u.id = w.user_id
		LEFT JOIN creator_balances b ON b.user_id = w.user_id
	`
	args := []any{}
	argIdx := 1
	if f.Status != nil {
		query += fmt.Sprintf(" WHERE w.status = $%d", argIdx)
		args = append(args, *f.Status)
		argIdx++
	}
	query += fmt.Sprintf(" ORDER BY w.requested_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, clampLimit(f.Limit), f.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.WithdrawalWithUser
	for rows.Next() {
		var item models.WithdrawalWithUser
		w, err := scanWithdrawal(rows, &item.Username, &item.Email, &item.CurrentBalance)
		if err != nil {
			return nil, err
		}
		item.WithdrawalRequest = *w
		out = append(out, item)
	}
	return out, rows.Err()
}
