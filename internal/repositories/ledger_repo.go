package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/vidora/monetization/internal/db"
	"github.com/vidora/monetization/internal/models"
)

// LedgerTx groups every balance-moving statement that must commit together.
// LockBalance must be called before any other method for the same creator.
type LedgerTx interface {
	// LockBalance creates the creator's balance row if missing, locks it for
	// the rest of the transaction and returns the current balance.
	LockBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
	// PostEntry applies entry.Amount to the locked balance and appends the entry.
	// BalanceBefore, BalanceAfter, ID and CreatedAt are filled in.
	PostEntry(ctx context.Context, entry *models.BalanceTransaction) error

	// ClaimRevenue marks every untransferred, payable impression on the
	// creator's videos as consumed by transferID and returns their revenue snapshots.
	ClaimRevenue(ctx context.Context, userID, transferID uuid.UUID) ([]decimal.Decimal, error)
	InsertTransfer(ctx context.Context, t *models.RevenueTransfer) error

	InsertWithdrawal(ctx context.Context, w *models.WithdrawalRequest) error
	LockWithdrawal(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error)
	UpdateWithdrawalStatus(ctx context.Context, w *models.WithdrawalRequest) error
}

type LedgerRepo struct {
	pool *pgxpool.Pool
}

func NewLedgerRepo(pool *pgxpool.Pool) *LedgerRepo {
	return &LedgerRepo{pool: pool}
}

func (r *LedgerRepo) InTx(ctx context.Context, fn func(tx LedgerTx) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&ledgerTx{tx: tx})
	})
}

type ledgerTx struct {
	tx pgx.Tx
}

func (t *ledgerTx) LockBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	if _, err := t.tx.Exec(ctx, `
		INSERT INTO creator_balances (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`, userID); err != nil {
		return decimal.Zero, err
	}

	var balance decimal.Decimal
	err := t.tx.QueryRow(ctx, `
		SELECT balance FROM creator_balances WHERE user_id = $1 FOR UPDATE
	`, userID).Scan(&balance)
	return balance, err
}

func (t *ledgerTx) PostEntry(ctx context.Context, e *models.BalanceTransaction) error {
	err := t.tx.QueryRow(ctx, `
		UPDATE creator_balances SET
			balance = balance + $2,
			last_revenue_transfer = CASE WHEN $3::text = 'revenue_transfer' THEN now() ELSE last_revenue_transfer END,
			updated_at = now()
		WHERE user_id = $1
		RETURNING balance - $2, balance
	`, e.UserID, e.Amount, e.Type).Scan(&e.BalanceBefore, &e.BalanceAfter)
	if err != nil {
		return notFound(err)
	}

	return t.tx.QueryRow(ctx, `
		INSERT INTO balance_transactions (user_id, amount, type, reference_id, balance_before, balance_after)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, e.UserID, e.Amount, e.Type, e.ReferenceID, e.BalanceBefore, e.BalanceAfter).Scan(&e.ID, &e.CreatedAt)
}

func (t *ledgerTx) ClaimRevenue(ctx context.Context, userID, transferID uuid.UUID) ([]decimal.Decimal, error) {
	rows, err := t.tx.Query(ctx, `
		UPDATE ad_impressions ai SET transferred = true, transfer_id = $2
		FROM videos v, ad_campaigns a
		WHERE ai.video_id = v.id
		  AND v.user_id = $1
		  AND a.id = ai.ad_id
		  AND a.revenue_per_view > 0
		  AND ai.transferred = false
		RETURNING ai.revenue_earned
	`, userID, transferID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var amounts []decimal.Decimal
	for rows.Next() {
		var a decimal.Decimal
		if err := rows.Scan(&a); err != nil {
			return nil, err
		}
		amounts = append(amounts, a)
	}
	return amounts, rows.Err()
}

func (t *ledgerTx) InsertTransfer(ctx context.Context, rt *models.RevenueTransfer) error {
	return t.tx.QueryRow(ctx, `
		INSERT INTO revenue_transfers (id, user_id, amount, impression_count)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, rt.ID, rt.UserID, rt.Amount, rt.ImpressionCount).Scan(&rt.CreatedAt)
}

// GetBalance returns the creator's balance, or a zero balance when none was created yet.
func (r *LedgerRepo) GetBalance(ctx context.Context, userID uuid.UUID) (*models.CreatorBalance, error) {
	b := models.CreatorBalance{UserID: userID}
	err := r.pool.QueryRow(ctx, `
		SELECT balance, last_revenue_transfer, updated_at
		FROM creator_balances WHERE user_id = $1
	`, userID).Scan(&b.Balance, &b.LastRevenueTransfer, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return &b, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *LedgerRepo) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.BalanceTransaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, amount, type, reference_id, balance_before, balance_after, created_at
		FROM balance_transactions WHERE user_id = $1
		ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3
	`, userID, clampLimit(limit), offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.BalanceTransaction
	for rows.Next() {
		var e models.BalanceTransaction
		if err := rows.Scan(&e.ID, &e.UserID, &e.Amount, &e.Type, &e.ReferenceID, &e.BalanceBefore, &e.BalanceAfter, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// FindDrift lists creators whose stored balance differs from the sum of their ledger entries.
func (r *LedgerRepo) FindDrift(ctx context.Context) ([]models.BalanceDrift, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT b.user_id, b.balance, COALESCE(SUM(t.amount), 0)
		FROM creator_balances b
		LEFT JOIN balance_transactions t ON t.user_id = b.user_id
		GROUP BY b.user_id, b.balance
		HAVING b.balance <> COALESCE(SUM(t.amount), 0)
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.BalanceDrift
	for rows.Next() {
		var d models.BalanceDrift
		if err := rows.Scan(&d.UserID, &d.Balance, &d.LedgerSum); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
