package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vidora/monetization/internal/config"
	"github.com/vidora/monetization/internal/events"
	"github.com/vidora/monetization/internal/metrics"
	"github.com/vidora/monetization/internal/models"
	"github.com/vidora/monetization/internal/payout"
	"github.com/vidora/monetization/internal/repositories"
	"go.uber.org/zap"
)

type WithdrawService struct {
	ledger    LedgerStore
	withdraws WithdrawStore
	methods   PaymentMethodStore
	auditRepo Auditor
	publisher events.Publisher
	cfg       *config.Config
	log       *zap.Logger
	now       func() time.Time
}

func NewWithdrawService(
	ledger LedgerStore,
	withdraws WithdrawStore,
	methods PaymentMethodStore,
	auditRepo Auditor,
	publisher events.Publisher,
	cfg *config.Config,
	log *zap.Logger,
) *WithdrawService {
	return &WithdrawService{
		ledger:    ledger,
		withdraws: withdraws,
		methods:   methods,
		auditRepo: auditRepo,
		publisher: publisher,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
}

type CreateWithdrawalInput struct {
	Amount         decimal.Decimal
	Method         string
	AccountDetails json.RawMessage
}

// Create escrows amount from the creator's balance and files a pending request.
func (s *WithdrawService) Create(ctx context.Context, userID uuid.UUID, in CreateWithdrawalInput) (*models.WithdrawalRequest, error) {
	in.Method = strings.ToLower(strings.TrimSpace(in.Method))
	if !in.Amount.IsPositive() {
		return nil, invalidInput("amount must be positive")
	}
	if in.Amount.LessThan(s.cfg.MinWithdrawalAmount) {
		return nil, invalidInput("amount is below the minimum withdrawal of %s", s.cfg.MinWithdrawalAmount)
	}
	if !models.IsValidPayoutMethod(in.Method) {
		return nil, invalidInput("method must be one of paypal, bank, crypto")
	}

	details, err := s.resolveDetails(ctx, userID, in.Method, in.AccountDetails)
	if err != nil {
		return nil, err
	}

	w := &models.WithdrawalRequest{
		UserID:         userID,
		Amount:         in.Amount,
		Method:         in.Method,
		AccountDetails: details,
		Status:         models.WithdrawStatusPending,
	}

	err = s.ledger.InTx(ctx, func(tx repositories.LedgerTx) error {
		balance, err := tx.LockBalance(ctx, userID)
		if err != nil {
			return err
		}
		if in.Amount.GreaterThan(balance) {
			return models.ErrInsufficientBalance
		}

		w.UserBalance = balance
		if err := tx.InsertWithdrawal(ctx, w); err != nil {
			return err
		}

		return tx.PostEntry(ctx, &models.BalanceTransaction{
			UserID:      userID,
			Amount:      in.Amount.Neg(),
			Type:        models.TxWithdrawalHold,
			ReferenceID: &w.ID,
		})
	})
	if err != nil {
		if errors.Is(err, models.ErrInsufficientBalance) {
			return nil, err
		}
		return nil, fmt.Errorf("create withdrawal: %w", err)
	}

	metrics.WithdrawalCount.WithLabelValues(models.WithdrawStatusPending).Inc()

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorUserID: &userID,
		ActorType:   models.ActorUser,
		Action:      "withdrawal_requested",
		EntityType:  "withdrawal_request",
		EntityID:    &w.ID,
		Meta:        map[string]any{"amount": w.Amount.String(), "method": w.Method},
	})
	_ = s.publisher.Publish(ctx, events.StreamLedger, events.ForUser(events.EventWithdrawalRequested, userID, map[string]any{
		"withdrawal_id": w.ID.String(),
		"amount":        w.Amount.String(),
		"method":        w.Method,
	}))

	s.log.Info("withdrawal requested",
		zap.String("user_id", userID.String()),
		zap.String("withdrawal_id", w.ID.String()),
		zap.String("amount", w.Amount.String()),
	)
	return w, nil
}

// resolveDetails validates the supplied details or falls back to the saved default for method.
func (s *WithdrawService) resolveDetails(ctx context.Context, userID uuid.UUID, method string, raw json.RawMessage) (json.RawMessage, error) {
	if !payout.IsEmpty(raw) {
		return payout.Validate(method, raw)
	}

	saved, err := s.methods.Get(ctx, userID, method)
	if errors.Is(err, models.ErrNotFound) {
		return nil, invalidInput("account details are required for %s", method)
	}
	if err != nil {
		return nil, fmt.Errorf("load saved payment method: %w", err)
	}
	return payout.Validate(method, saved.Details)
}

type ProcessWithdrawalInput struct {
	Status     string
	AdminNotes *string
}

// Process moves a request through its state machine. Rejection refunds the
// escrowed amount in the same transaction.
func (s *WithdrawService) Process(ctx context.Context, adminID, id uuid.UUID, in ProcessWithdrawalInput) (*models.WithdrawalRequest, error) {
	in.Status = strings.ToLower(strings.TrimSpace(in.Status))
	if in.Status == models.WithdrawStatusPending || !models.IsValidWithdrawStatus(in.Status) {
		return nil, invalidInput("status must be approved, rejected or completed")
	}

	var w *models.WithdrawalRequest
	var oldStatus string
	err := s.ledger.InTx(ctx, func(tx repositories.LedgerTx) error {
		var err error
		w, err = tx.LockWithdrawal(ctx, id)
		if err != nil {
			return err
		}
		if !models.IsValidTransition(w.Status, in.Status) {
			return fmt.Errorf("%w: %s to %s", models.ErrInvalidTransition, w.Status, in.Status)
		}

		if in.Status == models.WithdrawStatusRejected {
			if _, err := tx.LockBalance(ctx, w.UserID); err != nil {
				return err
			}
			if err := tx.PostEntry(ctx, &models.BalanceTransaction{
				UserID:      w.UserID,
				Amount:      w.Amount,
				Type:        models.TxWithdrawalRefund,
				ReferenceID: &w.ID,
			}); err != nil {
				return err
			}
		}

		now := s.now()
		oldStatus = w.Status
		w.Status = in.Status
		w.ProcessedAt = &now
		w.ProcessedBy = &adminID
		if in.AdminNotes != nil {
			w.AdminNotes = in.AdminNotes
		}
		return tx.UpdateWithdrawalStatus(ctx, w)
	})
	if err != nil {
		if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrInvalidTransition) {
			return nil, err
		}
		return nil, fmt.Errorf("process withdrawal: %w", err)
	}

	metrics.WithdrawalCount.WithLabelValues(w.Status).Inc()

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorUserID: &adminID,
		ActorType:   models.ActorAdmin,
		Action:      fmt.Sprintf("withdrawal_status_%s_to_%s", oldStatus, w.Status),
		EntityType:  "withdrawal_request",
		EntityID:    &w.ID,
		Meta:        map[string]any{"old_status": oldStatus, "new_status": w.Status, "amount": w.Amount.String()},
	})
	_ = s.publisher.Publish(ctx, events.StreamLedger, events.ForUser(events.EventWithdrawalStatusChanged, w.UserID, map[string]any{
		"withdrawal_id": w.ID.String(),
		"old_status":    oldStatus,
		"new_status":    w.Status,
	}))

	s.log.Info("withdrawal processed",
		zap.String("withdrawal_id", w.ID.String()),
		zap.String("admin_id", adminID.String()),
		zap.String("status", w.Status),
	)
	return w, nil
}

// ListForAdmin returns requests enriched with requester details and decoded account details.
func (s *WithdrawService) ListForAdmin(ctx context.Context, f repositories.WithdrawFilter) ([]models.WithdrawalWithUser, error) {
	if f.Status != nil && !models.IsValidWithdrawStatus(*f.Status) {
		return nil, invalidInput("unknown status %q", *f.Status)
	}

	items, err := s.withdraws.ListWithUsers(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list withdrawals: %w", err)
	}

	for i := range items {
		item := &items[i]
		item.Details = payout.Decode(item.AccountDetails)
		if item.Details != nil {
			continue
		}
		saved, err := s.methods.Get(ctx, item.UserID, item.Method)
		if err != nil {
			if !errors.Is(err, models.ErrNotFound) {
				s.log.Warn("saved payment method lookup failed", zap.String("user_id", item.UserID.String()), zap.Error(err))
			}
			continue
		}
		item.Details = payout.Decode(saved.Details)
	}
	return items, nil
}

func (s *WithdrawService) ListMine(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.WithdrawalRequest, error) {
	return s.withdraws.ListByUser(ctx, userID, limit, offset)
}

// GetMine returns one of the caller's own requests.
func (s *WithdrawService) GetMine(ctx context.Context, userID, id uuid.UUID) (*models.WithdrawalRequest, error) {
	w, err := s.withdraws.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if w.UserID != userID {
		return nil, models.ErrForbidden
	}
	return w, nil
}

// SavePaymentMethod validates and stores the creator's default details for method.
func (s *WithdrawService) SavePaymentMethod(ctx context.Context, userID uuid.UUID, method string, raw json.RawMessage) (*models.PaymentMethod, error) {
	method = strings.ToLower(strings.TrimSpace(method))
	if !models.IsValidPayoutMethod(method) {
		return nil, invalidInput("method must be one of paypal, bank, crypto")
	}
	details, err := payout.Validate(method, raw)
	if err != nil {
		return nil, err
	}

	pm := &models.PaymentMethod{UserID: userID, Method: method, Details: details}
	if err := s.methods.Upsert(ctx, pm); err != nil {
		return nil, fmt.Errorf("save payment method: %w", err)
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorUserID: &userID,
		ActorType:   models.ActorUser,
		Action:      "payment_method_saved",
		EntityType:  "payment_method",
		EntityID:    &userID,
		Meta:        map[string]any{"method": method},
	})
	return pm, nil
}

func (s *WithdrawService) ListPaymentMethods(ctx context.Context, userID uuid.UUID) ([]models.PaymentMethod, error) {
	return s.methods.ListByUser(ctx, userID)
}
