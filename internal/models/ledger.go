package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Balance transaction types
const (
	TxRevenueTransfer  = "revenue_transfer"
	TxWithdrawalHold   = "withdrawal_hold"
	TxWithdrawalRefund = "withdrawal_refund"
)

type CreatorBalance struct {
	UserID              uuid.UUID       `json:"userId"`
	Balance             decimal.Decimal `json:"balance"`
	LastRevenueTransfer *time.Time      `json:"lastRevenueTransfer,omitempty"`
	UpdatedAt           time.Time       `json:"updatedAt"`
}

// BalanceTransaction is an append-only ledger entry. Amount is signed.
type BalanceTransaction struct {
	ID            uuid.UUID       `json:"id"`
	UserID        uuid.UUID       `json:"userId"`
	Amount        decimal.Decimal `json:"amount"`
	Type          string          `json:"type"`
	ReferenceID   *uuid.UUID      `json:"referenceId,omitempty"`
	BalanceBefore decimal.Decimal `json:"balanceBefore"`
	BalanceAfter  decimal.Decimal `json:"balanceAfter"`
	CreatedAt     time.Time       `json:"createdAt"`
}

type RevenueTransfer struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"userId"`
	Amount          decimal.Decimal `json:"amount"`
	ImpressionCount int             `json:"impressionCount"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// BalanceDrift is a creator whose stored balance disagrees with the ledger sum.
type BalanceDrift struct {
	UserID    uuid.UUID       `json:"userId"`
	Balance   decimal.Decimal `json:"balance"`
	LedgerSum decimal.Decimal `json:"ledgerSum"`
}
