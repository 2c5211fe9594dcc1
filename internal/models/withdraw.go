package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Withdrawal statuses
const (
	WithdrawStatusPending   = "pending"
	WithdrawStatusApproved  = "approved"
	WithdrawStatusRejected  = "rejected"
	WithdrawStatusCompleted = "completed"
)

// Payout methods
const (
	PayoutMethodPayPal = "paypal"
	PayoutMethodBank   = "bank"
	PayoutMethodCrypto = "crypto"
)

func IsValidPayoutMethod(m string) bool {
	return m == PayoutMethodPayPal || m == PayoutMethodBank || m == PayoutMethodCrypto
}

func IsValidWithdrawStatus(s string) bool {
	_, ok := ValidWithdrawTransitions[s]
	return ok
}

// Valid state transitions: from -> []to
var ValidWithdrawTransitions = map[string][]string{
	WithdrawStatusPending:   {WithdrawStatusApproved, WithdrawStatusRejected},
	WithdrawStatusApproved:  {WithdrawStatusCompleted},
	WithdrawStatusRejected:  {},
	WithdrawStatusCompleted: {},
}

func IsValidTransition(from, to string) bool {
	allowed, ok := ValidWithdrawTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

type WithdrawalRequest struct {
	ID             uuid.UUID       `json:"id"`
	UserID         uuid.UUID       `json:"userId"`
	Amount         decimal.Decimal `json:"amount"`
	Method         string          `json:"method"`
	AccountDetails json.RawMessage `json:"accountDetails,omitempty"`
	Status         string          `json:"status"`
	RequestedAt    time.Time       `json:"requestedAt"`
	ProcessedAt    *time.Time      `json:"processedAt,omitempty"`
	ProcessedBy    *uuid.UUID      `json:"processedBy,omitempty"`
	AdminNotes     *string         `json:"adminNotes,omitempty"`
	UserBalance    decimal.Decimal `json:"userBalance"`
}

// WithdrawalWithUser embeds WithdrawalRequest and adds requester info for the admin listing.
type WithdrawalWithUser struct {
	WithdrawalRequest
	Username       *string         `json:"username,omitempty"`
	Email          *string         `json:"email,omitempty"`
	CurrentBalance decimal.Decimal `json:"currentBalance"`
	Details        map[string]any  `json:"details,omitempty"`
}
