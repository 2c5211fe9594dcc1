package dto

import (
	"github.com/shopspring/decimal"
	"github.com/vidora/monetization/internal/models"
)

type ErrorResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

type ImpressionResponse struct {
	Success       bool            `json:"success"`
	RevenueEarned decimal.Decimal `json:"revenueEarned"`
	AdTitle       string          `json:"adTitle"`
	Message       string          `json:"message,omitempty"`
}

type ClickResponse struct {
	Success   bool   `json:"success"`
	Counted   bool   `json:"counted"`
	TargetURL string `json:"targetUrl,omitempty"`
}

type TransferResponse struct {
	Success           bool            `json:"success"`
	TransferredAmount decimal.Decimal `json:"transferredAmount"`
	NewBalance        decimal.Decimal `json:"newBalance"`
	Message           string          `json:"message"`
}

type WithdrawalResponse struct {
	Success         bool                      `json:"success"`
	WithdrawRequest *models.WithdrawalRequest `json:"withdrawRequest"`
	Message         string                    `json:"message"`
}

type ListResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
}
