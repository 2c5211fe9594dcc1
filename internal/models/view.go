package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ViewRecord struct {
	ID         uuid.UUID `json:"id"`
	VideoID    uuid.UUID `json:"videoId"`
	SessionID  string    `json:"sessionId"`
	UserAgent  string    `json:"userAgent"`
	DeviceType string    `json:"deviceType"`
	CreatedAt  time.Time `json:"createdAt"`
}

type AdImpression struct {
	ID             uuid.UUID       `json:"id"`
	ViewRecordID   uuid.UUID       `json:"viewRecordId"`
	VideoID        uuid.UUID       `json:"videoId"`
	AdID           uuid.UUID       `json:"adId"`
	AdType         string          `json:"adType"`
	EventTime      time.Time       `json:"eventTime"`
	RevenueEarned  decimal.Decimal `json:"revenueEarned"`
	Transferred    bool            `json:"transferred"`
	TransferID     *uuid.UUID      `json:"transferId,omitempty"`
	IdempotencyKey *string         `json:"idempotencyKey,omitempty"`
	SessionID      string          `json:"sessionId"`
	CreatedAt      time.Time       `json:"createdAt"`
}
