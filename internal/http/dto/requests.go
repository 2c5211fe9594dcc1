package dto

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type RecordImpressionRequest struct {
	VideoID      string     `json:"videoId"`
	AdID         string     `json:"adId"`
	AdType       string     `json:"adType"`
	Timestamp    *time.Time `json:"timestamp,omitempty"`
	ImpressionID string     `json:"impressionId,omitempty"`
	SessionID    string     `json:"sessionId,omitempty"`
}

type CreateCampaignRequest struct {
	Title             string           `json:"title"`
	AdType            string           `json:"adType"`
	TargetURL         string           `json:"targetUrl"`
	CreativeURL       *string          `json:"creativeUrl,omitempty"`
	Budget            decimal.Decimal  `json:"budget"`
	CPM               decimal.Decimal  `json:"cpm"`
	CompanyPercentage *decimal.Decimal `json:"companyPercentage,omitempty"`
	RevenuePerView    *decimal.Decimal `json:"revenuePerView,omitempty"`
	StartDate         *time.Time       `json:"startDate,omitempty"`
	EndDate           *time.Time       `json:"endDate,omitempty"`
}

type CreateWithdrawalRequest struct {
	Amount         decimal.Decimal `json:"amount"`
	Method         string          `json:"method"`
	AccountDetails json.RawMessage `json:"accountDetails,omitempty"`
}

type ProcessWithdrawalRequest struct {
	Status     string  `json:"status"`
	AdminNotes *string `json:"adminNotes,omitempty"`
}

type SavePaymentMethodRequest struct {
	Details json.RawMessage `json:"details"`
}
