package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ad placement types
const (
	AdTypePreRoll  = "pre-roll"
	AdTypeMidRoll  = "mid-roll"
	AdTypePostRoll = "post-roll"
	AdTypeBanner   = "banner"
	AdTypeOverlay  = "overlay"
)

var AllAdTypes = []string{AdTypePreRoll, AdTypeMidRoll, AdTypePostRoll, AdTypeBanner, AdTypeOverlay}

func IsValidAdType(t string) bool {
	for _, at := range AllAdTypes {
		if at == t {
			return true
		}
	}
	return false
}

var (
	thousand = decimal.NewFromInt(1000)
	hundred  = decimal.NewFromInt(100)
)

type AdCampaign struct {
	ID                   uuid.UUID       `json:"id"`
	Title                string          `json:"title"`
	TargetURL            string          `json:"targetUrl"`
	CreativeURL          *string         `json:"creativeUrl,omitempty"`
	AdType               string          `json:"adType"`
	IsActive             bool            `json:"isActive"`
	StartDate            time.Time       `json:"startDate"`
	EndDate              time.Time       `json:"endDate"`
	Budget               decimal.Decimal `json:"budget"`
	Spent                decimal.Decimal `json:"spent"`
	Impressions          int64           `json:"impressions"`
	Clicks               int64           `json:"clicks"`
	CTR                  decimal.Decimal `json:"ctr"`
	CPM                  decimal.Decimal `json:"cpm"`
	RevenuePerView       decimal.Decimal `json:"revenuePerView"`
	TargetImpressions    int64           `json:"targetImpressions"`
	RemainingImpressions int64           `json:"remainingImpressions"`
	CompanyPercentage    decimal.Decimal `json:"companyPercentage"`
	LastShown            *time.Time      `json:"lastShown,omitempty"`
	CreatedBy            *uuid.UUID      `json:"createdBy,omitempty"`
	CreatedAt            time.Time       `json:"createdAt"`
	UpdatedAt            time.Time       `json:"updatedAt"`
}

// IsServable reports whether the campaign may serve an impression at now.
func (c *AdCampaign) IsServable(now time.Time) bool {
	return c.IsActive &&
		!now.Before(c.StartDate) &&
		!now.After(c.EndDate) &&
		c.RemainingImpressions > 0
}

// EarnsRevenue reports whether impressions of this ad are payable to creators.
func (c *AdCampaign) EarnsRevenue() bool {
	return c.RevenuePerView.IsPositive()
}

// RevenuePerView is the creator's share of a single impression:
// (cpm / 1000) * (100 - companyPercentage) / 100.
func RevenuePerView(cpm, companyPercentage decimal.Decimal) decimal.Decimal {
	return cpm.Div(thousand).Mul(hundred.Sub(companyPercentage)).Div(hundred)
}

// TargetImpressions is floor(budget / cpm * 1000), or 0 when cpm is not positive.
func TargetImpressions(budget, cpm decimal.Decimal) int64 {
	if !cpm.IsPositive() {
		return 0
	}
	return budget.Mul(thousand).Div(cpm).Floor().IntPart()
}

// CTR is clicks / impressions * 100, or 0 before the first impression.
func CTR(clicks, impressions int64) decimal.Decimal {
	if impressions <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(clicks).Div(decimal.NewFromInt(impressions)).Mul(hundred)
}

// CostPerImpression is the advertiser spend attributed to one impression.
func CostPerImpression(cpm decimal.Decimal) decimal.Decimal {
	return cpm.Div(thousand)
}
