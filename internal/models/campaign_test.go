package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestRevenuePerView(t *testing.T) {
	tests := []struct {
		cpm, pct, want string
	}{
		{"1000", "30", "0.7"},
		{"500", "30", "0.35"},
		{"2", "0", "0.002"},
		{"10", "100", "0"},
		{"0", "30", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.cpm+"@"+tt.pct, func(t *testing.T) {
			got := RevenuePerView(d(tt.cpm), d(tt.pct))
			if !got.Equal(d(tt.want)) {
				t.Errorf("RevenuePerView(%s, %s) = %s, want %s", tt.cpm, tt.pct, got, tt.want)
			}
		})
	}
}

func TestTargetImpressions(t *testing.T) {
	tests := []struct {
		budget, cpm string
		want        int64
	}{
		{"8", "1000", 8},
		{"10", "3", 3333},
		{"100", "0", 0},
		{"100", "-5", 0},
		{"0", "5", 0},
		{"0.999", "1000", 0},
	}
	for _, tt := range tests {
		t.Run(tt.budget+"/"+tt.cpm, func(t *testing.T) {
			if got := TargetImpressions(d(tt.budget), d(tt.cpm)); got != tt.want {
				t.Errorf("TargetImpressions(%s, %s) = %d, want %d", tt.budget, tt.cpm, got, tt.want)
			}
		})
	}
}

func TestCTR(t *testing.T) {
	if got := CTR(5, 0); !got.IsZero() {
		t.Errorf("CTR with no impressions = %s, want 0", got)
	}
	if got := CTR(1, 4); !got.Equal(d("25")) {
		t.Errorf("CTR(1, 4) = %s, want 25", got)
	}
}

func TestIsServable(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	base := AdCampaign{
		IsActive:             true,
		StartDate:            now.Add(-time.Hour),
		EndDate:              now.Add(time.Hour),
		RemainingImpressions: 1,
	}

	tests := []struct {
		name   string
		mutate func(c *AdCampaign)
		want   bool
	}{
		{"servable", func(c *AdCampaign) {}, true},
		{"inactive", func(c *AdCampaign) { c.IsActive = false }, false},
		{"not started", func(c *AdCampaign) { c.StartDate = now.Add(time.Minute) }, false},
		{"ended", func(c *AdCampaign) { c.EndDate = now.Add(-time.Minute) }, false},
		{"exhausted", func(c *AdCampaign) { c.RemainingImpressions = 0 }, false},
		{"starts now", func(c *AdCampaign) { c.StartDate = now }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			if got := c.IsServable(now); got != tt.want {
				t.Errorf("IsServable = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsValidAdType(t *testing.T) {
	for _, at := range AllAdTypes {
		if !IsValidAdType(at) {
			t.Errorf("ad type %q should be valid", at)
		}
	}
	if IsValidAdType("interstitial") {
		t.Error("interstitial should not be valid")
	}
}
