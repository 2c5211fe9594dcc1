package events

import (
	"context"

	"github.com/google/uuid"
)

// StreamLedger carries every money-moving event of the monetization core.
const StreamLedger = "events:ledger"

// Event types
const (
	EventRevenueTransferred      = "revenue_transferred"
	EventWithdrawalRequested     = "withdrawal_requested"
	EventWithdrawalStatusChanged = "withdrawal_status_changed"
	EventCampaignExhausted       = "campaign_exhausted"
	EventBalanceDrift            = "balance_drift"
)

type Event struct {
	Type    string         `json:"type"`
	UserID  *uuid.UUID     `json:"userId,omitempty"`
	Payload map[string]any `json:"payload"`
}

// ForUser builds an event addressed to a single creator.
func ForUser(eventType string, userID uuid.UUID, payload map[string]any) Event {
	return Event{Type: eventType, UserID: &userID, Payload: payload}
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, Event) error { return nil }
