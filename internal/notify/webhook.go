package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/vidora/monetization/internal/events"
	"go.uber.org/zap"
)

// WebhookForwarder posts ledger events to an external notification service.
type WebhookForwarder struct {
	url    string
	client *http.Client
	log    *zap.Logger
}

func NewWebhookForwarder(url string, log *zap.Logger) *WebhookForwarder {
	return &WebhookForwarder{
		url:    url,
		client: &http.Client{Timeout: 5 * time.Second},
		log:    log,
	}
}

type notification struct {
	Type    string         `json:"type"`
	UserID  string         `json:"userId,omitempty"`
	Text    string         `json:"text"`
	Payload map[string]any `json:"payload"`
}

// Forward delivers event once. Failures are logged and dropped.
func (f *WebhookForwarder) Forward(ctx context.Context, event events.Event) {
	if err := f.send(ctx, event); err != nil {
		f.log.Warn("failed to forward notification", zap.String("type", event.Type), zap.Error(err))
	}
}

func (f *WebhookForwarder) send(ctx context.Context, event events.Event) error {
	n := notification{Type: event.Type, Text: Text(event), Payload: event.Payload}
	if event.UserID != nil {
		n.UserID = event.UserID.String()
	}

	body, err := json.Marshal(n)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
	return nil
}

// Text renders a short human readable line for event.
func Text(event events.Event) string {
	p := event.Payload
	switch event.Type {
	case events.EventRevenueTransferred:
		return fmt.Sprintf("%v moved to your balance (new balance %v)", p["amount"], p["new_balance"])
	case events.EventWithdrawalRequested:
		return fmt.Sprintf("Withdrawal of %v via %v requested", p["amount"], p["method"])
	case events.EventWithdrawalStatusChanged:
		return fmt.Sprintf("Withdrawal %v is now %v", p["withdrawal_id"], p["new_status"])
	case events.EventCampaignExhausted:
		return fmt.Sprintf("Campaign %q deactivated: %v", p["title"], p["reason"])
	case events.EventBalanceDrift:
		return fmt.Sprintf("Balance drift for %v: balance %v, ledger %v", p["user_id"], p["balance"], p["ledger_sum"])
	default:
		return fmt.Sprintf("Event: %s", event.Type)
	}
}
