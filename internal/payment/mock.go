package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"

	"github.com/google/uuid"
)

// MockProcessor stands in for the processor in local runs. Its webhooks are
// unsigned JSON bodies shaped like WebhookEvent.
type MockProcessor struct {
	successURL string

	mu      sync.Mutex
	refunds map[string]string
}

func NewMockProcessor(successURL string) *MockProcessor {
	return &MockProcessor{successURL: successURL, refunds: make(map[string]string)}
}

func (p *MockProcessor) CreateCheckout(_ context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("invalid checkout amount %d", req.Amount)
	}
	id := "cs_mock_" + req.BookingID
	return &CheckoutSession{
		ID:  id,
		URL: p.successURL + "?" + url.Values{"booking_id": {req.BookingID}, "session_id": {id}}.Encode(),
	}, nil
}

func (p *MockProcessor) Refund(_ context.Context, req RefundRequest) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := refundIdempotencyKey(req.BookingID)
	if ref, ok := p.refunds[key]; ok {
		return ref, nil
	}
	ref := "re_mock_" + uuid.NewString()
	p.refunds[key] = ref
	return ref, nil
}

type mockWebhook struct {
	ID        string `json:"id"`
	Outcome   string `json:"outcome"`
	BookingID string `json:"booking_id"`
	Amount    int64  `json:"amount"`
	Reference string `json:"reference"`
	Reason    string `json:"reason"`
}

func (p *MockProcessor) ParseWebhook(payload []byte, _ string) (*WebhookEvent, error) {
	var in mockWebhook
	if err := json.Unmarshal(payload, &in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWebhook, err)
	}
	if in.BookingID == "" {
		return nil, fmt.Errorf("%w: booking_id is required", ErrInvalidWebhook)
	}

	outcome := WebhookOutcome(in.Outcome)
	switch outcome {
	case WebhookPaymentSucceeded, WebhookPaymentFailed:
	default:
		outcome = WebhookIgnored
	}
	return &WebhookEvent{
		ID:        in.ID,
		Type:      "mock." + in.Outcome,
		Outcome:   outcome,
		BookingID: in.BookingID,
		Amount:    in.Amount,
		Reference: in.Reference,
		Reason:    in.Reason,
	}, nil
}

var _ Gateway = (*MockProcessor)(nil)
