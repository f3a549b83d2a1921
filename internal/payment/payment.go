// Package payment talks to the external payment processor: it opens hosted
// checkouts, issues refunds and decodes the processor's webhook callbacks.
package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/travelbooking/config"
	"go.uber.org/zap"
)

var ErrInvalidWebhook = errors.New("invalid webhook")

type CheckoutRequest struct {
	BookingID   string
	Description string
	Amount      int64
	Currency    string
	Email       string
}

type CheckoutSession struct {
	ID  string
	URL string
}

type RefundRequest struct {
	BookingID       string
	ChargeReference string
	Amount          int64
	Currency        string
}

type Processor interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	// Refund returns the processor's refund reference. Repeating a request for the
	// same booking must not issue a second refund.
	Refund(ctx context.Context, req RefundRequest) (string, error)
}

type WebhookOutcome string

const (
	WebhookPaymentSucceeded WebhookOutcome = "succeeded"
	WebhookPaymentFailed    WebhookOutcome = "failed"
	WebhookIgnored          WebhookOutcome = "ignored"
)

type WebhookEvent struct {
	ID        string
	Type      string
	Outcome   WebhookOutcome
	BookingID string
	Amount    int64
	Reference string
	Reason    string
}

type WebhookParser interface {
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}

// Gateway is a processor that also understands its own webhooks.
type Gateway interface {
	Processor
	WebhookParser
}

func NewGateway(cfg config.PaymentConfig, log *zap.Logger) (Gateway, error) {
	switch cfg.Provider {
	case config.PaymentProviderStripe:
		p, err := NewStripeProcessor(cfg, log)
		if err != nil {
			return nil, err
		}
		return p, nil
	case config.PaymentProviderMock, "":
		return NewMockProcessor(cfg.SuccessURL), nil
	default:
		return nil, fmt.Errorf("unsupported payment provider %q", cfg.Provider)
	}
}

func refundIdempotencyKey(bookingID string) string {
	return "refund-" + bookingID
}
