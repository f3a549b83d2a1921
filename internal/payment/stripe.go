package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Domenick1991/travelbooking/config"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
	"go.uber.org/zap"
)

var ErrStripeClientInitFailed = errors.New("failed to initialize Stripe client")

// StripeProcessor charges through Stripe Checkout and refunds the resulting payment intent.
type StripeProcessor struct {
	client        *client.API
	webhookSecret string
	successURL    string
	cancelURL     string
	log           *zap.Logger
}

func NewStripeProcessor(cfg config.PaymentConfig, log *zap.Logger) (*StripeProcessor, error) {
	if cfg.StripeSecretKey == "" {
		return nil, ErrStripeClientInitFailed
	}
	sc := client.New(cfg.StripeSecretKey, nil)
	if sc == nil {
		return nil, ErrStripeClientInitFailed
	}

	return &StripeProcessor{
		client:        sc,
		webhookSecret: cfg.WebhookSecret,
		successURL:    cfg.SuccessURL,
		cancelURL:     cfg.CancelURL,
		log:           log,
	}, nil
}

func (p *StripeProcessor) CreateCheckout(_ context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(p.successURL),
		CancelURL:         stripe.String(p.cancelURL),
		ClientReferenceID: stripe.String(req.BookingID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(req.Currency),
				UnitAmount: stripe.Int64(req.Amount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(req.Description),
				},
			},
			Quantity: stripe.Int64(1),
		}},
		Metadata: map[string]string{"booking_id": req.BookingID},
	}
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}

	sess, err := p.client.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session for booking %s: %w", req.BookingID, err)
	}
	p.log.Info("checkout session created", zap.String("booking_id", req.BookingID), zap.String("session_id", sess.ID))
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

func (p *StripeProcessor) Refund(_ context.Context, req RefundRequest) (string, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(req.ChargeReference),
		Amount:        stripe.Int64(req.Amount),
		Metadata:      map[string]string{"booking_id": req.BookingID},
	}
	params.SetIdempotencyKey(refundIdempotencyKey(req.BookingID))

	r, err := p.client.Refunds.New(params)
	if err != nil {
		return "", fmt.Errorf("refund booking %s: %w", req.BookingID, err)
	}
	p.log.Info("refund created", zap.String("booking_id", req.BookingID), zap.String("refund_id", r.ID), zap.Int64("amount", req.Amount))
	return r.ID, nil
}

func (p *StripeProcessor) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	if p.webhookSecret == "" {
		return nil, fmt.Errorf("%w: webhook secret is not configured", ErrInvalidWebhook)
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWebhook, err)
	}
	return decodeStripeEvent(event)
}

func decodeStripeEvent(event stripe.Event) (*WebhookEvent, error) {
	out := &WebhookEvent{ID: event.ID, Type: string(event.Type), Outcome: WebhookIgnored}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted,
		stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded,
		stripe.EventTypeCheckoutSessionAsyncPaymentFailed,
		stripe.EventTypeCheckoutSessionExpired:
	default:
		return out, nil
	}
	if event.Data == nil {
		return nil, fmt.Errorf("%w: event %s has no data", ErrInvalidWebhook, event.ID)
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, fmt.Errorf("%w: decode checkout session: %v", ErrInvalidWebhook, err)
	}

	out.BookingID = sess.ClientReferenceID
	if out.BookingID == "" {
		out.BookingID = sess.Metadata["booking_id"]
	}
	if out.BookingID == "" {
		return nil, fmt.Errorf("%w: checkout session %s has no booking reference", ErrInvalidWebhook, sess.ID)
	}
	out.Amount = sess.AmountTotal
	if sess.PaymentIntent != nil {
		out.Reference = sess.PaymentIntent.ID
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		// Delayed payment methods complete the session before the money arrives.
		if sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid {
			out.Outcome = WebhookPaymentSucceeded
		}
	case stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		out.Outcome = WebhookPaymentSucceeded
	case stripe.EventTypeCheckoutSessionAsyncPaymentFailed:
		out.Outcome = WebhookPaymentFailed
		out.Reason = "payment failed"
	case stripe.EventTypeCheckoutSessionExpired:
		out.Outcome = WebhookPaymentFailed
		out.Reason = "checkout expired"
	}
	return out, nil
}

var _ Gateway = (*StripeProcessor)(nil)
