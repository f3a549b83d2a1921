package email

import (
	"context"
	"fmt"

	"github.com/Domenick1991/travelbooking/config"
	"github.com/Domenick1991/travelbooking/internal/kafka"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

type Sender struct {
	dialer *gomail.Dialer
	from   string
	log    *zap.Logger
}

// NewSender returns a sender that only logs notifications when no SMTP host is configured.
func NewSender(cfg config.SMTPConfig, log *zap.Logger) *Sender {
	s := &Sender{from: cfg.From, log: log}
	if cfg.Host != "" {
		s.dialer = gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	}
	return s
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	if event.Email == "" {
		return nil
	}
	subject, body, ok := Compose(event)
	if !ok {
		s.log.Debug("no notification for event", zap.String("type", event.Type))
		return nil
	}

	if s.dialer == nil {
		s.log.Info("notification",
			zap.String("to", event.Email),
			zap.String("subject", subject),
			zap.String("booking_id", event.BookingID))
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", event.Email)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send %s notification for booking %s: %w", event.Type, event.BookingID, err)
	}
	s.log.Info("notification sent", zap.String("type", event.Type), zap.String("booking_id", event.BookingID))
	return nil
}

// Compose renders the subject and body for a customer-facing event.
func Compose(e kafka.BookingEvent) (subject, body string, ok bool) {
	date := e.OccurrenceDate.Format("2 January 2006")
	switch e.Type {
	case kafka.EventBookingRequested:
		return "We received your booking request",
			fmt.Sprintf("Your %s booking %s for %s is waiting for confirmation by our team.", e.Kind, e.BookingID, date), true
	case kafka.EventBookingApproved:
		return "Your booking was approved",
			fmt.Sprintf("Good news: booking %s for %s was approved. Complete the payment of %s to confirm it.",
				e.BookingID, date, money(e.TotalAmount, e.Currency)), true
	case kafka.EventBookingDeclined:
		return "Your booking request was declined",
			fmt.Sprintf("Unfortunately booking %s for %s could not be accepted.", e.BookingID, date), true
	case kafka.EventBookingConfirmed:
		return "Your booking is confirmed",
			fmt.Sprintf("We received %s for booking %s. See you on %s.", money(e.TotalAmount, e.Currency), e.BookingID, date), true
	case kafka.EventPaymentFailed:
		return "Payment for your booking failed",
			fmt.Sprintf("The payment for booking %s did not go through (%s). You can try again.", e.BookingID, e.Reason), true
	case kafka.EventBookingCancelled:
		return "Your booking was cancelled",
			fmt.Sprintf("Booking %s was cancelled. A refund of %s is on its way.", e.BookingID, money(e.RefundAmount, e.Currency)), true
	case kafka.EventRefundIssued:
		return "Your refund was issued",
			fmt.Sprintf("We issued a refund of %s for booking %s.", money(e.RefundAmount, e.Currency), e.BookingID), true
	}
	return "", "", false
}

func money(cents int64, currency string) string {
	return fmt.Sprintf("%d.%02d %s", cents/100, cents%100, currency)
}
