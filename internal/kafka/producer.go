package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	EventBookingRequested = "booking_requested"
	EventBookingApproved  = "booking_approved"
	EventBookingDeclined  = "booking_declined"
	EventBookingConfirmed = "booking_confirmed"
	EventPaymentFailed    = "payment_failed"
	EventBookingCancelled = "booking_cancelled"
	EventRefundIssued     = "refund_issued"
)

type BookingEvent struct {
	ID             string    `json:"id"`
	Type           string    `json:"type"`
	BookingID      string    `json:"booking_id"`
	Kind           string    `json:"kind"`
	UserRef        string    `json:"user_ref"`
	Email          string    `json:"email"`
	Status         string    `json:"status"`
	TotalAmount    int64     `json:"total_amount"`
	RefundAmount   int64     `json:"refund_amount,omitempty"`
	Currency       string    `json:"currency"`
	OccurrenceDate time.Time `json:"occurrence_date"`
	Reason         string    `json:"reason,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

func NewBookingEvent(eventType string, b *domain.Booking, at time.Time) BookingEvent {
	return BookingEvent{
		ID:             uuid.NewString(),
		Type:           eventType,
		BookingID:      b.ID,
		Kind:           string(b.Kind),
		UserRef:        b.UserRef,
		Email:          b.Email,
		Status:         string(b.Status),
		TotalAmount:    b.TotalAmount,
		RefundAmount:   b.RefundAmount,
		Currency:       b.Currency,
		OccurrenceDate: b.OccurrenceDate,
		OccurredAt:     at,
	}
}

type Producer struct {
	brokers []string
	writer  *kafka.Writer
	log     *zap.Logger
}

func NewProducer(brokers []string, log *zap.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.LeastBytes{},
		BatchTimeout:           50 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}

	return &Producer{
		brokers: brokers,
		writer:  writer,
		log:     log,
	}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	message := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}

	p.log.Debug("published event", zap.String("topic", topic), zap.String("key", key))
	return nil
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

// CheckConnection dials the first broker; used by the readiness probe.
func (p *Producer) CheckConnection(ctx context.Context) error {
	if len(p.brokers) == 0 {
		return fmt.Errorf("no kafka brokers configured")
	}
	conn, err := kafka.DialContext(ctx, "tcp", p.brokers[0])
	if err != nil {
		return fmt.Errorf("failed to connect to Kafka: %w", err)
	}
	defer conn.Close()

	if _, err := conn.Brokers(); err != nil {
		return fmt.Errorf("failed to read brokers: %w", err)
	}
	return nil
}
