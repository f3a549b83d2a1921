package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	defaultDeliveryAttempts = 3
	defaultRetryDelay       = 2 * time.Second
)

type Consumer struct {
	reader     *kafka.Reader
	log        *zap.Logger
	attempts   int
	retryDelay time.Duration
}

func NewConsumer(brokers []string, groupID, topic string, log *zap.Logger) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:           brokers,
			GroupID:           groupID,
			Topic:             topic,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    30 * time.Second,
		}),
		log:        log,
		attempts:   defaultDeliveryAttempts,
		retryDelay: defaultRetryDelay,
	}
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// Consume reads until ctx is cancelled. Handler errors stop the loop.
func (c *Consumer) Consume(ctx context.Context, handler func(context.Context, kafka.Message) error) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		if err := handler(ctx, msg); err != nil {
			return err
		}
	}
}

// BookingEventHandler adapts a typed handler to Consume. Messages that do not
// decode are skipped; failed deliveries are retried a few times, then dropped.
func (c *Consumer) BookingEventHandler(fn func(context.Context, BookingEvent) error) func(context.Context, kafka.Message) error {
	return func(ctx context.Context, msg kafka.Message) error {
		var event BookingEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			c.log.Warn("skip undecodable event", zap.Int64("offset", msg.Offset), zap.Error(err))
			return nil
		}

		attempts := max(c.attempts, 1)
		var err error
		for attempt := 1; attempt <= attempts; attempt++ {
			if err = fn(ctx, event); err == nil {
				return nil
			}
			if attempt == attempts {
				break
			}
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.retryDelay):
			}
		}

		c.log.Error("drop undelivered event",
			zap.String("event_id", event.ID),
			zap.String("type", event.Type),
			zap.String("booking_id", event.BookingID),
			zap.Int("attempts", attempts),
			zap.Error(err))
		return nil
	}
}
