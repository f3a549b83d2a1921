package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewBookingEvent(t *testing.T) {
	at := time.Date(2026, time.May, 1, 12, 0, 0, 0, time.UTC)
	b := &domain.Booking{
		ID:           "b-1",
		Kind:         domain.ProductKindPackage,
		Status:       domain.BookingStatusCancelled,
		UserRef:      "alice",
		Email:        "alice@example.com",
		TotalAmount:  1000,
		RefundAmount: 500,
		Currency:     "usd",
	}

	event := NewBookingEvent(EventBookingCancelled, b, at)

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, "booking_cancelled", event.Type)
	assert.Equal(t, "b-1", event.BookingID)
	assert.Equal(t, "package", event.Kind)
	assert.Equal(t, "Cancelled", event.Status)
	assert.Equal(t, int64(500), event.RefundAmount)
	assert.Equal(t, at, event.OccurredAt)
}

func TestBookingEventHandler(t *testing.T) {
	c := &Consumer{log: zap.NewNop()}

	var got []BookingEvent
	handler := c.BookingEventHandler(func(_ context.Context, e BookingEvent) error {
		got = append(got, e)
		return nil
	})

	payload, err := json.Marshal(BookingEvent{Type: EventBookingApproved, BookingID: "b-2"})
	require.NoError(t, err)

	assert.NoError(t, handler(context.Background(), kafka.Message{Value: []byte("{broken")}))
	assert.NoError(t, handler(context.Background(), kafka.Message{Value: payload}))

	require.Len(t, got, 1)
	assert.Equal(t, "b-2", got[0].BookingID)
}

func TestProducer_CheckConnectionWithoutBrokers(t *testing.T) {
	p := NewProducer(nil, zap.NewNop())
	defer p.Close()

	assert.Error(t, p.CheckConnection(context.Background()))
}

func TestBookingEventHandler_FailedDeliveryDoesNotStopConsumption(t *testing.T) {
	c := &Consumer{log: zap.NewNop(), attempts: 2}

	calls := map[string]int{}
	handler := c.BookingEventHandler(func(_ context.Context, e BookingEvent) error {
		calls[e.BookingID]++
		if e.BookingID == "b-smtp-down" {
			return errors.New("dial tcp: connection refused")
		}
		return nil
	})

	failing, err := json.Marshal(BookingEvent{Type: EventBookingApproved, BookingID: "b-smtp-down"})
	require.NoError(t, err)
	next, err := json.Marshal(BookingEvent{Type: EventBookingDeclined, BookingID: "b-next"})
	require.NoError(t, err)

	assert.NoError(t, handler(context.Background(), kafka.Message{Value: failing}))
	assert.NoError(t, handler(context.Background(), kafka.Message{Value: next}))

	assert.Equal(t, 2, calls["b-smtp-down"])
	assert.Equal(t, 1, calls["b-next"])
}
