package lifecycle

import (
	"testing"
	"time"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/stretchr/testify/assert"
)

var now = time.Date(2026, time.March, 1, 15, 30, 0, 0, time.UTC)

func bookingInDays(days int) *domain.Booking {
	return &domain.Booking{
		ID:                   "b-1",
		Status:               domain.BookingStatusConfirmed,
		TotalAmount:          1000,
		PaidAmount:           1000,
		OccurrenceDate:       time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, days),
		FullRefundWindowDays: 14,
		HalfRefundWindowDays: 7,
	}
}

func TestPolicyQuote_Scenarios(t *testing.T) {
	policy := DefaultPolicy()

	tests := []struct {
		name     string
		days     int
		eligible bool
		tier     domain.RefundTier
		amount   int64
		reason   string
	}{
		{name: "full refund 20 days out", days: 20, eligible: true, tier: domain.RefundTierFull, amount: 1000},
		{name: "full refund on boundary", days: 14, eligible: true, tier: domain.RefundTierFull, amount: 1000},
		{name: "half refund 10 days out", days: 10, eligible: true, tier: domain.RefundTierHalf, amount: 500},
		{name: "half refund on boundary", days: 7, eligible: true, tier: domain.RefundTierHalf, amount: 500},
		{name: "closed 3 days out", days: 3, tier: domain.RefundTierNone, reason: reasonNoTier},
		{name: "cutoff one day out", days: 1, tier: domain.RefundTierNone, reason: reasonCutoff},
		{name: "occurrence passed", days: -2, tier: domain.RefundTierNone, reason: reasonCutoff},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := policy.Quote(bookingInDays(tt.days), now)

			assert.Equal(t, "b-1", q.BookingID)
			assert.Equal(t, tt.days, q.DaysUntil)
			assert.Equal(t, tt.eligible, q.Eligible)
			assert.Equal(t, tt.tier, q.Tier)
			assert.Equal(t, tt.amount, q.Amount)
			assert.Equal(t, tt.reason, q.Reason)
		})
	}
}

func TestEvaluateRefund_CutoffAppliesBeforeTiers(t *testing.T) {
	q := EvaluateRefund(RefundInput{
		OccurrenceDate:       now.AddDate(0, 0, 2),
		Now:                  now,
		FullRefundWindowDays: 0,
		HalfRefundWindowDays: 0,
		TotalAmount:          1000,
		CancelCutoffDays:     3,
	})

	assert.False(t, q.Eligible)
	assert.Equal(t, reasonCutoff, q.Reason)
}

func TestEvaluateRefund_HalfRoundsDown(t *testing.T) {
	q := EvaluateRefund(RefundInput{
		OccurrenceDate:       now.AddDate(0, 0, 8),
		Now:                  now,
		FullRefundWindowDays: 14,
		HalfRefundWindowDays: 7,
		TotalAmount:          999,
		CancelCutoffDays:     1,
	})

	assert.Equal(t, int64(499), q.Amount)
}

func TestEvaluateRefund_IsPure(t *testing.T) {
	in := RefundInput{
		OccurrenceDate:       now.AddDate(0, 0, 10),
		Now:                  now,
		FullRefundWindowDays: 14,
		HalfRefundWindowDays: 7,
		TotalAmount:          1000,
		CancelCutoffDays:     1,
	}

	first := EvaluateRefund(in)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, EvaluateRefund(in))
	}
}

func TestDaysUntil_UsesCalendarDates(t *testing.T) {
	late := time.Date(2026, time.March, 1, 23, 59, 0, 0, time.UTC)
	early := time.Date(2026, time.March, 2, 0, 1, 0, 0, time.UTC)
	assert.Equal(t, 1, DaysUntil(early, late))

	assert.Equal(t, 0, DaysUntil(now, now))
	assert.Equal(t, -1, DaysUntil(now.AddDate(0, 0, -1), now))

	// Same instant expressed in another zone.
	tokyo := time.FixedZone("JST", 9*3600)
	assert.Equal(t, 20, DaysUntil(now.AddDate(0, 0, 20).In(tokyo), now))
}
