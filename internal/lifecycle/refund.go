package lifecycle

import (
	"time"

	"github.com/Domenick1991/travelbooking/internal/domain"
)

const DefaultCancelCutoffDays = 1

const (
	reasonCutoff = "cancellation cutoff reached"
	reasonNoTier = "outside refund windows"
)

type RefundInput struct {
	OccurrenceDate       time.Time
	Now                  time.Time
	FullRefundWindowDays int
	HalfRefundWindowDays int
	TotalAmount          int64
	CancelCutoffDays     int
}

// EvaluateRefund decides whether a cancellation is allowed and how much is returned.
// It has no side effects.
func EvaluateRefund(in RefundInput) domain.RefundQuote {
	days := DaysUntil(in.OccurrenceDate, in.Now)
	q := domain.RefundQuote{DaysUntil: days, Tier: domain.RefundTierNone}

	switch {
	case days <= in.CancelCutoffDays:
		q.Reason = reasonCutoff
	case days >= in.FullRefundWindowDays:
		q.Tier = domain.RefundTierFull
		q.Amount = in.TotalAmount
		q.Eligible = true
	case days >= in.HalfRefundWindowDays:
		q.Tier = domain.RefundTierHalf
		q.Amount = in.TotalAmount / 2
		q.Eligible = true
	default:
		q.Reason = reasonNoTier
	}
	return q
}

// DaysUntil counts whole calendar days between the UTC dates of now and occurrence.
// It is negative once the occurrence date has passed.
func DaysUntil(occurrence, now time.Time) int {
	o := occurrence.UTC()
	n := now.UTC()
	od := time.Date(o.Year(), o.Month(), o.Day(), 0, 0, 0, 0, time.UTC)
	nd := time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
	return int(od.Sub(nd).Hours() / 24)
}

type Policy struct {
	CancelCutoffDays int
}

func DefaultPolicy() Policy {
	return Policy{CancelCutoffDays: DefaultCancelCutoffDays}
}

func (p Policy) Quote(b *domain.Booking, now time.Time) domain.RefundQuote {
	q := EvaluateRefund(RefundInput{
		OccurrenceDate:       b.OccurrenceDate,
		Now:                  now,
		FullRefundWindowDays: b.FullRefundWindowDays,
		HalfRefundWindowDays: b.HalfRefundWindowDays,
		TotalAmount:          b.TotalAmount,
		CancelCutoffDays:     p.CancelCutoffDays,
	})
	q.BookingID = b.ID
	return q
}
