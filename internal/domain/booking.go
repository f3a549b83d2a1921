package domain

import (
	"fmt"
	"time"
)

type BookingStatus string

const (
	BookingStatusRequested BookingStatus = "Requested"
	BookingStatusApproved  BookingStatus = "Approved"
	BookingStatusConfirmed BookingStatus = "Confirmed"
	BookingStatusDeclined  BookingStatus = "Declined"
	BookingStatusCancelled BookingStatus = "Cancelled"
)

var bookingStatuses = []BookingStatus{
	BookingStatusRequested,
	BookingStatusApproved,
	BookingStatusConfirmed,
	BookingStatusDeclined,
	BookingStatusCancelled,
}

func ParseBookingStatus(s string) (BookingStatus, error) {
	for _, st := range bookingStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: unknown booking status %q", ErrValidation, s)
}

// Action is an event that may move a booking between statuses.
type Action string

const (
	ActionApprove          Action = "approve"
	ActionDecline          Action = "decline"
	ActionPaymentSucceeded Action = "payment_succeeded"
	ActionPaymentFailed    Action = "payment_failed"
	ActionCancel           Action = "cancel"
)

type RefundStatus string

const (
	RefundStatusNone    RefundStatus = "none"
	RefundStatusPending RefundStatus = "pending"
	RefundStatusIssued  RefundStatus = "issued"
)

// Booking amounts are integer minor units of Currency.
type Booking struct {
	ID                   string
	Kind                 ProductKind
	Status               BookingStatus
	UserRef              string
	ProductID            int64
	Email                string
	Quantity             int
	TotalAmount          int64
	PaidAmount           int64
	Currency             string
	OccurrenceDate       time.Time
	FullRefundWindowDays int
	HalfRefundWindowDays int
	PaymentReference     string
	LastPaymentError     string
	RefundAmount         int64
	RefundStatus         RefundStatus
	RefundReference      string
	Version              int64
	DecidedAt            *time.Time
	ConfirmedAt          *time.Time
	CancelledAt          *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

type RefundTier string

const (
	RefundTierFull RefundTier = "full"
	RefundTierHalf RefundTier = "half"
	RefundTierNone RefundTier = "none"
)

// RefundQuote is the outcome of evaluating the refund window for a booking at a point in time.
type RefundQuote struct {
	BookingID string
	DaysUntil int
	Tier      RefundTier
	Amount    int64
	Eligible  bool
	Reason    string
}
