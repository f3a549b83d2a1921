package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidTransition  = errors.New("invalid transition")
	ErrPaymentMismatch    = errors.New("payment amount mismatch")
	ErrRefundWindowClosed = errors.New("refund window closed")
	ErrValidation         = errors.New("validation failed")
)

func NewValidationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// TransitionError reports an action attempted from a status that does not permit it.
type TransitionError struct {
	BookingID string
	Current   BookingStatus
	Action    Action
	Allowed   []Action
}

func (e *TransitionError) Error() string {
	allowed := make([]string, 0, len(e.Allowed))
	for _, a := range e.Allowed {
		allowed = append(allowed, string(a))
	}
	msg := fmt.Sprintf("cannot %s booking in status %s", e.Action, e.Current)
	if e.BookingID != "" {
		msg = fmt.Sprintf("cannot %s booking %s in status %s", e.Action, e.BookingID, e.Current)
	}
	if len(allowed) == 0 {
		return msg + " (terminal)"
	}
	return msg + " (allowed: " + strings.Join(allowed, ", ") + ")"
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

type PaymentMismatchError struct {
	BookingID string
	Expected  int64
	Actual    int64
}

func (e *PaymentMismatchError) Error() string {
	return fmt.Sprintf("payment for booking %s is %d, expected %d", e.BookingID, e.Actual, e.Expected)
}

func (e *PaymentMismatchError) Unwrap() error { return ErrPaymentMismatch }

type RefundWindowError struct {
	Quote RefundQuote
}

func (e *RefundWindowError) Error() string {
	return fmt.Sprintf("booking %s cannot be cancelled %d days before occurrence: %s", e.Quote.BookingID, e.Quote.DaysUntil, e.Quote.Reason)
}

func (e *RefundWindowError) Unwrap() error { return ErrRefundWindowClosed }
