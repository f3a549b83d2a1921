// Package lifecycle holds the booking state machine and the refund window policy.
// Every product kind shares the same table; callers never compare statuses directly.
package lifecycle

import "github.com/Domenick1991/travelbooking/internal/domain"

var transitions = map[domain.BookingStatus]map[domain.Action]domain.BookingStatus{
	domain.BookingStatusRequested: {
		domain.ActionApprove: domain.BookingStatusApproved,
		domain.ActionDecline: domain.BookingStatusDeclined,
	},
	domain.BookingStatusApproved: {
		domain.ActionPaymentSucceeded: domain.BookingStatusConfirmed,
		domain.ActionPaymentFailed:    domain.BookingStatusApproved,
	},
	domain.BookingStatusConfirmed: {
		domain.ActionCancel: domain.BookingStatusCancelled,
	},
}

// actionOrder fixes the order Allowed reports actions in.
var actionOrder = []domain.Action{
	domain.ActionApprove,
	domain.ActionDecline,
	domain.ActionPaymentSucceeded,
	domain.ActionPaymentFailed,
	domain.ActionCancel,
}

// Next returns the status reached by applying action to current.
func Next(current domain.BookingStatus, action domain.Action) (domain.BookingStatus, error) {
	if to, ok := transitions[current][action]; ok {
		return to, nil
	}
	return "", &domain.TransitionError{
		Current: current,
		Action:  action,
		Allowed: Allowed(current),
	}
}

// Check is Next for a concrete booking; the returned error names the booking.
func Check(b *domain.Booking, action domain.Action) (domain.BookingStatus, error) {
	to, err := Next(b.Status, action)
	if err != nil {
		return "", Reject(b, action)
	}
	return to, nil
}

// Reject builds the transition error for b as it is now.
func Reject(b *domain.Booking, action domain.Action) error {
	return &domain.TransitionError{
		BookingID: b.ID,
		Current:   b.Status,
		Action:    action,
		Allowed:   Allowed(b.Status),
	}
}

func Allowed(status domain.BookingStatus) []domain.Action {
	row := transitions[status]
	allowed := make([]domain.Action, 0, len(row))
	for _, a := range actionOrder {
		if _, ok := row[a]; ok {
			allowed = append(allowed, a)
		}
	}
	return allowed
}

func IsTerminal(status domain.BookingStatus) bool {
	return len(transitions[status]) == 0
}
