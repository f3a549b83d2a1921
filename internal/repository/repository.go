package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Domenick1991/travelbooking/internal/domain"
)

// ErrStaleStatus is returned by conditional writes whose expected state no longer holds.
var ErrStaleStatus = errors.New("booking status changed concurrently")

type BookingFilter struct {
	UserRef string
	Status  domain.BookingStatus
	Kind    domain.ProductKind
	// Search matches a booking id prefix or a substring of the contact email.
	Search string
	Limit  int
	Offset int
}

// TransitionUpdate describes a compare-and-set on status. Nil fields are left unchanged.
type TransitionUpdate struct {
	From             domain.BookingStatus
	To               domain.BookingStatus
	At               time.Time
	PaidAmount       *int64
	PaymentReference *string
	LastPaymentError *string
	RefundAmount     *int64
	RefundStatus     *domain.RefundStatus
	DecidedAt        *time.Time
	ConfirmedAt      *time.Time
	CancelledAt      *time.Time
}

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	List(ctx context.Context, filter BookingFilter) ([]domain.Booking, error)
	// Transition applies upd only while the stored status equals upd.From.
	// It returns domain.ErrNotFound for unknown ids and ErrStaleStatus when the status moved.
	Transition(ctx context.Context, id string, upd TransitionUpdate) (*domain.Booking, error)
	ListPendingRefunds(ctx context.Context, limit int) ([]domain.Booking, error)
	// MarkRefundIssued moves refund_status from pending to issued; ErrStaleStatus if it was not pending.
	MarkRefundIssued(ctx context.Context, id, reference string, at time.Time) (*domain.Booking, error)
}

type ProductFilter struct {
	Kind       domain.ProductKind
	ActiveOnly bool
}

type ProductRepository interface {
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
}

const defaultListLimit = 100

func listLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return defaultListLimit
	}
	return limit
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike quotes LIKE wildcards so search text matches literally with ESCAPE '\'.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func refundStatusPtr(s *domain.RefundStatus) *string {
	if s == nil {
		return nil
	}
	v := string(*s)
	return &v
}
