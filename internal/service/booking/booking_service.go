package booking

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/mail"
	"strings"
	"time"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/Domenick1991/travelbooking/internal/kafka"
	"github.com/Domenick1991/travelbooking/internal/lifecycle"
	"github.com/Domenick1991/travelbooking/internal/metrics"
	"github.com/Domenick1991/travelbooking/internal/payment"
	"github.com/Domenick1991/travelbooking/internal/repository"
	"github.com/Domenick1991/travelbooking/internal/tracing"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	GetBooking(ctx context.Context, id string) (*domain.Booking, error)
	ListBookings(ctx context.Context, filter repository.BookingFilter) ([]domain.Booking, error)
	Decide(ctx context.Context, id string, decision domain.BookingStatus) (*domain.Booking, error)
	StartCheckout(ctx context.Context, id string) (*payment.CheckoutSession, error)
	ConfirmPayment(ctx context.Context, input PaymentInput) (*domain.Booking, error)
	RecordPaymentFailure(ctx context.Context, id, reason string) (*domain.Booking, error)
	QuoteRefund(ctx context.Context, id string) (*domain.RefundQuote, error)
	CancelBooking(ctx context.Context, id string) (*domain.Booking, error)
	ProcessPendingRefunds(ctx context.Context) (int, error)
}

type ProductReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type Locker interface {
	AcquireLock(ctx context.Context, name string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, name string) error
}

const (
	refundSweepLock    = "refund-sweep"
	refundSweepLockTTL = 5 * time.Minute
	defaultRefundBatch = 50

	MaxQuantity = 100
)

type BookingService struct {
	bookings           repository.BookingRepository
	products           ProductReader
	producer           Producer
	processor          payment.Processor
	policy             lifecycle.Policy
	bookingTopic       string
	notificationsTopic string
	locker             Locker
	refundBatchSize    int
	now                func() time.Time
	log                *zap.Logger
}

type CreateBookingInput struct {
	UserRef        string
	ProductID      int64
	Quantity       int
	OccurrenceDate *time.Time
	Email          string
}

type PaymentInput struct {
	BookingID string
	Amount    int64
	Reference string
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func WithLocker(locker Locker) BookingServiceOption {
	return func(s *BookingService) {
		s.locker = locker
	}
}

func WithRefundBatchSize(n int) BookingServiceOption {
	return func(s *BookingService) {
		if n > 0 {
			s.refundBatchSize = n
		}
	}
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func WithLogger(log *zap.Logger) BookingServiceOption {
	return func(s *BookingService) {
		s.log = log
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	products ProductReader,
	producer Producer,
	processor payment.Processor,
	policy lifecycle.Policy,
	bookingTopic string,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:        bookings,
		products:        products,
		producer:        producer,
		processor:       processor,
		policy:          policy,
		bookingTopic:    bookingTopic,
		refundBatchSize: defaultRefundBatch,
		now:             time.Now,
		log:             zap.NewNop(),
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	ctx, span := tracing.StartSpan(ctx, "booking.CreateBooking")
	defer span.End()

	now := s.now()
	if strings.TrimSpace(input.UserRef) == "" {
		return nil, domain.NewValidationError("user reference is required")
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		return nil, domain.NewValidationError("a valid email is required")
	}
	if input.Quantity == 0 {
		input.Quantity = 1
	}
	if input.Quantity < 0 {
		return nil, domain.NewValidationError("quantity must be positive")
	}
	if input.Quantity > MaxQuantity {
		return nil, domain.NewValidationError("quantity must not exceed %d", MaxQuantity)
	}

	product, err := s.products.GetByID(ctx, input.ProductID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewValidationError("product %d does not exist", input.ProductID)
		}
		return nil, err
	}
	if !product.Active {
		return nil, domain.NewValidationError("product %d is not available", product.ID)
	}
	if product.PriceCents > math.MaxInt64/int64(input.Quantity) {
		return nil, domain.NewValidationError("total amount is too large")
	}

	occurrence := input.OccurrenceDate
	if product.StartsAt != nil {
		occurrence = product.StartsAt
	}
	if occurrence == nil {
		return nil, domain.NewValidationError("occurrence date is required for %s products", product.Kind)
	}
	if lifecycle.DaysUntil(*occurrence, now) < 1 {
		return nil, domain.NewValidationError("occurrence date must be after today")
	}

	booking := &domain.Booking{
		ID:                   uuid.NewString(),
		Kind:                 product.Kind,
		Status:               domain.BookingStatusRequested,
		UserRef:              input.UserRef,
		ProductID:            product.ID,
		Email:                input.Email,
		Quantity:             input.Quantity,
		TotalAmount:          product.PriceCents * int64(input.Quantity),
		Currency:             product.Currency,
		OccurrenceDate:       calendarDate(*occurrence),
		FullRefundWindowDays: product.FullRefundWindowDays,
		HalfRefundWindowDays: product.HalfRefundWindowDays,
		RefundStatus:         domain.RefundStatusNone,
		Version:              1,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, err
	}

	metrics.BookingsCreatedTotal.WithLabelValues(string(booking.Kind)).Inc()
	s.log.Info("booking requested",
		zap.String("booking_id", booking.ID),
		zap.String("user_ref", booking.UserRef),
		zap.Int64("product_id", booking.ProductID))
	s.publish(ctx, kafka.EventBookingRequested, booking, now, "")
	return booking, nil
}

func (s *BookingService) GetBooking(ctx context.Context, id string) (*domain.Booking, error) {
	return s.bookings.GetByID(ctx, id)
}

func (s *BookingService) ListBookings(ctx context.Context, filter repository.BookingFilter) ([]domain.Booking, error) {
	return s.bookings.List(ctx, filter)
}

// Decide applies an admin decision to a Requested booking.
func (s *BookingService) Decide(ctx context.Context, id string, decision domain.BookingStatus) (*domain.Booking, error) {
	ctx, span := tracing.StartSpan(ctx, "booking.Decide")
	defer span.End()

	var (
		action    domain.Action
		eventType string
	)
	switch decision {
	case domain.BookingStatusApproved:
		action, eventType = domain.ActionApprove, kafka.EventBookingApproved
	case domain.BookingStatusDeclined:
		action, eventType = domain.ActionDecline, kafka.EventBookingDeclined
	default:
		return nil, domain.NewValidationError("decision must be %s or %s", domain.BookingStatusApproved, domain.BookingStatusDeclined)
	}

	now := s.now()
	current, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, err := s.transition(ctx, current, action, repository.TransitionUpdate{At: now, DecidedAt: &now})
	if err != nil {
		return nil, err
	}

	s.log.Info("booking decided", zap.String("booking_id", id), zap.String("status", string(updated.Status)))
	s.publish(ctx, eventType, updated, now, "")
	return updated, nil
}

// StartCheckout asks the processor for a hosted payment page. The booking is not modified.
func (s *BookingService) StartCheckout(ctx context.Context, id string) (*payment.CheckoutSession, error) {
	ctx, span := tracing.StartSpan(ctx, "booking.StartCheckout")
	defer span.End()

	current, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := lifecycle.Check(current, domain.ActionPaymentSucceeded); err != nil {
		return nil, err
	}

	return s.processor.CreateCheckout(ctx, payment.CheckoutRequest{
		BookingID:   current.ID,
		Description: fmt.Sprintf("%s booking %s", current.Kind, current.ID),
		Amount:      current.TotalAmount,
		Currency:    current.Currency,
		Email:       current.Email,
	})
}

// ConfirmPayment records the processor's confirmation. Status is checked before the amount.
func (s *BookingService) ConfirmPayment(ctx context.Context, input PaymentInput) (*domain.Booking, error) {
	ctx, span := tracing.StartSpan(ctx, "booking.ConfirmPayment")
	defer span.End()

	reference := strings.TrimSpace(input.Reference)
	if reference == "" {
		return nil, domain.NewValidationError("payment reference is required")
	}

	now := s.now()
	current, err := s.bookings.GetByID(ctx, input.BookingID)
	if err != nil {
		return nil, err
	}
	if _, err := lifecycle.Check(current, domain.ActionPaymentSucceeded); err != nil {
		return nil, err
	}
	if input.Amount != current.TotalAmount {
		metrics.PaymentMismatchesTotal.Inc()
		s.log.Warn("payment amount mismatch",
			zap.String("booking_id", current.ID),
			zap.Int64("expected", current.TotalAmount),
			zap.Int64("actual", input.Amount))
		return nil, &domain.PaymentMismatchError{BookingID: current.ID, Expected: current.TotalAmount, Actual: input.Amount}
	}

	paid := current.TotalAmount
	updated, err := s.transition(ctx, current, domain.ActionPaymentSucceeded, repository.TransitionUpdate{
		At:               now,
		PaidAmount:       &paid,
		PaymentReference: &reference,
		ConfirmedAt:      &now,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("booking confirmed", zap.String("booking_id", updated.ID), zap.String("payment_reference", reference))
	s.publish(ctx, kafka.EventBookingConfirmed, updated, now, "")
	return updated, nil
}

// RecordPaymentFailure keeps the booking Approved so the customer can retry.
func (s *BookingService) RecordPaymentFailure(ctx context.Context, id, reason string) (*domain.Booking, error) {
	ctx, span := tracing.StartSpan(ctx, "booking.RecordPaymentFailure")
	defer span.End()

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "payment failed"
	}

	now := s.now()
	current, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, err := s.transition(ctx, current, domain.ActionPaymentFailed, repository.TransitionUpdate{
		At:               now,
		LastPaymentError: &reason,
	})
	if err != nil {
		return nil, err
	}

	metrics.PaymentFailuresTotal.Inc()
	s.log.Info("payment failed", zap.String("booking_id", id), zap.String("reason", reason))
	s.publish(ctx, kafka.EventPaymentFailed, updated, now, reason)
	return updated, nil
}

// QuoteRefund reports what cancelling now would return, without changing anything.
func (s *BookingService) QuoteRefund(ctx context.Context, id string) (*domain.RefundQuote, error) {
	current, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := lifecycle.Check(current, domain.ActionCancel); err != nil {
		return nil, err
	}
	quote := s.policy.Quote(current, s.now())
	return &quote, nil
}

// CancelBooking cancels a Confirmed booking inside its refund window and instructs the refund.
// A refund the processor does not acknowledge stays pending for ProcessPendingRefunds.
func (s *BookingService) CancelBooking(ctx context.Context, id string) (*domain.Booking, error) {
	ctx, span := tracing.StartSpan(ctx, "booking.CancelBooking")
	defer span.End()

	now := s.now()
	current, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := lifecycle.Check(current, domain.ActionCancel); err != nil {
		return nil, err
	}

	quote := s.policy.Quote(current, now)
	if !quote.Eligible {
		return nil, &domain.RefundWindowError{Quote: quote}
	}

	pending := domain.RefundStatusPending
	updated, err := s.transition(ctx, current, domain.ActionCancel, repository.TransitionUpdate{
		At:           now,
		RefundAmount: &quote.Amount,
		RefundStatus: &pending,
		CancelledAt:  &now,
	})
	if err != nil {
		return nil, err
	}

	metrics.CancellationsTotal.WithLabelValues(string(quote.Tier)).Inc()
	s.log.Info("booking cancelled",
		zap.String("booking_id", id),
		zap.Int("days_until", quote.DaysUntil),
		zap.String("tier", string(quote.Tier)),
		zap.Int64("refund_amount", quote.Amount))
	s.publish(ctx, kafka.EventBookingCancelled, updated, now, "")

	refunded, err := s.issueRefund(ctx, updated, now)
	if err != nil {
		s.log.Warn("refund deferred", zap.String("booking_id", id), zap.Error(err))
		return updated, nil
	}
	return refunded, nil
}

// ProcessPendingRefunds retries refund instructions for cancelled bookings. It
// returns how many were acknowledged by the processor.
func (s *BookingService) ProcessPendingRefunds(ctx context.Context) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "booking.ProcessPendingRefunds")
	defer span.End()

	if s.locker != nil {
		ok, err := s.locker.AcquireLock(ctx, refundSweepLock, refundSweepLockTTL)
		if err != nil {
			return 0, fmt.Errorf("acquire refund sweep lock: %w", err)
		}
		if !ok {
			return 0, nil
		}
		defer func() {
			if err := s.locker.ReleaseLock(ctx, refundSweepLock); err != nil {
				s.log.Warn("release refund sweep lock", zap.Error(err))
			}
		}()
	}

	due, err := s.bookings.ListPendingRefunds(ctx, s.refundBatchSize)
	if err != nil {
		return 0, err
	}

	now := s.now()
	issued := 0
	for i := range due {
		if _, err := s.issueRefund(ctx, &due[i], now); err != nil {
			s.log.Warn("refund retry failed", zap.String("booking_id", due[i].ID), zap.Error(err))
			continue
		}
		issued++
	}
	return issued, nil
}

// transition applies action to current with a compare-and-set on its status.
// Losing the race reports the status another writer left behind.
func (s *BookingService) transition(ctx context.Context, current *domain.Booking, action domain.Action, upd repository.TransitionUpdate) (*domain.Booking, error) {
	next, err := lifecycle.Check(current, action)
	if err != nil {
		return nil, err
	}
	upd.From = current.Status
	upd.To = next

	updated, err := s.bookings.Transition(ctx, current.ID, upd)
	if err != nil {
		if !errors.Is(err, repository.ErrStaleStatus) {
			return nil, err
		}
		metrics.BookingTransitionConflictsTotal.WithLabelValues(string(action)).Inc()
		latest, getErr := s.bookings.GetByID(ctx, current.ID)
		if getErr != nil {
			return nil, getErr
		}
		return nil, lifecycle.Reject(latest, action)
	}

	metrics.BookingTransitionsTotal.WithLabelValues(string(upd.From), string(upd.To)).Inc()
	return updated, nil
}

func (s *BookingService) issueRefund(ctx context.Context, b *domain.Booking, now time.Time) (*domain.Booking, error) {
	var reference string
	if b.RefundAmount > 0 {
		ref, err := s.processor.Refund(ctx, payment.RefundRequest{
			BookingID:       b.ID,
			ChargeReference: b.PaymentReference,
			Amount:          b.RefundAmount,
			Currency:        b.Currency,
		})
		if err != nil {
			metrics.RefundIssueFailuresTotal.Inc()
			return nil, err
		}
		reference = ref
	}

	issued, err := s.bookings.MarkRefundIssued(ctx, b.ID, reference, now)
	if err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			// Another worker recorded it first.
			return s.bookings.GetByID(ctx, b.ID)
		}
		return nil, err
	}

	metrics.RefundsIssuedTotal.Inc()
	s.log.Info("refund issued", zap.String("booking_id", b.ID), zap.String("refund_reference", reference))
	s.publish(ctx, kafka.EventRefundIssued, issued, now, "")
	return issued, nil
}

func (s *BookingService) publish(ctx context.Context, eventType string, b *domain.Booking, at time.Time, reason string) {
	if s.producer == nil {
		return
	}
	event := kafka.NewBookingEvent(eventType, b, at)
	event.Reason = reason

	if err := s.producer.Publish(ctx, s.bookingTopic, b.ID, event); err != nil {
		s.log.Warn("publish booking event", zap.String("type", eventType), zap.String("booking_id", b.ID), zap.Error(err))
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, b.ID, event); err != nil {
			s.log.Warn("publish notification", zap.String("type", eventType), zap.String("booking_id", b.ID), zap.Error(err))
		}
	}
}

func calendarDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

var _ BookingUseCase = (*BookingService)(nil)
