package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/uptrace/bun"
)

// BunBookingRepository stores bookings through bun; it backs the SQLite deployment and tests.
type BunBookingRepository struct {
	db *bun.DB
}

func NewBunBookingRepository(db *bun.DB) BookingRepository {
	return &BunBookingRepository{db: db}
}

func (r *BunBookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	if _, err := r.db.NewInsert().Model(newBookingModel(b)).Exec(ctx); err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

func (r *BunBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	m := new(bookingModel)
	if err := r.db.NewSelect().Model(m).Where("id = ?", id).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	b := m.toDomain()
	return &b, nil
}

func (r *BunBookingRepository) List(ctx context.Context, f BookingFilter) ([]domain.Booking, error) {
	var models []bookingModel
	q := r.db.NewSelect().Model(&models)
	if f.UserRef != "" {
		q = q.Where("user_ref = ?", f.UserRef)
	}
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}
	if f.Kind != "" {
		q = q.Where("kind = ?", string(f.Kind))
	}
	if f.Search != "" {
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			term := escapeLike(f.Search)
			return q.Where(`id LIKE ? ESCAPE '\'`, term+"%").WhereOr(`email LIKE ? ESCAPE '\'`, "%"+term+"%")
		})
	}
	err := q.Order("created_at DESC").Limit(listLimit(f.Limit)).Offset(f.Offset).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return toBookings(models), nil
}

func (r *BunBookingRepository) Transition(ctx context.Context, id string, upd TransitionUpdate) (*domain.Booking, error) {
	q := r.db.NewUpdate().Model((*bookingModel)(nil)).
		Set("status = ?", string(upd.To)).
		Set("version = version + 1").
		Set("updated_at = ?", upd.At)
	if upd.PaidAmount != nil {
		q = q.Set("paid_amount = ?", *upd.PaidAmount)
	}
	if upd.PaymentReference != nil {
		q = q.Set("payment_reference = ?", *upd.PaymentReference)
	}
	if upd.LastPaymentError != nil {
		q = q.Set("last_payment_error = ?", *upd.LastPaymentError)
	}
	if upd.RefundAmount != nil {
		q = q.Set("refund_amount = ?", *upd.RefundAmount)
	}
	if upd.RefundStatus != nil {
		q = q.Set("refund_status = ?", string(*upd.RefundStatus))
	}
	if upd.DecidedAt != nil {
		q = q.Set("decided_at = ?", *upd.DecidedAt)
	}
	if upd.ConfirmedAt != nil {
		q = q.Set("confirmed_at = ?", *upd.ConfirmedAt)
	}
	if upd.CancelledAt != nil {
		q = q.Set("cancelled_at = ?", *upd.CancelledAt)
	}

	res, err := q.Where("id = ?", id).Where("status = ?", string(upd.From)).Exec(ctx)
	if err != nil {
		return nil, err
	}
	return r.afterConditionalUpdate(ctx, id, res)
}

func (r *BunBookingRepository) ListPendingRefunds(ctx context.Context, limit int) ([]domain.Booking, error) {
	var models []bookingModel
	err := r.db.NewSelect().Model(&models).
		Where("status = ?", string(domain.BookingStatusCancelled)).
		Where("refund_status = ?", string(domain.RefundStatusPending)).
		Order("cancelled_at").
		Limit(listLimit(limit)).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return toBookings(models), nil
}

func (r *BunBookingRepository) MarkRefundIssued(ctx context.Context, id, reference string, at time.Time) (*domain.Booking, error) {
	res, err := r.db.NewUpdate().Model((*bookingModel)(nil)).
		Set("refund_status = ?", string(domain.RefundStatusIssued)).
		Set("refund_reference = ?", reference).
		Set("version = version + 1").
		Set("updated_at = ?", at).
		Where("id = ?", id).
		Where("refund_status = ?", string(domain.RefundStatusPending)).
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	return r.afterConditionalUpdate(ctx, id, res)
}

// afterConditionalUpdate reads the row back, distinguishing a missing booking from a lost race.
func (r *BunBookingRepository) afterConditionalUpdate(ctx context.Context, id string, res sql.Result) (*domain.Booking, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	b, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrStaleStatus
	}
	return b, nil
}

func toBookings(models []bookingModel) []domain.Booking {
	bookings := make([]domain.Booking, 0, len(models))
	for i := range models {
		bookings = append(bookings, models[i].toDomain())
	}
	return bookings
}

var _ BookingRepository = (*BunBookingRepository)(nil)
