package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const bookingColumns = `id, kind, status, user_ref, product_id, email, quantity, total_amount, paid_amount, currency,
	occurrence_date, full_refund_window_days, half_refund_window_days, payment_reference, last_payment_error,
	refund_amount, refund_status, refund_reference, version, decided_at, confirmed_at, cancelled_at, created_at, updated_at`

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

func (r *PGBookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	_, err := r.db.Exec(ctx, `INSERT INTO bookings (id, kind, status, user_ref, product_id, email, quantity, total_amount, paid_amount,
		currency, occurrence_date, full_refund_window_days, half_refund_window_days, refund_status, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		b.ID, string(b.Kind), string(b.Status), b.UserRef, b.ProductID, b.Email, b.Quantity, b.TotalAmount, b.PaidAmount,
		b.Currency, b.OccurrenceDate, b.FullRefundWindowDays, b.HalfRefundWindowDays, string(b.RefundStatus), b.Version,
		b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	b, err := scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (r *PGBookingRepository) List(ctx context.Context, f BookingFilter) ([]domain.Booking, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.UserRef != "" {
		where = append(where, "user_ref = "+arg(f.UserRef))
	}
	if f.Status != "" {
		where = append(where, "status = "+arg(string(f.Status)))
	}
	if f.Kind != "" {
		where = append(where, "kind = "+arg(string(f.Kind)))
	}
	if f.Search != "" {
		p := arg(escapeLike(f.Search))
		where = append(where, fmt.Sprintf(`(id::text LIKE %s || '%%' ESCAPE '\' OR email ILIKE '%%' || %s || '%%' ESCAPE '\')`, p, p))
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC LIMIT " + arg(listLimit(f.Limit)) + " OFFSET " + arg(f.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

func (r *PGBookingRepository) Transition(ctx context.Context, id string, upd TransitionUpdate) (*domain.Booking, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	row := r.db.QueryRow(ctx, `UPDATE bookings SET
			status = $3,
			paid_amount = COALESCE($4, paid_amount),
			payment_reference = COALESCE($5, payment_reference),
			last_payment_error = COALESCE($6, last_payment_error),
			refund_amount = COALESCE($7, refund_amount),
			refund_status = COALESCE($8, refund_status),
			decided_at = COALESCE($9, decided_at),
			confirmed_at = COALESCE($10, confirmed_at),
			cancelled_at = COALESCE($11, cancelled_at),
			version = version + 1,
			updated_at = $12
		WHERE id = $1 AND status = $2
		RETURNING `+bookingColumns,
		id, string(upd.From), string(upd.To), upd.PaidAmount, upd.PaymentReference, upd.LastPaymentError,
		upd.RefundAmount, refundStatusPtr(upd.RefundStatus), upd.DecidedAt, upd.ConfirmedAt, upd.CancelledAt, upd.At)

	b, err := scanBooking(row)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	return nil, r.missOrStale(ctx, id)
}

func (r *PGBookingRepository) ListPendingRefunds(ctx context.Context, limit int) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE status = $1 AND refund_status = $2
		ORDER BY cancelled_at LIMIT $3`,
		string(domain.BookingStatusCancelled), string(domain.RefundStatusPending), listLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

func (r *PGBookingRepository) MarkRefundIssued(ctx context.Context, id, reference string, at time.Time) (*domain.Booking, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	row := r.db.QueryRow(ctx, `UPDATE bookings SET refund_status = $2, refund_reference = $3, version = version + 1, updated_at = $4
		WHERE id = $1 AND refund_status = $5
		RETURNING `+bookingColumns,
		id, string(domain.RefundStatusIssued), reference, at, string(domain.RefundStatusPending))

	b, err := scanBooking(row)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	return nil, r.missOrStale(ctx, id)
}

func (r *PGBookingRepository) missOrStale(ctx context.Context, id string) error {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM bookings WHERE id=$1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return domain.ErrNotFound
	}
	return ErrStaleStatus
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.Kind, &b.Status, &b.UserRef, &b.ProductID, &b.Email, &b.Quantity, &b.TotalAmount,
		&b.PaidAmount, &b.Currency, &b.OccurrenceDate, &b.FullRefundWindowDays, &b.HalfRefundWindowDays,
		&b.PaymentReference, &b.LastPaymentError, &b.RefundAmount, &b.RefundStatus, &b.RefundReference, &b.Version,
		&b.DecidedAt, &b.ConfirmedAt, &b.CancelledAt, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func collectBookings(rows pgx.Rows) ([]domain.Booking, error) {
	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

var _ BookingRepository = (*PGBookingRepository)(nil)
