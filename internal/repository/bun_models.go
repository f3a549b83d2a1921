package repository

import (
	"context"
	"time"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/uptrace/bun"
)

type bookingModel struct {
	bun.BaseModel `bun:"table:bookings"`

	ID                   string     `bun:"id,pk"`
	Kind                 string     `bun:"kind,notnull"`
	Status               string     `bun:"status,notnull"`
	UserRef              string     `bun:"user_ref,notnull"`
	ProductID            int64      `bun:"product_id,notnull"`
	Email                string     `bun:"email,notnull"`
	Quantity             int        `bun:"quantity,notnull"`
	TotalAmount          int64      `bun:"total_amount,notnull"`
	PaidAmount           int64      `bun:"paid_amount,notnull"`
	Currency             string     `bun:"currency,notnull"`
	OccurrenceDate       time.Time  `bun:"occurrence_date,notnull"`
	FullRefundWindowDays int        `bun:"full_refund_window_days,notnull"`
	HalfRefundWindowDays int        `bun:"half_refund_window_days,notnull"`
	PaymentReference     string     `bun:"payment_reference,notnull"`
	LastPaymentError     string     `bun:"last_payment_error,notnull"`
	RefundAmount         int64      `bun:"refund_amount,notnull"`
	RefundStatus         string     `bun:"refund_status,notnull"`
	RefundReference      string     `bun:"refund_reference,notnull"`
	Version              int64      `bun:"version,notnull"`
	DecidedAt            *time.Time `bun:"decided_at"`
	ConfirmedAt          *time.Time `bun:"confirmed_at"`
	CancelledAt          *time.Time `bun:"cancelled_at"`
	CreatedAt            time.Time  `bun:"created_at,notnull"`
	UpdatedAt            time.Time  `bun:"updated_at,notnull"`
}

func newBookingModel(b *domain.Booking) *bookingModel {
	return &bookingModel{
		ID:                   b.ID,
		Kind:                 string(b.Kind),
		Status:               string(b.Status),
		UserRef:              b.UserRef,
		ProductID:            b.ProductID,
		Email:                b.Email,
		Quantity:             b.Quantity,
		TotalAmount:          b.TotalAmount,
		PaidAmount:           b.PaidAmount,
		Currency:             b.Currency,
		OccurrenceDate:       b.OccurrenceDate,
		FullRefundWindowDays: b.FullRefundWindowDays,
		HalfRefundWindowDays: b.HalfRefundWindowDays,
		PaymentReference:     b.PaymentReference,
		LastPaymentError:     b.LastPaymentError,
		RefundAmount:         b.RefundAmount,
		RefundStatus:         string(b.RefundStatus),
		RefundReference:      b.RefundReference,
		Version:              b.Version,
		DecidedAt:            b.DecidedAt,
		ConfirmedAt:          b.ConfirmedAt,
		CancelledAt:          b.CancelledAt,
		CreatedAt:            b.CreatedAt,
		UpdatedAt:            b.UpdatedAt,
	}
}

func (m *bookingModel) toDomain() domain.Booking {
	return domain.Booking{
		ID:                   m.ID,
		Kind:                 domain.ProductKind(m.Kind),
		Status:               domain.BookingStatus(m.Status),
		UserRef:              m.UserRef,
		ProductID:            m.ProductID,
		Email:                m.Email,
		Quantity:             m.Quantity,
		TotalAmount:          m.TotalAmount,
		PaidAmount:           m.PaidAmount,
		Currency:             m.Currency,
		OccurrenceDate:       m.OccurrenceDate,
		FullRefundWindowDays: m.FullRefundWindowDays,
		HalfRefundWindowDays: m.HalfRefundWindowDays,
		PaymentReference:     m.PaymentReference,
		LastPaymentError:     m.LastPaymentError,
		RefundAmount:         m.RefundAmount,
		RefundStatus:         domain.RefundStatus(m.RefundStatus),
		RefundReference:      m.RefundReference,
		Version:              m.Version,
		DecidedAt:            m.DecidedAt,
		ConfirmedAt:          m.ConfirmedAt,
		CancelledAt:          m.CancelledAt,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}

type productModel struct {
	bun.BaseModel `bun:"table:products"`

	ID                   int64      `bun:"id,pk,autoincrement"`
	Kind                 string     `bun:"kind,notnull"`
	Name                 string     `bun:"name,notnull"`
	Description          string     `bun:"description,notnull"`
	PriceCents           int64      `bun:"price_cents,notnull"`
	Currency             string     `bun:"currency,notnull"`
	FullRefundWindowDays int        `bun:"full_refund_window_days,notnull"`
	HalfRefundWindowDays int        `bun:"half_refund_window_days,notnull"`
	StartsAt             *time.Time `bun:"starts_at"`
	Active               bool       `bun:"active,notnull"`
	CreatedAt            time.Time  `bun:"created_at,notnull"`
	UpdatedAt            time.Time  `bun:"updated_at,notnull"`
}

func newProductModel(p *domain.Product) *productModel {
	return &productModel{
		ID:                   p.ID,
		Kind:                 string(p.Kind),
		Name:                 p.Name,
		Description:          p.Description,
		PriceCents:           p.PriceCents,
		Currency:             p.Currency,
		FullRefundWindowDays: p.FullRefundWindowDays,
		HalfRefundWindowDays: p.HalfRefundWindowDays,
		StartsAt:             p.StartsAt,
		Active:               p.Active,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
}

func (m *productModel) toDomain() domain.Product {
	return domain.Product{
		ID:                   m.ID,
		Kind:                 domain.ProductKind(m.Kind),
		Name:                 m.Name,
		Description:          m.Description,
		PriceCents:           m.PriceCents,
		Currency:             m.Currency,
		FullRefundWindowDays: m.FullRefundWindowDays,
		HalfRefundWindowDays: m.HalfRefundWindowDays,
		StartsAt:             m.StartsAt,
		Active:               m.Active,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}

// CreateBunSchema creates the tables used by the bun repositories if they are missing.
// PostgreSQL deployments use the SQL migrations instead.
func CreateBunSchema(ctx context.Context, db *bun.DB) error {
	for _, model := range []any{(*productModel)(nil), (*bookingModel)(nil)} {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}
