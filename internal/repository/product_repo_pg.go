package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const productColumns = `id, kind, name, description, price_cents, currency, full_refund_window_days, half_refund_window_days,
	starts_at, active, created_at, updated_at`

type PGProductRepository struct {
	db *pgxpool.Pool
}

func NewProductRepository(db *pgxpool.Pool) ProductRepository {
	return &PGProductRepository{db: db}
}

func (r *PGProductRepository) List(ctx context.Context, f ProductFilter) ([]domain.Product, error) {
	rows, err := r.db.Query(ctx, `SELECT `+productColumns+` FROM products
		WHERE ($1 = '' OR kind = $1) AND (NOT $2 OR active)
		ORDER BY kind, name`, string(f.Kind), f.ActiveOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (r *PGProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *PGProductRepository) Create(ctx context.Context, p *domain.Product) error {
	err := r.db.QueryRow(ctx, `INSERT INTO products (kind, name, description, price_cents, currency,
			full_refund_window_days, half_refund_window_days, starts_at, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`,
		string(p.Kind), p.Name, p.Description, p.PriceCents, p.Currency, p.FullRefundWindowDays, p.HalfRefundWindowDays,
		p.StartsAt, p.Active).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *PGProductRepository) Update(ctx context.Context, p *domain.Product) error {
	err := r.db.QueryRow(ctx, `UPDATE products SET kind=$2, name=$3, description=$4, price_cents=$5, currency=$6,
			full_refund_window_days=$7, half_refund_window_days=$8, starts_at=$9, active=$10, updated_at=now()
		WHERE id=$1
		RETURNING created_at, updated_at`,
		p.ID, string(p.Kind), p.Name, p.Description, p.PriceCents, p.Currency, p.FullRefundWindowDays,
		p.HalfRefundWindowDays, p.StartsAt, p.Active).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	if err := row.Scan(&p.ID, &p.Kind, &p.Name, &p.Description, &p.PriceCents, &p.Currency, &p.FullRefundWindowDays,
		&p.HalfRefundWindowDays, &p.StartsAt, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

var _ ProductRepository = (*PGProductRepository)(nil)
