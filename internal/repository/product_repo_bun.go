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

type BunProductRepository struct {
	db  *bun.DB
	now func() time.Time
}

func NewBunProductRepository(db *bun.DB) ProductRepository {
	return &BunProductRepository{db: db, now: time.Now}
}

func (r *BunProductRepository) List(ctx context.Context, f ProductFilter) ([]domain.Product, error) {
	var models []productModel
	q := r.db.NewSelect().Model(&models)
	if f.Kind != "" {
		q = q.Where("kind = ?", string(f.Kind))
	}
	if f.ActiveOnly {
		q = q.Where("active = ?", true)
	}
	if err := q.Order("kind", "name").Scan(ctx); err != nil {
		return nil, err
	}

	products := make([]domain.Product, 0, len(models))
	for i := range models {
		products = append(products, models[i].toDomain())
	}
	return products, nil
}

func (r *BunProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	m := new(productModel)
	if err := r.db.NewSelect().Model(m).Where("id = ?", id).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	p := m.toDomain()
	return &p, nil
}

func (r *BunProductRepository) Create(ctx context.Context, p *domain.Product) error {
	ts := r.now().UTC()
	p.CreatedAt, p.UpdatedAt = ts, ts

	m := newProductModel(p)
	if _, err := r.db.NewInsert().Model(m).Exec(ctx); err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	p.ID = m.ID
	return nil
}

func (r *BunProductRepository) Update(ctx context.Context, p *domain.Product) error {
	existing, err := r.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = r.now().UTC()

	res, err := r.db.NewUpdate().Model(newProductModel(p)).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var _ ProductRepository = (*BunProductRepository)(nil)
