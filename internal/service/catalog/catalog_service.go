package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/Domenick1991/travelbooking/internal/repository"
	"go.uber.org/zap"
)

type ProductUseCase interface {
	List(ctx context.Context, kind domain.ProductKind) ([]domain.Product, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	Create(ctx context.Context, input ProductInput) (*domain.Product, error)
	Update(ctx context.Context, id int64, input ProductInput) (*domain.Product, error)
}

type ProductCache interface {
	GetProducts(ctx context.Context, kind domain.ProductKind) ([]domain.Product, error)
	SetProducts(ctx context.Context, kind domain.ProductKind, products []domain.Product) error
	InvalidateProducts(ctx context.Context) error
}

type ProductInput struct {
	Kind                 domain.ProductKind
	Name                 string
	Description          string
	PriceCents           int64
	Currency             string
	FullRefundWindowDays int
	HalfRefundWindowDays int
	StartsAt             *time.Time
	Active               bool
}

type ProductService struct {
	repo            repository.ProductRepository
	cache           ProductCache
	defaultCurrency string
	log             *zap.Logger
}

func NewProductService(repo repository.ProductRepository, cache ProductCache, defaultCurrency string, log *zap.Logger) *ProductService {
	return &ProductService{repo: repo, cache: cache, defaultCurrency: defaultCurrency, log: log}
}

// List returns active products, optionally of one kind, reading through the cache.
func (s *ProductService) List(ctx context.Context, kind domain.ProductKind) ([]domain.Product, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetProducts(ctx, kind); err == nil && cached != nil {
			return cached, nil
		} else if err != nil {
			s.log.Warn("product cache read failed", zap.Error(err))
		}
	}

	products, err := s.repo.List(ctx, repository.ProductFilter{Kind: kind, ActiveOnly: true})
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetProducts(ctx, kind, products); err != nil {
			s.log.Warn("product cache write failed", zap.Error(err))
		}
	}
	return products, nil
}

func (s *ProductService) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *ProductService) Create(ctx context.Context, input ProductInput) (*domain.Product, error) {
	p, err := s.build(input)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	s.log.Info("product created", zap.Int64("product_id", p.ID), zap.String("kind", string(p.Kind)))
	return p, nil
}

// Update edits the catalog entry. Existing bookings keep the terms they copied at booking time.
func (s *ProductService) Update(ctx context.Context, id int64, input ProductInput) (*domain.Product, error) {
	p, err := s.build(input)
	if err != nil {
		return nil, err
	}
	p.ID = id
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return p, nil
}

func (s *ProductService) build(input ProductInput) (*domain.Product, error) {
	if _, err := domain.ParseProductKind(string(input.Kind)); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.NewValidationError("name is required")
	}
	if input.PriceCents <= 0 {
		return nil, domain.NewValidationError("price must be positive")
	}
	if input.HalfRefundWindowDays < 0 || input.FullRefundWindowDays < input.HalfRefundWindowDays {
		return nil, domain.NewValidationError("refund windows must satisfy full >= half >= 0")
	}
	currency := strings.ToLower(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = s.defaultCurrency
	}
	if len(currency) != 3 {
		return nil, domain.NewValidationError("currency must be a three-letter code")
	}

	return &domain.Product{
		Kind:                 input.Kind,
		Name:                 name,
		Description:          input.Description,
		PriceCents:           input.PriceCents,
		Currency:             currency,
		FullRefundWindowDays: input.FullRefundWindowDays,
		HalfRefundWindowDays: input.HalfRefundWindowDays,
		StartsAt:             input.StartsAt,
		Active:               input.Active,
	}, nil
}

func (s *ProductService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateProducts(ctx); err != nil {
		s.log.Warn("product cache invalidation failed", zap.Error(err))
	}
}

var _ ProductUseCase = (*ProductService)(nil)
