package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/Domenick1991/travelbooking/internal/service/catalog"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockProductUseCase struct {
	mock.Mock
}

func (m *MockProductUseCase) List(ctx context.Context, kind domain.ProductKind) ([]domain.Product, error) {
	args := m.Called(ctx, kind)
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *MockProductUseCase) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductUseCase) Create(ctx context.Context, input catalog.ProductInput) (*domain.Product, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductUseCase) Update(ctx context.Context, id int64, input catalog.ProductInput) (*domain.Product, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func TestProductHandler_list(t *testing.T) {
	mockService := &MockProductUseCase{}
	handler := NewProductHandler(mockService)

	c, w := newTestContext(http.MethodGet, "/api/v1/products?kind=visa", nil)
	mockService.On("List", c.Request.Context(), domain.ProductKindVisa).Return([]domain.Product{
		{ID: 1, Kind: domain.ProductKindVisa, Name: "Schengen visa", PriceCents: 9000, Currency: "eur", Active: true},
	}, nil)

	handler.list(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var body []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, "Schengen visa", body[0]["name"])
}

func TestProductHandler_list_UnknownKind(t *testing.T) {
	mockService := &MockProductUseCase{}
	handler := NewProductHandler(mockService)

	c, w := newTestContext(http.MethodGet, "/api/v1/products?kind=cruise", nil)

	handler.list(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestProductHandler_get(t *testing.T) {
	mockService := &MockProductUseCase{}
	handler := NewProductHandler(mockService)

	c, w := newTestContext(http.MethodGet, "/api/v1/products/1", nil, gin.Param{Key: "id", Value: "1"})
	mockService.On("GetByID", c.Request.Context(), int64(1)).Return(&domain.Product{ID: 1, Name: "Lagoon"}, nil)

	handler.get(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Lagoon", decode(t, w)["name"])
}

func TestProductHandler_get_InvalidID(t *testing.T) {
	handler := NewProductHandler(&MockProductUseCase{})

	c, w := newTestContext(http.MethodGet, "/api/v1/products/abc", nil, gin.Param{Key: "id", Value: "abc"})

	handler.get(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProductHandler_create_DefaultsToActive(t *testing.T) {
	mockService := &MockProductUseCase{}
	handler := NewProductHandler(mockService)

	c, w := newTestContext(http.MethodPost, "/api/v1/admin/products", gin.H{
		"kind":                    "package",
		"name":                    "Alps week",
		"price_cents":             150000,
		"full_refund_window_days": 14,
		"half_refund_window_days": 7,
	})
	mockService.On("Create", c.Request.Context(), catalog.ProductInput{
		Kind:                 domain.ProductKindPackage,
		Name:                 "Alps week",
		PriceCents:           150000,
		FullRefundWindowDays: 14,
		HalfRefundWindowDays: 7,
		Active:               true,
	}).Return(&domain.Product{ID: 5, Kind: domain.ProductKindPackage, Name: "Alps week", Active: true}, nil)

	handler.create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, float64(5), decode(t, w)["id"])
	mockService.AssertExpectations(t)
}

func TestProductHandler_update_ValidationError(t *testing.T) {
	mockService := &MockProductUseCase{}
	handler := NewProductHandler(mockService)

	c, w := newTestContext(http.MethodPut, "/api/v1/admin/products/5", gin.H{
		"kind": "package", "name": "Alps week", "price_cents": 100, "full_refund_window_days": 1, "half_refund_window_days": 7,
	}, gin.Param{Key: "id", Value: "5"})
	mockService.On("Update", c.Request.Context(), int64(5), mock.Anything).
		Return(nil, domain.NewValidationError("refund windows must satisfy full >= half >= 0"))

	handler.update(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation", decode(t, w)["code"])
}
