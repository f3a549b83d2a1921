package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/Domenick1991/travelbooking/internal/payment"
	"github.com/Domenick1991/travelbooking/internal/repository"
	"github.com/Domenick1991/travelbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockBookingUseCase struct {
	mock.Mock
}

func (m *MockBookingUseCase) booking(args mock.Arguments) (*domain.Booking, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) CreateBooking(ctx context.Context, input booking.CreateBookingInput) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, input))
}

func (m *MockBookingUseCase) GetBooking(ctx context.Context, id string) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, id))
}

func (m *MockBookingUseCase) ListBookings(ctx context.Context, filter repository.BookingFilter) ([]domain.Booking, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) Decide(ctx context.Context, id string, decision domain.BookingStatus) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, id, decision))
}

func (m *MockBookingUseCase) StartCheckout(ctx context.Context, id string) (*payment.CheckoutSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.CheckoutSession), args.Error(1)
}

func (m *MockBookingUseCase) ConfirmPayment(ctx context.Context, input booking.PaymentInput) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, input))
}

func (m *MockBookingUseCase) RecordPaymentFailure(ctx context.Context, id, reason string) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, id, reason))
}

func (m *MockBookingUseCase) QuoteRefund(ctx context.Context, id string) (*domain.RefundQuote, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RefundQuote), args.Error(1)
}

func (m *MockBookingUseCase) CancelBooking(ctx context.Context, id string) (*domain.Booking, error) {
	return m.booking(m.Called(ctx, id))
}

func (m *MockBookingUseCase) ProcessPendingRefunds(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func newTestContext(method, target string, body any, params ...gin.Param) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}
	c.Request = httptest.NewRequest(method, target, reader)
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = params
	return c, w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func sampleBooking(status domain.BookingStatus) *domain.Booking {
	return &domain.Booking{
		ID:             "b-1",
		Kind:           domain.ProductKindResort,
		Status:         status,
		UserRef:        "u-1",
		ProductID:      3,
		Email:          "u1@example.com",
		Quantity:       1,
		TotalAmount:    1000,
		Currency:       "usd",
		OccurrenceDate: time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC),
		RefundStatus:   domain.RefundStatusNone,
		Version:        1,
	}
}

func TestBookingHandler_create(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	c, w := newTestContext(http.MethodPost, "/api/v1/bookings", gin.H{
		"user_ref":        "u-1",
		"product_id":      3,
		"email":           "u1@example.com",
		"occurrence_date": "2026-05-01",
	})

	date := time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC)
	mockService.On("CreateBooking", c.Request.Context(), booking.CreateBookingInput{
		UserRef:        "u-1",
		ProductID:      3,
		Email:          "u1@example.com",
		OccurrenceDate: &date,
	}).Return(sampleBooking(domain.BookingStatusRequested), nil)

	handler.create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	assert.Equal(t, "b-1", body["id"])
	assert.Equal(t, "Requested", body["status"])
	assert.Equal(t, "2026-05-01", body["occurrence_date"])
	assert.ElementsMatch(t, []any{"approve", "decline"}, body["allowed_actions"])
	mockService.AssertExpectations(t)
}

func TestBookingHandler_create_InvalidBody(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	c, w := newTestContext(http.MethodPost, "/api/v1/bookings", gin.H{"user_ref": "u-1", "product_id": 3, "email": "not-an-email"})

	handler.create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything)
}

func TestBookingHandler_create_BadDate(t *testing.T) {
	handler := NewBookingHandler(&MockBookingUseCase{})

	c, w := newTestContext(http.MethodPost, "/api/v1/bookings", gin.H{
		"user_ref": "u-1", "product_id": 3, "email": "u1@example.com", "occurrence_date": "01/05/2026",
	})

	handler.create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation", decode(t, w)["code"])
}

func TestBookingHandler_get_NotFound(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	c, w := newTestContext(http.MethodGet, "/api/v1/bookings/nope", nil, gin.Param{Key: "id", Value: "nope"})
	mockService.On("GetBooking", c.Request.Context(), "nope").Return(nil, domain.ErrNotFound)

	handler.get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decode(t, w)["code"])
}

func TestBookingHandler_list(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	c, w := newTestContext(http.MethodGet, "/api/v1/bookings?user_ref=u-1&status=Confirmed&limit=5", nil)
	mockService.On("ListBookings", c.Request.Context(), repository.BookingFilter{
		UserRef: "u-1",
		Status:  domain.BookingStatusConfirmed,
		Limit:   5,
	}).Return([]domain.Booking{*sampleBooking(domain.BookingStatusConfirmed)}, nil)

	handler.list(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var body []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, []any{"cancel"}, body[0]["allowed_actions"])
}

func TestBookingHandler_list_UnknownStatus(t *testing.T) {
	handler := NewBookingHandler(&MockBookingUseCase{})

	c, w := newTestContext(http.MethodGet, "/api/v1/bookings?status=pending", nil)

	handler.list(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBookingHandler_decide_Conflict(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	c, w := newTestContext(http.MethodPost, "/api/v1/admin/bookings/b-1/decision", gin.H{"decision": "Approved"},
		gin.Param{Key: "id", Value: "b-1"})
	mockService.On("Decide", c.Request.Context(), "b-1", domain.BookingStatusApproved).Return(nil, &domain.TransitionError{
		BookingID: "b-1",
		Current:   domain.BookingStatusDeclined,
		Action:    domain.ActionApprove,
	})

	handler.decide(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	body := decode(t, w)
	assert.Equal(t, "invalid_transition", body["code"])
	details := body["details"].(map[string]any)
	assert.Equal(t, "Declined", details["current_status"])
}

func TestBookingHandler_decide_RejectsUnknownDecision(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	c, w := newTestContext(http.MethodPost, "/api/v1/admin/bookings/b-1/decision", gin.H{"decision": "confirmed"},
		gin.Param{Key: "id", Value: "b-1"})

	handler.decide(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "Decide", mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingHandler_checkout(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	c, w := newTestContext(http.MethodPost, "/api/v1/bookings/b-1/checkout", nil, gin.Param{Key: "id", Value: "b-1"})
	mockService.On("StartCheckout", c.Request.Context(), "b-1").Return(&payment.CheckoutSession{ID: "cs_1", URL: "https://pay/cs_1"}, nil)

	handler.checkout(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://pay/cs_1", decode(t, w)["url"])
}

func TestBookingHandler_confirmPayment_Mismatch(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	c, w := newTestContext(http.MethodPost, "/api/v1/bookings/b-1/payments/confirm", gin.H{"amount": 999, "reference": "pi_1"},
		gin.Param{Key: "id", Value: "b-1"})
	mockService.On("ConfirmPayment", c.Request.Context(), booking.PaymentInput{BookingID: "b-1", Amount: 999, Reference: "pi_1"}).
		Return(nil, &domain.PaymentMismatchError{BookingID: "b-1", Expected: 1000, Actual: 999})

	handler.confirmPayment(c)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decode(t, w)
	assert.Equal(t, "payment_mismatch", body["code"])
	assert.Equal(t, float64(1000), body["details"].(map[string]any)["expected"])
}

func TestBookingHandler_failPayment_EmptyBody(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	c, w := newTestContext(http.MethodPost, "/api/v1/bookings/b-1/payments/fail", nil, gin.Param{Key: "id", Value: "b-1"})
	failed := sampleBooking(domain.BookingStatusApproved)
	failed.LastPaymentError = "payment failed"
	mockService.On("RecordPaymentFailure", c.Request.Context(), "b-1", "").Return(failed, nil)

	handler.failPayment(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Approved", decode(t, w)["status"])
}

func TestBookingHandler_refundQuote(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	c, w := newTestContext(http.MethodGet, "/api/v1/bookings/b-1/refund-quote", nil, gin.Param{Key: "id", Value: "b-1"})
	mockService.On("QuoteRefund", c.Request.Context(), "b-1").Return(&domain.RefundQuote{
		BookingID: "b-1", DaysUntil: 10, Tier: domain.RefundTierHalf, Amount: 500, Eligible: true,
	}, nil)

	handler.refundQuote(c)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "half", body["tier"])
	assert.Equal(t, float64(500), body["amount"])
}

func TestBookingHandler_cancel_WindowClosed(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	c, w := newTestContext(http.MethodPost, "/api/v1/bookings/b-1/cancel", nil, gin.Param{Key: "id", Value: "b-1"})
	mockService.On("CancelBooking", c.Request.Context(), "b-1").Return(nil, &domain.RefundWindowError{
		Quote: domain.RefundQuote{BookingID: "b-1", DaysUntil: 1, Tier: domain.RefundTierNone, Reason: "cancellation cutoff reached"},
	})

	handler.cancel(c)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decode(t, w)
	assert.Equal(t, "refund_window_closed", body["code"])
	assert.Equal(t, float64(1), body["details"].(map[string]any)["days_until"])
}

func TestBookingHandler_cancel_InternalErrorIsMasked(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	c, w := newTestContext(http.MethodPost, "/api/v1/bookings/b-1/cancel", nil, gin.Param{Key: "id", Value: "b-1"})
	mockService.On("CancelBooking", c.Request.Context(), "b-1").Return(nil, errors.New("connection reset"))

	handler.cancel(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection reset")
}
