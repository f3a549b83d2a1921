package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/Domenick1991/travelbooking/internal/lifecycle"
	"github.com/Domenick1991/travelbooking/internal/repository"
	"github.com/Domenick1991/travelbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

type BookingHandler struct {
	service booking.BookingUseCase
}

type createBookingRequest struct {
	UserRef        string `json:"user_ref" binding:"required"`
	ProductID      int64  `json:"product_id" binding:"required"`
	Quantity       int    `json:"quantity"`
	OccurrenceDate string `json:"occurrence_date"`
	Email          string `json:"email" binding:"required,email"`
}

type decisionRequest struct {
	Decision string `json:"decision" binding:"required,oneof=Approved Declined"`
}

type confirmPaymentRequest struct {
	Amount    int64  `json:"amount"`
	Reference string `json:"reference" binding:"required"`
}

type failPaymentRequest struct {
	Reason string `json:"reason"`
}

type bookingResponse struct {
	ID                   string     `json:"id"`
	Kind                 string     `json:"kind"`
	Status               string     `json:"status"`
	UserRef              string     `json:"user_ref"`
	ProductID            int64      `json:"product_id"`
	Email                string     `json:"email"`
	Quantity             int        `json:"quantity"`
	TotalAmount          int64      `json:"total_amount"`
	PaidAmount           int64      `json:"paid_amount"`
	Currency             string     `json:"currency"`
	OccurrenceDate       string     `json:"occurrence_date"`
	FullRefundWindowDays int        `json:"full_refund_window_days"`
	HalfRefundWindowDays int        `json:"half_refund_window_days"`
	PaymentReference     string     `json:"payment_reference,omitempty"`
	LastPaymentError     string     `json:"last_payment_error,omitempty"`
	RefundAmount         int64      `json:"refund_amount"`
	RefundStatus         string     `json:"refund_status"`
	AllowedActions       []string   `json:"allowed_actions"`
	Version              int64      `json:"version"`
	DecidedAt            *time.Time `json:"decided_at,omitempty"`
	ConfirmedAt          *time.Time `json:"confirmed_at,omitempty"`
	CancelledAt          *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

type quoteResponse struct {
	BookingID string `json:"booking_id"`
	DaysUntil int    `json:"days_until"`
	Tier      string `json:"tier"`
	Amount    int64  `json:"amount"`
	Eligible  bool   `json:"eligible"`
	Reason    string `json:"reason,omitempty"`
}

type checkoutResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/bookings", h.create)
	router.GET("/bookings", h.list)
	router.GET("/bookings/:id", h.get)
	router.POST("/bookings/:id/checkout", h.checkout)
	router.POST("/bookings/:id/payments/confirm", h.confirmPayment)
	router.POST("/bookings/:id/payments/fail", h.failPayment)
	router.GET("/bookings/:id/refund-quote", h.refundQuote)
	router.POST("/bookings/:id/cancel", h.cancel)
}

func (h *BookingHandler) RegisterAdmin(router *gin.RouterGroup) {
	router.POST("/bookings/:id/decision", h.decide)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	input := booking.CreateBookingInput{
		UserRef:   req.UserRef,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Email:     req.Email,
	}
	if req.OccurrenceDate != "" {
		date, err := time.Parse(dateLayout, req.OccurrenceDate)
		if err != nil {
			writeError(c, domain.NewValidationError("occurrence_date must be YYYY-MM-DD"))
			return
		}
		input.OccurrenceDate = &date
	}

	b, err := h.service.CreateBooking(c.Request.Context(), input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newBookingResponse(b))
}

func (h *BookingHandler) list(c *gin.Context) {
	filter := repository.BookingFilter{
		UserRef: c.Query("user_ref"),
		Search:  c.Query("search"),
	}
	if s := c.Query("status"); s != "" {
		status, err := domain.ParseBookingStatus(s)
		if err != nil {
			writeError(c, err)
			return
		}
		filter.Status = status
	}
	if k := c.Query("kind"); k != "" {
		kind, err := domain.ParseProductKind(k)
		if err != nil {
			writeError(c, err)
			return
		}
		filter.Kind = kind
	}
	filter.Limit, _ = strconv.Atoi(c.Query("limit"))
	filter.Offset, _ = strconv.Atoi(c.Query("offset"))
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	bookings, err := h.service.ListBookings(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	resp := make([]bookingResponse, 0, len(bookings))
	for i := range bookings {
		resp = append(resp, newBookingResponse(&bookings[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) get(c *gin.Context) {
	b, err := h.service.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newBookingResponse(b))
}

func (h *BookingHandler) decide(c *gin.Context) {
	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	decision, err := domain.ParseBookingStatus(req.Decision)
	if err != nil {
		writeError(c, err)
		return
	}

	b, err := h.service.Decide(c.Request.Context(), c.Param("id"), decision)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newBookingResponse(b))
}

func (h *BookingHandler) checkout(c *gin.Context) {
	sess, err := h.service.StartCheckout(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, checkoutResponse{SessionID: sess.ID, URL: sess.URL})
}

func (h *BookingHandler) confirmPayment(c *gin.Context) {
	var req confirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	b, err := h.service.ConfirmPayment(c.Request.Context(), booking.PaymentInput{
		BookingID: c.Param("id"),
		Amount:    req.Amount,
		Reference: req.Reference,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newBookingResponse(b))
}

func (h *BookingHandler) failPayment(c *gin.Context) {
	var req failPaymentRequest
	// An empty body is allowed.
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}

	b, err := h.service.RecordPaymentFailure(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newBookingResponse(b))
}

func (h *BookingHandler) refundQuote(c *gin.Context) {
	q, err := h.service.QuoteRefund(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newQuoteResponse(*q))
}

func (h *BookingHandler) cancel(c *gin.Context) {
	b, err := h.service.CancelBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newBookingResponse(b))
}

func newBookingResponse(b *domain.Booking) bookingResponse {
	allowed := make([]string, 0, 2)
	for _, a := range lifecycle.Allowed(b.Status) {
		allowed = append(allowed, string(a))
	}
	return bookingResponse{
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
		OccurrenceDate:       b.OccurrenceDate.Format(dateLayout),
		FullRefundWindowDays: b.FullRefundWindowDays,
		HalfRefundWindowDays: b.HalfRefundWindowDays,
		PaymentReference:     b.PaymentReference,
		LastPaymentError:     b.LastPaymentError,
		RefundAmount:         b.RefundAmount,
		RefundStatus:         string(b.RefundStatus),
		AllowedActions:       allowed,
		Version:              b.Version,
		DecidedAt:            b.DecidedAt,
		ConfirmedAt:          b.ConfirmedAt,
		CancelledAt:          b.CancelledAt,
		CreatedAt:            b.CreatedAt,
		UpdatedAt:            b.UpdatedAt,
	}
}

func newQuoteResponse(q domain.RefundQuote) quoteResponse {
	return quoteResponse{
		BookingID: q.BookingID,
		DaysUntil: q.DaysUntil,
		Tier:      string(q.Tier),
		Amount:    q.Amount,
		Eligible:  q.Eligible,
		Reason:    q.Reason,
	}
}
