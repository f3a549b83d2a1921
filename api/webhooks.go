package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/Domenick1991/travelbooking/internal/payment"
	"github.com/Domenick1991/travelbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxWebhookBody = 64 << 10

// WebhookHandler applies processor callbacks to bookings. Callbacks the
// lifecycle rejects are acknowledged so the processor stops redelivering them.
type WebhookHandler struct {
	parser  payment.WebhookParser
	service booking.BookingUseCase
	log     *zap.Logger
}

func NewWebhookHandler(parser payment.WebhookParser, service booking.BookingUseCase, log *zap.Logger) *WebhookHandler {
	return &WebhookHandler{parser: parser, service: service, log: log}
}

func (h *WebhookHandler) Register(router *gin.RouterGroup) {
	router.POST("/webhooks/stripe", h.handle)
}

func (h *WebhookHandler) handle(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		badRequest(c, err)
		return
	}

	event, err := h.parser.ParseWebhook(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		h.log.Warn("rejected webhook", zap.Error(err))
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "invalid_webhook"})
		return
	}

	ctx := c.Request.Context()
	switch event.Outcome {
	case payment.WebhookPaymentSucceeded:
		_, err = h.service.ConfirmPayment(ctx, booking.PaymentInput{
			BookingID: event.BookingID,
			Amount:    event.Amount,
			Reference: event.Reference,
		})
	case payment.WebhookPaymentFailed:
		_, err = h.service.RecordPaymentFailure(ctx, event.BookingID, event.Reason)
	default:
		c.JSON(http.StatusOK, gin.H{"received": true, "applied": false})
		return
	}

	if err != nil {
		if isDomainError(err) {
			h.log.Warn("webhook not applied",
				zap.String("event_id", event.ID),
				zap.String("booking_id", event.BookingID),
				zap.Error(err))
			c.JSON(http.StatusOK, gin.H{"received": true, "applied": false, "reason": err.Error()})
			return
		}
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true, "applied": true})
}

func isDomainError(err error) bool {
	return errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrInvalidTransition) ||
		errors.Is(err, domain.ErrPaymentMismatch) ||
		errors.Is(err, domain.ErrValidation)
}
