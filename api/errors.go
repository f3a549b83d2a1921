package api

import (
	"errors"
	"net/http"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/Domenick1991/travelbooking/internal/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

// writeError maps domain errors onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "internal"
	var details any

	var (
		te *domain.TransitionError
		pm *domain.PaymentMismatchError
		rw *domain.RefundWindowError
	)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.As(err, &te):
		status, code = http.StatusConflict, "invalid_transition"
		details = gin.H{"current_status": te.Current, "action": te.Action, "allowed": te.Allowed}
	case errors.Is(err, domain.ErrInvalidTransition):
		status, code = http.StatusConflict, "invalid_transition"
	case errors.As(err, &pm):
		status, code = http.StatusUnprocessableEntity, "payment_mismatch"
		details = gin.H{"expected": pm.Expected, "actual": pm.Actual}
	case errors.As(err, &rw):
		status, code = http.StatusUnprocessableEntity, "refund_window_closed"
		details = newQuoteResponse(rw.Quote)
	case errors.Is(err, domain.ErrValidation):
		status, code = http.StatusBadRequest, "validation"
	}

	if status == http.StatusInternalServerError {
		logger.Get().Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(status, errorResponse{Error: "internal server error", Code: code})
		return
	}
	c.JSON(status, errorResponse{Error: err.Error(), Code: code, Details: details})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "validation"})
}
