package http

import (
	"errors"
	"net/http"

	"marketplace-service/internal/domain"
	"marketplace-service/internal/services"
	"marketplace-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error    string          `json:"error"`
	Message  string          `json:"message"`
	Failures []FailureDetail `json:"failures,omitempty"`
}

// FailureDetail reports one cart entry that blocked a checkout.
type FailureDetail struct {
	ProductID uint64 `json:"productId"`
	Quantity  int    `json:"quantity"`
	Error     string `json:"error"`
	Message   string `json:"message"`
}

func statusFor(err error) int {
	var checkout *domain.CheckoutError
	switch {
	case errors.As(err, &checkout):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidBid), errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrOutOfStock),
		errors.Is(err, domain.ErrStockChanged),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrProductUnavailable),
		errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	resp := ErrorResponse{Error: services.ErrorCode(err), Message: err.Error()}

	var checkout *domain.CheckoutError
	if errors.As(err, &checkout) {
		for _, f := range checkout.Failures {
			resp.Failures = append(resp.Failures, FailureDetail{
				ProductID: f.ProductID,
				Quantity:  f.Quantity,
				Error:     services.ErrorCode(f.Err),
				Message:   f.Err.Error(),
			})
		}
	}

	if status == http.StatusInternalServerError {
		logger.FromContext(c.Request.Context(), zap.NewNop()).Error("request error", zap.Error(err))
		resp.Message = "internal server error"
	}
	c.JSON(status, resp)
}

// respondBindError reports a malformed body. Enum fields reject unknown values
// while decoding, so a domain error may already be inside.
func respondBindError(c *gin.Context, err error) {
	if statusFor(err) != http.StatusInternalServerError {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation", Message: err.Error()})
}
