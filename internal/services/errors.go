package services

import (
	"errors"

	"marketplace-service/internal/domain"
)

// ErrorCode names the domain error kind carried by err, for metrics labels
// and API responses.
func ErrorCode(err error) string {
	var checkout *domain.CheckoutError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &checkout):
		return "checkout_failed"
	case errors.Is(err, domain.ErrInvalidBid):
		return "invalid_bid"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrNotAuthorized):
		return "not_authorized"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrStockChanged):
		return "stock_changed"
	case errors.Is(err, domain.ErrOutOfStock):
		return "out_of_stock"
	case errors.Is(err, domain.ErrProductUnavailable):
		return "product_unavailable"
	case errors.Is(err, domain.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	default:
		return "internal"
	}
}
