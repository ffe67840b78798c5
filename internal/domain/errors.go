package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidBid         = errors.New("invalid bid")
	ErrOutOfStock         = errors.New("out of stock")
	ErrStockChanged       = errors.New("stock changed since bid was placed")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrNotAuthorized      = errors.New("not authorized")
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation failed")
	ErrProductUnavailable = errors.New("product is not available")

	// ErrConflict is returned by repositories when a versioned update lost a race.
	ErrConflict = errors.New("concurrent modification")
)

// ItemFailure names one cart entry that could not be turned into an order.
type ItemFailure struct {
	ProductID uint64 `json:"productId"`
	Quantity  int    `json:"quantity"`
	Err       error  `json:"-"`
}

// CheckoutError aggregates every failed entry of a checkout call. None of the
// batch's orders persist when it is returned.
type CheckoutError struct {
	Failures []ItemFailure
}

func (e *CheckoutError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("product %d: %v", f.ProductID, f.Err))
	}
	return "checkout failed: " + strings.Join(parts, "; ")
}

// Unwrap exposes the per-item causes so errors.Is(err, ErrOutOfStock) works
// on the aggregate.
func (e *CheckoutError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

// ProductIDs lists the offending products in cart order.
func (e *CheckoutError) ProductIDs() []uint64 {
	ids := make([]uint64, 0, len(e.Failures))
	for _, f := range e.Failures {
		ids = append(ids, f.ProductID)
	}
	return ids
}
