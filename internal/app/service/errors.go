package service

import (
	"fmt"

	apperrors "github.com/ikkim/shopcart-backend/internal/errors"
)

// CartError is the structured failure every cart operation returns for
// domain-level rejections. Two CartErrors match under errors.Is when their
// codes match, so the sentinels below work for checks while the returned
// value carries the concrete message and limit.
type CartError struct {
	Code      string
	Message   string
	Limit     int
	Retryable bool
	Err       error
}

func (e *CartError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *CartError) Unwrap() error {
	return e.Err
}

func (e *CartError) Is(target error) bool {
	t, ok := target.(*CartError)
	return ok && t.Code == e.Code
}

var (
	ErrInvalidUserID         = &CartError{Code: apperrors.InvalidUserID, Message: "user id is required"}
	ErrProductNotFound       = &CartError{Code: apperrors.ProductNotFound, Message: "product not found"}
	ErrProductUnavailable    = &CartError{Code: apperrors.ProductUnavailable, Message: "product is not available"}
	ErrInvalidQuantity       = &CartError{Code: apperrors.InvalidQuantity, Message: "quantity must be at least 1"}
	ErrMaxQuantityExceeded   = &CartError{Code: apperrors.MaxQuantityExceeded, Message: "maximum order quantity exceeded"}
	ErrInsufficientStock     = &CartError{Code: apperrors.InsufficientStock, Message: "insufficient stock"}
	ErrCartNotFound          = &CartError{Code: apperrors.CartNotFound, Message: "cart not found"}
	ErrCartItemNotFound      = &CartError{Code: apperrors.CartItemNotFound, Message: "cart item not found"}
	ErrDependencyUnavailable = &CartError{Code: apperrors.DependencyUnavailable, Message: "product catalog unavailable, retry later", Retryable: true}
	ErrCartConflict          = &CartError{Code: apperrors.CartConflict, Message: "cart is being modified concurrently, retry later", Retryable: true}
)

func productNotFound(productID string) *CartError {
	return &CartError{
		Code:    apperrors.ProductNotFound,
		Message: fmt.Sprintf("product %s not found", productID),
	}
}

func productUnavailable(productID string) *CartError {
	return &CartError{
		Code:    apperrors.ProductUnavailable,
		Message: fmt.Sprintf("product %s is not available", productID),
	}
}

func maxQuantityExceeded(productName string, limit, requested int) *CartError {
	return &CartError{
		Code:    apperrors.MaxQuantityExceeded,
		Message: fmt.Sprintf("cannot order %d of %q: maximum order quantity is %d", requested, productName, limit),
		Limit:   limit,
	}
}

func insufficientStock(productName string, available, requested int) *CartError {
	return &CartError{
		Code:    apperrors.InsufficientStock,
		Message: fmt.Sprintf("cannot order %d of %q: only %d in stock", requested, productName, available),
		Limit:   available,
	}
}

func cartItemNotFound(itemID string) *CartError {
	return &CartError{
		Code:    apperrors.CartItemNotFound,
		Message: fmt.Sprintf("cart item %s not found", itemID),
	}
}

func dependencyUnavailable(cause error) *CartError {
	return &CartError{
		Code:      apperrors.DependencyUnavailable,
		Message:   ErrDependencyUnavailable.Message,
		Retryable: true,
		Err:       cause,
	}
}

func cartConflict(cause error) *CartError {
	return &CartError{
		Code:      apperrors.CartConflict,
		Message:   ErrCartConflict.Message,
		Retryable: true,
		Err:       cause,
	}
}
