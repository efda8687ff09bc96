package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity was not found, or is
	// not visible to the caller.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness conflict on insert.
	ErrAlreadyExists = errors.New("already exists")
	// ErrUnauthorized indicates a missing or expired session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates the session lacks the required role.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidInput indicates a malformed or empty request.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInUseConflict indicates a product still referenced by order items.
	ErrInUseConflict = errors.New("product referenced by existing orders")
	// ErrPaymentVerificationFailed indicates a signature mismatch on a
	// synchronous payment confirmation.
	ErrPaymentVerificationFailed = errors.New("payment verification failed")
	// ErrOrderStateConflict indicates an attempted transition out of a
	// terminal order state.
	ErrOrderStateConflict = errors.New("order already finalized")
)

// InsufficientStockError names the product whose reservation failed.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// GatewayError surfaces a non-success response from the payment provider.
type GatewayError struct {
	Status int
	Body   string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway returned status %d: %s", e.Status, e.Body)
}
