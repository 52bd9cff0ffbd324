package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrDuplicateName      = errors.New("item name already exists")
	ErrItemNotFound       = errors.New("item not found")
	ErrIdentityNotFound   = errors.New("identity not found")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrInvalidQuantity    = errors.New("quantity must be greater than zero")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrForbidden          = errors.New("access forbidden")
	ErrStoreUnavailable   = errors.New("store unavailable")
	ErrPurchaseInProgress = errors.New("a purchase with this idempotency key is in progress")
)

// InsufficientStockError carries the numbers behind a rejected purchase.
// It matches ErrInsufficientStock under errors.Is.
type InsufficientStockError struct {
	ItemName  string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: available %d, requested %d", e.ItemName, e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// Invalid wraps ErrInvalidInput with a field-level message.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Unavailable marks err as a transient store failure while keeping the cause.
func Unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

// QuantityOverflow reports a stock level that would exceed MaxQuantity.
func QuantityOverflow(current, delta int) error {
	return fmt.Errorf("%w: stock of %d plus %d exceeds %d", ErrInvalidQuantity, current, delta, MaxQuantity)
}

// IsRetriable reports whether a caller may retry the operation that produced err.
func IsRetriable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable) || errors.Is(err, ErrPurchaseInProgress)
}

// Code returns a stable snake_case name for the kind of err, or "internal"
// for errors outside the taxonomy.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrDuplicateEmail):
		return "duplicate_email"
	case errors.Is(err, ErrDuplicateName):
		return "duplicate_name"
	case errors.Is(err, ErrItemNotFound):
		return "not_found"
	case errors.Is(err, ErrIdentityNotFound):
		return "identity_not_found"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	case errors.Is(err, ErrPurchaseInProgress):
		return "purchase_in_progress"
	}
	return "internal"
}
