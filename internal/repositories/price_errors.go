package repositories

import (
	"errors"
	"fmt"

	domain "github.com/opmgear/api/internal/domain"
)

// ErrPriceSourceUnavailable signals that the backing price source could
// not be reached. Callers degrade to an empty table rather than failing
// the pricing computation.
var ErrPriceSourceUnavailable = errors.New("price source unavailable")

// PriceSourceError wraps a source failure with the category being
// loaded.
type PriceSourceError struct {
	Category domain.PriceCategory
	Err      error
}

// NewPriceSourceError constructs a PriceSourceError chained to
// ErrPriceSourceUnavailable.
func NewPriceSourceError(category domain.PriceCategory, err error) *PriceSourceError {
	return &PriceSourceError{Category: category, Err: err}
}

// Error implements the error interface.
func (e *PriceSourceError) Error() string {
	return fmt.Sprintf("price source: load %s: %v", e.Category, e.Err)
}

// Unwrap exposes the underlying error.
func (e *PriceSourceError) Unwrap() error { return e.Err }

// Is matches ErrPriceSourceUnavailable so callers can branch with
// errors.Is without knowing the concrete type.
func (e *PriceSourceError) Is(target error) bool {
	return target == ErrPriceSourceUnavailable
}
