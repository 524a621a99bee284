package resources

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("resource not found")
	ErrNotAllocated = errors.New("no active allocation to return")
	ErrDuplicate    = errors.New("resource already exists")
)

// InsufficientStockError reports a failed allocation along with what is
// actually on hand, so callers can surface the shortfall.
type InsufficientStockError struct {
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: requested %d, available %d", e.Requested, e.Available)
}
