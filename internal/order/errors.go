package order

import (
	"errors"
	"fmt"
)

// Ledger errors. Every mutating operation either fully applies or leaves
// the order exactly as it was; these are the distinguishable failure kinds
// the caller must handle.
var (
	// ErrOrderCompleted is returned by any mutation attempted after the
	// order reached its terminal state.
	ErrOrderCompleted = errors.New("order already completed")

	// ErrEmptyOrder is returned by Complete when no lines exist.
	ErrEmptyOrder = errors.New("order is empty")

	// ErrLineNotFound is returned when no line matches the requested
	// item identity and modifier set.
	ErrLineNotFound = errors.New("line not found in order")

	// ErrInvalidQuantity is returned for quantities below 1. Removing a
	// line is done with Remove, not a zero quantity.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

// ItemNotFoundError reports an item identity that does not resolve to an
// orderable catalog entry.
type ItemNotFoundError struct {
	Category string
	Name     string
}

func (e *ItemNotFoundError) Error() string {
	if e.Category != "" {
		return fmt.Sprintf("item %q not found in category %q", e.Name, e.Category)
	}
	return fmt.Sprintf("item %q not found on the menu", e.Name)
}

// ModifierNotAvailableError names the first requested modifier the item
// does not offer. The add is rejected whole; no partial application.
type ModifierNotAvailableError struct {
	Item     string
	Modifier string
}

func (e *ModifierNotAvailableError) Error() string {
	return fmt.Sprintf("modifier %q is not available for %q", e.Modifier, e.Item)
}
