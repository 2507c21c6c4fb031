package orders

import (
	"errors"
	"fmt"
)

var (
	// ErrOrderNotFound is returned when an order lookup misses
	ErrOrderNotFound = errors.New("order not found")

	// ErrIncompleteOrder is returned when finalize is attempted with
	// required fields still missing
	ErrIncompleteOrder = errors.New("order is missing required fields")

	// ErrNoPendingOrder is returned when no pending order exists for a user
	ErrNoPendingOrder = errors.New("no pending order for user")
)

// PersistenceError wraps a storage failure during finalize. The pending
// order is kept so the next turn can retry without re-entering data.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("orders: %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
