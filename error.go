package match

import (
	"errors"
	"fmt"

	"github.com/0x5487/matching-core/structure"
)

var (
	ErrInvalidPrice       = errors.New("the price is invalid")
	ErrInvalidQuantity    = errors.New("the quantity is invalid")
	ErrInvalidOrderType   = errors.New("the order type is invalid")
	ErrInvalidSide        = errors.New("the order side is invalid")
	ErrInvalidTimeInForce = errors.New("the time in force is invalid")
	ErrInvalidTrailing    = errors.New("the trailing parameters are invalid")
	ErrSymbolMismatch     = errors.New("the order belongs to another symbol")
	ErrDuplicateOrder     = errors.New("the order id already exists")
	ErrOrderNotFound      = errors.New("order not found")
	ErrBookClosed         = errors.New("order book is closed")
	ErrUnknownCommand     = errors.New("unknown command type")
	ErrInvariantViolation = errors.New("order book invariant violated")
	ErrArenaExhausted     = fmt.Errorf("level arena exhausted: %w", structure.ErrMaxCapacityReached)
)

// OrderError is returned by every rejected book operation. The book state is
// unchanged when an OrderError is returned.
type OrderError struct {
	Op      string
	OrderID uint64
	Err     error
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("%s order %d: %v", e.Op, e.OrderID, e.Err)
}

func (e *OrderError) Unwrap() error {
	return e.Err
}

func newOrderError(op string, id uint64, err error) error {
	return &OrderError{Op: op, OrderID: id, Err: err}
}
