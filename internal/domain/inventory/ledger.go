package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Ledger is the single writer of product stock.
//
// Reserve is a compare-and-swap: it decrements stock only when enough units
// remain, so stock can never go negative no matter how many checkouts race on
// the same product. Release adds units back. Both operations join whatever
// transaction is carried by the implementation, so a rollback undoes them.
type Ledger interface {
	// Reserve removes qty units from the product's stock for the given order.
	// Returns *OutOfStockError when fewer than qty units remain and
	// *catalog.ProductNotFoundError when the product does not exist.
	Reserve(ctx context.Context, productID, orderID uuid.UUID, qty int) error

	// Release returns qty units to the product's stock.
	// Callers guarantee at-most-once release per order.
	Release(ctx context.Context, productID, orderID uuid.UUID, qty int) error
}

// OutOfStockError reports a reservation that could not be satisfied
type OutOfStockError struct {
	ProductID uuid.UUID
	Requested int
	Available int
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// ErrorCode implements shared.CodedError
func (e *OutOfStockError) ErrorCode() string {
	return "INSUFFICIENT_STOCK"
}
