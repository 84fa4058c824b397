package order

import (
	"context"

	"github.com/google/uuid"
	"github.com/mosaico/backend/internal/domain/shared"
)

// Repository persists orders with their items and status history.
// All methods join the transaction carried by the implementation.
type Repository interface {
	// Create inserts the order and its items atomically.
	// Returns ErrDuplicateOrderNumber when the order number is taken.
	Create(ctx context.Context, o *Order) error

	// FindByID returns shared.ErrNotFound when absent
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByIDForUpdate loads the order holding a row lock until the
	// surrounding transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByOrderNumber returns shared.ErrNotFound when absent
	FindByOrderNumber(ctx context.Context, number string) (*Order, error)

	// Update writes the mutable columns guarded by the version the order was
	// loaded with, then increments it. Returns shared.ErrConcurrencyConflict
	// when another writer got there first.
	Update(ctx context.Context, o *Order) error

	// AppendHistory records transitions; entries are never modified
	AppendHistory(ctx context.Context, entries ...StatusHistoryEntry) error

	// FindHistory lists an order's transitions oldest first
	FindHistory(ctx context.Context, orderID uuid.UUID) ([]StatusHistoryEntry, error)

	// FindAll lists orders matching the filter. Recognised filter keys:
	// status, payment_status, customer_id, created_from, created_to.
	FindAll(ctx context.Context, filter shared.Filter) ([]Order, error)

	// Count counts orders matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
