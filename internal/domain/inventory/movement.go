package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MovementKind distinguishes the two ledger mutations
type MovementKind string

const (
	MovementReserve MovementKind = "reserve"
	MovementRelease MovementKind = "release"
)

// StockMovement is one append-only journal line written alongside every
// ledger mutation
type StockMovement struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	OrderID   uuid.UUID
	Kind      MovementKind
	Quantity  int
	CreatedAt time.Time
}

// NewStockMovement creates a journal line stamped now
func NewStockMovement(productID, orderID uuid.UUID, kind MovementKind, qty int) StockMovement {
	return StockMovement{
		ID:        uuid.New(),
		ProductID: productID,
		OrderID:   orderID,
		Kind:      kind,
		Quantity:  qty,
		CreatedAt: time.Now().UTC(),
	}
}

// MovementRepository reads the stock journal
type MovementRepository interface {
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]StockMovement, error)
}
