package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ProductReader is the read side of the catalog the order subsystem depends on
type ProductReader interface {
	// FindByID returns shared.ErrNotFound when the product does not exist
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindByIDs returns the products that exist; missing IDs are simply absent
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)
}

// ProductRepository adds the write operations used by catalog administration and seeding.
// Stock is not written through here after creation.
type ProductRepository interface {
	ProductReader

	// Save creates a product or updates its descriptive fields
	Save(ctx context.Context, product *Product) error
}
