package order

import (
	"context"

	"github.com/mosaico/backend/internal/domain/catalog"
	"github.com/mosaico/backend/internal/domain/inventory"
	"github.com/mosaico/backend/internal/domain/order"
)

// TransactionScope provides transactional access to the order subsystem's repositories.
// Everything done through the repositories handed to fn commits or rolls back together:
// a checkout that fails after reserving stock for some items leaves stock untouched.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories are the repositories bound to one transaction
type TransactionalRepositories interface {
	Orders() order.Repository
	Products() catalog.ProductReader
	Ledger() inventory.Ledger
}
