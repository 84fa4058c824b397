package persistence

import (
	"context"

	apporder "github.com/mosaico/backend/internal/application/order"
	"github.com/mosaico/backend/internal/domain/catalog"
	"github.com/mosaico/backend/internal/domain/inventory"
	"github.com/mosaico/backend/internal/domain/order"
	"gorm.io/gorm"
)

// GormTransactionScope implements the order application's TransactionScope
// using GORM transactions.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn in one transaction: it commits when fn returns nil and
// rolls back otherwise.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos apporder.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) Orders() order.Repository {
	return NewGormOrderRepository(r.tx)
}

func (r *gormTransactionalRepositories) Products() catalog.ProductReader {
	return NewGormProductRepository(r.tx)
}

func (r *gormTransactionalRepositories) Ledger() inventory.Ledger {
	return NewGormInventoryLedger(r.tx)
}

var (
	_ apporder.TransactionScope          = (*GormTransactionScope)(nil)
	_ apporder.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
)
