package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/mosaico/backend/internal/domain/catalog"
	"github.com/mosaico/backend/internal/domain/inventory"
	"github.com/mosaico/backend/internal/domain/shared"
	"github.com/mosaico/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormInventoryLedger implements inventory.Ledger on the products.stock
// column. Reservation is a single conditional UPDATE, so two checkouts
// racing for the last units cannot both succeed, whatever the isolation
// level.
type GormInventoryLedger struct {
	db *gorm.DB
}

// NewGormInventoryLedger creates a ledger bound to db, usually a transaction
func NewGormInventoryLedger(db *gorm.DB) *GormInventoryLedger {
	return &GormInventoryLedger{db: db}
}

// Reserve decrements stock by qty when at least qty units are available
func (l *GormInventoryLedger) Reserve(ctx context.Context, productID, orderID uuid.UUID, qty int) error {
	if qty <= 0 {
		return shared.NewValidationError("quantity", "must be positive")
	}

	result := l.db.WithContext(ctx).Model(&models.ProductModel{}).
		Where("id = ? AND stock >= ?", productID, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return l.explainMiss(ctx, productID, qty)
	}
	return l.journal(ctx, productID, orderID, inventory.MovementReserve, qty)
}

// Release gives qty units back
func (l *GormInventoryLedger) Release(ctx context.Context, productID, orderID uuid.UUID, qty int) error {
	if qty <= 0 {
		return shared.NewValidationError("quantity", "must be positive")
	}

	result := l.db.WithContext(ctx).Model(&models.ProductModel{}).
		Where("id = ?", productID).
		UpdateColumn("stock", gorm.Expr("stock + ?", qty))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return &catalog.ProductNotFoundError{ProductID: productID.String()}
	}
	return l.journal(ctx, productID, orderID, inventory.MovementRelease, qty)
}

// explainMiss tells a missing product apart from insufficient stock after
// the conditional update matched nothing
func (l *GormInventoryLedger) explainMiss(ctx context.Context, productID uuid.UUID, qty int) error {
	var model models.ProductModel
	err := l.db.WithContext(ctx).Select("id", "stock").First(&model, "id = ?", productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &catalog.ProductNotFoundError{ProductID: productID.String()}
	}
	if err != nil {
		return err
	}
	return &inventory.OutOfStockError{ProductID: productID, Requested: qty, Available: model.Stock}
}

func (l *GormInventoryLedger) journal(ctx context.Context, productID, orderID uuid.UUID, kind inventory.MovementKind, qty int) error {
	movement := models.StockMovementModelFromDomain(inventory.NewStockMovement(productID, orderID, kind, qty))
	return l.db.WithContext(ctx).Create(movement).Error
}

var _ inventory.Ledger = (*GormInventoryLedger)(nil)

// GormMovementRepository implements inventory.MovementRepository using GORM
type GormMovementRepository struct {
	db *gorm.DB
}

// NewGormMovementRepository creates a new GormMovementRepository
func NewGormMovementRepository(db *gorm.DB) *GormMovementRepository {
	return &GormMovementRepository{db: db}
}

// FindByOrder lists the movements caused by one order, oldest first
func (r *GormMovementRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]inventory.StockMovement, error) {
	var rows []models.StockMovementModel
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]inventory.StockMovement, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

var _ inventory.MovementRepository = (*GormMovementRepository)(nil)
