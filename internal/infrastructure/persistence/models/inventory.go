package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/mosaico/backend/internal/domain/inventory"
)

// StockMovementModel is one row of the append-only stock journal
type StockMovementModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Kind      string    `gorm:"type:varchar(10);not null"`
	Quantity  int       `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StockMovementModel) TableName() string {
	return "stock_movements"
}

// ToDomain converts the model to a domain movement
func (m *StockMovementModel) ToDomain() inventory.StockMovement {
	return inventory.StockMovement{
		ID:        m.ID,
		ProductID: m.ProductID,
		OrderID:   m.OrderID,
		Kind:      inventory.MovementKind(m.Kind),
		Quantity:  m.Quantity,
		CreatedAt: m.CreatedAt,
	}
}

// StockMovementModelFromDomain converts a domain movement to its model
func StockMovementModelFromDomain(mv inventory.StockMovement) *StockMovementModel {
	return &StockMovementModel{
		ID:        mv.ID,
		ProductID: mv.ProductID,
		OrderID:   mv.OrderID,
		Kind:      string(mv.Kind),
		Quantity:  mv.Quantity,
		CreatedAt: mv.CreatedAt,
	}
}
