package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/mosaico/backend/internal/domain/order"
	"github.com/shopspring/decimal"
)

// ShippingAddressColumns is embedded into orders with the shipping_ prefix
type ShippingAddressColumns struct {
	Recipient  string `gorm:"type:varchar(200);not null"`
	Phone      string `gorm:"type:varchar(50);not null"`
	Street     string `gorm:"type:varchar(300);not null"`
	City       string `gorm:"type:varchar(100);not null"`
	Province   string `gorm:"type:varchar(100);not null"`
	PostalCode string `gorm:"type:varchar(20);not null"`
	Country    string `gorm:"type:varchar(2);not null"`
}

// OrderModel is the persistence model for the Order aggregate root
type OrderModel struct {
	AggregateModel
	OrderNumber     string                 `gorm:"type:varchar(40);not null;uniqueIndex"`
	CustomerID      *uuid.UUID             `gorm:"type:uuid;index"`
	Status          string                 `gorm:"type:varchar(20);not null;index"`
	PaymentStatus   string                 `gorm:"type:varchar(20);not null;index"`
	PaymentMethod   *string                `gorm:"type:varchar(30)"`
	Currency        string                 `gorm:"type:varchar(3);not null"`
	Subtotal        decimal.Decimal        `gorm:"type:decimal(12,2);not null"`
	DiscountAmount  decimal.Decimal        `gorm:"type:decimal(12,2);not null"`
	TaxAmount       decimal.Decimal        `gorm:"type:decimal(12,2);not null"`
	ShippingCost    decimal.Decimal        `gorm:"type:decimal(12,2);not null"`
	TotalAmount     decimal.Decimal        `gorm:"type:decimal(12,2);not null"`
	Shipping        ShippingAddressColumns `gorm:"embedded;embeddedPrefix:shipping_"`
	CustomerNotes   string                 `gorm:"type:text"`
	AdminNotes      string                 `gorm:"type:text"`
	TrackingNumber  string                 `gorm:"type:varchar(100)"`
	ConfirmedAt     *time.Time
	ShippedAt       *time.Time
	DeliveredAt     *time.Time
	CancelledAt     *time.Time
	CancelReason    string `gorm:"type:varchar(500)"`
	StockReleasedAt *time.Time
	Items           []OrderItemModel `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel is the persistence model for an order line snapshot
type OrderItemModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName string          `gorm:"type:varchar(200);not null"`
	ProductSKU  string          `gorm:"type:varchar(64);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Quantity    int             `gorm:"not null"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// StatusHistoryModel is one append-only transition record
type StatusHistoryModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Axis      string    `gorm:"type:varchar(20);not null"`
	FromValue string    `gorm:"type:varchar(20);not null"`
	ToValue   string    `gorm:"type:varchar(20);not null"`
	Reason    string    `gorm:"type:varchar(500)"`
	Actor     string    `gorm:"type:varchar(20);not null"`
	CreatedAt time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (StatusHistoryModel) TableName() string {
	return "order_status_history"
}

// OrderModelFromDomain converts an order aggregate to its model, items included
func OrderModelFromDomain(o *order.Order) *OrderModel {
	m := &OrderModel{
		OrderNumber:     o.OrderNumber,
		CustomerID:      o.CustomerID,
		Status:          string(o.Status),
		PaymentStatus:   string(o.PaymentStatus),
		Currency:        o.Currency,
		Subtotal:        o.Subtotal,
		DiscountAmount:  o.DiscountAmount,
		TaxAmount:       o.TaxAmount,
		ShippingCost:    o.ShippingCost,
		TotalAmount:     o.TotalAmount,
		Shipping:        ShippingAddressColumns(o.ShippingAddress),
		CustomerNotes:   o.CustomerNotes,
		AdminNotes:      o.AdminNotes,
		TrackingNumber:  o.TrackingNumber,
		ConfirmedAt:     o.ConfirmedAt,
		ShippedAt:       o.ShippedAt,
		DeliveredAt:     o.DeliveredAt,
		CancelledAt:     o.CancelledAt,
		CancelReason:    o.CancelReason,
		StockReleasedAt: o.StockReleasedAt,
		Items:           make([]OrderItemModel, len(o.Items)),
	}
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	if o.PaymentMethod != nil {
		method := string(*o.PaymentMethod)
		m.PaymentMethod = &method
	}
	for i, item := range o.Items {
		m.Items[i] = OrderItemModel{
			ID:          item.ID,
			OrderID:     o.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			ProductSKU:  item.ProductSKU,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
			LineTotal:   item.LineTotal,
			CreatedAt:   item.CreatedAt,
		}
	}
	return m
}

// ToDomain rebuilds the order aggregate. Items must have been preloaded.
func (m *OrderModel) ToDomain() *order.Order {
	o := &order.Order{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		OrderNumber:       m.OrderNumber,
		CustomerID:        m.CustomerID,
		Status:            order.Status(m.Status),
		PaymentStatus:     order.PaymentStatus(m.PaymentStatus),
		Currency:          m.Currency,
		Subtotal:          m.Subtotal,
		DiscountAmount:    m.DiscountAmount,
		TaxAmount:         m.TaxAmount,
		ShippingCost:      m.ShippingCost,
		TotalAmount:       m.TotalAmount,
		ShippingAddress:   order.ShippingAddress(m.Shipping),
		CustomerNotes:     m.CustomerNotes,
		AdminNotes:        m.AdminNotes,
		TrackingNumber:    m.TrackingNumber,
		ConfirmedAt:       m.ConfirmedAt,
		ShippedAt:         m.ShippedAt,
		DeliveredAt:       m.DeliveredAt,
		CancelledAt:       m.CancelledAt,
		CancelReason:      m.CancelReason,
		StockReleasedAt:   m.StockReleasedAt,
		Items:             make([]order.OrderItem, len(m.Items)),
	}
	if m.PaymentMethod != nil {
		method := order.PaymentMethod(*m.PaymentMethod)
		o.PaymentMethod = &method
	}
	for i, item := range m.Items {
		o.Items[i] = order.OrderItem{
			ID:          item.ID,
			OrderID:     item.OrderID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			ProductSKU:  item.ProductSKU,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
			LineTotal:   item.LineTotal,
			CreatedAt:   item.CreatedAt,
		}
	}
	return o
}

// StatusHistoryModelFromDomain converts a history entry to its model
func StatusHistoryModelFromDomain(e order.StatusHistoryEntry) StatusHistoryModel {
	return StatusHistoryModel{
		ID:        e.ID,
		OrderID:   e.OrderID,
		Axis:      string(e.Axis),
		FromValue: e.FromValue,
		ToValue:   e.ToValue,
		Reason:    e.Reason,
		Actor:     string(e.Actor),
		CreatedAt: e.CreatedAt,
	}
}

// ToDomain converts the model to a domain history entry
func (m *StatusHistoryModel) ToDomain() order.StatusHistoryEntry {
	return order.StatusHistoryEntry{
		ID:        m.ID,
		OrderID:   m.OrderID,
		Axis:      order.Axis(m.Axis),
		FromValue: m.FromValue,
		ToValue:   m.ToValue,
		Reason:    m.Reason,
		Actor:     order.Actor(m.Actor),
		CreatedAt: m.CreatedAt,
	}
}

// AllModels lists every model for AutoMigrate in tests and the sqlite driver
func AllModels() []any {
	return []any{
		&ProductModel{},
		&OrderModel{},
		&OrderItemModel{},
		&StatusHistoryModel{},
		&StockMovementModel{},
	}
}
