package order

import (
	"github.com/google/uuid"
	"github.com/mosaico/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AggregateTypeOrder is the aggregate type carried by every order event
const AggregateTypeOrder = "Order"

// Event type constants
const (
	EventTypeOrderCreated              = "OrderCreated"
	EventTypeOrderStatusChanged        = "OrderStatusChanged"
	EventTypeOrderPaymentStatusChanged = "OrderPaymentStatusChanged"
	EventTypeOrderStockReleased        = "OrderStockReleased"
)

// OrderCreatedEvent is raised when a checkout commits
type OrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderNumber string          `json:"order_number"`
	CustomerID  *uuid.UUID      `json:"customer_id,omitempty"`
	ItemCount   int             `json:"item_count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Currency    string          `json:"currency"`
}

// NewOrderCreatedEvent creates a new OrderCreatedEvent
func NewOrderCreatedEvent(o *Order) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCreated, AggregateTypeOrder, o.ID),
		OrderNumber:     o.OrderNumber,
		CustomerID:      o.CustomerID,
		ItemCount:       len(o.Items),
		TotalAmount:     o.TotalAmount,
		Currency:        o.Currency,
	}
}

// OrderStatusChangedEvent is raised on every fulfilment transition
type OrderStatusChangedEvent struct {
	shared.BaseDomainEvent
	OrderNumber string `json:"order_number"`
	From        Status `json:"from"`
	To          Status `json:"to"`
	Reason      string `json:"reason,omitempty"`
}

// NewOrderStatusChangedEvent creates a new OrderStatusChangedEvent
func NewOrderStatusChangedEvent(o *Order, from, to Status, reason string) *OrderStatusChangedEvent {
	return &OrderStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderStatusChanged, AggregateTypeOrder, o.ID),
		OrderNumber:     o.OrderNumber,
		From:            from,
		To:              to,
		Reason:          reason,
	}
}

// OrderPaymentStatusChangedEvent is raised on every payment transition
type OrderPaymentStatusChangedEvent struct {
	shared.BaseDomainEvent
	OrderNumber string        `json:"order_number"`
	From        PaymentStatus `json:"from"`
	To          PaymentStatus `json:"to"`
}

// NewOrderPaymentStatusChangedEvent creates a new OrderPaymentStatusChangedEvent
func NewOrderPaymentStatusChangedEvent(o *Order, from, to PaymentStatus) *OrderPaymentStatusChangedEvent {
	return &OrderPaymentStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderPaymentStatusChanged, AggregateTypeOrder, o.ID),
		OrderNumber:     o.OrderNumber,
		From:            from,
		To:              to,
	}
}

// ReleasedLine is one product quantity returned to stock
type ReleasedLine struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// OrderStockReleasedEvent is raised once per order when its reservations are given back
type OrderStockReleasedEvent struct {
	shared.BaseDomainEvent
	OrderNumber string         `json:"order_number"`
	Lines       []ReleasedLine `json:"lines"`
}

// NewOrderStockReleasedEvent creates a new OrderStockReleasedEvent
func NewOrderStockReleasedEvent(o *Order) *OrderStockReleasedEvent {
	lines := make([]ReleasedLine, 0, len(o.Items))
	for _, item := range o.Items {
		lines = append(lines, ReleasedLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return &OrderStockReleasedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderStockReleased, AggregateTypeOrder, o.ID),
		OrderNumber:     o.OrderNumber,
		Lines:           lines,
	}
}
