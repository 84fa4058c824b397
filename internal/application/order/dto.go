package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mosaico/backend/internal/domain/inventory"
	"github.com/mosaico/backend/internal/domain/order"
	"github.com/mosaico/backend/internal/domain/shared"
)

// CreateOrderItemInput is one cart line. Prices are never taken from the client.
type CreateOrderItemInput struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"gt=0"`
}

// CreateOrderRequest is the checkout payload
type CreateOrderRequest struct {
	CustomerID      *uuid.UUID             `json:"customer_id,omitempty"`
	Items           []CreateOrderItemInput `json:"items" binding:"required,min=1,dive"`
	ShippingAddress order.ShippingAddress  `json:"shipping_address"`
	PaymentMethod   *string                `json:"payment_method,omitempty"`
	Notes           string                 `json:"notes"`
	DiscountAmount  *decimal.Decimal       `json:"discount_amount,omitempty"`
	ShippingCost    *decimal.Decimal       `json:"shipping_cost,omitempty"`
}

// TransitionRequest moves exactly one axis of an order
type TransitionRequest struct {
	Status         *order.Status        `json:"status,omitempty"`
	PaymentStatus  *order.PaymentStatus `json:"payment_status,omitempty"`
	TrackingNumber *string              `json:"tracking_number,omitempty"`
	AdminNotes     *string              `json:"admin_notes,omitempty"`
	Reason         string               `json:"reason,omitempty"`
	Actor          order.Actor          `json:"-"`
}

// UpdateDetailsRequest edits free-form admin fields without a transition
type UpdateDetailsRequest struct {
	TrackingNumber *string `json:"tracking_number,omitempty"`
	AdminNotes     *string `json:"admin_notes,omitempty"`
}

// OrderListFilter represents filter options for the order list
type OrderListFilter struct {
	Search        string     `form:"search"`
	Status        string     `form:"status"`
	PaymentStatus string     `form:"payment_status"`
	CustomerID    *uuid.UUID `form:"-"`
	From          *time.Time `form:"from" time_format:"2006-01-02"`
	To            *time.Time `form:"to" time_format:"2006-01-02"`
	Page          int        `form:"page"`
	PageSize      int        `form:"page_size"`
	OrderBy       string     `form:"order_by"`
	OrderDir      string     `form:"order_dir"`
}

var sortableColumns = map[string]bool{
	"created_at":   true,
	"total_amount": true,
	"order_number": true,
}

// ToFilter converts the list filter into a repository filter
func (f OrderListFilter) ToFilter() shared.Filter {
	filter := shared.Filter{
		Page:     f.Page,
		PageSize: f.PageSize,
		OrderBy:  f.OrderBy,
		OrderDir: f.OrderDir,
		Search:   f.Search,
		Filters:  make(map[string]interface{}),
	}
	if !sortableColumns[filter.OrderBy] {
		filter.OrderBy = "created_at"
	}
	if f.Status != "" {
		filter.Filters["status"] = f.Status
	}
	if f.PaymentStatus != "" {
		filter.Filters["payment_status"] = f.PaymentStatus
	}
	if f.CustomerID != nil {
		filter.Filters["customer_id"] = *f.CustomerID
	}
	if f.From != nil {
		filter.Filters["created_from"] = *f.From
	}
	if f.To != nil {
		filter.Filters["created_to"] = *f.To
	}
	return filter.Normalize()
}

// OrderItemResponse represents an order line in API responses
type OrderItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	ProductSKU  string          `json:"product_sku"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID                   uuid.UUID             `json:"id"`
	OrderNumber          string                `json:"order_number"`
	CustomerID           *uuid.UUID            `json:"customer_id,omitempty"`
	Status               string                `json:"status"`
	PaymentStatus        string                `json:"payment_status"`
	PaymentMethod        *string               `json:"payment_method,omitempty"`
	Currency             string                `json:"currency"`
	Items                []OrderItemResponse   `json:"items"`
	ItemCount            int                   `json:"item_count"`
	TotalQuantity        int                   `json:"total_quantity"`
	Subtotal             decimal.Decimal       `json:"subtotal"`
	DiscountAmount       decimal.Decimal       `json:"discount_amount"`
	TaxAmount            decimal.Decimal       `json:"tax_amount"`
	ShippingCost         decimal.Decimal       `json:"shipping_cost"`
	TotalAmount          decimal.Decimal       `json:"total_amount"`
	ShippingAddress      order.ShippingAddress `json:"shipping_address"`
	CustomerNotes        string                `json:"customer_notes,omitempty"`
	AdminNotes           string                `json:"admin_notes,omitempty"`
	TrackingNumber       string                `json:"tracking_number,omitempty"`
	AllowedStatuses      []string              `json:"allowed_statuses"`
	AllowedPaymentStates []string              `json:"allowed_payment_statuses"`
	ConfirmedAt          *time.Time            `json:"confirmed_at,omitempty"`
	ShippedAt            *time.Time            `json:"shipped_at,omitempty"`
	DeliveredAt          *time.Time            `json:"delivered_at,omitempty"`
	CancelledAt          *time.Time            `json:"cancelled_at,omitempty"`
	CancelReason         string                `json:"cancel_reason,omitempty"`
	StockReleasedAt      *time.Time            `json:"stock_released_at,omitempty"`
	CreatedAt            time.Time             `json:"created_at"`
	UpdatedAt            time.Time             `json:"updated_at"`
	Version              int                   `json:"version"`
}

// OrderListItemResponse represents an order in list responses (less detail)
type OrderListItemResponse struct {
	ID            uuid.UUID       `json:"id"`
	OrderNumber   string          `json:"order_number"`
	CustomerID    *uuid.UUID      `json:"customer_id,omitempty"`
	Recipient     string          `json:"recipient"`
	ItemCount     int             `json:"item_count"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Currency      string          `json:"currency"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"payment_status"`
	CreatedAt     time.Time       `json:"created_at"`
}

// HistoryEntryResponse represents one status history entry
type HistoryEntryResponse struct {
	Axis      string    `json:"axis"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Reason    string    `json:"reason,omitempty"`
	Actor     string    `json:"actor"`
	CreatedAt time.Time `json:"created_at"`
}

// MovementResponse represents one stock journal line caused by an order
type MovementResponse struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	Kind      string    `json:"kind"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}

// ToOrderResponse converts a domain Order to its response DTO
func ToOrderResponse(o *order.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderItemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			ProductSKU:  item.ProductSKU,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
			LineTotal:   item.LineTotal,
		}
	}

	var method *string
	if o.PaymentMethod != nil {
		m := string(*o.PaymentMethod)
		method = &m
	}

	machine := order.StatusMachine{}
	allowed := make([]string, 0)
	for _, s := range machine.AllowedNext(o.Status) {
		allowed = append(allowed, string(s))
	}
	allowedPayment := make([]string, 0)
	for _, s := range machine.AllowedNextPayment(o.PaymentStatus) {
		allowedPayment = append(allowedPayment, string(s))
	}

	return OrderResponse{
		ID:                   o.ID,
		OrderNumber:          o.OrderNumber,
		CustomerID:           o.CustomerID,
		Status:               string(o.Status),
		PaymentStatus:        string(o.PaymentStatus),
		PaymentMethod:        method,
		Currency:             o.Currency,
		Items:                items,
		ItemCount:            len(o.Items),
		TotalQuantity:        o.TotalQuantity(),
		Subtotal:             o.Subtotal,
		DiscountAmount:       o.DiscountAmount,
		TaxAmount:            o.TaxAmount,
		ShippingCost:         o.ShippingCost,
		TotalAmount:          o.TotalAmount,
		ShippingAddress:      o.ShippingAddress,
		CustomerNotes:        o.CustomerNotes,
		AdminNotes:           o.AdminNotes,
		TrackingNumber:       o.TrackingNumber,
		AllowedStatuses:      allowed,
		AllowedPaymentStates: allowedPayment,
		ConfirmedAt:          o.ConfirmedAt,
		ShippedAt:            o.ShippedAt,
		DeliveredAt:          o.DeliveredAt,
		CancelledAt:          o.CancelledAt,
		CancelReason:         o.CancelReason,
		StockReleasedAt:      o.StockReleasedAt,
		CreatedAt:            o.CreatedAt,
		UpdatedAt:            o.UpdatedAt,
		Version:              o.Version,
	}
}

// ToOrderListItemResponses converts a slice of domain orders to list responses
func ToOrderListItemResponses(orders []order.Order) []OrderListItemResponse {
	responses := make([]OrderListItemResponse, len(orders))
	for i := range orders {
		o := &orders[i]
		responses[i] = OrderListItemResponse{
			ID:            o.ID,
			OrderNumber:   o.OrderNumber,
			CustomerID:    o.CustomerID,
			Recipient:     o.ShippingAddress.Recipient,
			ItemCount:     len(o.Items),
			TotalAmount:   o.TotalAmount,
			Currency:      o.Currency,
			Status:        string(o.Status),
			PaymentStatus: string(o.PaymentStatus),
			CreatedAt:     o.CreatedAt,
		}
	}
	return responses
}

// ToHistoryResponses converts history entries to response DTOs
func ToHistoryResponses(entries []order.StatusHistoryEntry) []HistoryEntryResponse {
	out := make([]HistoryEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = HistoryEntryResponse{
			Axis:      string(e.Axis),
			From:      e.FromValue,
			To:        e.ToValue,
			Reason:    e.Reason,
			Actor:     string(e.Actor),
			CreatedAt: e.CreatedAt,
		}
	}
	return out
}

// ToMovementResponses converts stock journal lines to response DTOs
func ToMovementResponses(movements []inventory.StockMovement) []MovementResponse {
	out := make([]MovementResponse, len(movements))
	for i, m := range movements {
		out[i] = MovementResponse{
			ID:        m.ID,
			ProductID: m.ProductID,
			Kind:      string(m.Kind),
			Quantity:  m.Quantity,
			CreatedAt: m.CreatedAt,
		}
	}
	return out
}
