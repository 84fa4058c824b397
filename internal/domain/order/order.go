package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mosaico/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of decimal places kept on every stored amount
const MoneyPlaces = 2

// RoundMoney rounds half away from zero to MoneyPlaces
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// OrderItem is a line of an order. Name, SKU and price are copied from the
// catalog at checkout and never change afterwards.
type OrderItem struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	ProductSKU  string
	UnitPrice   decimal.Decimal
	Quantity    int
	LineTotal   decimal.Decimal
	CreatedAt   time.Time
}

// NewOrderItem snapshots a product line
func NewOrderItem(productID uuid.UUID, name, sku string, unitPrice decimal.Decimal, quantity int) (*OrderItem, error) {
	if productID == uuid.Nil {
		return nil, shared.NewValidationError("product_id", "is required")
	}
	if quantity <= 0 {
		return nil, shared.NewValidationError("quantity", "must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewValidationError("unit_price", "must not be negative")
	}
	price := RoundMoney(unitPrice)
	return &OrderItem{
		ID:          uuid.New(),
		ProductID:   productID,
		ProductName: name,
		ProductSKU:  sku,
		UnitPrice:   price,
		Quantity:    quantity,
		LineTotal:   price.Mul(decimal.NewFromInt(int64(quantity))),
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// Pricing carries the adjustments applied on top of the item subtotal
type Pricing struct {
	Discount decimal.Decimal
	Tax      decimal.Decimal
	Shipping decimal.Decimal
}

// Order is the aggregate root for a customer order.
//
// TotalAmount always equals Subtotal - DiscountAmount + TaxAmount + ShippingCost,
// and Subtotal always equals the sum of the item line totals. Totals are
// computed once at creation and never recomputed from live catalog prices.
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber     string
	CustomerID      *uuid.UUID
	Status          Status
	PaymentStatus   PaymentStatus
	PaymentMethod   *PaymentMethod
	Currency        string
	Items           []OrderItem
	Subtotal        decimal.Decimal
	DiscountAmount  decimal.Decimal
	TaxAmount       decimal.Decimal
	ShippingCost    decimal.Decimal
	TotalAmount     decimal.Decimal
	ShippingAddress ShippingAddress
	CustomerNotes   string
	AdminNotes      string
	TrackingNumber  string
	ConfirmedAt     *time.Time
	ShippedAt       *time.Time
	DeliveredAt     *time.Time
	CancelledAt     *time.Time
	CancelReason    string
	StockReleasedAt *time.Time
}

// NewOrder assembles a pending order from already snapshotted items
func NewOrder(
	customerID *uuid.UUID,
	items []*OrderItem,
	address ShippingAddress,
	method *PaymentMethod,
	currency string,
	pricing Pricing,
	notes string,
) (*Order, error) {
	if len(items) == 0 {
		return nil, shared.NewValidationError("items", "order must contain at least one item")
	}

	o := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CustomerID:        customerID,
		Status:            StatusPending,
		PaymentStatus:     PaymentPending,
		PaymentMethod:     method,
		Currency:          strings.ToUpper(currency),
		Items:             make([]OrderItem, 0, len(items)),
		ShippingAddress:   address.Normalized(),
		CustomerNotes:     strings.TrimSpace(notes),
	}

	subtotal := decimal.Zero
	for _, item := range items {
		item.OrderID = o.ID
		subtotal = subtotal.Add(item.LineTotal)
		o.Items = append(o.Items, *item)
	}

	discount := RoundMoney(pricing.Discount)
	tax := RoundMoney(pricing.Tax)
	shipping := RoundMoney(pricing.Shipping)

	verr := &shared.ValidationError{}
	if discount.IsNegative() {
		verr.Add("discount_amount", "must not be negative")
	} else if discount.GreaterThan(subtotal) {
		verr.Add("discount_amount", "cannot exceed the order subtotal")
	}
	if tax.IsNegative() {
		verr.Add("tax_amount", "must not be negative")
	}
	if shipping.IsNegative() {
		verr.Add("shipping_cost", "must not be negative")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	o.Subtotal = subtotal
	o.DiscountAmount = discount
	o.TaxAmount = tax
	o.ShippingCost = shipping
	o.TotalAmount = subtotal.Sub(discount).Add(tax).Add(shipping)

	return o, nil
}

// AssignNumber sets the human-readable order number. The creation service
// may call it again with a fresh number after a uniqueness collision.
func (o *Order) AssignNumber(number string) {
	o.OrderNumber = number
}

// MarkCreated records the creation event once the order has a number
func (o *Order) MarkCreated() {
	o.AddDomainEvent(NewOrderCreatedEvent(o))
}

// VerifyTotals checks the totals invariant against the stored items
func (o *Order) VerifyTotals() error {
	subtotal := decimal.Zero
	for _, item := range o.Items {
		expected := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		if !item.LineTotal.Equal(expected) {
			return fmt.Errorf("order %s: line total mismatch for product %s", o.OrderNumber, item.ProductID)
		}
		subtotal = subtotal.Add(item.LineTotal)
	}
	if !subtotal.Equal(o.Subtotal) {
		return fmt.Errorf("order %s: subtotal %s does not match items %s", o.OrderNumber, o.Subtotal, subtotal)
	}
	total := o.Subtotal.Sub(o.DiscountAmount).Add(o.TaxAmount).Add(o.ShippingCost)
	if !total.Equal(o.TotalAmount) {
		return fmt.Errorf("order %s: total %s does not match components %s", o.OrderNumber, o.TotalAmount, total)
	}
	return nil
}

// TransitionStatus moves the fulfilment axis. Timestamps for shipped and
// delivered are set on first entry only; a rejected transition changes nothing.
func (o *Order) TransitionStatus(to Status, reason string, now time.Time) error {
	from := o.Status
	if err := (StatusMachine{}).Validate(from, to); err != nil {
		return err
	}

	o.Status = to
	switch to {
	case StatusConfirmed:
		if o.ConfirmedAt == nil {
			o.ConfirmedAt = &now
		}
	case StatusShipped:
		if o.ShippedAt == nil {
			o.ShippedAt = &now
		}
	case StatusDelivered:
		if o.DeliveredAt == nil {
			o.DeliveredAt = &now
		}
	case StatusCancelled:
		if o.CancelledAt == nil {
			o.CancelledAt = &now
		}
		o.CancelReason = reason
	}
	o.UpdatedAt = now

	o.AddDomainEvent(NewOrderStatusChangedEvent(o, from, to, reason))
	return nil
}

// TransitionPayment moves the payment axis
func (o *Order) TransitionPayment(to PaymentStatus, now time.Time) error {
	from := o.PaymentStatus
	if err := (StatusMachine{}).ValidatePayment(from, to); err != nil {
		return err
	}

	o.PaymentStatus = to
	o.UpdatedAt = now

	o.AddDomainEvent(NewOrderPaymentStatusChangedEvent(o, from, to))
	return nil
}

// StockReleased reports whether reservations have already been given back
func (o *Order) StockReleased() bool {
	return o.StockReleasedAt != nil
}

// MarkStockReleased sets the release guard. It returns false when the guard
// was already set, in which case the caller must not release again.
func (o *Order) MarkStockReleased(now time.Time) bool {
	if o.StockReleasedAt != nil {
		return false
	}
	o.StockReleasedAt = &now
	o.AddDomainEvent(NewOrderStockReleasedEvent(o))
	return true
}

// UpdateDetails edits the free-form fields an administrator maintains
func (o *Order) UpdateDetails(trackingNumber, adminNotes *string, now time.Time) {
	if trackingNumber != nil {
		o.TrackingNumber = strings.TrimSpace(*trackingNumber)
	}
	if adminNotes != nil {
		o.AdminNotes = strings.TrimSpace(*adminNotes)
	}
	o.UpdatedAt = now
}

// TotalQuantity returns the number of units across all lines
func (o *Order) TotalQuantity() int {
	total := 0
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}
