package order

import (
	"sort"
	"strings"
	"sync"
)

// Status is the fulfilment axis of an order
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// IsValid checks if the status is a known value
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further fulfilment transition exists
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

func (s Status) String() string {
	return string(s)
}

// PaymentStatus is the payment axis of an order, driven by the payment feed
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// IsValid checks if the payment status is a known value
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentPending, PaymentCompleted, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

func (s PaymentStatus) String() string {
	return string(s)
}

// PaymentMethod is how the customer intends to pay
type PaymentMethod string

const (
	PaymentMethodCash        PaymentMethod = "cash"
	PaymentMethodCard        PaymentMethod = "card"
	PaymentMethodTransfer    PaymentMethod = "transfer"
	PaymentMethodMercadoPago PaymentMethod = "mercadopago"
)

var (
	paymentMethodsMu sync.RWMutex
	paymentMethods   = map[PaymentMethod]struct{}{
		PaymentMethodCash:        {},
		PaymentMethodCard:        {},
		PaymentMethodTransfer:    {},
		PaymentMethodMercadoPago: {},
	}
)

// RegisterPaymentMethod adds a method to the accepted set
func RegisterPaymentMethod(m PaymentMethod) {
	paymentMethodsMu.Lock()
	defer paymentMethodsMu.Unlock()
	paymentMethods[PaymentMethod(strings.ToLower(string(m)))] = struct{}{}
}

// ParsePaymentMethod normalizes and validates a wire value
func ParsePaymentMethod(raw string) (PaymentMethod, bool) {
	m := PaymentMethod(strings.ToLower(strings.TrimSpace(raw)))
	paymentMethodsMu.RLock()
	defer paymentMethodsMu.RUnlock()
	_, ok := paymentMethods[m]
	return m, ok
}

// PaymentMethods lists the accepted methods in lexical order
func PaymentMethods() []PaymentMethod {
	paymentMethodsMu.RLock()
	defer paymentMethodsMu.RUnlock()
	out := make([]PaymentMethod, 0, len(paymentMethods))
	for m := range paymentMethods {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
