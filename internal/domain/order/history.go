package order

import (
	"time"

	"github.com/google/uuid"
)

// Actor identifies who caused a transition
type Actor string

const (
	ActorAdmin       Actor = "admin"
	ActorPaymentFeed Actor = "payment_feed"
	ActorSystem      Actor = "system"
)

// StatusHistoryEntry is an append-only record of one transition on one axis
type StatusHistoryEntry struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	Axis      Axis
	FromValue string
	ToValue   string
	Reason    string
	Actor     Actor
	CreatedAt time.Time
}

// NewStatusHistoryEntry stamps a history entry now
func NewStatusHistoryEntry(orderID uuid.UUID, axis Axis, from, to, reason string, actor Actor) StatusHistoryEntry {
	if actor == "" {
		actor = ActorSystem
	}
	return StatusHistoryEntry{
		ID:        uuid.New(),
		OrderID:   orderID,
		Axis:      axis,
		FromValue: from,
		ToValue:   to,
		Reason:    reason,
		Actor:     actor,
		CreatedAt: time.Now().UTC(),
	}
}
