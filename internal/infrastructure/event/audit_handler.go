package event

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/mosaico/backend/internal/domain/order"
	"github.com/mosaico/backend/internal/domain/shared"
	"github.com/mosaico/backend/internal/infrastructure/logger"
)

// AuditLogHandler writes one structured log line per order event, carrying
// the event payload so the order timeline can be rebuilt from logs
type AuditLogHandler struct {
	logger *zap.Logger
}

// NewAuditLogHandler creates a new AuditLogHandler
func NewAuditLogHandler(logger *zap.Logger) *AuditLogHandler {
	return &AuditLogHandler{logger: logger.Named("audit")}
}

// EventTypes implements shared.EventHandler
func (h *AuditLogHandler) EventTypes() []string {
	return []string{
		order.EventTypeOrderCreated,
		order.EventTypeOrderStatusChanged,
		order.EventTypeOrderPaymentStatusChanged,
		order.EventTypeOrderStockReleased,
	}
}

// Handle implements shared.EventHandler
func (h *AuditLogHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	logger.Enrich(ctx, h.logger).Info("order event",
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("order_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
		zap.ByteString("payload", payload),
	)
	return nil
}

var _ shared.EventHandler = (*AuditLogHandler)(nil)
