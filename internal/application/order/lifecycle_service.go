package order

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mosaico/backend/internal/domain/order"
	"github.com/mosaico/backend/internal/domain/shared"
	"github.com/mosaico/backend/internal/infrastructure/logger"
	"github.com/mosaico/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// LifecycleService applies status and payment transitions to existing orders.
//
// Each transition locks the order row, validates against the status machine,
// writes the new state with a version check and appends a history entry.
// Entering cancelled or refunded returns the order's stock exactly once,
// guarded by the order's stock release timestamp.
type LifecycleService struct {
	scope          TransactionScope
	machine        order.StatusMachine
	eventPublisher shared.EventPublisher
	recorder       Recorder
	logger         *zap.Logger
	now            func() time.Time
}

// NewLifecycleService creates a new LifecycleService
func NewLifecycleService(scope TransactionScope, logger *zap.Logger) *LifecycleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LifecycleService{
		scope:    scope,
		recorder: NopRecorder{},
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetEventPublisher sets the publisher notified after a transition commits
func (s *LifecycleService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetRecorder sets the metrics recorder
func (s *LifecycleService) SetRecorder(recorder Recorder) {
	s.recorder = recorder
}

// Transition moves exactly one axis of the order
func (s *LifecycleService) Transition(ctx context.Context, orderID uuid.UUID, req TransitionRequest) (resp *OrderResponse, err error) {
	start := time.Now()
	ctx, span := telemetry.StartUseCaseSpan(ctx, "order", useCaseName(req),
		attribute.String("order.id", orderID.String()),
	)
	defer func() {
		s.recorder.ObserveUseCase(useCaseName(req), outcomeOf(err), time.Since(start))
		telemetry.EndSpan(span, err)
	}()

	if (req.Status == nil) == (req.PaymentStatus == nil) {
		return nil, shared.NewValidationError("status", "exactly one of status or payment_status must be provided")
	}
	if req.Actor == "" {
		req.Actor = order.Actor(logger.Actor(ctx))
	}
	if req.Actor == "" {
		req.Actor = order.ActorAdmin
	}

	var updated *order.Order
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		o, err := s.transitionInTx(ctx, repos, orderID, req)
		if err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, asInfrastructure("transition order", err)
	}

	log := logger.Enrich(ctx, s.logger)
	log.Info("order transitioned",
		zap.String("order_id", updated.ID.String()),
		zap.String("order_number", updated.OrderNumber),
		zap.String("status", updated.Status.String()),
		zap.String("payment_status", updated.PaymentStatus.String()),
		zap.String("actor", string(req.Actor)),
		zap.Bool("stock_released", updated.StockReleased()),
	)
	publishEvents(ctx, s.eventPublisher, log, updated)

	response := ToOrderResponse(updated)
	return &response, nil
}

func (s *LifecycleService) transitionInTx(
	ctx context.Context,
	repos TransactionalRepositories,
	orderID uuid.UUID,
	req TransitionRequest,
) (*order.Order, error) {
	orders := repos.Orders()
	o, err := orders.FindByIDForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var entry order.StatusHistoryEntry
	release := false

	if req.Status != nil {
		from := o.Status
		if err := o.TransitionStatus(*req.Status, req.Reason, now); err != nil {
			return nil, err
		}
		release = s.machine.ReleasesInventory(*req.Status)
		entry = order.NewStatusHistoryEntry(o.ID, order.AxisStatus, string(from), string(o.Status), req.Reason, req.Actor)
	} else {
		from := o.PaymentStatus
		if err := o.TransitionPayment(*req.PaymentStatus, now); err != nil {
			return nil, err
		}
		release = s.machine.PaymentReleasesInventory(*req.PaymentStatus)
		entry = order.NewStatusHistoryEntry(o.ID, order.AxisPayment, string(from), string(o.PaymentStatus), req.Reason, req.Actor)
	}

	if req.TrackingNumber != nil || req.AdminNotes != nil {
		o.UpdateDetails(req.TrackingNumber, req.AdminNotes, now)
	}

	if release && o.MarkStockReleased(now) {
		ledger := repos.Ledger()
		for _, item := range sortedByProduct(o.Items) {
			if err := ledger.Release(ctx, item.ProductID, o.ID, item.Quantity); err != nil {
				return nil, asInfrastructure("release stock", err)
			}
		}
	}

	if err := o.VerifyTotals(); err != nil {
		return nil, shared.NewInfrastructureError("verify totals", err)
	}
	if err := orders.Update(ctx, o); err != nil {
		return nil, asInfrastructure("update order", err)
	}
	if err := orders.AppendHistory(ctx, entry); err != nil {
		return nil, asInfrastructure("append history", err)
	}
	return o, nil
}

// UpdateDetails edits tracking number and admin notes without a transition
func (s *LifecycleService) UpdateDetails(ctx context.Context, orderID uuid.UUID, req UpdateDetailsRequest) (*OrderResponse, error) {
	if req.TrackingNumber == nil && req.AdminNotes == nil {
		return nil, shared.NewValidationError("tracking_number", "nothing to update")
	}

	var updated *order.Order
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		o, err := repos.Orders().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		o.UpdateDetails(req.TrackingNumber, req.AdminNotes, s.now())
		if err := repos.Orders().Update(ctx, o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, asInfrastructure("update order details", err)
	}

	response := ToOrderResponse(updated)
	return &response, nil
}

// Confirm moves a pending order to confirmed
func (s *LifecycleService) Confirm(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	return s.toStatus(ctx, orderID, order.StatusConfirmed, TransitionRequest{})
}

// StartProcessing moves a confirmed order to processing
func (s *LifecycleService) StartProcessing(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	return s.toStatus(ctx, orderID, order.StatusProcessing, TransitionRequest{})
}

// Ship marks the order shipped, optionally recording the carrier tracking number
func (s *LifecycleService) Ship(ctx context.Context, orderID uuid.UUID, trackingNumber string) (*OrderResponse, error) {
	req := TransitionRequest{}
	if trackingNumber != "" {
		req.TrackingNumber = &trackingNumber
	}
	return s.toStatus(ctx, orderID, order.StatusShipped, req)
}

// Deliver marks the order delivered
func (s *LifecycleService) Deliver(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	return s.toStatus(ctx, orderID, order.StatusDelivered, TransitionRequest{})
}

// Cancel cancels the order and returns its stock
func (s *LifecycleService) Cancel(ctx context.Context, orderID uuid.UUID, reason string) (*OrderResponse, error) {
	return s.toStatus(ctx, orderID, order.StatusCancelled, TransitionRequest{Reason: reason})
}

// MarkPaid records a completed payment
func (s *LifecycleService) MarkPaid(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	return s.toPayment(ctx, orderID, order.PaymentCompleted, "")
}

// MarkPaymentFailed records a failed payment
func (s *LifecycleService) MarkPaymentFailed(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	return s.toPayment(ctx, orderID, order.PaymentFailed, "")
}

// Refund refunds a completed payment and returns the order's stock if it
// has not been returned already
func (s *LifecycleService) Refund(ctx context.Context, orderID uuid.UUID, reason string) (*OrderResponse, error) {
	return s.toPayment(ctx, orderID, order.PaymentRefunded, reason)
}

func (s *LifecycleService) toStatus(ctx context.Context, orderID uuid.UUID, to order.Status, req TransitionRequest) (*OrderResponse, error) {
	req.Status = &to
	return s.Transition(ctx, orderID, req)
}

func (s *LifecycleService) toPayment(ctx context.Context, orderID uuid.UUID, to order.PaymentStatus, reason string) (*OrderResponse, error) {
	return s.Transition(ctx, orderID, TransitionRequest{PaymentStatus: &to, Reason: reason})
}

func useCaseName(req TransitionRequest) string {
	if req.PaymentStatus != nil {
		return "transition_payment"
	}
	return "transition_status"
}
