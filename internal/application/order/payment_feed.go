package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mosaico/backend/internal/domain/order"
	"github.com/mosaico/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// PaymentNotification is an asynchronous payment status update from the gateway
type PaymentNotification struct {
	NotificationID string `json:"notification_id" binding:"required"`
	OrderNumber    string `json:"order_number" binding:"required"`
	PaymentStatus  string `json:"payment_status" binding:"required"`
}

// PaymentNotificationResult reports what a notification did
type PaymentNotificationResult struct {
	Duplicate bool           `json:"duplicate"`
	Order     *OrderResponse `json:"order,omitempty"`
}

// ErrNotificationInFlight is returned for a redelivery that arrives while the
// first delivery is still being applied. It is a retryable conflict, so the
// gateway delivers again instead of treating the notification as done.
var ErrNotificationInFlight = fmt.Errorf("%w: payment notification is still being processed", shared.ErrConcurrencyConflict)

// Transitioner is the part of LifecycleService the payment feed drives
type Transitioner interface {
	Transition(ctx context.Context, orderID uuid.UUID, req TransitionRequest) (*OrderResponse, error)
}

// PaymentNotificationService routes payment notifications through the same
// transition path as admin actions. Redelivered notifications are acknowledged
// without effect.
type PaymentNotificationService struct {
	orderRepo order.Repository
	lifecycle Transitioner
	store     shared.IdempotencyStore
	cfg       shared.IdempotencyConfig
	logger    *zap.Logger
}

// NewPaymentNotificationService creates a new PaymentNotificationService
func NewPaymentNotificationService(
	orderRepo order.Repository,
	lifecycle Transitioner,
	store shared.IdempotencyStore,
	cfg shared.IdempotencyConfig,
	logger *zap.Logger,
) *PaymentNotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := shared.DefaultIdempotencyConfig()
	if cfg.TTL <= 0 {
		cfg.TTL = defaults.TTL
	}
	if cfg.ClaimTTL <= 0 {
		cfg.ClaimTTL = defaults.ClaimTTL
	}
	return &PaymentNotificationService{
		orderRepo: orderRepo,
		lifecycle: lifecycle,
		store:     store,
		cfg:       cfg,
		logger:    logger,
	}
}

// Handle applies one notification
func (s *PaymentNotificationService) Handle(ctx context.Context, n PaymentNotification) (*PaymentNotificationResult, error) {
	verr := &shared.ValidationError{}
	if strings.TrimSpace(n.NotificationID) == "" {
		verr.Add("notification_id", "is required")
	}
	if strings.TrimSpace(n.OrderNumber) == "" {
		verr.Add("order_number", "is required")
	}
	status := order.PaymentStatus(strings.ToLower(strings.TrimSpace(n.PaymentStatus)))
	if !status.IsValid() {
		verr.Add("payment_status", "unknown payment status")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	key := "payment:" + n.NotificationID
	if s.cfg.Enabled && s.store != nil {
		fresh, err := s.store.MarkProcessed(ctx, key, s.cfg.ClaimTTL)
		if err != nil {
			return nil, shared.NewInfrastructureError("mark notification", err)
		}
		if !fresh {
			return s.redelivered(ctx, key, n)
		}
	}

	resp, err := s.apply(ctx, n, status)
	if err != nil {
		s.forget(ctx, key)
		return nil, err
	}
	s.complete(ctx, key)
	return &PaymentNotificationResult{Order: resp}, nil
}

// redelivered acknowledges a notification whose first delivery completed and
// asks for a retry while that delivery is still in flight
func (s *PaymentNotificationService) redelivered(ctx context.Context, key string, n PaymentNotification) (*PaymentNotificationResult, error) {
	done, err := s.store.IsProcessed(ctx, key)
	if err != nil {
		return nil, shared.NewInfrastructureError("check notification", err)
	}
	if !done {
		s.logger.Info("payment notification redelivered while in flight",
			zap.String("notification_id", n.NotificationID),
			zap.String("order_number", n.OrderNumber),
		)
		return nil, ErrNotificationInFlight
	}
	s.logger.Info("duplicate payment notification ignored",
		zap.String("notification_id", n.NotificationID),
		zap.String("order_number", n.OrderNumber),
	)
	return &PaymentNotificationResult{Duplicate: true}, nil
}

func (s *PaymentNotificationService) apply(ctx context.Context, n PaymentNotification, status order.PaymentStatus) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByOrderNumber(ctx, strings.ToUpper(strings.TrimSpace(n.OrderNumber)))
	if err != nil {
		return nil, asInfrastructure("find order for payment", err)
	}
	return s.lifecycle.Transition(ctx, o.ID, TransitionRequest{
		PaymentStatus: &status,
		Reason:        "payment notification " + n.NotificationID,
		Actor:         order.ActorPaymentFeed,
	})
}

func (s *PaymentNotificationService) complete(ctx context.Context, key string) {
	if !s.cfg.Enabled || s.store == nil {
		return
	}
	// the transition already committed; a lost marker only means a late
	// redelivery is rejected by the status machine instead of acknowledged
	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := s.store.Complete(fctx, key, s.cfg.TTL); err != nil {
		s.logger.Warn("failed to complete payment notification mark",
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

func (s *PaymentNotificationService) forget(ctx context.Context, key string) {
	if !s.cfg.Enabled || s.store == nil {
		return
	}
	// detached so a cancelled request still clears the claim
	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := s.store.Forget(fctx, key); err != nil {
		s.logger.Warn("failed to clear payment notification mark",
			zap.String("key", key),
			zap.Error(err),
		)
	}
}
