package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mosaico/backend/internal/domain/order"
	"github.com/mosaico/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newPaymentFeed(f *fixture, store shared.IdempotencyStore) *PaymentNotificationService {
	return NewPaymentNotificationService(orderRepoView{f.store}, f.lifecycle, store,
		shared.IdempotencyConfig{TTL: time.Hour, ClaimTTL: time.Minute, Enabled: true}, zap.NewNop())
}

func TestPaymentNotificationService_AppliesTransition(t *testing.T) {
	f := newFixture(t)
	orderID, _ := placeOrder(t, f, 5, 1)
	created, err := f.query.Get(context.Background(), orderID)
	require.NoError(t, err)

	store := new(MockIdempotencyStore)
	store.On("MarkProcessed", mock.Anything, "payment:n-1", time.Minute).Return(true, nil)
	store.On("Complete", mock.Anything, "payment:n-1", time.Hour).Return(nil)
	feed := newPaymentFeed(f, store)

	result, err := feed.Handle(context.Background(), PaymentNotification{
		NotificationID: "n-1",
		OrderNumber:    created.OrderNumber,
		PaymentStatus:  "COMPLETED",
	})
	require.NoError(t, err)
	assert.False(t, result.Duplicate)
	assert.Equal(t, "completed", result.Order.PaymentStatus)
	store.AssertExpectations(t)

	history, err := f.query.History(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, string(order.ActorPaymentFeed), history[len(history)-1].Actor)
}

func TestPaymentNotificationService_DuplicateIsAcknowledged(t *testing.T) {
	f := newFixture(t)
	orderID, _ := placeOrder(t, f, 5, 1)
	created, err := f.query.Get(context.Background(), orderID)
	require.NoError(t, err)

	store := new(MockIdempotencyStore)
	store.On("MarkProcessed", mock.Anything, "payment:n-1", time.Minute).Return(false, nil)
	store.On("IsProcessed", mock.Anything, "payment:n-1").Return(true, nil)
	feed := newPaymentFeed(f, store)

	result, err := feed.Handle(context.Background(), PaymentNotification{
		NotificationID: "n-1",
		OrderNumber:    created.OrderNumber,
		PaymentStatus:  "completed",
	})
	require.NoError(t, err)
	assert.True(t, result.Duplicate)

	got, err := f.query.Get(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, "pending", got.PaymentStatus)
}

func TestPaymentNotificationService_RedeliveryWhileInFlightIsRetryable(t *testing.T) {
	f := newFixture(t)
	orderID, _ := placeOrder(t, f, 5, 1)
	created, err := f.query.Get(context.Background(), orderID)
	require.NoError(t, err)

	store := new(MockIdempotencyStore)
	store.On("MarkProcessed", mock.Anything, "payment:n-5", time.Minute).Return(false, nil)
	store.On("IsProcessed", mock.Anything, "payment:n-5").Return(false, nil)
	feed := newPaymentFeed(f, store)

	result, err := feed.Handle(context.Background(), PaymentNotification{
		NotificationID: "n-5",
		OrderNumber:    created.OrderNumber,
		PaymentStatus:  "completed",
	})
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrNotificationInFlight)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	assert.True(t, shared.IsRetryable(err))
	assert.Equal(t, "CONCURRENCY_CONFLICT", shared.ErrorCodeOf(err))
	store.AssertExpectations(t)

	got, err := f.query.Get(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, "pending", got.PaymentStatus)
}

func TestPaymentNotificationService_FailedFirstDeliveryCanBeRetried(t *testing.T) {
	f := newFixture(t)
	orderID, _ := placeOrder(t, f, 5, 1)
	created, err := f.query.Get(context.Background(), orderID)
	require.NoError(t, err)

	store := newMemIdempotencyStore()
	feed := newPaymentFeed(f, store)
	n := PaymentNotification{NotificationID: "n-6", OrderNumber: created.OrderNumber, PaymentStatus: "completed"}

	// a redelivery racing the first attempt sees the claim and must retry
	fresh, err := store.MarkProcessed(context.Background(), "payment:n-6", time.Minute)
	require.NoError(t, err)
	require.True(t, fresh)
	_, err = feed.Handle(context.Background(), n)
	require.ErrorIs(t, err, ErrNotificationInFlight)

	// the first attempt fails and clears its claim
	require.NoError(t, store.Forget(context.Background(), "payment:n-6"))

	result, err := feed.Handle(context.Background(), n)
	require.NoError(t, err)
	assert.False(t, result.Duplicate)
	assert.Equal(t, "completed", result.Order.PaymentStatus)

	again, err := feed.Handle(context.Background(), n)
	require.NoError(t, err)
	assert.True(t, again.Duplicate)
}

func TestPaymentNotificationService_FailureClearsMark(t *testing.T) {
	f := newFixture(t)
	store := new(MockIdempotencyStore)
	store.On("MarkProcessed", mock.Anything, "payment:n-2", time.Minute).Return(true, nil)
	store.On("Forget", mock.Anything, "payment:n-2").Return(nil)
	feed := newPaymentFeed(f, store)

	_, err := feed.Handle(context.Background(), PaymentNotification{
		NotificationID: "n-2",
		OrderNumber:    "ORD-20260101-9999",
		PaymentStatus:  "completed",
	})
	assert.True(t, errors.Is(err, shared.ErrNotFound))
	store.AssertExpectations(t)
}

func TestPaymentNotificationService_StoreError(t *testing.T) {
	f := newFixture(t)
	store := new(MockIdempotencyStore)
	store.On("MarkProcessed", mock.Anything, "payment:n-3", time.Minute).Return(false, errors.New("redis: connection refused"))
	feed := newPaymentFeed(f, store)

	_, err := feed.Handle(context.Background(), PaymentNotification{
		NotificationID: "n-3",
		OrderNumber:    "ORD-20260101-0001",
		PaymentStatus:  "completed",
	})
	var infra *shared.InfrastructureError
	require.ErrorAs(t, err, &infra)
	assert.True(t, shared.IsRetryable(err))
}

func TestPaymentNotificationService_Validation(t *testing.T) {
	f := newFixture(t)
	feed := newPaymentFeed(f, new(MockIdempotencyStore))

	_, err := feed.Handle(context.Background(), PaymentNotification{PaymentStatus: "chargeback"})
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 3)
}
