package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mosaico/backend/internal/domain/shared"
)

type testEvent struct {
	shared.BaseDomainEvent
	Data string `json:"data"`
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "TestAggregate", uuid.New()),
		Data:            "test data",
	}
}

type testHandler struct {
	eventTypes []string
	err        error
	panicWith  any
	mu         sync.Mutex
	handled    []shared.DomainEvent
}

func (h *testHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	h.handled = append(h.handled, event)
	h.mu.Unlock()
	if h.panicWith != nil {
		panic(h.panicWith)
	}
	return h.err
}

func (h *testHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *testHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

func startedBus(t *testing.T, logger *zap.Logger) *InMemoryEventBus {
	t.Helper()
	bus := NewInMemoryEventBus(logger)
	require.NoError(t, bus.Start(context.Background()))
	t.Cleanup(func() { _ = bus.Stop(context.Background()) })
	return bus
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers to handlers subscribed to the type", func(t *testing.T) {
		bus := startedBus(t, zap.NewNop())
		created := &testHandler{}
		shipped := &testHandler{}
		bus.Subscribe(created, "Created")
		bus.Subscribe(shipped, "Shipped")

		require.NoError(t, bus.Publish(ctx, newTestEvent("Created"), newTestEvent("Created")))

		assert.Equal(t, 2, created.count())
		assert.Equal(t, 0, shipped.count())
	})

	t.Run("uses the handler's own event types when none are given", func(t *testing.T) {
		bus := startedBus(t, zap.NewNop())
		h := &testHandler{eventTypes: []string{"Created"}}
		bus.Subscribe(h)

		require.NoError(t, bus.Publish(ctx, newTestEvent("Created"), newTestEvent("Other")))
		assert.Equal(t, 1, h.count())
	})

	t.Run("wildcard handler receives every event", func(t *testing.T) {
		bus := startedBus(t, zap.NewNop())
		h := &testHandler{}
		bus.Subscribe(h)

		require.NoError(t, bus.Publish(ctx, newTestEvent("A"), newTestEvent("B")))
		assert.Equal(t, 2, h.count())
	})

	t.Run("failing and panicking handlers do not stop the others", func(t *testing.T) {
		core, logs := observer.New(zap.ErrorLevel)
		bus := startedBus(t, zap.New(core))
		failing := &testHandler{err: errors.New("boom")}
		panicking := &testHandler{panicWith: "kaboom"}
		healthy := &testHandler{}
		bus.Subscribe(failing, "Created")
		bus.Subscribe(panicking, "Created")
		bus.Subscribe(healthy, "Created")

		require.NoError(t, bus.Publish(ctx, newTestEvent("Created")))

		assert.Equal(t, 1, healthy.count())
		assert.Equal(t, 2, logs.FilterMessage("event handler failed").Len())
	})

	t.Run("stopped bus drops events", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)
		bus := NewInMemoryEventBus(zap.New(core))
		h := &testHandler{}
		bus.Subscribe(h, "Created")

		require.NoError(t, bus.Publish(ctx, newTestEvent("Created")))
		assert.Equal(t, 0, h.count())
		assert.Equal(t, 1, logs.FilterMessage("event bus stopped, event dropped").Len())
	})
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := startedBus(t, zap.NewNop())
	typed := &testHandler{}
	wildcard := &testHandler{}
	bus.Subscribe(typed, "Created")
	bus.Subscribe(wildcard)

	bus.Unsubscribe(typed)
	bus.Unsubscribe(wildcard)
	require.NoError(t, bus.Publish(context.Background(), newTestEvent("Created")))

	assert.Equal(t, 0, typed.count())
	assert.Equal(t, 0, wildcard.count())
	assert.Empty(t, bus.registry.GetHandlers("Created"))
}
