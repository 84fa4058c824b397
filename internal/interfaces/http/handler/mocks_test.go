package handler

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	apporder "github.com/mosaico/backend/internal/application/order"
	"github.com/mosaico/backend/internal/domain/shared"
)

type MockOrderCreator struct {
	mock.Mock
}

func (m *MockOrderCreator) Create(ctx context.Context, req apporder.CreateOrderRequest) (*apporder.OrderResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apporder.OrderResponse), args.Error(1)
}

type MockOrderLifecycle struct {
	mock.Mock
}

func (m *MockOrderLifecycle) result(args mock.Arguments) (*apporder.OrderResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apporder.OrderResponse), args.Error(1)
}

func (m *MockOrderLifecycle) Transition(ctx context.Context, id uuid.UUID, req apporder.TransitionRequest) (*apporder.OrderResponse, error) {
	return m.result(m.Called(ctx, id, req))
}

func (m *MockOrderLifecycle) UpdateDetails(ctx context.Context, id uuid.UUID, req apporder.UpdateDetailsRequest) (*apporder.OrderResponse, error) {
	return m.result(m.Called(ctx, id, req))
}

func (m *MockOrderLifecycle) Confirm(ctx context.Context, id uuid.UUID) (*apporder.OrderResponse, error) {
	return m.result(m.Called(ctx, id))
}

func (m *MockOrderLifecycle) StartProcessing(ctx context.Context, id uuid.UUID) (*apporder.OrderResponse, error) {
	return m.result(m.Called(ctx, id))
}

func (m *MockOrderLifecycle) Ship(ctx context.Context, id uuid.UUID, tracking string) (*apporder.OrderResponse, error) {
	return m.result(m.Called(ctx, id, tracking))
}

func (m *MockOrderLifecycle) Deliver(ctx context.Context, id uuid.UUID) (*apporder.OrderResponse, error) {
	return m.result(m.Called(ctx, id))
}

func (m *MockOrderLifecycle) Cancel(ctx context.Context, id uuid.UUID, reason string) (*apporder.OrderResponse, error) {
	return m.result(m.Called(ctx, id, reason))
}

func (m *MockOrderLifecycle) Refund(ctx context.Context, id uuid.UUID, reason string) (*apporder.OrderResponse, error) {
	return m.result(m.Called(ctx, id, reason))
}

type MockOrderQueries struct {
	mock.Mock
}

func (m *MockOrderQueries) Get(ctx context.Context, id uuid.UUID) (*apporder.OrderResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apporder.OrderResponse), args.Error(1)
}

func (m *MockOrderQueries) GetByNumber(ctx context.Context, number string) (*apporder.OrderResponse, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apporder.OrderResponse), args.Error(1)
}

func (m *MockOrderQueries) List(ctx context.Context, filter apporder.OrderListFilter) (*shared.Paginated[apporder.OrderListItemResponse], error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[apporder.OrderListItemResponse]), args.Error(1)
}

func (m *MockOrderQueries) History(ctx context.Context, id uuid.UUID) ([]apporder.HistoryEntryResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]apporder.HistoryEntryResponse), args.Error(1)
}

func (m *MockOrderQueries) Movements(ctx context.Context, id uuid.UUID) ([]apporder.MovementResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]apporder.MovementResponse), args.Error(1)
}

type MockPaymentNotifier struct {
	mock.Mock
}

func (m *MockPaymentNotifier) Handle(ctx context.Context, n apporder.PaymentNotification) (*apporder.PaymentNotificationResult, error) {
	args := m.Called(ctx, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apporder.PaymentNotificationResult), args.Error(1)
}
