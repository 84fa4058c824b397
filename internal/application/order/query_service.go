package order

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/mosaico/backend/internal/domain/inventory"
	"github.com/mosaico/backend/internal/domain/order"
	"github.com/mosaico/backend/internal/domain/shared"
)

// QueryService serves read-only order views
type QueryService struct {
	orderRepo order.Repository
	movements inventory.MovementRepository
}

// NewQueryService creates a new QueryService
func NewQueryService(orderRepo order.Repository, movements inventory.MovementRepository) *QueryService {
	return &QueryService{orderRepo: orderRepo, movements: movements}
}

// Get retrieves an order by ID
func (s *QueryService) Get(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, asInfrastructure("get order", err)
	}
	response := ToOrderResponse(o)
	return &response, nil
}

// GetByNumber retrieves an order by its order number
func (s *QueryService) GetByNumber(ctx context.Context, number string) (*OrderResponse, error) {
	number = strings.ToUpper(strings.TrimSpace(number))
	if number == "" {
		return nil, shared.NewValidationError("order_number", "is required")
	}
	o, err := s.orderRepo.FindByOrderNumber(ctx, number)
	if err != nil {
		return nil, asInfrastructure("get order by number", err)
	}
	response := ToOrderResponse(o)
	return &response, nil
}

// List retrieves orders with filtering and pagination
func (s *QueryService) List(ctx context.Context, filter OrderListFilter) (*shared.Paginated[OrderListItemResponse], error) {
	if filter.Status != "" && !order.Status(filter.Status).IsValid() {
		return nil, shared.NewValidationError("status", "unknown status")
	}
	if filter.PaymentStatus != "" && !order.PaymentStatus(filter.PaymentStatus).IsValid() {
		return nil, shared.NewValidationError("payment_status", "unknown payment status")
	}

	f := filter.ToFilter()
	orders, err := s.orderRepo.FindAll(ctx, f)
	if err != nil {
		return nil, asInfrastructure("list orders", err)
	}
	total, err := s.orderRepo.Count(ctx, f)
	if err != nil {
		return nil, asInfrastructure("count orders", err)
	}

	page := shared.NewPaginated(ToOrderListItemResponses(orders), total, f.Page, f.PageSize)
	return &page, nil
}

// History lists the order's transitions oldest first
func (s *QueryService) History(ctx context.Context, orderID uuid.UUID) ([]HistoryEntryResponse, error) {
	if _, err := s.orderRepo.FindByID(ctx, orderID); err != nil {
		return nil, asInfrastructure("get order", err)
	}
	entries, err := s.orderRepo.FindHistory(ctx, orderID)
	if err != nil {
		return nil, asInfrastructure("get order history", err)
	}
	return ToHistoryResponses(entries), nil
}

// Movements lists the stock reservations and releases caused by the order,
// oldest first
func (s *QueryService) Movements(ctx context.Context, orderID uuid.UUID) ([]MovementResponse, error) {
	if _, err := s.orderRepo.FindByID(ctx, orderID); err != nil {
		return nil, asInfrastructure("get order", err)
	}
	movements, err := s.movements.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, asInfrastructure("get order movements", err)
	}
	return ToMovementResponses(movements), nil
}
