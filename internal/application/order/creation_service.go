package order

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/mosaico/backend/internal/domain/catalog"
	"github.com/mosaico/backend/internal/domain/order"
	"github.com/mosaico/backend/internal/domain/shared"
	"github.com/mosaico/backend/internal/infrastructure/logger"
	"github.com/mosaico/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// DefaultMaxNumberAttempts bounds order number regeneration on collision
const DefaultMaxNumberAttempts = 5

// CreationConfig holds the checkout settings
type CreationConfig struct {
	Currency          string
	MaxNumberAttempts int
}

// CreationService turns a cart into a durable order.
// Product lookup, stock reservation, order number allocation and the insert
// all run in one transaction: any failure leaves stock and orders untouched.
type CreationService struct {
	scope             TransactionScope
	numbers           *order.NumberGenerator
	shipping          ShippingPolicy
	tax               TaxPolicy
	currency          string
	maxNumberAttempts int
	eventPublisher    shared.EventPublisher
	recorder          Recorder
	logger            *zap.Logger
}

// NewCreationService creates a new CreationService
func NewCreationService(
	scope TransactionScope,
	numbers *order.NumberGenerator,
	shipping ShippingPolicy,
	tax TaxPolicy,
	cfg CreationConfig,
	logger *zap.Logger,
) *CreationService {
	if cfg.MaxNumberAttempts < 1 {
		cfg.MaxNumberAttempts = DefaultMaxNumberAttempts
	}
	if cfg.Currency == "" {
		cfg.Currency = "ARS"
	}
	if shipping == nil {
		shipping = FlatRateShipping{}
	}
	if tax == nil {
		tax = PercentageTax{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CreationService{
		scope:             scope,
		numbers:           numbers,
		shipping:          shipping,
		tax:               tax,
		currency:          cfg.Currency,
		maxNumberAttempts: cfg.MaxNumberAttempts,
		recorder:          NopRecorder{},
		logger:            logger,
	}
}

// SetEventPublisher sets the publisher notified after a checkout commits
func (s *CreationService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetRecorder sets the metrics recorder
func (s *CreationService) SetRecorder(recorder Recorder) {
	s.recorder = recorder
}

// Create places an order for the requested items
func (s *CreationService) Create(ctx context.Context, req CreateOrderRequest) (resp *OrderResponse, err error) {
	start := time.Now()
	ctx, span := telemetry.StartUseCaseSpan(ctx, "order", "create",
		attribute.Int("order.line_count", len(req.Items)),
	)
	defer func() {
		s.recorder.ObserveUseCase("create_order", outcomeOf(err), time.Since(start))
		telemetry.EndSpan(span, err)
	}()
	log := logger.Enrich(ctx, s.logger)

	method, err := validateCreateRequest(req)
	if err != nil {
		return nil, err
	}

	var created *order.Order
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		o, err := s.createInTx(ctx, repos, req, method)
		if err != nil {
			return err
		}
		created = o
		return nil
	})
	if err != nil {
		log.Info("order creation rejected",
			zap.String("error_code", shared.ErrorCodeOf(err)),
			zap.Error(err),
		)
		return nil, asInfrastructure("create order", err)
	}

	span.SetAttributes(attribute.String("order.number", created.OrderNumber))
	log.Info("order created",
		zap.String("order_id", created.ID.String()),
		zap.String("order_number", created.OrderNumber),
		zap.Int("item_count", len(created.Items)),
		zap.String("total_amount", created.TotalAmount.String()),
	)
	publishEvents(ctx, s.eventPublisher, log, created)

	response := ToOrderResponse(created)
	return &response, nil
}

func (s *CreationService) createInTx(
	ctx context.Context,
	repos TransactionalRepositories,
	req CreateOrderRequest,
	method *order.PaymentMethod,
) (*order.Order, error) {
	ids := make([]uuid.UUID, len(req.Items))
	for i, line := range req.Items {
		ids[i] = line.ProductID
	}

	products, err := repos.Products().FindByIDs(ctx, ids)
	if err != nil {
		return nil, asInfrastructure("load products", err)
	}
	byID := make(map[uuid.UUID]catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	// every product must resolve before any stock is touched
	items := make([]*order.OrderItem, 0, len(req.Items))
	subtotal := decimal.Zero
	for _, line := range req.Items {
		p, ok := byID[line.ProductID]
		if !ok || !p.IsSellable() {
			return nil, &catalog.ProductNotFoundError{ProductID: line.ProductID.String()}
		}
		item, err := order.NewOrderItem(p.ID, p.Name, p.SKU, p.Price, line.Quantity)
		if err != nil {
			return nil, err
		}
		subtotal = subtotal.Add(item.LineTotal)
		items = append(items, item)
	}

	discount := decimal.Zero
	if req.DiscountAmount != nil {
		discount = *req.DiscountAmount
	}
	shipping := s.shipping.Quote(subtotal)
	if req.ShippingCost != nil {
		shipping = *req.ShippingCost
	}
	pricing := order.Pricing{
		Discount: discount,
		Tax:      s.tax.Tax(subtotal.Sub(order.RoundMoney(discount))),
		Shipping: shipping,
	}

	o, err := order.NewOrder(req.CustomerID, items, req.ShippingAddress, method, s.currency, pricing, req.Notes)
	if err != nil {
		return nil, err
	}

	if err := s.reserve(ctx, repos, o); err != nil {
		return nil, err
	}

	if err := s.insertWithFreshNumber(ctx, repos, o); err != nil {
		return nil, err
	}

	entry := order.NewStatusHistoryEntry(o.ID, order.AxisStatus, "", string(order.StatusPending), "order placed", order.ActorSystem)
	if err := repos.Orders().AppendHistory(ctx, entry); err != nil {
		return nil, asInfrastructure("append history", err)
	}

	o.MarkCreated()
	return o, nil
}

// reserve takes stock in ascending product order so that two multi-item
// checkouts always lock rows in the same sequence
func (s *CreationService) reserve(ctx context.Context, repos TransactionalRepositories, o *order.Order) error {
	lines := sortedByProduct(o.Items)
	ledger := repos.Ledger()
	for _, item := range lines {
		if err := ledger.Reserve(ctx, item.ProductID, o.ID, item.Quantity); err != nil {
			s.logger.Debug("reservation failed",
				zap.String("product_id", item.ProductID.String()),
				zap.Int("quantity", item.Quantity),
				zap.Error(err),
			)
			return err
		}
	}
	return nil
}

func (s *CreationService) insertWithFreshNumber(ctx context.Context, repos TransactionalRepositories, o *order.Order) error {
	for attempt := 1; attempt <= s.maxNumberAttempts; attempt++ {
		number, err := s.numbers.Next(ctx)
		if err != nil {
			return asInfrastructure("generate order number", err)
		}
		o.AssignNumber(number)

		err = repos.Orders().Create(ctx, o)
		if err == nil {
			return nil
		}
		if !errors.Is(err, order.ErrDuplicateOrderNumber) {
			return asInfrastructure("insert order", err)
		}
		s.logger.Warn("order number collision",
			zap.String("order_number", number),
			zap.Int("attempt", attempt),
		)
	}
	return order.ErrOrderNumberExhausted
}

func validateCreateRequest(req CreateOrderRequest) (*order.PaymentMethod, error) {
	verr := &shared.ValidationError{}

	if len(req.Items) == 0 {
		verr.Add("items", "order must contain at least one item")
	}
	seen := make(map[uuid.UUID]bool, len(req.Items))
	for _, line := range req.Items {
		if line.ProductID == uuid.Nil {
			verr.Add("items.product_id", "is required")
			continue
		}
		if line.Quantity <= 0 {
			verr.Add("items.quantity", "must be positive for product "+line.ProductID.String())
		}
		if seen[line.ProductID] {
			verr.Add("items.product_id", "duplicate line for product "+line.ProductID.String())
		}
		seen[line.ProductID] = true
	}

	var method *order.PaymentMethod
	if req.PaymentMethod != nil && *req.PaymentMethod != "" {
		m, ok := order.ParsePaymentMethod(*req.PaymentMethod)
		if !ok {
			verr.Add("payment_method", "unsupported payment method")
		} else {
			method = &m
		}
	}
	if req.DiscountAmount != nil && req.DiscountAmount.IsNegative() {
		verr.Add("discount_amount", "must not be negative")
	}
	if req.ShippingCost != nil && req.ShippingCost.IsNegative() {
		verr.Add("shipping_cost", "must not be negative")
	}
	req.ShippingAddress.Validate(verr)

	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return method, nil
}

func sortedByProduct(items []order.OrderItem) []order.OrderItem {
	lines := append([]order.OrderItem(nil), items...)
	sort.Slice(lines, func(i, j int) bool {
		return bytes.Compare(lines[i].ProductID[:], lines[j].ProductID[:]) < 0
	})
	return lines
}

// asInfrastructure leaves classified errors alone and wraps everything else
func asInfrastructure(op string, err error) error {
	if err == nil {
		return nil
	}
	var coded shared.CodedError
	if errors.As(err, &coded) {
		return err
	}
	return shared.NewInfrastructureError(op, err)
}

func publishEvents(ctx context.Context, publisher shared.EventPublisher, logger *zap.Logger, o *order.Order) {
	events := o.GetDomainEvents()
	o.ClearDomainEvents()
	if publisher == nil || len(events) == 0 {
		return
	}
	if err := publisher.Publish(ctx, events...); err != nil {
		logger.Error("failed to publish order events",
			zap.String("order_id", o.ID.String()),
			zap.Error(err),
		)
	}
}
