package order

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mosaico/backend/internal/domain/catalog"
	"github.com/mosaico/backend/internal/domain/inventory"
	"github.com/mosaico/backend/internal/domain/order"
	"github.com/mosaico/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memStore is an in-memory store whose Execute behaves like a serializable
// transaction: it holds a lock for the whole callback and restores a snapshot
// when the callback fails.
type memStore struct {
	mu        sync.Mutex
	products  map[uuid.UUID]catalog.Product
	orders    map[uuid.UUID]order.Order
	history   []order.StatusHistoryEntry
	movements []inventory.StockMovement
}

func newMemStore() *memStore {
	return &memStore{
		products: make(map[uuid.UUID]catalog.Product),
		orders:   make(map[uuid.UUID]order.Order),
	}
}

func (m *memStore) addProduct(t *testing.T, sku string, price int64, stock int) catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(sku, "Product "+sku, decimal.NewFromInt(price), stock)
	require.NoError(t, err)
	m.products[p.ID] = *p
	return *p
}

func (m *memStore) stock(id uuid.UUID) int {
	return m.products[id].Stock
}

type memSnapshot struct {
	products  map[uuid.UUID]catalog.Product
	orders    map[uuid.UUID]order.Order
	history   int
	movements int
}

func (m *memStore) snapshot() memSnapshot {
	s := memSnapshot{
		products:  make(map[uuid.UUID]catalog.Product, len(m.products)),
		orders:    make(map[uuid.UUID]order.Order, len(m.orders)),
		history:   len(m.history),
		movements: len(m.movements),
	}
	for k, v := range m.products {
		s.products[k] = v
	}
	for k, v := range m.orders {
		s.orders[k] = v
	}
	return s
}

func (m *memStore) restore(s memSnapshot) {
	m.products = s.products
	m.orders = s.orders
	m.history = m.history[:s.history]
	m.movements = m.movements[:s.movements]
}

func (m *memStore) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := m.snapshot()
	if err := fn(memRepos{m}); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

type memRepos struct{ m *memStore }

func (r memRepos) Orders() order.Repository        { return orderRepoView{r.m} }
func (r memRepos) Products() catalog.ProductReader { return productReaderView{r.m} }
func (r memRepos) Ledger() inventory.Ledger        { return r.m }

func cloneOrder(o *order.Order) order.Order {
	c := *o
	c.Items = append([]order.OrderItem(nil), o.Items...)
	c.ClearDomainEvents()
	return c
}

// inventory.MovementRepository

func (m *memStore) FindByOrder(_ context.Context, orderID uuid.UUID) ([]inventory.StockMovement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []inventory.StockMovement
	for _, mv := range m.movements {
		if mv.OrderID == orderID {
			out = append(out, mv)
		}
	}
	return out, nil
}

// catalog.ProductReader

func (m *memStore) FindByIDs(_ context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	out := make([]catalog.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// inventory.Ledger

func (m *memStore) Reserve(_ context.Context, productID, orderID uuid.UUID, qty int) error {
	p, ok := m.products[productID]
	if !ok {
		return &catalog.ProductNotFoundError{ProductID: productID.String()}
	}
	if p.Stock < qty {
		return &inventory.OutOfStockError{ProductID: productID, Requested: qty, Available: p.Stock}
	}
	p.Stock -= qty
	m.products[productID] = p
	m.movements = append(m.movements, inventory.NewStockMovement(productID, orderID, inventory.MovementReserve, qty))
	return nil
}

func (m *memStore) Release(_ context.Context, productID, orderID uuid.UUID, qty int) error {
	p := m.products[productID]
	p.Stock += qty
	m.products[productID] = p
	m.movements = append(m.movements, inventory.NewStockMovement(productID, orderID, inventory.MovementRelease, qty))
	return nil
}

// order.Repository

func (m *memStore) Create(_ context.Context, o *order.Order) error {
	for _, existing := range m.orders {
		if existing.OrderNumber == o.OrderNumber {
			return order.ErrDuplicateOrderNumber
		}
	}
	m.orders[o.ID] = cloneOrder(o)
	return nil
}

// findOrder backs FindByID on orderRepoView; memStore itself cannot carry
// FindByID for both orders and products.
func (m *memStore) findOrder(id uuid.UUID) (*order.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	c := cloneOrder(&o)
	return &c, nil
}

func (m *memStore) FindByIDForUpdate(_ context.Context, id uuid.UUID) (*order.Order, error) {
	return m.findOrder(id)
}

func (m *memStore) FindByOrderNumber(_ context.Context, number string) (*order.Order, error) {
	for _, o := range m.orders {
		if o.OrderNumber == number {
			c := cloneOrder(&o)
			return &c, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memStore) Update(_ context.Context, o *order.Order) error {
	stored, ok := m.orders[o.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.Version != o.Version {
		return shared.ErrConcurrencyConflict
	}
	o.IncrementVersion()
	m.orders[o.ID] = cloneOrder(o)
	return nil
}

func (m *memStore) AppendHistory(_ context.Context, entries ...order.StatusHistoryEntry) error {
	m.history = append(m.history, entries...)
	return nil
}

func (m *memStore) FindHistory(_ context.Context, orderID uuid.UUID) ([]order.StatusHistoryEntry, error) {
	var out []order.StatusHistoryEntry
	for _, e := range m.history {
		if e.OrderID == orderID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memStore) FindAll(_ context.Context, filter shared.Filter) ([]order.Order, error) {
	out := make([]order.Order, 0, len(m.orders))
	for _, o := range m.orders {
		if s, ok := filter.Filters["status"]; ok && string(o.Status) != s {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderNumber < out[j].OrderNumber })
	start := filter.Offset()
	if start > len(out) {
		return nil, nil
	}
	end := start + filter.PageSize
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], nil
}

func (m *memStore) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	all := filter
	all.Page, all.PageSize = 1, len(m.orders)+1
	orders, _ := m.FindAll(ctx, all)
	return int64(len(orders)), nil
}

// orderRepoView exposes memStore as order.Repository where FindByID means orders
type orderRepoView struct{ *memStore }

func (v orderRepoView) FindByID(_ context.Context, id uuid.UUID) (*order.Order, error) {
	return v.findOrder(id)
}

// productReaderView exposes memStore as catalog.ProductReader
type productReaderView struct{ *memStore }

func (v productReaderView) FindByID(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	p, ok := v.products[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &p, nil
}

// scriptedSequence returns the queued values, then repeats the last one
type scriptedSequence struct {
	mu     sync.Mutex
	values []int64
	next   int
}

func (s *scriptedSequence) Next(_ context.Context, _ string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.values[s.next]
	if s.next < len(s.values)-1 {
		s.next++
	}
	return v, nil
}

// counterSequence hands out 1, 2, 3, ...
type counterSequence struct {
	mu sync.Mutex
	n  int64
}

func (s *counterSequence) Next(_ context.Context, _ string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return s.n, nil
}

// capturingPublisher records published events
type capturingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *capturingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *capturingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

// MockIdempotencyStore is a mock implementation of shared.IdempotencyStore
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Complete(ctx context.Context, key string, ttl time.Duration) error {
	args := m.Called(ctx, key, ttl)
	return args.Error(0)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Forget(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockIdempotencyStore) Close() error {
	return nil
}

// memIdempotencyStore keeps claims and completions in a map, ignoring TTLs
type memIdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]bool // key -> completed
}

func newMemIdempotencyStore() *memIdempotencyStore {
	return &memIdempotencyStore{entries: make(map[string]bool)}
}

func (s *memIdempotencyStore) MarkProcessed(_ context.Context, key string, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, held := s.entries[key]; held {
		return false, nil
	}
	s.entries[key] = false
	return true, nil
}

func (s *memIdempotencyStore) Complete(_ context.Context, key string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = true
	return nil
}

func (s *memIdempotencyStore) IsProcessed(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[key], nil
}

func (s *memIdempotencyStore) Forget(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func (s *memIdempotencyStore) Close() error { return nil }

// recordingRecorder captures use-case observations
type recordingRecorder struct {
	mu       sync.Mutex
	outcomes map[string][]string
}

func (r *recordingRecorder) ObserveUseCase(useCase, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.outcomes == nil {
		r.outcomes = make(map[string][]string)
	}
	r.outcomes[useCase] = append(r.outcomes[useCase], outcome)
}

type fixture struct {
	store     *memStore
	creation  *CreationService
	lifecycle *LifecycleService
	query     *QueryService
	publisher *capturingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMemStore()
	publisher := &capturingPublisher{}
	numbers := order.NewNumberGenerator("ORD", nil, &counterSequence{})

	creation := NewCreationService(store, numbers, FlatRateShipping{}, PercentageTax{}, CreationConfig{Currency: "ARS"}, zap.NewNop())
	creation.SetEventPublisher(publisher)
	lifecycle := NewLifecycleService(store, zap.NewNop())
	lifecycle.SetEventPublisher(publisher)

	return &fixture{
		store:     store,
		creation:  creation,
		lifecycle: lifecycle,
		query:     NewQueryService(orderRepoView{store}, store),
		publisher: publisher,
	}
}

func testShippingAddress() order.ShippingAddress {
	return order.ShippingAddress{
		Recipient:  "Lucia Perez",
		Phone:      "+54 11 5555 0000",
		Street:     "Av. Corrientes 1234",
		City:       "Buenos Aires",
		Province:   "CABA",
		PostalCode: "C1043",
	}
}

func decimalPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}
