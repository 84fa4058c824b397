package persistence

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	apporder "github.com/mosaico/backend/internal/application/order"
	"github.com/mosaico/backend/internal/domain/inventory"
	"github.com/mosaico/backend/internal/domain/order"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type checkoutStack struct {
	db        *gorm.DB
	creation  *apporder.CreationService
	lifecycle *apporder.LifecycleService
	query     *apporder.QueryService
}

func newCheckoutStack(t *testing.T) *checkoutStack {
	t.Helper()
	db := setupTestDB(t)
	scope := NewGormTransactionScope(db)
	numbers := order.NewNumberGenerator("ORD", nil, nil)
	return &checkoutStack{
		db: db,
		creation: apporder.NewCreationService(scope, numbers,
			apporder.FlatRateShipping{}, apporder.PercentageTax{},
			apporder.CreationConfig{Currency: "ARS"}, zap.NewNop()),
		lifecycle: apporder.NewLifecycleService(scope, zap.NewNop()),
		query:     apporder.NewQueryService(NewGormOrderRepository(db), NewGormMovementRepository(db)),
	}
}

func (s *checkoutStack) checkout(items ...apporder.CreateOrderItemInput) (*apporder.OrderResponse, error) {
	return s.creation.Create(context.Background(), apporder.CreateOrderRequest{
		Items:           items,
		ShippingAddress: testAddress(),
	})
}

func TestGormTransactionScope_CheckoutReservesStock(t *testing.T) {
	s := newCheckoutStack(t)
	p := seedProduct(t, s.db, "HEX-BLUE", 100, 5)

	resp, err := s.checkout(apporder.CreateOrderItemInput{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, currentStock(t, s.db, p))

	got, err := s.query.GetByNumber(context.Background(), resp.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, resp.ID, got.ID)
	assert.Equal(t, "pending", got.Status)

	journal, err := NewGormMovementRepository(s.db).FindByOrder(context.Background(), resp.ID)
	require.NoError(t, err)
	require.Len(t, journal, 1)
	assert.Equal(t, inventory.MovementReserve, journal[0].Kind)
}

func TestGormTransactionScope_FailedCheckoutRollsBackEarlierReservations(t *testing.T) {
	s := newCheckoutStack(t)
	p := seedProduct(t, s.db, "P", 100, 5)
	q := seedProduct(t, s.db, "Q", 80, 0)

	_, err := s.checkout(
		apporder.CreateOrderItemInput{ProductID: p.ID, Quantity: 2},
		apporder.CreateOrderItemInput{ProductID: q.ID, Quantity: 1},
	)
	var oos *inventory.OutOfStockError
	require.ErrorAs(t, err, &oos)

	assert.Equal(t, 5, currentStock(t, s.db, p))
	assert.Equal(t, 0, currentStock(t, s.db, q))

	var orders, movements int64
	require.NoError(t, s.db.Table("orders").Count(&orders).Error)
	require.NoError(t, s.db.Table("stock_movements").Count(&movements).Error)
	assert.Zero(t, orders)
	assert.Zero(t, movements)
}

func TestGormTransactionScope_CancelReleasesOnce(t *testing.T) {
	s := newCheckoutStack(t)
	ctx := context.Background()
	p := seedProduct(t, s.db, "HEX-GREEN", 100, 5)

	resp, err := s.checkout(apporder.CreateOrderItemInput{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)

	_, err = s.lifecycle.MarkPaid(ctx, resp.ID)
	require.NoError(t, err)
	_, err = s.lifecycle.Cancel(ctx, resp.ID, "out of colour")
	require.NoError(t, err)
	assert.Equal(t, 5, currentStock(t, s.db, p))

	refunded, err := s.lifecycle.Refund(ctx, resp.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "refunded", refunded.PaymentStatus)
	assert.Equal(t, 5, currentStock(t, s.db, p))

	history, err := s.query.History(ctx, resp.ID)
	require.NoError(t, err)
	assert.Len(t, history, 4)
}

func TestGormTransactionScope_RollsBackOnCallbackError(t *testing.T) {
	db := setupTestDB(t)
	p := seedProduct(t, db, "HEX-RED", 100, 5)
	boom := errors.New("boom")

	err := NewGormTransactionScope(db).Execute(context.Background(), func(repos apporder.TransactionalRepositories) error {
		require.NoError(t, repos.Ledger().Reserve(context.Background(), p.ID, uuid.New(), 4))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 5, currentStock(t, db, p))
}

func TestGormTransactionScope_ConcurrentCheckoutsNeverOversell(t *testing.T) {
	s := newCheckoutStack(t)
	p := seedProduct(t, s.db, "LAST-UNITS", 100, 3)

	const buyers = 4
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		outOfStk  int
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.checkout(apporder.CreateOrderItemInput{ProductID: p.ID, Quantity: 2})
			mu.Lock()
			defer mu.Unlock()
			var oos *inventory.OutOfStockError
			switch {
			case err == nil:
				succeeded++
			case errors.As(err, &oos):
				outOfStk++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, buyers-1, outOfStk)
	assert.Equal(t, 1, currentStock(t, s.db, p))
}
