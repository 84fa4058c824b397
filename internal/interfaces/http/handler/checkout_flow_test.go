package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apporder "github.com/mosaico/backend/internal/application/order"
	"github.com/mosaico/backend/internal/domain/catalog"
	"github.com/mosaico/backend/internal/domain/order"
	"github.com/mosaico/backend/internal/domain/shared"
	"github.com/mosaico/backend/internal/infrastructure/cache"
	"github.com/mosaico/backend/internal/infrastructure/config"
	"github.com/mosaico/backend/internal/infrastructure/persistence"
)

// checkoutStack wires the real services over an in-memory sqlite database
type checkoutStack struct {
	products *persistence.GormProductRepository
	do       func(method, path string, body any) *httptest.ResponseRecorder
}

func newCheckoutStack(t *testing.T) *checkoutStack {
	t.Helper()
	database, err := persistence.NewDatabase(&config.DatabaseConfig{Driver: "sqlite", SQLitePath: ":memory:"}, persistence.Options{LogLevel: "silent"})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate())
	t.Cleanup(func() { _ = database.Close() })

	store := cache.NewInMemoryIdempotencyStore(time.Minute)
	t.Cleanup(func() { _ = store.Close() })

	scope := persistence.NewGormTransactionScope(database.DB)
	orders := persistence.NewGormOrderRepository(database.DB)
	numbers := order.NewNumberGenerator("ORD", time.UTC, order.RandomSequence{})
	creation := apporder.NewCreationService(scope, numbers, apporder.FlatRateShipping{}, apporder.PercentageTax{},
		apporder.CreationConfig{Currency: "ARS"}, zap.NewNop())
	lifecycle := apporder.NewLifecycleService(scope, zap.NewNop())
	payments := apporder.NewPaymentNotificationService(orders, lifecycle, store, shared.DefaultIdempotencyConfig(), zap.NewNop())

	engine := newTestRouter(
		NewOrderHandler(creation, lifecycle, apporder.NewQueryService(orders, persistence.NewGormMovementRepository(database.DB))),
		NewPaymentHandler(payments),
	)
	return &checkoutStack{
		products: persistence.NewGormProductRepository(database.DB),
		do: func(method, path string, body any) *httptest.ResponseRecorder {
			return doRequest(engine, method, path, body)
		},
	}
}

func (s *checkoutStack) addProduct(t *testing.T, sku string, price int64, stock int) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(sku, "Venecita "+sku, decimal.NewFromInt(price), stock)
	require.NoError(t, err)
	require.NoError(t, s.products.Save(context.Background(), p))
	return p
}

func (s *checkoutStack) stock(t *testing.T, p *catalog.Product) int {
	t.Helper()
	got, err := s.products.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	return got.Stock
}

func checkout(lines ...map[string]any) map[string]any {
	return map[string]any{
		"items": lines,
		"shipping_address": map[string]any{
			"recipient": "Martina Gomez", "phone": "+54 351 555 0101", "street": "Bv. San Juan 450",
			"city": "Cordoba", "province": "Cordoba", "postal_code": "X5000", "country": "AR",
		},
		"shipping_cost": "20",
	}
}

func line(p *catalog.Product, qty int) map[string]any {
	return map[string]any{"product_id": p.ID, "quantity": qty}
}

func TestCheckoutFlow(t *testing.T) {
	s := newCheckoutStack(t)
	p := s.addProduct(t, "VEN-AZ-20", 100, 5)
	q := s.addProduct(t, "VEN-RO-20", 50, 1)

	w := s.do(http.MethodPost, "/api/v1/orders", checkout(line(p, 2), line(q, 2)))
	assertError(t, w, http.StatusUnprocessableEntity, "INSUFFICIENT_STOCK")
	assert.Equal(t, 5, s.stock(t, p), "a failed checkout reserves nothing")
	assert.Equal(t, 1, s.stock(t, q))

	w = s.do(http.MethodPost, "/api/v1/orders", checkout(line(p, 2)))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created apporder.OrderResponse
	decodeData(t, w, &created)
	assert.True(t, created.TotalAmount.Equal(decimal.NewFromInt(220)), created.TotalAmount.String())
	assert.Regexp(t, `^ORD-\d{8}-\d{4}$`, created.OrderNumber)
	assert.Equal(t, 3, s.stock(t, p))

	base := "/api/v1/orders/" + created.ID.String()
	for _, step := range []string{"confirm", "process"} {
		w = s.do(http.MethodPost, base+"/"+step, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
	w = s.do(http.MethodPost, base+"/cancel", map[string]any{"reason": "customer changed their mind"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var cancelled apporder.OrderResponse
	decodeData(t, w, &cancelled)
	assert.Equal(t, "cancelled", cancelled.Status)
	assert.Equal(t, "pending", cancelled.PaymentStatus)
	assert.Equal(t, 5, s.stock(t, p))

	w = s.do(http.MethodPost, base+"/cancel", nil)
	assertError(t, w, http.StatusUnprocessableEntity, "INVALID_TRANSITION")
	assert.Equal(t, 5, s.stock(t, p), "stock is returned once")

	w = s.do(http.MethodGet, base+"/history", nil)
	var history []apporder.HistoryEntryResponse
	decodeData(t, w, &history)
	require.Len(t, history, 4)
	assert.Equal(t, "admin", history[3].Actor)
	assert.Equal(t, "customer changed their mind", history[3].Reason)

	w = s.do(http.MethodGet, base+"/movements", nil)
	var movements []apporder.MovementResponse
	decodeData(t, w, &movements)
	require.Len(t, movements, 2)
	assert.Equal(t, "reserve", movements[0].Kind)
	assert.Equal(t, "release", movements[1].Kind)
	assert.Equal(t, 2, movements[1].Quantity)
}

func TestPaymentFeedFlow(t *testing.T) {
	s := newCheckoutStack(t)
	p := s.addProduct(t, "GUARDA-01", 300, 4)

	w := s.do(http.MethodPost, "/api/v1/orders", checkout(line(p, 1)))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created apporder.OrderResponse
	decodeData(t, w, &created)

	notification := map[string]any{
		"notification_id": "mp-77",
		"order_number":    created.OrderNumber,
		"payment_status":  "completed",
	}
	w = s.do(http.MethodPost, "/api/v1/payments/notifications", notification)
	var first apporder.PaymentNotificationResult
	decodeData(t, w, &first)
	require.NotNil(t, first.Order)
	assert.Equal(t, "completed", first.Order.PaymentStatus)

	w = s.do(http.MethodPost, "/api/v1/payments/notifications", notification)
	var second apporder.PaymentNotificationResult
	decodeData(t, w, &second)
	assert.True(t, second.Duplicate)

	w = s.do(http.MethodGet, "/api/v1/orders/"+created.ID.String()+"/history", nil)
	var history []apporder.HistoryEntryResponse
	decodeData(t, w, &history)
	require.Len(t, history, 2, "the redelivery left no trace")
	assert.Equal(t, "payment_feed", history[1].Actor)
	assert.Equal(t, "payment_status", history[1].Axis)
}
