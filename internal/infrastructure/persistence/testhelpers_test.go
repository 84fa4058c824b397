package persistence

import (
	"context"
	"testing"

	"github.com/mosaico/backend/internal/domain/catalog"
	"github.com/mosaico/backend/internal/domain/order"
	"github.com/mosaico/backend/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// setupTestDB opens a private in-memory sqlite database with the full schema
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := NewDatabase(&config.DatabaseConfig{Driver: "sqlite", SQLitePath: ":memory:"}, Options{LogLevel: "silent"})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate())
	t.Cleanup(func() { _ = database.Close() })
	return database.DB
}

func seedProduct(t *testing.T, db *gorm.DB, sku string, price int64, stock int) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(sku, "Product "+sku, decimal.NewFromInt(price), stock)
	require.NoError(t, err)
	require.NoError(t, NewGormProductRepository(db).Save(context.Background(), p))
	return p
}

func currentStock(t *testing.T, db *gorm.DB, p *catalog.Product) int {
	t.Helper()
	got, err := NewGormProductRepository(db).FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	return got.Stock
}

func testAddress() order.ShippingAddress {
	return order.ShippingAddress{
		Recipient:  "Martina Gomez",
		Phone:      "+54 351 555 0101",
		Street:     "Bv. San Juan 450",
		City:       "Cordoba",
		Province:   "Cordoba",
		PostalCode: "X5000",
	}
}

func newTestOrder(t *testing.T, number string, products ...*catalog.Product) *order.Order {
	t.Helper()
	items := make([]*order.OrderItem, 0, len(products))
	for _, p := range products {
		item, err := order.NewOrderItem(p.ID, p.Name, p.SKU, p.Price, 1)
		require.NoError(t, err)
		items = append(items, item)
	}
	o, err := order.NewOrder(nil, items, testAddress(), nil, "ARS", order.Pricing{}, "")
	require.NoError(t, err)
	o.AssignNumber(number)
	return o
}
