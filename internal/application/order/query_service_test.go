package order

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/mosaico/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryService_GetByNumber(t *testing.T) {
	f := newFixture(t)
	orderID, _ := placeOrder(t, f, 5, 1)
	created, err := f.query.Get(context.Background(), orderID)
	require.NoError(t, err)

	got, err := f.query.GetByNumber(context.Background(), " "+created.OrderNumber+" ")
	require.NoError(t, err)
	assert.Equal(t, orderID, got.ID)

	_, err = f.query.GetByNumber(context.Background(), "ORD-19990101-0001")
	assert.True(t, errors.Is(err, shared.ErrNotFound))

	_, err = f.query.GetByNumber(context.Background(), "")
	var verr *shared.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestQueryService_List(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		id, _ := placeOrder(t, f, 5, 1)
		ids = append(ids, id)
	}
	_, err := f.lifecycle.Confirm(ctx, ids[0])
	require.NoError(t, err)

	page, err := f.query.List(ctx, OrderListFilter{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 2, page.TotalPages)

	confirmed, err := f.query.List(ctx, OrderListFilter{Status: "confirmed"})
	require.NoError(t, err)
	require.Len(t, confirmed.Items, 1)
	assert.Equal(t, ids[0], confirmed.Items[0].ID)
	assert.Equal(t, "Lucia Perez", confirmed.Items[0].Recipient)

	_, err = f.query.List(ctx, OrderListFilter{Status: "lost"})
	var verr *shared.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestQueryService_HistoryOfUnknownOrder(t *testing.T) {
	f := newFixture(t)
	_, err := f.query.History(context.Background(), uuid.New())
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestQueryService_Movements(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	orderID, productID := placeOrder(t, f, 5, 2)

	_, err := f.lifecycle.Cancel(ctx, orderID, "customer changed colour")
	require.NoError(t, err)

	movements, err := f.query.Movements(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, movements, 2)
	assert.Equal(t, "reserve", movements[0].Kind)
	assert.Equal(t, "release", movements[1].Kind)
	for _, m := range movements {
		assert.Equal(t, productID, m.ProductID)
		assert.Equal(t, 2, m.Quantity)
	}

	_, err = f.query.Movements(ctx, uuid.New())
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestOrderListFilter_ToFilter(t *testing.T) {
	customer := uuid.New()
	f := OrderListFilter{
		Status:     "shipped",
		CustomerID: &customer,
		PageSize:   500,
		OrderBy:    "drop table",
		OrderDir:   "ASC",
	}.ToFilter()

	assert.Equal(t, 1, f.Page)
	assert.Equal(t, shared.MaxPageSize, f.PageSize)
	assert.Equal(t, "created_at", f.OrderBy)
	assert.Equal(t, "asc", f.OrderDir)
	assert.Equal(t, "shipped", f.Filters["status"])
	assert.Equal(t, customer, f.Filters["customer_id"])
}
