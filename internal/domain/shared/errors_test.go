package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError(t *testing.T) {
	verr := &ValidationError{}
	assert.False(t, verr.HasErrors())
	assert.NoError(t, verr.OrNil())

	verr.Add("items", "must not be empty")
	verr.Add("quantity", "must be positive")

	err := verr.OrNil()
	assert.Error(t, err)
	assert.Equal(t, "validation failed: items: must not be empty; quantity: must be positive", err.Error())
	assert.Equal(t, "VALIDATION_FAILED", ErrorCodeOf(err))
	assert.False(t, IsRetryable(err))
}

func TestInfrastructureError(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewInfrastructureError("insert order", cause)

	assert.Equal(t, "insert order: connection reset", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "INFRASTRUCTURE", ErrorCodeOf(err))
	assert.True(t, IsRetryable(fmt.Errorf("checkout: %w", err)))
	assert.Nil(t, NewInfrastructureError("noop", nil))
}

func TestErrorCodeOf(t *testing.T) {
	assert.Equal(t, "NOT_FOUND", ErrorCodeOf(fmt.Errorf("load: %w", ErrNotFound)))
	assert.Equal(t, "INFRASTRUCTURE", ErrorCodeOf(errors.New("boom")))
	assert.True(t, IsRetryable(ErrConcurrencyConflict))
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(ErrNotFound))
}

func TestFilterNormalize(t *testing.T) {
	f := Filter{Page: -1, PageSize: 1000, OrderDir: "DESC"}.Normalize()
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, MaxPageSize, f.PageSize)
	assert.Equal(t, "desc", f.OrderDir)
	assert.NotNil(t, f.Filters)
	assert.Equal(t, 0, f.Offset())

	f = Filter{Page: 3, PageSize: 20}.Normalize()
	assert.Equal(t, 40, f.Offset())
}

func TestNewPaginated(t *testing.T) {
	p := NewPaginated([]int{1, 2}, 41, 1, 20)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 0, NewPaginated([]int{}, 0, 1, 20).TotalPages)
}
