package order

import (
	"errors"
	"fmt"

	"github.com/mosaico/backend/internal/domain/shared"
)

// InvalidTransitionError is returned for any (from, to) pair not in the transition table
type InvalidTransitionError struct {
	Axis Axis
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid %s transition from %q to %q", e.Axis, e.From, e.To)
}

// ErrorCode implements shared.CodedError
func (e *InvalidTransitionError) ErrorCode() string {
	return "INVALID_TRANSITION"
}

// ErrDuplicateOrderNumber is returned by Repository.Create when the order number
// is already taken; the creation service regenerates and retries
var ErrDuplicateOrderNumber = errors.New("order number already exists")

// numberExhaustedError signals that every order number attempt collided
type numberExhaustedError struct {
	shared.DomainError
}

// Retryable implements the retry classification: the caller may retry the whole checkout
func (e *numberExhaustedError) Retryable() bool {
	return true
}

// ErrOrderNumberExhausted is returned when no unique order number could be generated
var ErrOrderNumberExhausted error = &numberExhaustedError{
	DomainError: shared.DomainError{
		Code:    "ORDER_NUMBER_EXHAUSTED",
		Message: "could not allocate a unique order number",
	},
}
