package dto

import "net/http"

// Error codes returned in the response envelope. Domain errors carry their
// own code through shared.CodedError; the transport adds the input ones.
const (
	ErrCodeValidation           = "VALIDATION_FAILED"
	ErrCodeBadRequest           = "BAD_REQUEST"
	ErrCodeInvalidJSON          = "INVALID_JSON"
	ErrCodeNotFound             = "NOT_FOUND"
	ErrCodeProductNotFound      = "PRODUCT_NOT_FOUND"
	ErrCodeAlreadyExists        = "ALREADY_EXISTS"
	ErrCodeConcurrencyConflict  = "CONCURRENCY_CONFLICT"
	ErrCodeInsufficientStock    = "INSUFFICIENT_STOCK"
	ErrCodeInvalidTransition    = "INVALID_TRANSITION"
	ErrCodeOrderNumberExhausted = "ORDER_NUMBER_EXHAUSTED"
	ErrCodeInfrastructure       = "INFRASTRUCTURE"
	ErrCodeRequestTooLarge      = "REQUEST_TOO_LARGE"
	ErrCodeTimeout              = "REQUEST_TIMEOUT"
	ErrCodeInternal             = "INTERNAL"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeValidation:  http.StatusBadRequest,
	ErrCodeBadRequest:  http.StatusBadRequest,
	ErrCodeInvalidJSON: http.StatusBadRequest,

	ErrCodeNotFound:        http.StatusNotFound,
	ErrCodeProductNotFound: http.StatusNotFound,

	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	// business rule violations
	ErrCodeInsufficientStock: http.StatusUnprocessableEntity,
	ErrCodeInvalidTransition: http.StatusUnprocessableEntity,

	// transient; the client may retry
	ErrCodeOrderNumberExhausted: http.StatusServiceUnavailable,
	ErrCodeInfrastructure:       http.StatusServiceUnavailable,
	ErrCodeTimeout:              http.StatusServiceUnavailable,

	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeInternal:        http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status for an error code, 500 when unknown
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
