package order

import (
	"time"

	"github.com/mosaico/backend/internal/domain/shared"
)

// Outcome labels for recorded operations
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Recorder receives one observation per use-case invocation
type Recorder interface {
	ObserveUseCase(useCase, outcome string, elapsed time.Duration)
}

// NopRecorder discards observations
type NopRecorder struct{}

// ObserveUseCase implements Recorder
func (NopRecorder) ObserveUseCase(string, string, time.Duration) {}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case shared.ErrorCodeOf(err) == "INFRASTRUCTURE":
		return OutcomeError
	default:
		return OutcomeRejected
	}
}
