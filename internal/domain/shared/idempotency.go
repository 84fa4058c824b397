package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers processed message IDs (payment notifications,
// redelivered events) so that a redelivery has no effect.
//
// A key moves through two states: claimed by MarkProcessed while the message
// is being handled, then completed by Complete once its effect is durable.
type IdempotencyStore interface {
	// MarkProcessed claims a key for ttl
	// Returns true if the key was newly claimed, false if it is already held
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Complete records that the claimed key finished and holds it for ttl
	Complete(ctx context.Context, key string, ttl time.Duration) error

	// IsProcessed reports whether the key completed; a key that is only
	// claimed is still in flight and reports false
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Forget removes a mark so the message can be processed again,
	// used when handling failed after the key was claimed
	Forget(ctx context.Context, key string) error

	// Close closes the store and releases resources
	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL is the time-to-live for processed keys
	// After this duration, the same key can be processed again
	// Default: 24 hours
	TTL time.Duration

	// ClaimTTL bounds how long an in-flight claim blocks redeliveries when
	// the handler dies before completing or forgetting it
	// Default: 2 minutes
	ClaimTTL time.Duration

	// Enabled determines whether idempotency checking is enabled
	// Default: true
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:      24 * time.Hour,
		ClaimTTL: 2 * time.Minute,
		Enabled:  true,
	}
}
