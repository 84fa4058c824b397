// Package cache holds the Redis-backed and in-memory stores used for order
// number sequences and payment notification idempotency.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mosaico/backend/internal/domain/order"
	"github.com/mosaico/backend/internal/domain/shared"
	"github.com/mosaico/backend/internal/infrastructure/config"
)

// Stores bundles what the order subsystem needs from a key-value store
type Stores struct {
	Idempotency shared.IdempotencyStore
	Sequence    order.SequenceSource
	// Client is nil when running without Redis
	Client *redis.Client
}

// StoresOption configures NewStores
type StoresOption func(*storesOptions)

type storesOptions struct {
	logger        *zap.Logger
	allowFallback bool
	pingTimeout   time.Duration
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) StoresOption {
	return func(o *storesOptions) {
		o.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to
// in-memory stores instead of failing. Default true.
func WithInMemoryFallback(allow bool) StoresOption {
	return func(o *storesOptions) {
		o.allowFallback = allow
	}
}

// NewStores connects to Redis when enabled and falls back to the in-memory
// idempotency store plus random order suffixes otherwise
func NewStores(ctx context.Context, cfg config.RedisConfig, opts ...StoresOption) (*Stores, error) {
	o := storesOptions{logger: zap.NewNop(), allowFallback: true, pingTimeout: 5 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}

	if !cfg.Enabled {
		o.logger.Info("redis disabled, using in-memory stores")
		return inMemoryStores(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, o.pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		if !o.allowFallback {
			return nil, fmt.Errorf("redis required but unavailable at %s: %w", cfg.Addr(), err)
		}
		o.logger.Warn("redis unavailable, falling back to in-memory stores; "+
			"duplicate notifications may be processed across instances",
			zap.String("addr", cfg.Addr()),
			zap.Error(err),
		)
		return inMemoryStores(), nil
	}

	o.logger.Info("using redis stores", zap.String("addr", cfg.Addr()))
	return &Stores{
		Idempotency: NewRedisIdempotencyStore(client, ""),
		Sequence:    NewRedisOrderSequence(client, ""),
		Client:      client,
	}, nil
}

func inMemoryStores() *Stores {
	return &Stores{
		Idempotency: NewInMemoryIdempotencyStore(0),
		Sequence:    order.RandomSequence{},
	}
}

// Ping checks Redis when it is in use
func (s *Stores) Ping(ctx context.Context) error {
	if s.Client == nil {
		return nil
	}
	return s.Client.Ping(ctx).Err()
}

// Close releases the idempotency store and the Redis connection
func (s *Stores) Close() error {
	if err := s.Idempotency.Close(); err != nil {
		return err
	}
	if s.Client != nil {
		return s.Client.Close()
	}
	return nil
}
