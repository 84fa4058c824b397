package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mosaico/backend/internal/domain/order"
)

// DefaultSequenceKeyPrefix namespaces the per-day order counters
const DefaultSequenceKeyPrefix = "mosaico:order:seq:"

// sequenceTTL keeps a day's counter around past midnight in every timezone
const sequenceTTL = 48 * time.Hour

// RedisOrderSequence hands out increasing per-day order suffixes with INCR.
// When a day's counter is missing, because it was never created or Redis
// evicted it, the counter is first seeded from the highest stored suffix so
// INCR does not walk back over numbers already taken. The unique index on
// order_number still catches anything else.
type RedisOrderSequence struct {
	client       redis.UniversalClient
	keyPrefix    string
	floor        order.SequenceFloor
	numberPrefix string
}

// NewRedisOrderSequence creates a new RedisOrderSequence
func NewRedisOrderSequence(client redis.UniversalClient, keyPrefix string) *RedisOrderSequence {
	if keyPrefix == "" {
		keyPrefix = DefaultSequenceKeyPrefix
	}
	return &RedisOrderSequence{client: client, keyPrefix: keyPrefix}
}

// SetFloor sets where a missing counter is seeded from. numberPrefix is
// the order number prefix the floor is looked up for.
func (s *RedisOrderSequence) SetFloor(floor order.SequenceFloor, numberPrefix string) {
	s.floor = floor
	s.numberPrefix = numberPrefix
}

// Next implements order.SequenceSource
func (s *RedisOrderSequence) Next(ctx context.Context, day string) (int64, error) {
	key := s.keyPrefix + day
	if err := s.seed(ctx, key, day); err != nil {
		return 0, err
	}
	var incr *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, sequenceTTL)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("increment order sequence %s: %w", day, err)
	}
	return incr.Val(), nil
}

// seed creates a missing counter at the day's highest stored suffix. SETNX
// lets concurrent seeders agree on one starting value.
func (s *RedisOrderSequence) seed(ctx context.Context, key, day string) error {
	if s.floor == nil {
		return nil
	}
	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("check order sequence %s: %w", day, err)
	}
	if exists > 0 {
		return nil
	}
	floor, err := s.floor.MaxSequence(ctx, s.numberPrefix, day)
	if err != nil {
		return fmt.Errorf("seed order sequence %s: %w", day, err)
	}
	if err := s.client.SetNX(ctx, key, floor, sequenceTTL).Err(); err != nil {
		return fmt.Errorf("seed order sequence %s: %w", day, err)
	}
	return nil
}

var _ order.SequenceSource = (*RedisOrderSequence)(nil)
