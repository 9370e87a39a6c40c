package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/viralforge/mesh/services/financial-rails/M47-chargeback-engine/internal/ports"
)

const dedupKeyPrefix = "cbe:processed:"

// RedisEventDedup keeps processed event ids with a TTL so consumer replays
// inside the retention window are dropped.
type RedisEventDedup struct {
	client *redis.Client
}

func NewRedisEventDedup(client *redis.Client) *RedisEventDedup {
	return &RedisEventDedup{client: client}
}

func (s *RedisEventDedup) IsDuplicate(ctx context.Context, eventID string, _ time.Time) (bool, error) {
	n, err := s.client.Exists(ctx, dedupKeyPrefix+eventID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RedisEventDedup) MarkProcessed(ctx context.Context, eventID, eventType string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		ttl = time.Minute
	}
	return s.client.Set(ctx, dedupKeyPrefix+eventID, eventType, ttl).Err()
}

var _ ports.EventDedupRepository = (*RedisEventDedup)(nil)
