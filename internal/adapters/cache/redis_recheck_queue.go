package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/viralforge/mesh/services/financial-rails/M47-chargeback-engine/internal/ports"
)

const recheckKey = "cbe:recheck_queue"

// RedisRecheckQueue stores deferred re-evaluations in a sorted set scored by
// due time, so the worker drains them with a single range query.
type RedisRecheckQueue struct {
	client *redis.Client
}

func NewRedisRecheckQueue(client *redis.Client) *RedisRecheckQueue {
	return &RedisRecheckQueue{client: client}
}

func (q *RedisRecheckQueue) Schedule(ctx context.Context, transactionID string, dueAt time.Time) error {
	return q.client.ZAdd(ctx, recheckKey, redis.Z{
		Score:  float64(dueAt.Unix()),
		Member: transactionID,
	}).Err()
}

func (q *RedisRecheckQueue) Due(ctx context.Context, now time.Time, limit int) ([]string, error) {
	return q.client.ZRangeByScore(ctx, recheckKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.Unix(), 10),
		Count: int64(limit),
	}).Result()
}

func (q *RedisRecheckQueue) Remove(ctx context.Context, transactionID string) error {
	return q.client.ZRem(ctx, recheckKey, transactionID).Err()
}

var _ ports.RecheckQueue = (*RedisRecheckQueue)(nil)
