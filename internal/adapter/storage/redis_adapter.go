package storage

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	stockKeyPrefix    = "stock:"
	idempotencyKeyTTL = 24 * time.Hour
)

// reserveStockScript decrements a cached stock figure (in grams) only
// when it can cover the request. A missing key passes through with no
// write: MySQL remains the source of truth and the cache is strictly a
// fast refusal path.
var reserveStockScript = redis.NewScript(`
local key = KEYS[1]
local grams = tonumber(ARGV[1])

local current = redis.call('GET', key)
if not current then
	return 1
end

current = tonumber(current)
if current >= grams then
	redis.call('DECRBY', key, grams)
	return 1
end

return 0
`)

type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (r *RedisAdapter) ReserveStock(ctx context.Context, productID string, grams int64) (bool, error) {
	key := stockKeyPrefix + productID

	result, err := reserveStockScript.Run(ctx, r.client, []string{key}, grams).Int()
	if err != nil {
		return false, err
	}
	return result == 1, nil
}

func (r *RedisAdapter) ReleaseStock(ctx context.Context, productID string, grams int64) error {
	// Only restore a figure that exists; recreating an expired key
	// would invent stock.
	key := stockKeyPrefix + productID
	exists, err := r.client.Exists(ctx, key).Result()
	if err != nil || exists == 0 {
		return err
	}
	return r.client.IncrBy(ctx, key, grams).Err()
}

func (r *RedisAdapter) SetStock(ctx context.Context, productID string, grams int64) error {
	key := stockKeyPrefix + productID
	return r.client.Set(ctx, key, grams, 0).Err()
}

func (r *RedisAdapter) SetIdempotency(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, key, 1, idempotencyKeyTTL).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (r *RedisAdapter) ClearIdempotency(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}
