package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// takeScript prunes, counts and conditionally adds in one round trip so
// concurrent instances cannot both take the last slot.
var takeScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local max = tonumber(ARGV[3])
redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
if count < max then
  redis.call('ZADD', key, now, ARGV[4])
  redis.call('PEXPIRE', key, window)
  return 1
end
return 0
`)

// RedisStore shares limiter state between instances through sorted sets
// scored by request time in milliseconds.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a store on client; keys are namespaced by prefix.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(k string) string {
	return s.prefix + k
}

// Take implements Store
func (s *RedisStore) Take(ctx context.Context, key string, now time.Time, window time.Duration, max int) (bool, error) {
	res, err := takeScript.Run(ctx, s.client, []string{s.key(key)},
		now.UnixMilli(), window.Milliseconds(), max, uuid.NewString()).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

// Entries implements Store
func (s *RedisStore) Entries(ctx context.Context, key string, now time.Time, window time.Duration) ([]time.Time, error) {
	min := "(" + strconv.FormatInt(now.Add(-window).UnixMilli(), 10)
	zs, err := s.client.ZRangeByScoreWithScores(ctx, s.key(key), &redis.ZRangeBy{
		Min: min,
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, err
	}

	out := make([]time.Time, 0, len(zs))
	for _, z := range zs {
		out = append(out, time.UnixMilli(int64(z.Score)))
	}
	return out, nil
}
