// Package redis provides a distributed token bucket limiter keyed by
// account, adapted from the connector's original Redis-backed bucket so
// multiple connector processes can share one rate limit state.
package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/ilpgo/connector/internal/ratelimit"
)

// Store is a Redis-backed token bucket shared across every key it is
// asked about, using a Lua script so refill-then-consume stays atomic
// under concurrent callers.
type Store struct {
	client     *goredis.Client
	capacity   float64
	refillRate float64
	keyPrefix  string
	allowOp    *goredis.Script
	refundOp   *goredis.Script
}

// Config configures a Store.
type Config struct {
	Client     *goredis.Client
	Capacity   float64
	RefillRate float64
	KeyPrefix  string // defaults to "ilprl:"
}

// New returns a Redis-backed Store.
func New(cfg Config) *Store {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "ilprl:"
	}
	return &Store{
		client:     cfg.Client,
		capacity:   cfg.Capacity,
		refillRate: cfg.RefillRate,
		keyPrefix:  prefix,
		allowOp:    goredis.NewScript(allowScript),
		refundOp:   goredis.NewScript(refundScript),
	}
}

const allowScript = `
local key = KEYS[1]
local capacity = tonumber(ARGV[1])
local refill_rate = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local cost = tonumber(ARGV[4])
local ttl = tonumber(ARGV[5])

local data = redis.call("HMGET", key, "tokens", "last_refill")
local tokens = tonumber(data[1]) or capacity
local last_refill = tonumber(data[2]) or now

if tokens < capacity then
	tokens = tokens + (now - last_refill) * refill_rate
	if tokens > capacity then
		tokens = capacity
	end
end

if tokens >= cost then
	tokens = tokens - cost
	redis.call("HMSET", key, "tokens", tokens, "last_refill", now)
	redis.call("EXPIRE", key, ttl)
	return 1
else
	redis.call("HMSET", key, "tokens", tokens, "last_refill", now)
	redis.call("EXPIRE", key, ttl)
	return 0
end
`

const refundScript = `
local key = KEYS[1]
local units = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])

local current = tonumber(redis.call("HGET", key, "tokens")) or capacity
redis.call("HSET", key, "tokens", current + units)
return 1
`

func (s *Store) ttlSeconds() int64 {
	if s.refillRate <= 0 {
		return 60
	}
	ttl := int64(s.capacity/s.refillRate) + 1
	if ttl < 1 {
		ttl = 1
	}
	return ttl
}

// Allow consumes cost units from key's bucket if enough are available.
func (s *Store) Allow(key string, cost float64) (bool, error) {
	now := float64(time.Now().UnixMicro()) / 1e6
	result, err := s.allowOp.Run(
		context.Background(),
		s.client,
		[]string{s.keyPrefix + key},
		s.capacity, s.refillRate, now, cost, s.ttlSeconds(),
	).Int()
	if err != nil {
		return false, err
	}
	return result == 1, nil
}

// Refund returns units to key's bucket without a capacity cap.
func (s *Store) Refund(key string, units float64) error {
	_, err := s.refundOp.Run(
		context.Background(),
		s.client,
		[]string{s.keyPrefix + key},
		units, s.capacity,
	).Result()
	return err
}

var _ ratelimit.Limiter = (*Store)(nil)
