package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// The bucket is a hash {tokens, ts}. Redis TIME is the clock so every replica
// of the service refills against the same time source. tokens is returned as a
// string because Redis truncates Lua numbers to integers.
const tokenBucketScript = `
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local ttl = tonumber(ARGV[3])

local t = redis.call("TIME")
local now = (t[1] * 1000) + math.floor(t[2] / 1000)

local state = redis.call("HMGET", KEYS[1], "tokens", "ts")
local tokens = tonumber(state[1]) or burst
local last = tonumber(state[2]) or now

local elapsed = math.max(0, now - last)
tokens = math.min(burst, tokens + (elapsed / 1000) * rate)

local allowed = 0
if tokens >= 1 then
  allowed = 1
  tokens = tokens - 1
end

redis.call("HSET", KEYS[1], "tokens", tokens, "ts", now)
redis.call("PEXPIRE", KEYS[1], ttl)

return {allowed, tostring(tokens), now}
`

var (
	ErrLimiterNotConfigured = errors.New("rate limiter not configured")
	errInvalidBucketReply   = errors.New("invalid rate limit script response")
)

// TokenBucket is a Redis backed token bucket shared by all service instances.
type TokenBucket struct {
	client *redis.Client
	script *redis.Script
}

type RateLimitResult struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

func NewTokenBucket(client *redis.Client) *TokenBucket {
	if client == nil {
		return nil
	}
	return &TokenBucket{
		client: client,
		script: redis.NewScript(tokenBucketScript),
	}
}

// Allow takes one token from key. rate is tokens per second.
func (t *TokenBucket) Allow(ctx context.Context, key string, rate float64, burst int) (*RateLimitResult, error) {
	if t == nil || t.client == nil {
		return nil, ErrLimiterNotConfigured
	}
	if key == "" || rate <= 0 || burst <= 0 {
		return nil, fmt.Errorf("invalid bucket key=%q rate=%v burst=%d", key, rate, burst)
	}

	ttl := bucketTTL(rate, burst)
	reply, err := t.script.Run(ctx, t.client, []string{key}, rate, burst, ttl.Milliseconds()).Slice()
	if err != nil {
		return nil, err
	}
	allowed, tokens, nowMs, err := parseBucketReply(reply)
	if err != nil {
		return nil, err
	}

	result := &RateLimitResult{
		Allowed:   allowed,
		Limit:     burst,
		Remaining: int(math.Floor(tokens)),
		ResetTime: time.UnixMilli(nowMs),
	}
	if !allowed {
		result.RetryAfter = time.Duration((1 - tokens) / rate * float64(time.Second))
		result.ResetTime = result.ResetTime.Add(result.RetryAfter)
	}
	return result, nil
}

// bucketTTL keeps an idle bucket around for twice the time a full refill takes.
func bucketTTL(rate float64, burst int) time.Duration {
	seconds := math.Ceil(2 * float64(burst) / rate)
	return time.Duration(math.Max(seconds, 1)) * time.Second
}

func parseBucketReply(reply []interface{}) (bool, float64, int64, error) {
	if len(reply) != 3 {
		return false, 0, 0, errInvalidBucketReply
	}
	allowed, ok := reply[0].(int64)
	if !ok {
		return false, 0, 0, errInvalidBucketReply
	}
	raw, ok := reply[1].(string)
	if !ok {
		return false, 0, 0, errInvalidBucketReply
	}
	tokens, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return false, 0, 0, errInvalidBucketReply
	}
	nowMs, ok := reply[2].(int64)
	if !ok {
		return false, 0, 0, errInvalidBucketReply
	}
	return allowed == 1, tokens, nowMs, nil
}
