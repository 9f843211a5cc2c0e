package ratelimit

import (
	"context"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/chirp/internal/config"
)

const keyDirectMessageSender = "chirp:dm:sender:%s"

// MessageLimiter throttles direct messages per sender. A nil limiter allows everything.
type MessageLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
}

func NewMessageLimiter(client *redis.Client, cfg config.Config) *MessageLimiter {
	if client == nil || cfg.MessagesPerMinute <= 0 {
		return nil
	}
	return &MessageLimiter{
		bucket: NewTokenBucket(client),
		rate:   float64(cfg.MessagesPerMinute) / 60,
		burst:  cfg.MessagesPerMinute,
	}
}

func (l *MessageLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

// AllowSender takes one token from the sender's bucket.
func (l *MessageLimiter) AllowSender(ctx context.Context, senderID string) (*RateLimitResult, error) {
	if !l.Enabled() {
		return &RateLimitResult{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyDirectMessageSender, strings.TrimSpace(senderID)), l.rate, l.burst)
}
