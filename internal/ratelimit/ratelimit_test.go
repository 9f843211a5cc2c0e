package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/chirp/internal/config"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestMessageLimiterExhaustsBurst(t *testing.T) {
	limiter := NewMessageLimiter(newTestClient(t), config.Config{MessagesPerMinute: 2})
	require.True(t, limiter.Enabled())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := limiter.AllowSender(ctx, "alice")
		require.NoError(t, err)
		require.True(t, res.Allowed)
	}

	res, err := limiter.AllowSender(ctx, "alice")
	require.NoError(t, err)
	require.False(t, res.Allowed)
	require.Greater(t, int64(res.RetryAfter), int64(0))

	other, err := limiter.AllowSender(ctx, "bob")
	require.NoError(t, err)
	require.True(t, other.Allowed)
}

func TestMessageLimiterDisabledWithoutRedis(t *testing.T) {
	limiter := NewMessageLimiter(nil, config.Config{MessagesPerMinute: 2})
	require.False(t, limiter.Enabled())

	res, err := limiter.AllowSender(context.Background(), "alice")
	require.NoError(t, err)
	require.True(t, res.Allowed)
}

func TestLockerWithLock(t *testing.T) {
	locker := NewLocker(newTestClient(t))
	ctx := context.Background()

	token, ok, err := locker.TryLock(ctx, "relay", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ran, err := locker.WithLock(ctx, "relay", time.Minute, func(context.Context) error { return nil })
	require.NoError(t, err)
	require.False(t, ran)

	require.NoError(t, locker.Release(ctx, "relay", token))

	ran, err = locker.WithLock(ctx, "relay", time.Minute, func(context.Context) error { return nil })
	require.NoError(t, err)
	require.True(t, ran)
}

func TestNilLocker(t *testing.T) {
	var locker *Locker
	_, _, err := locker.TryLock(context.Background(), "k", time.Second)
	require.ErrorIs(t, err, ErrLockNotConfigured)
}

func TestParseBucketReply(t *testing.T) {
	allowed, tokens, now, err := parseBucketReply([]interface{}{int64(1), "1.5", int64(1700000000000)})
	require.NoError(t, err)
	require.True(t, allowed)
	require.InDelta(t, 1.5, tokens, 1e-9)
	require.Equal(t, int64(1700000000000), now)

	_, _, _, err = parseBucketReply([]interface{}{int64(1), int64(2)})
	require.ErrorIs(t, err, errInvalidBucketReply)

	_, _, _, err = parseBucketReply([]interface{}{int64(1), "nan?", int64(0)})
	require.ErrorIs(t, err, errInvalidBucketReply)
}

func TestTokenBucketRejectsBadInput(t *testing.T) {
	var missing *TokenBucket
	_, err := missing.Allow(context.Background(), "k", 1, 1)
	require.ErrorIs(t, err, ErrLimiterNotConfigured)

	bucket := NewTokenBucket(newTestClient(t))
	_, err = bucket.Allow(context.Background(), "", 1, 1)
	require.Error(t, err)
	_, err = bucket.Allow(context.Background(), "k", 0, 1)
	require.Error(t, err)
}
