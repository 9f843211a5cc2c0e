package server

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/chirp/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/chirp/internal/observability/metrics"
	"github.com/smallbiznis/chirp/internal/ratelimit"
	"go.uber.org/zap"
)

const rateLimitReasonSenderRate = "sender-rate"

// MessageRateLimit throttles message sends per sender when Redis is configured.
func (s *Server) MessageRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.messageLimiter.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		endpoint := normalizeRateLimitEndpoint(c)

		result, err := s.messageLimiter.AllowSender(ctx, actorID(c))
		if err != nil {
			logger.FromContext(ctx).Warn("message rate limit check failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}
		setRateLimitHeaders(c, result)
		if !result.Allowed {
			denyRateLimit(c, endpoint, rateLimitReasonSenderRate, result, s.obsMetrics)
			return
		}

		c.Next()
	}
}

func setRateLimitHeaders(c *gin.Context, result *ratelimit.RateLimitResult) {
	if result == nil || result.Limit <= 0 {
		return
	}
	c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
}

func denyRateLimit(c *gin.Context, endpoint, reason string, result *ratelimit.RateLimitResult, metrics *obsmetrics.Metrics) {
	ctx := c.Request.Context()
	logger.FromContext(ctx).Warn("rate limit exceeded",
		zap.String("reason", reason),
		zap.String("endpoint", endpoint),
	)
	recordRateLimitDenied(ctx, endpoint, reason, metrics)

	c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(result)))
	c.Header("X-Rate-Limited-Reason", reason)
	AbortWithError(c, ErrRateLimited)
}

func retryAfterSeconds(result *ratelimit.RateLimitResult) int {
	if result == nil || result.RetryAfter <= 0 {
		return 1
	}
	return int(math.Ceil(result.RetryAfter.Seconds()))
}

func recordRateLimitDenied(ctx context.Context, endpoint, reason string, metrics *obsmetrics.Metrics) {
	if metrics == nil {
		return
	}
	metrics.RecordRateLimitDenied(ctx, endpoint, reason)
}

func normalizeRateLimitEndpoint(c *gin.Context) string {
	if c == nil {
		return "unknown"
	}
	endpoint := strings.TrimSpace(c.FullPath())
	if endpoint == "" {
		endpoint = strings.TrimSpace(c.Request.URL.Path)
	}
	if endpoint == "" {
		endpoint = "unknown"
	}
	return endpoint
}
