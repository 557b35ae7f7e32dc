package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	apierrors "github.com/inkvault/backend/internal/errors"
	"github.com/inkvault/backend/internal/logger"
	"github.com/inkvault/backend/internal/metrics"
	"github.com/inkvault/backend/internal/util"
	"go.uber.org/zap"
)

// WindowCounter counts hits per key inside a fixed window. cache.RedisClient
// implements it.
type WindowCounter interface {
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RedisRateLimitMiddleware creates a distributed fixed-window rate limiter
// shared by every instance pointing at the same Redis
func RedisRateLimitMiddleware(counter WindowCounter, config RateLimitConfig) gin.HandlerFunc {
	m := metrics.Get()
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		key := fmt.Sprintf("rate_limit:%s:%s", config.Name, clientIP)
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		count, err := counter.IncrWindow(ctx, key, config.Window)
		if err != nil {
			// Fail closed: a broken limiter must not open the API up
			logger.Log.Error("Rate limit check failed, rejecting request",
				logger.WithIP(clientIP),
				zap.Error(err),
			)
			util.RespondWithAPIError(c, apierrors.InternalError("service temporarily unavailable").WithStatus(503))
			return
		}

		if count > int64(config.Limit) {
			m.RateLimitedTotal.WithLabelValues(config.Name).Inc()
			logger.Log.Warn("Rate limit exceeded",
				logger.WithIP(clientIP),
				zap.String("limiter", config.Name),
				zap.Int64("current_requests", count),
			)
			rejectRateLimited(c, config, int(config.Window.Seconds()))
			return
		}
		c.Next()
	}
}

// RateLimit picks the Redis limiter when a counter is available and falls
// back to in-process buckets otherwise. The buckets are swept until ctx ends.
func RateLimit(ctx context.Context, counter WindowCounter, config RateLimitConfig) gin.HandlerFunc {
	if counter != nil {
		return RedisRateLimitMiddleware(counter, config)
	}
	rl := NewRateLimiter(config)
	go rl.RunSweeper(ctx, time.Minute)
	return rl.Middleware()
}
