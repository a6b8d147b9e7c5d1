package middleware

import (
	"fmt"
	"time"

	"syntagma/internal/api/response"
	"syntagma/internal/cache"
	"syntagma/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimit 按客户端 IP 限流，限流器故障时放行
func RateLimit(limiter cache.Limiter, scope string, limit int64, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || limit <= 0 {
			c.Next()
			return
		}

		key := fmt.Sprintf("%s:%s", scope, c.ClientIP())
		ok, n, err := limiter.Allow(c.Request.Context(), key, limit, window)
		if err != nil {
			logger.Warn("Rate limiter unavailable", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}
		if !ok {
			logger.Info("Rate limit exceeded", zap.String("key", key), zap.Int64("count", n))
			c.Header("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			response.TooManyRequests(c, "Too many comments, please slow down")
			c.Abort()
			return
		}
		c.Next()
	}
}
