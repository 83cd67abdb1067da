// internal/middleware/ratelimit_middleware.go
package middleware

import (
	"fmt"
	"time"

	xerrors "solarcrm-service/internal/pkg/errors"
	"solarcrm-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimitMiddleware enforces a fixed window of requests per client IP,
// counted in Redis so the limit holds across replicas. Redis being down
// lets traffic through; the limiter protects the database, it is not a
// security boundary.
func RateLimitMiddleware(client *redis.Client, limit int64, window time.Duration, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := fmt.Sprintf("ratelimit:%s", c.ClientIP())

		count, err := client.Incr(ctx, key).Result()
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}

		// Start the window on the first hit.
		if count == 1 {
			client.Expire(ctx, key, window)
		}

		if count > limit {
			response.Error(c, response.StatusFor(xerrors.ErrRateLimited), "too many requests", xerrors.ErrRateLimited)
			return
		}

		c.Next()
	}
}
