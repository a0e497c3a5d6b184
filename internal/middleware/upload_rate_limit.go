package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sitescope/backend/internal/config"
)

// UploadRateLimit limits how many uploads a user may start within the
// configured window. Applied only to the upload routes.
func UploadRateLimit(redisClient *redis.Client, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background()

		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		userIDValue, exists := c.Get("userID")
		if !exists {
			c.Next()
			return
		}
		userID, ok := userIDValue.(uuid.UUID)
		if !ok {
			c.Next()
			return
		}

		if err := redisClient.Ping(ctx).Err(); err != nil {
			c.Next()
			return
		}

		key := fmt.Sprintf("upload_rate:%s", userID)
		count, err := redisClient.Incr(ctx, key).Result()
		if err != nil {
			c.Next()
			return
		}
		if count == 1 {
			redisClient.Expire(ctx, key, cfg.UploadRateWindow)
		}

		if count > int64(cfg.UploadRateLimit) {
			ttl, _ := redisClient.TTL(ctx, key).Result()
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "upload limit reached",
				"retry_after": ttl.Seconds(),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
