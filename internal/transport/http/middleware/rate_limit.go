package middleware

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"mindwell/internal/transport/http/response"
)

// RateLimit allows at most limit requests per user per window, counted in
// Redis with INCR and a window-long expiry. Redis errors let the request
// through so a cache outage never blocks the conversation.
func RateLimit(client *redis.Client, scope string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil || limit <= 0 {
			c.Next()
			return
		}

		subject := c.ClientIP()
		if userID, ok := c.Get(ContextUserIDKey); ok {
			subject = fmt.Sprintf("u%v", userID)
		}
		key := fmt.Sprintf("rate_limit:%s:%s", scope, subject)

		ctx := c.Request.Context()
		count, err := client.Incr(ctx, key).Result()
		if err != nil {
			log.Printf("rate limit check failed: %v", err)
			c.Next()
			return
		}
		if count == 1 {
			if err := client.Expire(ctx, key, window).Err(); err != nil {
				// a counter without a TTL would throttle the user for good
				log.Printf("rate limit expire failed: %v", err)
				if delErr := client.Del(ctx, key).Err(); delErr != nil {
					log.Printf("rate limit reset failed: %v", delErr)
				}
				c.Next()
				return
			}
		} else if ttl, err := client.TTL(ctx, key).Result(); err == nil && ttl == -1 {
			// heal a key left behind without expiry
			if err := client.Expire(ctx, key, window).Err(); err != nil {
				log.Printf("rate limit expire failed: %v", err)
			}
		}

		if count > int64(limit) {
			response.Error(c, http.StatusTooManyRequests, response.CodeRateLimited, "too many messages, please slow down")
			c.Abort()
			return
		}
		c.Next()
	}
}
