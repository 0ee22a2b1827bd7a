package middlewares

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type MiddlewareConfig struct {
	RedisClient *redis.Client
}

type bodyWriter struct {
	gin.ResponseWriter
	body []byte
}

func (w *bodyWriter) Write(b []byte) (int, error) {
	w.body = append(w.body, b...)
	return w.ResponseWriter.Write(b)
}

// DispatchMiddleware replays cached responses for repeated dispatch calls
// carrying the same X-Idempotency-Key, and applies a short-window counter
// per caller in Redis. A broadcast retried by a flaky admin page must not
// fan out twice.
func DispatchMiddleware(cfg *MiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		idempotencyKey := c.GetHeader("X-Idempotency-Key")
		caller := c.GetHeader("X-API-Key")
		if caller == "" {
			caller = c.ClientIP()
		}

		if idempotencyKey != "" {
			idempRedisKey := fmt.Sprintf("idempotency:%s:%s", caller, idempotencyKey)
			resp, err := cfg.RedisClient.Get(ctx, idempRedisKey).Result()
			if err == nil {
				c.Data(http.StatusOK, "application/json", []byte(resp))
				c.Abort()
				return
			}
		}

		shortKey := fmt.Sprintf("ratelimit:dispatch:%s:%d", caller, time.Now().Unix()/60)
		count, _ := cfg.RedisClient.Incr(ctx, shortKey).Result()
		if count == 1 {
			cfg.RedisClient.Expire(ctx, shortKey, time.Minute)
		}
		if count > 30 {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}

		bw := &bodyWriter{ResponseWriter: c.Writer}
		c.Writer = bw
		c.Next()

		if idempotencyKey != "" && c.Writer.Status() < 400 {
			idempRedisKey := fmt.Sprintf("idempotency:%s:%s", caller, idempotencyKey)
			cfg.RedisClient.Set(ctx, idempRedisKey, bw.body, 24*time.Hour)
		}
	}
}
