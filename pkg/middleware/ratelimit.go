package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pkg/response"
	"github.com/wyfcoding/riskengine/pkg/logger"
	"github.com/wyfcoding/riskengine/pkg/ratelimit"
)

// RateLimit 按客户端 IP 限流。限流器出错时放行。
func RateLimit(limiter ratelimit.Limiter, limit ratelimit.Limit) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		res, err := limiter.Allow(ctx, "riskengine:ratelimit:"+c.ClientIP(), limit)
		if err != nil {
			logger.Warn(ctx, "rate limiter unavailable", "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit.Burst))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(int64(res.ResetAfter/time.Second), 10))

		if !res.Allowed {
			retry := int64(res.RetryAfter / time.Second)
			c.Header("Retry-After", strconv.FormatInt(max(1, retry), 10))
			c.Abort()
			response.ErrorWithStatus(c, http.StatusTooManyRequests, "too many requests", res.RetryAfter.String())
			return
		}
		c.Next()
	}
}
