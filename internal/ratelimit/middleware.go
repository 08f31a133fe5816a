package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ZanzyTHEbar/mvp-o-meter/internal/errors"
)

// IPRateLimitMiddleware limits POST requests per client IP. Other methods pass through.
func (rl *RateLimiter) IPRateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		ip := c.ClientIP()

		result, err := rl.AllowIP(c.Request.Context(), ip)
		if err != nil {
			// a broken limiter must not take the API down with it
			slog.Error("Rate limit check failed", "ip", ip, "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			if rl.metrics != nil {
				rl.metrics.IncrementRateLimitIPBlock()
			}

			retryAfter := int(result.RetryAfter.Seconds() + 0.999)
			c.Header("Retry-After", strconv.Itoa(retryAfter))

			errors.Respond(c, errors.NewRateLimitError(strconv.Itoa(retryAfter)+"s"))
			c.Abort()
			return
		}

		c.Next()
	}
}
