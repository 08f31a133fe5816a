package ratelimit

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HandleRateLimitStatus reports the limiter configuration and backend for the calling IP.
func (rl *RateLimiter) HandleRateLimitStatus() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"ip": c.ClientIP(),
			"limits": gin.H{
				"ip_per_minute": gin.H{
					"limit":  rl.config.IPLimitPerMin,
					"period": "1 minute",
					"scope":  "POST requests",
				},
			},
			"backend":   rl.Backend(),
			"stats":     rl.GetStats(),
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}
