package monitoring

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader carries the request id in and out.
	RequestIDHeader = "X-Request-ID"
	// RequestIDKey is the gin context key holding the request id.
	RequestIDKey = "request_id"

	maxBodyBytes     = 16 << 10
	slowRequestLimit = 5 * time.Second
)

// RequestIDMiddleware reuses an incoming X-Request-ID or assigns a new UUID.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// MonitoringMiddleware creates Gin middleware for request monitoring
func MonitoringMiddleware(metrics *Metrics, logger *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveRequest(route, c.Request.Method, statusCode, duration)

		logger.RequestLogger(c.GetString(RequestIDKey), c.Request.Method, c.Request.URL.Path,
			c.ClientIP(), c.GetHeader("User-Agent"), statusCode, duration)

		if duration > slowRequestLimit {
			logger.SystemLogger("slow_request", fmt.Sprintf("%s %s took %s", c.Request.Method, route, duration))
		}
	}
}

// SecurityMonitoringMiddleware flags oversized bodies and scanner user agents.
func SecurityMonitoringMiddleware(logger *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userAgent := c.GetHeader("User-Agent")

		if c.Request.Method == http.MethodPost && c.Request.ContentLength > maxBodyBytes {
			logger.Warn("Security Event",
				"event", "large_request_body",
				"ip", c.ClientIP(),
				"path", c.Request.URL.Path,
				"size_bytes", c.Request.ContentLength,
			)
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
			return
		}

		if containsSuspiciousUserAgent(userAgent) {
			logger.Warn("Security Event",
				"event", "suspicious_user_agent",
				"ip", c.ClientIP(),
				"user_agent", userAgent,
			)
		}

		c.Next()
	}
}

var suspiciousAgents = []string{
	"sqlmap",
	"nmap",
	"masscan",
	"zmap",
	"dirbuster",
	"gobuster",
	"nikto",
	"acunetix",
	"nessus",
}

func containsSuspiciousUserAgent(userAgent string) bool {
	ua := strings.ToLower(userAgent)
	for _, agent := range suspiciousAgents {
		if strings.Contains(ua, agent) {
			return true
		}
	}
	return false
}
