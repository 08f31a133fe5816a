package security

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/ZanzyTHEbar/mvp-o-meter/internal/errors"
)

const DefaultMaxMessageLength = 2000

var (
	scriptPattern     = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	htmlTagPattern    = regexp.MustCompile(`<[^>]+>`)
	whitespacePattern = regexp.MustCompile(`\s+`)

	suspiciousPatterns = []string{`<script`, `</script>`, `javascript:`, `data:text/html`}
)

// ValidateMessage rejects chat messages that are empty, too long, not UTF-8,
// or carry markup aimed at whoever renders the reply.
func ValidateMessage(message string, maxLength int) error {
	if maxLength <= 0 {
		maxLength = DefaultMaxMessageLength
	}

	if strings.TrimSpace(message) == "" {
		return fmt.Errorf("message must not be empty")
	}
	if utf8.RuneCountInString(message) > maxLength {
		return fmt.Errorf("message exceeds maximum length of %d characters", maxLength)
	}
	if strings.Contains(message, "\x00") {
		return fmt.Errorf("message contains invalid characters")
	}
	if !utf8.ValidString(message) {
		return fmt.Errorf("message contains invalid UTF-8 encoding")
	}

	lower := strings.ToLower(message)
	for _, pattern := range suspiciousPatterns {
		if strings.Contains(lower, pattern) {
			return fmt.Errorf("message contains suspicious patterns")
		}
	}

	return nil
}

// SanitizeMessage strips markup and collapses whitespace.
func SanitizeMessage(message string) string {
	message = scriptPattern.ReplaceAllString(message, "")
	message = htmlTagPattern.ReplaceAllString(message, "")
	message = whitespacePattern.ReplaceAllString(message, " ")
	return strings.TrimSpace(message)
}

// ValidateContentType requires a JSON body on requests that carry one.
func ValidateContentType() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost || c.Request.ContentLength == 0 {
			c.Next()
			return
		}

		contentType := strings.ToLower(c.GetHeader("Content-Type"))
		if !strings.HasPrefix(contentType, "application/json") {
			appErr := errors.NewValidationError("unsupported content type", "expected application/json")
			appErr.HTTPStatus = http.StatusUnsupportedMediaType
			errors.Respond(c, appErr)
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequestTimeout bounds the request context so upstream calls give up in time.
func RequestTimeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if timeout <= 0 {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Timeout", strconv.Itoa(int(timeout.Seconds())))

		c.Next()
	}
}
