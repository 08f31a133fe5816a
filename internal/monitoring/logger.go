package monitoring

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger provides structured logging helpers for the service's events.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a JSON logger on stdout at level.
func NewLogger(level slog.Level) *Logger {
	return NewLoggerTo(os.Stdout, level)
}

// NewLoggerTo creates a JSON logger writing to w.
func NewLoggerTo(w io.Writer, level slog.Level) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{
					Key:   "timestamp",
					Value: slog.StringValue(a.Value.Time().Format(time.RFC3339)),
				}
			}
			return a
		},
	})

	return &Logger{
		Logger: slog.New(handler),
	}
}

// RequestLogger logs HTTP request details
func (l *Logger) RequestLogger(requestID, method, path, ip, userAgent string, statusCode int, duration time.Duration) {
	level := slog.LevelInfo
	if statusCode >= 500 {
		level = slog.LevelError
	} else if statusCode >= 400 {
		level = slog.LevelWarn
	}

	l.Log(context.Background(), level, "HTTP Request",
		"request_id", requestID,
		"method", method,
		"path", path,
		"ip", ip,
		"user_agent", userAgent,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
	)
}

// ExplainLogger logs a finished comparison against the baseline season.
func (l *Logger) ExplainLogger(source string, features int, totalScore, probability float64, duration time.Duration) {
	l.Info("Explanation Completed",
		"source", source,
		"features_supplied", features,
		"total_score", totalScore,
		"probability", probability,
		"duration_us", duration.Microseconds(),
	)
}

// ChatLogger logs a routed chat message. The message text itself is not logged.
func (l *Logger) ChatLogger(sessionID, intent, replyType string, messageLen int, hasContext bool, duration time.Duration) {
	l.Info("Chat Reply",
		"session_id", sessionID,
		"intent", intent,
		"reply_type", replyType,
		"message_length", messageLen,
		"has_context", hasContext,
		"duration_ms", duration.Milliseconds(),
	)
}

// ExternalAPILogger logs external API calls
func (l *Logger) ExternalAPILogger(apiName, method, endpoint string, statusCode int, duration time.Duration, success bool) {
	level := slog.LevelInfo
	if !success {
		level = slog.LevelWarn
	}

	l.Log(context.Background(), level, "External API Call",
		"api_name", apiName,
		"method", method,
		"endpoint", endpoint,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
		"success", success,
	)
}

// SystemLogger logs system-level events
func (l *Logger) SystemLogger(event, details string) {
	l.Info("System Event",
		"event", event,
		"details", details,
		"uptime", time.Since(startTime).String(),
	)
}

var startTime = time.Now()
