package resilience

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	apperrors "github.com/ZanzyTHEbar/mvp-o-meter/internal/errors"
)

// RetryConfig holds configuration for retry behavior
type RetryConfig struct {
	MaxAttempts     int              `json:"max_attempts"`
	InitialDelay    time.Duration    `json:"initial_delay"`
	MaxDelay        time.Duration    `json:"max_delay"`
	BackoffFactor   float64          `json:"backoff_factor"`
	JitterEnabled   bool             `json:"jitter_enabled"`
	RetryableErrors func(error) bool `json:"-"`
}

// IsRetryable decides whether an attempt is worth repeating. An open breaker
// and a cancelled context never are.
func IsRetryable(err error) bool {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Category == apperrors.CategoryUnavailable {
		return false
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return isRetryableHTTPStatus(httpErr.StatusCode)
	}
	return apperrors.IsRetryableError(err)
}

// RetryableFunc represents a function that can be retried
type RetryableFunc func() error

// RetryWithConfig executes a function with retry logic using custom configuration
func RetryWithConfig(ctx context.Context, config RetryConfig, fn RetryableFunc) error {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	if config.RetryableErrors == nil {
		config.RetryableErrors = IsRetryable
	}

	var lastErr error

	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err

		if !config.RetryableErrors(err) {
			break
		}

		if attempt == config.MaxAttempts-1 {
			break
		}

		timer := time.NewTimer(calculateDelay(config, attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return lastErr
}

// calculateDelay computes the delay for the next retry attempt
func calculateDelay(config RetryConfig, attempt int) time.Duration {
	delay := time.Duration(float64(config.InitialDelay) * math.Pow(config.BackoffFactor, float64(attempt)))

	if delay > config.MaxDelay {
		delay = config.MaxDelay
	}

	// up to 10% jitter
	if config.JitterEnabled && delay >= 10 {
		delay += time.Duration(rand.Int63n(int64(delay / 10)))
	}

	return delay
}

// isRetryableHTTPStatus checks if an HTTP status code should trigger a retry
func isRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// HTTPError represents a non-2xx upstream response.
type HTTPError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Status, e.Message)
	}
	return e.Status
}

// NewHTTPError creates a new HTTP error
func NewHTTPError(statusCode int, status, message string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Status:     status,
		Message:    message,
	}
}

// RetryPolicy defines different retry strategies
type RetryPolicy struct {
	Name   string
	Config RetryConfig
}

var (
	// FastRetryPolicy for quick-retry scenarios
	FastRetryPolicy = RetryPolicy{
		Name: "fast",
		Config: RetryConfig{
			MaxAttempts:   3,
			InitialDelay:  50 * time.Millisecond,
			MaxDelay:      1 * time.Second,
			BackoffFactor: 2.0,
			JitterEnabled: true,
		},
	}

	// StandardRetryPolicy for general use cases
	StandardRetryPolicy = RetryPolicy{
		Name: "standard",
		Config: RetryConfig{
			MaxAttempts:   3,
			InitialDelay:  100 * time.Millisecond,
			MaxDelay:      10 * time.Second,
			BackoffFactor: 2.0,
			JitterEnabled: true,
		},
	}

	// NoRetryPolicy makes a single attempt.
	NoRetryPolicy = RetryPolicy{
		Name:   "none",
		Config: RetryConfig{MaxAttempts: 1},
	}
)

// RetryWithPolicy executes a function with a predefined retry policy
func RetryWithPolicy(ctx context.Context, policy RetryPolicy, fn RetryableFunc) error {
	if policy.Config.RetryableErrors == nil {
		policy.Config.RetryableErrors = IsRetryable
	}
	return RetryWithConfig(ctx, policy.Config, fn)
}
