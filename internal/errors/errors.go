package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/gin-gonic/gin"
)

// ErrorCategory defines the type of error for proper handling
type ErrorCategory string

const (
	CategoryValidation    ErrorCategory = "validation"
	CategoryNetwork       ErrorCategory = "network"
	CategoryTimeout       ErrorCategory = "timeout"
	CategoryRateLimit     ErrorCategory = "rate_limit"
	CategoryInternal      ErrorCategory = "internal"
	CategoryExternalAPI   ErrorCategory = "external_api"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryUnavailable   ErrorCategory = "unavailable"
)

type categoryInfo struct {
	label  string
	status int
	retry  bool
}

var categories = map[ErrorCategory]categoryInfo{
	CategoryValidation:    {"VALIDATION_ERROR", http.StatusBadRequest, false},
	CategoryNetwork:       {"NETWORK_ERROR", http.StatusBadGateway, true},
	CategoryTimeout:       {"TIMEOUT_ERROR", http.StatusGatewayTimeout, true},
	CategoryRateLimit:     {"RATE_LIMIT_EXCEEDED", http.StatusTooManyRequests, true},
	CategoryInternal:      {"INTERNAL_ERROR", http.StatusInternalServerError, false},
	CategoryExternalAPI:   {"EXTERNAL_API_ERROR", http.StatusBadGateway, true},
	CategoryConfiguration: {"CONFIGURATION_ERROR", http.StatusServiceUnavailable, false},
	CategoryUnavailable:   {"SERVICE_UNAVAILABLE", http.StatusServiceUnavailable, true},
}

// withCode stamps the errbuilder code matching category.
func withCode(b *errbuilder.ErrBuilder, category ErrorCategory) *errbuilder.ErrBuilder {
	switch category {
	case CategoryValidation:
		return b.WithCode(errbuilder.CodeInvalidArgument)
	case CategoryNetwork, CategoryExternalAPI, CategoryUnavailable:
		return b.WithCode(errbuilder.CodeUnavailable)
	case CategoryTimeout:
		return b.WithCode(errbuilder.CodeDeadlineExceeded)
	case CategoryRateLimit:
		return b.WithCode(errbuilder.CodeResourceExhausted)
	case CategoryConfiguration:
		return b.WithCode(errbuilder.CodeFailedPrecondition)
	default:
		return b.WithCode(errbuilder.CodeInternal)
	}
}

func infoFor(c ErrorCategory) categoryInfo {
	if info, ok := categories[c]; ok {
		return info
	}
	return categories[CategoryInternal]
}

// AppError wraps an errbuilder error with the HTTP context the handlers need.
type AppError struct {
	*errbuilder.ErrBuilder
	Category   ErrorCategory
	HTTPStatus int
	Timestamp  time.Time
	RequestID  string
	StackTrace string
	Fields     map[string]string
}

// Error implements the error interface
func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", infoFor(e.Category).label, e.ErrBuilder.Msg)
}

// Unwrap returns the underlying cause
func (e *AppError) Unwrap() error {
	return e.ErrBuilder.Unwrap()
}

// Code returns the stable string code clients can switch on.
func (e *AppError) Code() string {
	return infoFor(e.Category).label
}

type errorBody struct {
	Error     string            `json:"error"`
	Code      string            `json:"code"`
	Category  ErrorCategory     `json:"category"`
	Details   map[string]string `json:"details,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	Timestamp string            `json:"timestamp"`
}

// MarshalJSON renders the client facing error body. Causes and stack traces stay in the logs.
func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(errorBody{
		Error:     e.ErrBuilder.Msg,
		Code:      e.Code(),
		Category:  e.Category,
		Details:   e.Fields,
		RequestID: e.RequestID,
		Timestamp: e.Timestamp.UTC().Format(time.RFC3339),
	})
}

// WithRequestID tags the error with the request id it was raised under.
func (e *AppError) WithRequestID(id string) *AppError {
	e.RequestID = id
	return e
}

// NewAppError creates an AppError in category with the given message, cause and detail fields.
func NewAppError(category ErrorCategory, message string, cause error, fields map[string]string) *AppError {
	builder := withCode(errbuilder.New(), category).
		WithMsg(message)

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	if len(fields) > 0 {
		errorMap := errbuilder.ErrorMap{}
		for k, v := range fields {
			errorMap.Set(k, errors.New(v))
		}
		builder = builder.WithDetails(errbuilder.NewErrDetails(errorMap))
	}

	return &AppError{
		ErrBuilder: builder,
		Category:   category,
		HTTPStatus: infoFor(category).status,
		Timestamp:  time.Now(),
		Fields:     fields,
	}
}

// NewValidationError creates a validation error
func NewValidationError(message string, details ...string) *AppError {
	var fields map[string]string
	if len(details) > 0 {
		fields = map[string]string{"validation_details": strings.Join(details, "; ")}
	}
	return NewAppError(CategoryValidation, message, nil, fields)
}

// NewValidationErrorWithMap creates a validation error carrying one message per field.
func NewValidationErrorWithMap(validationErrors map[string]string) *AppError {
	return NewAppError(CategoryValidation, "Invalid request", nil, validationErrors)
}

// NewNetworkError creates a network error
func NewNetworkError(message string, cause error) *AppError {
	return NewAppError(CategoryNetwork, message, cause, nil)
}

// NewTimeoutError creates a timeout error
func NewTimeoutError(message string, cause error) *AppError {
	return NewAppError(CategoryTimeout, message, cause, nil)
}

// NewRateLimitError creates a rate limit error
func NewRateLimitError(retryAfter string) *AppError {
	return NewAppError(CategoryRateLimit, "Rate limit exceeded", nil, map[string]string{"retry_after": retryAfter})
}

// NewExternalAPIError creates an external API error
func NewExternalAPIError(apiName string, cause error) *AppError {
	return NewAppError(CategoryExternalAPI, fmt.Sprintf("%s API error", apiName), cause, map[string]string{"api_name": apiName})
}

// NewUnavailableError reports a dependency that is switched off or tripped.
func NewUnavailableError(service string, cause error) *AppError {
	return NewAppError(CategoryUnavailable, fmt.Sprintf("%s is unavailable", service), cause, map[string]string{"service": service})
}

// NewInternalError creates an internal server error. The message is logged, never returned.
func NewInternalError(message string, cause error) *AppError {
	appErr := NewAppError(CategoryInternal, "Internal server error", cause, nil)

	errorMap := errbuilder.ErrorMap{}
	errorMap.Set("internal_details", errors.New(message))
	appErr.ErrBuilder = appErr.ErrBuilder.WithDetails(errbuilder.NewErrDetails(errorMap))

	if gin.Mode() == gin.DebugMode || gin.Mode() == gin.TestMode {
		appErr.StackTrace = captureStackTrace()
	}

	return appErr
}

// NewConfigurationError creates a configuration error
func NewConfigurationError(message string, cause error) *AppError {
	return NewAppError(CategoryConfiguration, "Configuration error", cause, map[string]string{"config_details": message})
}

func captureStackTrace() string {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}

// ErrorHandler is a Gin middleware that renders the last error attached with c.Error.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		appErr := ToAppError(c.Errors.Last().Err)
		Respond(c, appErr)
	}
}

// RecoveryHandler provides panic recovery with structured error responses
func RecoveryHandler() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		appErr := NewInternalError(
			fmt.Sprintf("Panic recovered: %v", recovered),
			fmt.Errorf("%v", recovered),
		)
		appErr.StackTrace = captureStackTrace()

		Respond(c, appErr)
		c.Abort()
	})
}

// Respond logs err and writes it as the response body.
func Respond(c *gin.Context, err *AppError) {
	if err.RequestID == "" {
		err.RequestID = c.GetString("request_id")
	}
	LogError(c, err)
	c.JSON(err.HTTPStatus, err)
}

// ToAppError converts any error to an AppError
func ToAppError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var ebErr *errbuilder.ErrBuilder
	if errors.As(err, &ebErr) {
		return fromBuilder(ebErr)
	}

	if errors.Is(err, context.Canceled) {
		return NewTimeoutError("Request cancelled", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError("Request deadline exceeded", err)
	}

	errMsg := err.Error()

	if strings.Contains(errMsg, "connection refused") ||
		strings.Contains(errMsg, "no such host") ||
		strings.Contains(errMsg, "network is unreachable") {
		return NewNetworkError("Network connection failed", err)
	}

	if strings.Contains(errMsg, "timeout") ||
		strings.Contains(errMsg, "deadline exceeded") {
		return NewTimeoutError("Request timeout", err)
	}

	return NewInternalError("An unexpected error occurred", err)
}

func fromBuilder(eb *errbuilder.ErrBuilder) *AppError {
	category := CategoryInternal
	switch eb.ErrCode() {
	case errbuilder.CodeInvalidArgument:
		category = CategoryValidation
	case errbuilder.CodeUnavailable:
		category = CategoryNetwork
	case errbuilder.CodeDeadlineExceeded:
		category = CategoryTimeout
	case errbuilder.CodeResourceExhausted:
		category = CategoryRateLimit
	case errbuilder.CodeFailedPrecondition:
		category = CategoryConfiguration
	}
	return &AppError{
		ErrBuilder: eb,
		Category:   category,
		HTTPStatus: infoFor(category).status,
		Timestamp:  time.Now(),
	}
}

// LogError logs an error with appropriate level and context
func LogError(c *gin.Context, err *AppError) {
	logEntry := slog.With(
		"error_category", err.Category,
		"error_code", err.ErrBuilder.ErrCode(),
		"http_status", err.HTTPStatus,
		"ip", c.ClientIP(),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"request_id", err.RequestID,
	)

	msg := err.ErrBuilder.Msg
	cause := err.ErrBuilder.Unwrap()

	switch err.Category {
	case CategoryValidation, CategoryRateLimit:
		if len(err.Fields) > 0 {
			logEntry.Warn(msg, "details", err.Fields)
		} else {
			logEntry.Warn(msg)
		}
	case CategoryNetwork, CategoryTimeout, CategoryExternalAPI, CategoryUnavailable:
		if cause != nil {
			logEntry.Info(msg, "cause", cause)
		} else {
			logEntry.Info(msg)
		}
	default:
		if cause != nil {
			logEntry.Error(msg, "cause", cause)
		} else {
			logEntry.Error(msg)
		}
	}

	if err.StackTrace != "" && (gin.Mode() == gin.DebugMode || gin.Mode() == gin.TestMode) {
		logEntry.Debug("stack_trace", "trace", err.StackTrace)
	}
}

// IsRetryableError checks if an error should trigger a retry
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return infoFor(ToAppError(err).Category).retry
}

// SafeClose safely closes a resource and logs any errors
func SafeClose(closer interface{ Close() error }, resourceName string) {
	if closer == nil {
		return
	}

	if err := closer.Close(); err != nil {
		slog.Warn("Failed to close resource",
			"resource", resourceName,
			"error", err)
	}
}
