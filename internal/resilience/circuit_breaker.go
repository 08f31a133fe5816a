package resilience

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	apperrors "github.com/ZanzyTHEbar/mvp-o-meter/internal/errors"
)

// BreakerConfig holds the trip and recovery settings for one dependency.
type BreakerConfig struct {
	MaxHalfOpenRequests uint32
	Interval            time.Duration // closed-state window after which counts reset
	OpenTimeout         time.Duration // how long the breaker stays open
	MinRequests         uint32
	FailureRatio        float64
	ConsecutiveFailures uint32
}

// DefaultBreakerConfig trips after 5 straight failures, or 60% failures over at least 10 calls.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxHalfOpenRequests: 1,
		Interval:            time.Minute,
		OpenTimeout:         30 * time.Second,
		MinRequests:         10,
		FailureRatio:        0.6,
		ConsecutiveFailures: 5,
	}
}

// StateObserver is told about every breaker state change.
type StateObserver func(name string, state gobreaker.State)

// Registry owns one gobreaker per named dependency and its retry policy.
type Registry struct {
	mu       sync.RWMutex
	breakers map[string]*gobreaker.CircuitBreaker
	policies map[string]RetryPolicy
	observer StateObserver
	logger   *slog.Logger
}

// NewRegistry creates an empty registry. observer may be nil.
func NewRegistry(logger *slog.Logger, observer StateObserver) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		breakers: make(map[string]*gobreaker.CircuitBreaker),
		policies: make(map[string]RetryPolicy),
		observer: observer,
		logger:   logger,
	}
}

// Register creates the breaker for name and pins its retry policy. Registering twice replaces both.
func (r *Registry) Register(name string, cfg BreakerConfig, policy RetryPolicy) {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxHalfOpenRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if cfg.ConsecutiveFailures > 0 && counts.ConsecutiveFailures >= cfg.ConsecutiveFailures {
				return true
			}
			if counts.Requests < cfg.MinRequests || counts.Requests == 0 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			r.logger.Warn("Circuit breaker state changed",
				"breaker", name,
				"from_state", from.String(),
				"to_state", to.String(),
			)
			if r.observer != nil {
				r.observer(name, to)
			}
		},
		// Caller mistakes say nothing about the dependency's health.
		IsSuccessful: func(err error) bool {
			return err == nil || !IsRetryable(err)
		},
	}

	r.mu.Lock()
	r.breakers[name] = gobreaker.NewCircuitBreaker(settings)
	r.policies[name] = policy
	r.mu.Unlock()

	if r.observer != nil {
		r.observer(name, gobreaker.StateClosed)
	}
}

func (r *Registry) get(name string) (*gobreaker.CircuitBreaker, RetryPolicy) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cb, ok := r.breakers[name]
	if !ok {
		return nil, StandardRetryPolicy
	}
	return cb, r.policies[name]
}

// Call runs fn once through the breaker for name. An open breaker yields an
// unavailable AppError without calling fn.
func (r *Registry) Call(name string, fn func() error) error {
	cb, _ := r.get(name)
	if cb == nil {
		return fn()
	}

	_, err := cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return apperrors.NewUnavailableError(name, err)
	}
	return err
}

// Execute retries fn under name's policy, each attempt going through the breaker.
func (r *Registry) Execute(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	_, policy := r.get(name)
	return RetryWithPolicy(ctx, policy, func() error {
		return r.Call(name, func() error { return fn(ctx) })
	})
}

// State returns the breaker state for name, closed when unknown.
func (r *Registry) State(name string) gobreaker.State {
	cb, _ := r.get(name)
	if cb == nil {
		return gobreaker.StateClosed
	}
	return cb.State()
}

// Available reports whether calls to name are currently let through.
func (r *Registry) Available(name string) bool {
	return r.State(name) != gobreaker.StateOpen
}

// GetStats returns statistics for all circuit breakers
func (r *Registry) GetStats() map[string]interface{} {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := make(map[string]interface{}, len(r.breakers))
	for name, cb := range r.breakers {
		counts := cb.Counts()
		stats[name] = map[string]interface{}{
			"state":                cb.State().String(),
			"requests":             counts.Requests,
			"total_failures":       counts.TotalFailures,
			"consecutive_failures": counts.ConsecutiveFailures,
		}
	}
	return stats
}

// AnyOpen reports whether some registered breaker is open.
func (r *Registry) AnyOpen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, cb := range r.breakers {
		if cb.State() == gobreaker.StateOpen {
			return true
		}
	}
	return false
}
