package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"golang.org/x/time/rate"
)

// Config holds rate limiter configuration
type Config struct {
	IPLimitPerMin   int           // requests per minute per client IP
	BurstMultiplier int           // in-memory burst capacity as a multiple of the limit
	CleanupInterval time.Duration // how often idle in-memory limiters are dropped
}

// DefaultConfig returns default rate limiting configuration
func DefaultConfig() Config {
	return Config{
		IPLimitPerMin:   60,
		BurstMultiplier: 1,
		CleanupInterval: time.Hour,
	}
}

// Rate is a request budget over a period.
type Rate struct {
	Limit  int
	Period time.Duration
}

// Result represents the result of a rate limit check
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Metrics receives rate limiter events.
type Metrics interface {
	IncrementRateLimitIPBlock()
	IncrementRateLimitRedisError()
	IncrementRateLimitFallback()
}

type fallbackEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter provides distributed rate limiting with Redis and in-memory fallback
type RateLimiter struct {
	redisLimiter *redis_rate.Limiter
	redisClient  *RedisClient
	config       Config
	metrics      Metrics

	fallbackMutex    sync.Mutex
	fallbackLimiters map[string]*fallbackEntry

	stop     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter creates a new rate limiter with Redis and in-memory fallback.
// redisClient and metrics may be nil.
func NewRateLimiter(redisClient *RedisClient, config Config, metrics Metrics) *RateLimiter {
	if redisClient == nil {
		redisClient = &RedisClient{}
	}
	if config.BurstMultiplier < 1 {
		config.BurstMultiplier = 1
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = time.Hour
	}

	rl := &RateLimiter{
		redisClient:      redisClient,
		config:           config,
		metrics:          metrics,
		fallbackLimiters: make(map[string]*fallbackEntry),
		stop:             make(chan struct{}),
	}

	if redisClient.IsEnabled() {
		rl.redisLimiter = redis_rate.NewLimiter(redisClient.GetClient())
		slog.Info("Redis rate limiter initialized")
	} else {
		slog.Info("Redis unavailable, using in-memory rate limiting only")
	}

	go rl.cleanupFallbackLimiters()

	return rl
}

// Close stops the background cleanup.
func (rl *RateLimiter) Close() error {
	rl.stopOnce.Do(func() { close(rl.stop) })
	return nil
}

// AllowIP checks if an IP address is allowed to make a request (per-minute limit)
func (rl *RateLimiter) AllowIP(ctx context.Context, ip string) (*Result, error) {
	return rl.Allow(ctx, fmt.Sprintf("ratelimit:ip:%s", ip), Rate{
		Limit:  rl.config.IPLimitPerMin,
		Period: time.Minute,
	})
}

// Allow checks key against r using Redis when available, memory otherwise.
func (rl *RateLimiter) Allow(ctx context.Context, key string, r Rate) (*Result, error) {
	if r.Limit <= 0 || r.Period <= 0 {
		return nil, fmt.Errorf("invalid rate %d per %s", r.Limit, r.Period)
	}

	if rl.redisLimiter != nil {
		result, err := rl.allowRedis(ctx, key, r)
		if err == nil {
			return result, nil
		}
		slog.Warn("Redis rate limit check failed, using fallback", "key", key, "error", err)
		if rl.metrics != nil {
			rl.metrics.IncrementRateLimitRedisError()
		}
	}

	if rl.metrics != nil {
		rl.metrics.IncrementRateLimitFallback()
	}
	return rl.allowFallback(key, r), nil
}

func (rl *RateLimiter) allowRedis(ctx context.Context, key string, r Rate) (*Result, error) {
	res, err := rl.redisLimiter.Allow(ctx, key, redis_rate.Limit{
		Rate:   r.Limit,
		Burst:  r.Limit,
		Period: r.Period,
	})
	if err != nil {
		return nil, fmt.Errorf("redis rate limit check failed: %w", err)
	}

	return &Result{
		Allowed:    res.Allowed > 0,
		Limit:      res.Limit.Rate,
		Remaining:  res.Remaining,
		ResetAt:    time.Now().Add(res.ResetAfter),
		RetryAfter: res.RetryAfter,
	}, nil
}

// allowFallback performs rate limiting using an in-memory token bucket
func (rl *RateLimiter) allowFallback(key string, r Rate) *Result {
	now := time.Now()

	rl.fallbackMutex.Lock()
	entry, exists := rl.fallbackLimiters[key]
	if !exists {
		every := rate.Every(r.Period / time.Duration(r.Limit))
		entry = &fallbackEntry{limiter: rate.NewLimiter(every, r.Limit*rl.config.BurstMultiplier)}
		rl.fallbackLimiters[key] = entry
	}
	entry.lastSeen = now
	rl.fallbackMutex.Unlock()

	limiter := entry.limiter
	allowed := limiter.AllowN(now, 1)

	result := &Result{
		Allowed:   allowed,
		Limit:     r.Limit,
		Remaining: max(int(limiter.TokensAt(now)), 0),
		ResetAt:   now.Add(r.Period),
	}

	if !allowed {
		res := limiter.ReserveN(now, 1)
		result.RetryAfter = res.DelayFrom(now)
		res.CancelAt(now)
		result.ResetAt = now.Add(result.RetryAfter)
	}

	return result
}

// cleanupFallbackLimiters drops in-memory limiters that have been idle for a full interval.
func (rl *RateLimiter) cleanupFallbackLimiters() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case now := <-ticker.C:
			rl.evictIdle(now.Add(-rl.config.CleanupInterval))
		}
	}
}

func (rl *RateLimiter) evictIdle(before time.Time) int {
	rl.fallbackMutex.Lock()
	defer rl.fallbackMutex.Unlock()

	removed := 0
	for key, entry := range rl.fallbackLimiters {
		if entry.lastSeen.Before(before) {
			delete(rl.fallbackLimiters, key)
			removed++
		}
	}
	if removed > 0 {
		slog.Debug("Cleaned up fallback rate limiters", "removed", removed)
	}
	return removed
}

// Backend names the store answering limit checks.
func (rl *RateLimiter) Backend() string {
	if rl.redisLimiter != nil {
		return "redis"
	}
	return "memory"
}

// GetStats returns rate limiter statistics
func (rl *RateLimiter) GetStats() map[string]interface{} {
	rl.fallbackMutex.Lock()
	fallbackCount := len(rl.fallbackLimiters)
	rl.fallbackMutex.Unlock()

	stats := map[string]interface{}{
		"backend":           rl.Backend(),
		"redis_enabled":     rl.redisClient.IsEnabled(),
		"fallback_limiters": fallbackCount,
		"ip_limit_per_min":  rl.config.IPLimitPerMin,
	}

	if rl.redisClient.IsEnabled() {
		stats["redis_pool"] = rl.redisClient.GetPoolStats()
	}

	return stats
}
