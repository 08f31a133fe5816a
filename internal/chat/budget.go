package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Budget caps LLM calls per window. Acquire takes one call and reports
// whether it was available.
type Budget interface {
	Acquire(ctx context.Context) bool
	Remaining(ctx context.Context) int
}

// MemoryBudget counts calls in process. A window <= 0 never resets.
type MemoryBudget struct {
	mu          sync.Mutex
	max         int
	window      time.Duration
	used        int
	windowStart time.Time
	now         func() time.Time
}

// NewMemoryBudget allows limit calls per window.
func NewMemoryBudget(limit int, window time.Duration) *MemoryBudget {
	return &MemoryBudget{
		max:         limit,
		window:      window,
		windowStart: time.Now(),
		now:         time.Now,
	}
}

func (b *MemoryBudget) Acquire(_ context.Context) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.roll()
	if b.used >= b.max {
		return false
	}
	b.used++
	return true
}

func (b *MemoryBudget) Remaining(_ context.Context) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.roll()
	return max(b.max-b.used, 0)
}

// roll starts a new window once the current one has elapsed. Caller holds mu.
func (b *MemoryBudget) roll() {
	if b.window <= 0 {
		return
	}
	now := b.now()
	if now.Sub(b.windowStart) >= b.window {
		b.used = 0
		b.windowStart = now
	}
}

// RedisBudget shares the call count across replicas with a fixed window
// counter. Redis failures fall back to an in-process budget.
type RedisBudget struct {
	client   *redis.Client
	prefix   string
	max      int
	window   time.Duration
	fallback *MemoryBudget
	logger   *slog.Logger
	now      func() time.Time
}

// NewRedisBudget allows limit calls per window, counted in client.
func NewRedisBudget(client *redis.Client, limit int, window time.Duration, logger *slog.Logger) *RedisBudget {
	if logger == nil {
		logger = slog.Default()
	}
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &RedisBudget{
		client:   client,
		prefix:   "chat:budget",
		max:      limit,
		window:   window,
		fallback: NewMemoryBudget(limit, window),
		logger:   logger,
		now:      time.Now,
	}
}

func (b *RedisBudget) key() string {
	return fmt.Sprintf("%s:%d", b.prefix, b.now().Truncate(b.window).Unix())
}

func (b *RedisBudget) Acquire(ctx context.Context) bool {
	key := b.key()

	pipe := b.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, b.window)
	if _, err := pipe.Exec(ctx); err != nil {
		b.logger.Warn("Redis chat budget unavailable, using in-process budget", "error", err)
		return b.fallback.Acquire(ctx)
	}

	return incr.Val() <= int64(b.max)
}

func (b *RedisBudget) Remaining(ctx context.Context) int {
	val, err := b.client.Get(ctx, b.key()).Result()
	if err == redis.Nil {
		return b.max
	}
	if err != nil {
		return b.fallback.Remaining(ctx)
	}
	used, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return max(b.max-used, 0)
}
