package cache

import (
	"bytes"
	"crypto/md5"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// CacheItem represents a cached item with expiration
type CacheItem struct {
	Data      []byte    `json:"data"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired checks if the cache item has expired
func (c *CacheItem) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}

// Cache provides thread-safe caching with TTL
type Cache struct {
	mu    sync.RWMutex
	items map[string]*CacheItem
	ttl   time.Duration

	stop     chan struct{}
	stopOnce sync.Once
}

// NewCache creates a new cache with the specified default TTL and starts
// a janitor sweeping expired items every interval (ttl when interval is 0).
func NewCache(ttl, interval time.Duration) *Cache {
	if interval <= 0 {
		interval = ttl
	}
	cache := &Cache{
		items: make(map[string]*CacheItem),
		ttl:   ttl,
		stop:  make(chan struct{}),
	}

	go cache.cleanup(interval)

	return cache
}

func (c *Cache) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *Cache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, item := range c.items {
		if item.IsExpired() {
			delete(c.items, key)
		}
	}
}

// Close stops the janitor.
func (c *Cache) Close() error {
	c.stopOnce.Do(func() { close(c.stop) })
	return nil
}

// Key hashes input into a fixed length cache key.
func Key(input string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(input)))
}

// Get retrieves an item from the cache
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	item, exists := c.items[key]
	c.mu.RUnlock()

	if !exists {
		return nil, false
	}
	if item.IsExpired() {
		c.mu.Lock()
		if cur, ok := c.items[key]; ok && cur == item {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return nil, false
	}

	return item.Data, true
}

// Set stores an item under the default TTL
func (c *Cache) Set(key string, data []byte) {
	c.SetWithTTL(key, data, c.ttl)
}

// SetWithTTL stores an item that expires after ttl.
func (c *Cache) SetWithTTL(key string, data []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = &CacheItem{
		Data:      data,
		ExpiresAt: time.Now().Add(ttl),
	}
}

// Stats returns cache statistics for /health.
func (c *Cache) Stats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	totalItems := len(c.items)
	expiredItems := 0

	for _, item := range c.items {
		if item.IsExpired() {
			expiredItems++
		}
	}

	return map[string]interface{}{
		"total_items":   totalItems,
		"expired_items": expiredItems,
		"active_items":  totalItems - expiredItems,
		"ttl_seconds":   c.ttl.Seconds(),
	}
}

// Metrics receives hit and miss counts from the response cache.
type Metrics interface {
	IncrementCacheHit()
	IncrementCacheMiss()
}

// Middleware caches successful JSON responses to POST requests on paths,
// keyed by path and request body. Explanations are deterministic in their
// input, so a cached body is always the body the handler would produce.
func (c *Cache) Middleware(metrics Metrics, paths ...string) gin.HandlerFunc {
	cached := make(map[string]bool, len(paths))
	for _, p := range paths {
		cached[p] = true
	}

	return func(ctx *gin.Context) {
		if ctx.Request.Method != http.MethodPost || !cached[ctx.Request.URL.Path] {
			ctx.Next()
			return
		}

		body, err := io.ReadAll(ctx.Request.Body)
		if err != nil {
			ctx.Next()
			return
		}
		ctx.Request.Body = io.NopCloser(bytes.NewBuffer(body))

		cacheKey := Key(ctx.Request.URL.Path + "\x00" + string(bytes.TrimSpace(body)))

		if cachedData, found := c.Get(cacheKey); found {
			slog.Debug("Cache hit", "key", cacheKey[:8]+"...")
			metrics.IncrementCacheHit()
			ctx.Header("X-Cache", "HIT")
			ctx.Data(http.StatusOK, "application/json; charset=utf-8", cachedData)
			ctx.Abort()
			return
		}

		slog.Debug("Cache miss", "key", cacheKey[:8]+"...")
		metrics.IncrementCacheMiss()
		ctx.Header("X-Cache", "MISS")

		wrapper := &responseWriter{ResponseWriter: ctx.Writer, body: &bytes.Buffer{}}
		ctx.Writer = wrapper
		ctx.Next()

		if wrapper.Status() == http.StatusOK {
			c.Set(cacheKey, wrapper.body.Bytes())
		}
	}
}

// responseWriter wraps gin.ResponseWriter to capture response body
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(data []byte) (int, error) {
	w.body.Write(data)
	return w.ResponseWriter.Write(data)
}

func (w *responseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
