package ratelimit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingMetrics struct {
	blocks, redisErrors, fallbacks int64
}

func (m *countingMetrics) IncrementRateLimitIPBlock()    { atomic.AddInt64(&m.blocks, 1) }
func (m *countingMetrics) IncrementRateLimitRedisError() { atomic.AddInt64(&m.redisErrors, 1) }
func (m *countingMetrics) IncrementRateLimitFallback()   { atomic.AddInt64(&m.fallbacks, 1) }

func newTestLimiter(t *testing.T, perMin int, m Metrics) *RateLimiter {
	t.Helper()
	rl := NewRateLimiter(nil, Config{IPLimitPerMin: perMin, CleanupInterval: time.Hour}, m)
	t.Cleanup(func() { _ = rl.Close() })
	return rl
}

func TestRateLimiter_FallbackMode(t *testing.T) {
	m := &countingMetrics{}
	rl := newTestLimiter(t, 5, m)
	ctx := context.Background()

	assert.Equal(t, "memory", rl.Backend())

	for i := 0; i < 5; i++ {
		result, err := rl.AllowIP(ctx, "192.168.1.1")
		require.NoError(t, err)
		assert.True(t, result.Allowed, "request %d should be allowed", i+1)
		assert.Equal(t, 5, result.Limit)
		assert.Equal(t, 4-i, result.Remaining)
	}

	result, err := rl.AllowIP(ctx, "192.168.1.1")
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Zero(t, result.Remaining)
	assert.Greater(t, result.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, result.RetryAfter, 12*time.Second)

	assert.Equal(t, int64(6), m.fallbacks)
	assert.Zero(t, m.redisErrors)
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	rl := newTestLimiter(t, 1, nil)
	ctx := context.Background()

	first, err := rl.AllowIP(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, first.Allowed)

	blocked, err := rl.AllowIP(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, blocked.Allowed)

	other, err := rl.AllowIP(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, other.Allowed)
}

func TestRateLimiter_InvalidRate(t *testing.T) {
	rl := newTestLimiter(t, 5, nil)

	tests := []struct {
		name string
		rate Rate
	}{
		{"zero limit", Rate{Limit: 0, Period: time.Minute}},
		{"negative limit", Rate{Limit: -1, Period: time.Minute}},
		{"zero period", Rate{Limit: 5, Period: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := rl.Allow(context.Background(), "k", tt.rate)
			assert.Error(t, err)
		})
	}
}

func TestRateLimiter_Concurrent(t *testing.T) {
	rl := newTestLimiter(t, 20, nil)

	var allowed int64
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := rl.AllowIP(context.Background(), "172.16.0.1")
			if err == nil && res.Allowed {
				atomic.AddInt64(&allowed, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(20), allowed)
}

func TestRateLimiter_EvictIdle(t *testing.T) {
	rl := newTestLimiter(t, 5, nil)
	ctx := context.Background()

	_, _ = rl.AllowIP(ctx, "a")
	_, _ = rl.AllowIP(ctx, "b")

	assert.Zero(t, rl.evictIdle(time.Now().Add(-time.Minute)))
	assert.Equal(t, 2, rl.evictIdle(time.Now().Add(time.Minute)))
	assert.Equal(t, 0, rl.GetStats()["fallback_limiters"])
}

func TestRedisClient_Disabled(t *testing.T) {
	client, err := NewRedisClient(context.Background(), "", "", 0)
	require.NoError(t, err)

	assert.False(t, client.IsEnabled())
	assert.Nil(t, client.GetClient())
	assert.Error(t, client.HealthCheck(context.Background()))
	assert.NoError(t, client.Close())
	assert.Equal(t, map[string]interface{}{"enabled": false}, client.GetPoolStats())
}

func TestIPRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := &countingMetrics{}
	rl := newTestLimiter(t, 2, m)

	r := gin.New()
	r.Use(rl.IPRateLimitMiddleware())
	r.POST("/predict", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	do := func(method, path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		req.RemoteAddr = "203.0.113.7:1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := do(http.MethodPost, "/predict")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))

	assert.Equal(t, http.StatusOK, do(http.MethodPost, "/predict").Code)

	blocked := do(http.MethodPost, "/predict")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.NotEmpty(t, blocked.Header().Get("Retry-After"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(blocked.Body.Bytes(), &body))
	assert.Equal(t, "rate_limit", body["category"])

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, do(http.MethodGet, "/health").Code, "GET is not limited")
	}
	assert.Equal(t, int64(1), m.blocks)
}

func TestHandleRateLimitStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := newTestLimiter(t, 60, nil)

	r := gin.New()
	r.GET("/ratelimit/status", rl.HandleRateLimitStatus())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ratelimit/status", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "memory", body["backend"])

	limits := body["limits"].(map[string]interface{})
	perMin := limits["ip_per_minute"].(map[string]interface{})
	assert.Equal(t, float64(60), perMin["limit"])
}
