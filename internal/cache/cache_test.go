package cache

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingMetrics struct {
	hits, misses int64
}

func (m *countingMetrics) IncrementCacheHit()  { atomic.AddInt64(&m.hits, 1) }
func (m *countingMetrics) IncrementCacheMiss() { atomic.AddInt64(&m.misses, 1) }

func TestCache_GetSet(t *testing.T) {
	c := NewCache(time.Minute, time.Minute)
	defer c.Close()

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("k", []byte("v"))
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)
	assert.Equal(t, 1, c.Stats()["active_items"])
}

func TestCache_Expiry(t *testing.T) {
	c := NewCache(time.Minute, time.Hour)
	defer c.Close()

	c.SetWithTTL("short", []byte("x"), 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	stats := c.Stats()
	assert.Equal(t, 1, stats["expired_items"])

	_, ok := c.Get("short")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Stats()["total_items"])
}

func TestCache_Sweep(t *testing.T) {
	c := NewCache(time.Minute, time.Hour)
	defer c.Close()

	c.SetWithTTL("a", []byte("1"), time.Nanosecond)
	c.Set("b", []byte("2"))
	time.Sleep(time.Millisecond)
	c.sweep()

	stats := c.Stats()
	assert.Equal(t, 1, stats["total_items"])
	assert.Equal(t, 1, stats["active_items"])
}

func TestCache_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c := NewCache(time.Minute, time.Minute)
	defer c.Close()
	m := &countingMetrics{}

	var handled int64
	r := gin.New()
	r.Use(c.Middleware(m, "/explain"))
	r.POST("/explain", func(ctx *gin.Context) {
		atomic.AddInt64(&handled, 1)
		if strings.Contains(ctx.GetHeader("X-Fail"), "yes") {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "bad"})
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"total_score": 0.1})
	})
	r.POST("/chat", func(ctx *gin.Context) {
		atomic.AddInt64(&handled, 1)
		ctx.JSON(http.StatusOK, gin.H{"response": "hi"})
	})

	post := func(path, body string, fail bool) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		if fail {
			req.Header.Set("X-Fail", "yes")
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	first := post("/explain", `{"wins":13}`, false)
	second := post("/explain", `{"wins":13}`, false)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, int64(1), atomic.LoadInt64(&handled))

	post("/explain", `{"wins":14}`, false)
	assert.Equal(t, int64(2), atomic.LoadInt64(&handled))

	post("/explain", `{"wins":1}`, true)
	post("/explain", `{"wins":1}`, true)
	assert.Equal(t, int64(4), atomic.LoadInt64(&handled), "errors are not cached")

	post("/chat", `{"message":"hi"}`, false)
	post("/chat", `{"message":"hi"}`, false)
	assert.Equal(t, int64(6), atomic.LoadInt64(&handled), "unlisted paths bypass the cache")

	assert.Equal(t, int64(1), m.hits)
	assert.Equal(t, int64(4), m.misses)
}
