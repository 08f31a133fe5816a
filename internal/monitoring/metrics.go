package monitoring

import (
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mvp"

// Metrics holds application metrics. Counters are mirrored into a private
// Prometheus registry served on /metrics, and kept as plain atomics for the
// JSON summary on /health.
type Metrics struct {
	RequestCount        int64
	ErrorCount          int64
	CacheHits           int64
	CacheMisses         int64
	ExplainCount        int64
	ChatCount           int64
	LLMCalls            int64
	AverageResponseTime int64 // in nanoseconds
	RateLimitIPBlocks   int64
	RateLimitRedisErrs  int64
	RateLimitFallbacks  int64
	StartTime           time.Time

	externalMu     sync.RWMutex
	externalCalls  map[string]int64
	externalErrors map[string]int64

	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	explains        *prometheus.CounterVec
	chatReplies     *prometheus.CounterVec
	llmCalls        *prometheus.CounterVec
	externalAPI     *prometheus.CounterVec
	cache           *prometheus.CounterVec
	rateLimit       *prometheus.CounterVec
	breakerState    *prometheus.GaugeVec
}

// NewMetrics creates a new metrics instance with its own registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		StartTime:      time.Now(),
		externalCalls:  make(map[string]int64),
		externalErrors: make(map[string]int64),
		registry:       prometheus.NewRegistry(),

		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		explains: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "explanations_total",
			Help:      "Profiles explained, by entry point.",
		}, []string{"source"}),
		chatReplies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_replies_total",
			Help:      "Chat replies by reply type.",
		}, []string{"type"}),
		llmCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_calls_total",
			Help:      "Language model calls by operation and outcome.",
		}, []string{"operation", "outcome"}),
		externalAPI: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "external_api_requests_total",
			Help:      "Outbound API requests by API and result.",
		}, []string{"api", "result"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "response_cache_total",
			Help:      "Response cache lookups by result.",
		}, []string{"result"}),
		rateLimit: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_events_total",
			Help:      "Rate limiter blocks, backend errors and fallbacks.",
		}, []string{"event"}),
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state per dependency (0 closed, 1 half-open, 2 open).",
		}, []string{"name"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.requestDuration,
		m.explains,
		m.chatReplies,
		m.llmCalls,
		m.externalAPI,
		m.cache,
		m.rateLimit,
		m.breakerState,
	)

	return m
}

// Registry exposes the private registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(route, method string, status int, duration time.Duration) {
	atomic.AddInt64(&m.RequestCount, 1)
	if status >= 400 {
		atomic.AddInt64(&m.ErrorCount, 1)
	}

	current := atomic.LoadInt64(&m.AverageResponseTime)
	atomic.StoreInt64(&m.AverageResponseTime, (current+duration.Nanoseconds())/2)

	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// IncrementCacheHit increments cache hit count
func (m *Metrics) IncrementCacheHit() {
	atomic.AddInt64(&m.CacheHits, 1)
	m.cache.WithLabelValues("hit").Inc()
}

// IncrementCacheMiss increments cache miss count
func (m *Metrics) IncrementCacheMiss() {
	atomic.AddInt64(&m.CacheMisses, 1)
	m.cache.WithLabelValues("miss").Inc()
}

// RecordExplain counts an explanation computed for source (explain, suggest, predict, chat).
func (m *Metrics) RecordExplain(source string) {
	atomic.AddInt64(&m.ExplainCount, 1)
	m.explains.WithLabelValues(source).Inc()
}

// RecordChatReply counts a chat reply of the given type.
func (m *Metrics) RecordChatReply(replyType string) {
	atomic.AddInt64(&m.ChatCount, 1)
	m.chatReplies.WithLabelValues(replyType).Inc()
}

// RecordLLMCall counts a language model call. outcome is ok, error, skipped or budget.
func (m *Metrics) RecordLLMCall(operation, outcome string) {
	if outcome == "ok" || outcome == "error" {
		atomic.AddInt64(&m.LLMCalls, 1)
	}
	m.llmCalls.WithLabelValues(operation, outcome).Inc()
}

// RecordExternalAPIRequest records an external API request
func (m *Metrics) RecordExternalAPIRequest(apiName string, success bool) {
	m.externalMu.Lock()
	m.externalCalls[apiName]++
	if !success {
		m.externalErrors[apiName]++
	}
	m.externalMu.Unlock()

	result := "success"
	if !success {
		result = "failure"
	}
	m.externalAPI.WithLabelValues(apiName, result).Inc()
}

// SetBreakerState publishes a breaker state as 0 closed, 1 half-open or 2 open.
func (m *Metrics) SetBreakerState(name string, state int) {
	m.breakerState.WithLabelValues(name).Set(float64(state))
}

// IncrementRateLimitIPBlock increments IP-based rate limit blocks
func (m *Metrics) IncrementRateLimitIPBlock() {
	atomic.AddInt64(&m.RateLimitIPBlocks, 1)
	m.rateLimit.WithLabelValues("ip_block").Inc()
}

// IncrementRateLimitRedisError increments Redis error count for rate limiting
func (m *Metrics) IncrementRateLimitRedisError() {
	atomic.AddInt64(&m.RateLimitRedisErrs, 1)
	m.rateLimit.WithLabelValues("redis_error").Inc()
}

// IncrementRateLimitFallback increments fallback rate limiter usage count
func (m *Metrics) IncrementRateLimitFallback() {
	atomic.AddInt64(&m.RateLimitFallbacks, 1)
	m.rateLimit.WithLabelValues("fallback").Inc()
}

// GetExternalAPIStats returns external API statistics
func (m *Metrics) GetExternalAPIStats() map[string]interface{} {
	m.externalMu.RLock()
	defer m.externalMu.RUnlock()

	stats := make(map[string]interface{}, len(m.externalCalls))
	for api, requests := range m.externalCalls {
		errs := m.externalErrors[api]
		errorRate := float64(0)
		if requests > 0 {
			errorRate = float64(errs) / float64(requests) * 100
		}

		stats[api] = map[string]interface{}{
			"requests":   requests,
			"errors":     errs,
			"error_rate": errorRate,
		}
	}
	return stats
}

// GetStats returns current metrics statistics
func (m *Metrics) GetStats() map[string]interface{} {
	requests := atomic.LoadInt64(&m.RequestCount)
	errs := atomic.LoadInt64(&m.ErrorCount)
	cacheHits := atomic.LoadInt64(&m.CacheHits)
	cacheMisses := atomic.LoadInt64(&m.CacheMisses)

	errorRate := float64(0)
	if requests > 0 {
		errorRate = float64(errs) / float64(requests) * 100
	}

	cacheHitRate := float64(0)
	if total := cacheHits + cacheMisses; total > 0 {
		cacheHitRate = float64(cacheHits) / float64(total) * 100
	}

	return map[string]interface{}{
		"uptime_seconds":         time.Since(m.StartTime).Seconds(),
		"total_requests":         requests,
		"error_count":            errs,
		"error_rate_percent":     errorRate,
		"cache_hits":             cacheHits,
		"cache_misses":           cacheMisses,
		"cache_hit_rate_percent": cacheHitRate,
		"explanations":           atomic.LoadInt64(&m.ExplainCount),
		"chat_replies":           atomic.LoadInt64(&m.ChatCount),
		"llm_calls":              atomic.LoadInt64(&m.LLMCalls),
		"avg_response_time_ms":   float64(atomic.LoadInt64(&m.AverageResponseTime)) / 1e6,
		"external_api_stats":     m.GetExternalAPIStats(),
		"rate_limit_ip_blocks":   atomic.LoadInt64(&m.RateLimitIPBlocks),
		"rate_limit_fallbacks":   atomic.LoadInt64(&m.RateLimitFallbacks),
		"start_time":             m.StartTime.Format(time.RFC3339),
	}
}
