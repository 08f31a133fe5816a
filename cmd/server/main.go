package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sony/gobreaker"

	"github.com/ZanzyTHEbar/mvp-o-meter/internal/adapters"
	"github.com/ZanzyTHEbar/mvp-o-meter/internal/analysis"
	"github.com/ZanzyTHEbar/mvp-o-meter/internal/cache"
	"github.com/ZanzyTHEbar/mvp-o-meter/internal/chat"
	"github.com/ZanzyTHEbar/mvp-o-meter/internal/config"
	"github.com/ZanzyTHEbar/mvp-o-meter/internal/dataset"
	"github.com/ZanzyTHEbar/mvp-o-meter/internal/errors"
	"github.com/ZanzyTHEbar/mvp-o-meter/internal/middleware"
	"github.com/ZanzyTHEbar/mvp-o-meter/internal/monitoring"
	"github.com/ZanzyTHEbar/mvp-o-meter/internal/predictor"
	"github.com/ZanzyTHEbar/mvp-o-meter/internal/ratelimit"
	"github.com/ZanzyTHEbar/mvp-o-meter/internal/resilience"
)

const (
	version          = "1.0.0"
	predictorTimeout = 10 * time.Second
	shutdownTimeout  = 30 * time.Second
)

// @title       MVP-o-Meter API
// @version     1.0
// @description Compares quarterback season lines against Josh Allen's 2024 MVP season and answers questions about them.
// @BasePath    /
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	appLogger := monitoring.NewLogger(cfg.SlogLevel())
	slog.SetDefault(appLogger.Logger)
	gin.SetMode(cfg.GinMode)

	srv := newServer(context.Background(), cfg, appLogger)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           setupRouter(srv),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Starting server", "port", cfg.Port, "chat_llm", cfg.ChatEnabled(),
			"remote_predictor", cfg.Model.PredictorURL != "", "rate_limit_backend", srv.limiter.Backend())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}
	srv.Close()

	slog.Info("Server exited")
}

// newServer wires every collaborator from cfg. Optional dependencies that
// fail to come up (Redis, the dataset) are logged and replaced by their
// in-memory or empty equivalents.
func newServer(ctx context.Context, cfg *config.Config, logger *monitoring.Logger) *server {
	metrics := monitoring.NewMetrics()

	breakers := resilience.NewRegistry(logger.Logger, func(name string, state gobreaker.State) {
		metrics.SetBreakerState(name, int(state))
	})

	redisClient, err := ratelimit.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Warn("Redis unavailable, continuing with in-memory stores", "error", err)
	}

	limiterCfg := ratelimit.DefaultConfig()
	limiterCfg.IPLimitPerMin = cfg.RateLimitPerMin
	limiter := ratelimit.NewRateLimiter(redisClient, limiterCfg, metrics)

	responseCache := cache.NewCache(cfg.CacheTTL, time.Minute)

	explainer := analysis.NewExplainer(analysis.WithClampPolicy(cfg.Clamp()))

	var predict predictor.Predictor = predictor.NewBaselinePredictor(explainer, cfg.Model.Threshold)
	if cfg.Model.PredictorURL != "" {
		predict = &predictor.Fallback{
			Primary: adapters.NewRemotePredictor(cfg.Model.PredictorURL, cfg.Model.Threshold,
				predictorTimeout, breakers, metrics, logger),
			Secondary: predict,
			Logger:    logger.Logger,
		}
	}

	var (
		sessions     chat.SessionStore
		budget       chat.Budget
		sessionCache *cache.Cache
	)
	if redisClient.IsEnabled() {
		sessions = chat.NewRedisSessionStore(redisClient.GetClient(), cfg.Chat.SessionTTL)
		budget = chat.NewRedisBudget(redisClient.GetClient(), cfg.Chat.MaxCalls, cfg.Chat.BudgetWindow, logger.Logger)
	} else {
		sessionCache = cache.NewCache(cfg.Chat.SessionTTL, time.Minute)
		sessions = chat.NewMemorySessionStore(sessionCache)
		budget = chat.NewMemoryBudget(cfg.Chat.MaxCalls, cfg.Chat.BudgetWindow)
	}

	opts := []chat.Option{
		chat.WithBudget(&meteredBudget{Budget: budget, metrics: metrics}),
		chat.WithLogger(logger.Logger),
	}
	if cfg.ChatEnabled() {
		llm := adapters.NewOpenAIAdapter(adapters.OpenAIConfig{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.Model,
			Timeout: cfg.OpenAI.Timeout,
		}, breakers, metrics, logger)
		opts = append(opts, chat.WithRewriter(llm), chat.WithAnswerer(llm))
	} else {
		logger.SystemLogger("chat_llm_disabled", "OPENAI_API_KEY not set, chat replies are not rewritten")
	}

	data, err := dataset.Load(cfg.DataFile)
	if err != nil {
		logger.Warn("Dataset unavailable, /data will report a configuration error",
			"path", cfg.DataFile, "error", err)
	}

	return &server{
		cfg:          cfg,
		explainer:    explainer,
		predictor:    predict,
		chat:         chat.NewRouter(explainer, sessions, opts...),
		data:         data,
		metrics:      metrics,
		logger:       logger,
		breakers:     breakers,
		limiter:      limiter,
		cache:        responseCache,
		sessionCache: sessionCache,
		compression:  middleware.NewCompressionMiddleware(middleware.DefaultCompressionConfig()),
		redis:        redisClient,
	}
}

// Close releases background workers and connections.
func (s *server) Close() {
	errors.SafeClose(s.limiter, "rate limiter")
	errors.SafeClose(s.cache, "response cache")
	if s.sessionCache != nil {
		errors.SafeClose(s.sessionCache, "session cache")
	}
	if s.redis.IsEnabled() {
		errors.SafeClose(s.redis, "redis client")
	}
}

// meteredBudget counts chat calls refused because the budget ran out.
type meteredBudget struct {
	chat.Budget
	metrics *monitoring.Metrics
}

func (b *meteredBudget) Acquire(ctx context.Context) bool {
	if b.Budget.Acquire(ctx) {
		return true
	}
	b.metrics.RecordLLMCall("chat", "budget")
	return false
}
