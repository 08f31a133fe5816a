package main

import (
	stderrors "errors"
	"fmt"
	"math"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/ZanzyTHEbar/mvp-o-meter/docs"
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
	"github.com/ZanzyTHEbar/mvp-o-meter/internal/security"
	"github.com/ZanzyTHEbar/mvp-o-meter/internal/types"
)

const (
	rootBanner      = "NFL Award Predictor API is running."
	sessionIDHeader = "X-Session-ID"
)

type server struct {
	cfg       *config.Config
	explainer *analysis.Explainer
	predictor predictor.Predictor
	chat      *chat.Router
	data      *dataset.Dataset // nil when the data file could not be loaded

	metrics  *monitoring.Metrics
	logger   *monitoring.Logger
	breakers *resilience.Registry
	limiter  *ratelimit.RateLimiter

	cache        *cache.Cache
	sessionCache *cache.Cache
	compression  *middleware.CompressionMiddleware
	redis        *ratelimit.RedisClient
}

var registerValidators sync.Once

// profileValidator returns gin's validator with the feature key rule installed.
func profileValidator() *validator.Validate {
	v, _ := binding.Validator.Engine().(*validator.Validate)
	registerValidators.Do(func() {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("mvpfeature", func(fl validator.FieldLevel) bool {
			return analysis.IsFeature(fl.Field().String())
		})
	})
	return v
}

func setupRouter(s *server) *gin.Engine {
	validate := profileValidator()

	r := gin.New()

	r.Use(monitoring.RequestIDMiddleware())
	r.Use(errors.RecoveryHandler())
	r.Use(monitoring.MonitoringMiddleware(s.metrics, s.logger))
	r.Use(monitoring.SecurityMonitoringMiddleware(s.logger))
	r.Use(errors.ErrorHandler())
	r.Use(security.SecurityHeadersMiddleware(s.cfg.GinMode == gin.ReleaseMode))
	r.Use(cors.New(corsConfig(s.cfg)))
	r.Use(security.RequestTimeout(s.cfg.RequestTimeout))
	r.Use(security.ValidateContentType())
	r.Use(s.limiter.IPRateLimitMiddleware())
	r.Use(s.cache.Middleware(s.metrics, "/explain", "/suggest"))

	r.GET("/", s.handleRoot)
	r.GET("/health", s.handleHealth)
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	r.GET("/ratelimit/status", s.limiter.HandleRateLimitStatus())
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.POST("/predict", s.handlePredict(validate))
	r.POST("/explain", s.handleExplain(validate))
	r.POST("/suggest", s.handleSuggest(validate))
	r.POST("/chat", s.handleChat)
	r.GET("/data", s.compression.Handler(), s.handleData)

	return r
}

func corsConfig(cfg *config.Config) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", monitoring.RequestIDHeader, sessionIDHeader},
		ExposeHeaders: []string{monitoring.RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After", "X-Cache"},
		MaxAge:        12 * time.Hour,
	}
	if cfg.AllowAllOrigins() {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cfg.CORSAllowedOrigins
	}
	return c
}

// handleRoot godoc
// @Summary  Liveness banner
// @Tags     system
// @Produce  plain
// @Success  200 {string} string
// @Router   / [get]
func (s *server) handleRoot(c *gin.Context) {
	c.String(http.StatusOK, rootBanner)
}

// handleHealth godoc
// @Summary  Service health, dependency status and circuit breaker states
// @Tags     system
// @Produce  json
// @Success  200 {object} types.HealthResponse
// @Router   /health [get]
func (s *server) handleHealth(c *gin.Context) {
	services := map[string]string{
		"predictor": predictor.SourceBaseline,
		"llm":       "disabled",
		"redis":     "disabled",
		"dataset":   "missing",
	}
	if s.cfg.Model.PredictorURL != "" {
		services["predictor"] = predictor.SourceRemote
		if !s.breakers.Available(adapters.PredictorBreaker) {
			services["predictor"] = "circuit_open"
		}
	}
	if s.cfg.ChatEnabled() {
		services["llm"] = "enabled"
		if !s.breakers.Available(adapters.OpenAIBreaker) {
			services["llm"] = "circuit_open"
		}
	}
	if s.data != nil {
		services["dataset"] = "loaded"
	}

	status := "ok"
	if s.redis.IsEnabled() {
		services["redis"] = "ok"
		if err := s.redis.HealthCheck(c.Request.Context()); err != nil {
			services["redis"] = "error"
			status = "degraded"
		}
	}
	if s.breakers.AnyOpen() {
		status = "degraded"
	}

	stats := s.metrics.GetStats()
	stats["compression"] = s.compression.GetStats()
	stats["response_cache"] = s.cache.Stats()

	c.JSON(http.StatusOK, types.HealthResponse{
		Status:    status,
		Timestamp: time.Now().Format(time.RFC3339),
		Version:   version,
		Services:  services,
		Breakers:  s.breakers.GetStats(),
		Metrics:   stats,
	})
}

// bindProfile decodes the request body into a profile and rejects unknown
// feature keys. It writes the error response itself and reports false.
func bindProfile(c *gin.Context, validate *validator.Validate) (analysis.Profile, bool) {
	var profile analysis.Profile
	if err := c.ShouldBindJSON(&profile); err != nil {
		errors.Respond(c, errors.NewValidationError("Invalid request body", "expected a JSON object of numeric season totals"))
		return nil, false
	}

	if err := validate.Var(profile, types.ProfileTag); err != nil {
		errors.Respond(c, errors.NewValidationErrorWithMap(invalidFeatures(profile)))
		return nil, false
	}

	if profile == nil {
		profile = analysis.Profile{}
	}
	return profile, true
}

func invalidFeatures(profile analysis.Profile) map[string]string {
	details := make(map[string]string)
	for key, value := range profile {
		switch {
		case !analysis.IsFeature(key):
			details[key] = "unknown feature"
		case math.Abs(value) > types.MaxStatValue:
			details[key] = "out of range"
		}
	}
	return details
}

// handlePredict godoc
// @Summary  Predict whether a season line wins MVP
// @Tags     mvp
// @Accept   json
// @Produce  json
// @Param    profile body analysis.Profile true "Season totals keyed by feature"
// @Success  200 {object} types.PredictResponse
// @Failure  400 {object} errors.AppError
// @Failure  429 {object} errors.AppError
// @Router   /predict [post]
func (s *server) handlePredict(validate *validator.Validate) gin.HandlerFunc {
	return func(c *gin.Context) {
		profile, ok := bindProfile(c, validate)
		if !ok {
			return
		}

		start := time.Now()
		prediction, err := s.predictor.Predict(c.Request.Context(), profile)
		if err != nil {
			errors.Respond(c, errors.ToAppError(err))
			return
		}

		s.metrics.RecordExplain("predict")
		s.logger.ExplainLogger("predict", len(profile), 0, prediction.Probability, time.Since(start))

		c.JSON(http.StatusOK, types.PredictResponse{
			Probability: prediction.Probability,
			MVP:         prediction.MVP,
			Label:       prediction.Label,
			Source:      prediction.Source,
		})
	}
}

// handleExplain godoc
// @Summary  Compare a season line against Josh Allen's 2024 MVP season
// @Tags     mvp
// @Accept   json
// @Produce  json
// @Param    profile body analysis.Profile true "Season totals keyed by feature"
// @Success  200 {object} analysis.Explanation
// @Failure  400 {object} errors.AppError
// @Router   /explain [post]
func (s *server) handleExplain(validate *validator.Validate) gin.HandlerFunc {
	return func(c *gin.Context) {
		profile, ok := bindProfile(c, validate)
		if !ok {
			return
		}

		start := time.Now()
		ex := s.explainer.Explain(profile)

		s.metrics.RecordExplain("explain")
		s.logger.ExplainLogger("explain", len(profile), ex.TotalScore, ex.PredictionProbability, time.Since(start))

		c.JSON(http.StatusOK, ex)
	}
}

// handleSuggest godoc
// @Summary  Top improvement suggestions for a season line
// @Tags     mvp
// @Accept   json
// @Produce  json
// @Param    profile body analysis.Profile true "Season totals keyed by feature"
// @Success  200 {object} types.SuggestResponse
// @Failure  400 {object} errors.AppError
// @Router   /suggest [post]
func (s *server) handleSuggest(validate *validator.Validate) gin.HandlerFunc {
	return func(c *gin.Context) {
		profile, ok := bindProfile(c, validate)
		if !ok {
			return
		}

		start := time.Now()
		ex := s.explainer.Explain(profile)
		suggestions := analysis.SuggestionsFrom(ex)

		s.metrics.RecordExplain("suggest")
		s.logger.ExplainLogger("suggest", len(profile), ex.TotalScore, ex.PredictionProbability, time.Since(start))

		c.JSON(http.StatusOK, types.SuggestResponse{Suggestions: suggestions})
	}
}

// handleChat godoc
// @Summary  Ask about the last submitted season line
// @Tags     chat
// @Accept   json
// @Produce  json
// @Param    request body types.ChatRequest true "Chat message"
// @Success  200 {object} chat.Reply
// @Failure  400 {object} errors.AppError
// @Router   /chat [post]
func (s *server) handleChat(c *gin.Context) {
	var req types.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.Respond(c, bindingError(err))
		return
	}

	if err := security.ValidateMessage(req.Message, security.DefaultMaxMessageLength); err != nil {
		errors.Respond(c, errors.NewValidationError("Invalid message", err.Error()))
		return
	}
	message := security.SanitizeMessage(req.Message)
	if message == "" {
		errors.Respond(c, errors.NewValidationError("Invalid message", "message must not be empty"))
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = c.GetHeader(sessionIDHeader)
	}
	if sessionID == "" {
		sessionID = c.ClientIP()
	}

	start := time.Now()
	reply := s.chat.HandleMessage(c.Request.Context(), chat.Request{
		Message:        message,
		PredictionData: req.PredictionData,
		SessionID:      sessionID,
	})

	s.metrics.RecordChatReply(string(reply.Type))
	s.logger.ChatLogger(sessionID, string(chat.ClassifyIntent(message)), string(reply.Type),
		len(message), len(req.PredictionData) > 0, time.Since(start))

	c.JSON(http.StatusOK, reply)
}

// bindingError turns binding failures into a validation error keyed by field.
func bindingError(err error) *errors.AppError {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.NewValidationError("Invalid request body", err.Error())
	}

	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "mvpfeature":
			details[fe.Field()] = "unknown feature"
		case "gte", "lte":
			details[fe.Field()] = "out of range"
		default:
			details[fe.Field()] = fmt.Sprintf("failed on %s", fe.Tag())
		}
	}
	return errors.NewValidationErrorWithMap(details)
}

// handleData godoc
// @Summary  Historical quarterback seasons
// @Tags     data
// @Produce  json
// @Param    mvp query string false "1 to return MVP seasons only"
// @Success  200 {array}  dataset.Record
// @Failure  503 {object} errors.AppError
// @Router   /data [get]
func (s *server) handleData(c *gin.Context) {
	if s.data == nil {
		errors.Respond(c, errors.NewConfigurationError("historical dataset is not loaded", nil))
		return
	}

	records := s.data.All()
	if mvp := c.Query("mvp"); mvp == "1" || strings.EqualFold(mvp, "true") {
		records = s.data.MVPs()
	}

	c.JSON(http.StatusOK, records)
}
