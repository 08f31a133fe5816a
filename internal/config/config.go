package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/ZanzyTHEbar/mvp-o-meter/internal/analysis"
	"github.com/ZanzyTHEbar/mvp-o-meter/internal/errors"
)

// Config is the process configuration, read from the environment.
type Config struct {
	Port               string        `env:"PORT" envDefault:"5001"`
	GinMode            string        `env:"GIN_MODE" envDefault:"release"`
	LogLevel           string        `env:"LOG_LEVEL" envDefault:"info"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	RequestTimeout     time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`

	OpenAI OpenAIConfig
	Chat   ChatConfig
	Model  ModelConfig
	Redis  RedisConfig

	DataFile        string        `env:"DATA_FILE" envDefault:"filtered_data.json"`
	RateLimitPerMin int           `env:"RATE_LIMIT_PER_MIN" envDefault:"60"`
	CacheTTL        time.Duration `env:"CACHE_TTL" envDefault:"15m"`
}

type OpenAIConfig struct {
	APIKey  string        `env:"OPENAI_API_KEY"`
	BaseURL string        `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	Model   string        `env:"OPENAI_MODEL" envDefault:"gpt-3.5-turbo"`
	Timeout time.Duration `env:"OPENAI_TIMEOUT" envDefault:"20s"`
}

type ChatConfig struct {
	MaxCalls     int           `env:"CHAT_MAX_CALLS" envDefault:"100"`
	BudgetWindow time.Duration `env:"CHAT_BUDGET_WINDOW" envDefault:"24h"`
	SessionTTL   time.Duration `env:"SESSION_TTL" envDefault:"1h"`
}

type ModelConfig struct {
	PredictorURL string  `env:"PREDICTOR_URL"`
	Threshold    float64 `env:"MVP_THRESHOLD" envDefault:"0.5"`
	ClampPolicy  string  `env:"CLAMP_POLICY" envDefault:"asymmetric"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err == nil {
		slog.Debug("Loaded .env file")
	}
	return Parse()
}

// Parse reads configuration from the process environment only.
func Parse() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, errors.NewConfigurationError("failed to parse environment", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the server cannot run with.
func (c *Config) Validate() error {
	problems := map[string]string{}

	if strings.TrimSpace(c.Port) == "" {
		problems["PORT"] = "must not be empty"
	}
	if c.Model.Threshold < 0 || c.Model.Threshold > 1 {
		problems["MVP_THRESHOLD"] = "must be within [0, 1]"
	}
	if _, err := analysis.ParseClampPolicy(c.Model.ClampPolicy); err != nil {
		problems["CLAMP_POLICY"] = err.Error()
	}
	if c.Chat.MaxCalls < 0 {
		problems["CHAT_MAX_CALLS"] = "must not be negative"
	}
	if c.Chat.BudgetWindow <= 0 {
		problems["CHAT_BUDGET_WINDOW"] = "must be positive"
	}
	if c.Chat.SessionTTL <= 0 {
		problems["SESSION_TTL"] = "must be positive"
	}
	if c.RateLimitPerMin <= 0 {
		problems["RATE_LIMIT_PER_MIN"] = "must be positive"
	}
	if c.CacheTTL <= 0 {
		problems["CACHE_TTL"] = "must be positive"
	}
	if c.RequestTimeout <= 0 {
		problems["REQUEST_TIMEOUT"] = "must be positive"
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		problems["LOG_LEVEL"] = "must be one of debug, info, warn, error"
	}

	if len(problems) == 0 {
		return nil
	}

	return errors.NewAppError(errors.CategoryConfiguration,
		fmt.Sprintf("invalid configuration (%d problems)", len(problems)), nil, problems)
}

// Clamp returns the parsed clamp policy. Validate has already vetted it.
func (c *Config) Clamp() analysis.ClampPolicy {
	p, _ := analysis.ParseClampPolicy(c.Model.ClampPolicy)
	return p
}

// SlogLevel maps LOG_LEVEL onto a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// AllowAllOrigins reports whether CORS is open to every origin.
func (c *Config) AllowAllOrigins() bool {
	for _, o := range c.CORSAllowedOrigins {
		if strings.TrimSpace(o) == "*" {
			return true
		}
	}
	return len(c.CORSAllowedOrigins) == 0
}

// ChatEnabled reports whether an LLM key is configured.
func (c *Config) ChatEnabled() bool {
	return c.OpenAI.APIKey != ""
}
