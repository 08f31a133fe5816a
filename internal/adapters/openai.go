package adapters

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	apperrors "github.com/ZanzyTHEbar/mvp-o-meter/internal/errors"
	"github.com/ZanzyTHEbar/mvp-o-meter/internal/monitoring"
	"github.com/ZanzyTHEbar/mvp-o-meter/internal/resilience"
)

const (
	// OpenAIBreaker names the circuit breaker guarding chat completions.
	OpenAIBreaker = "openai"

	rewriteMaxTokens = 300
	answerMaxTokens  = 200
	llmTemperature   = 0.7

	answerSystemPrompt = "You are an NFL MVP prediction expert. You help users understand MVP criteria and quarterback performance. Keep responses concise and focused on MVP-relevant topics. Use Josh Allen's 2024 MVP season as a reference point when relevant. If asked about non-NFL topics, politely redirect to MVP discussion."
)

func rewriteSystemPrompt(question, text string) string {
	return fmt.Sprintf("You are helping explain NFL MVP predictions using Josh Allen's 2024 MVP season as a baseline. "+
		"Take this technical analysis and make it more conversational and engaging while keeping all the key information. "+
		"Original question: \"%s\" Technical analysis: \"%s\" ", question, text)
}

// OpenAIConfig configures the OpenAI adapter.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// OpenAIAdapter rewrites and answers chat messages through the chat-completions API.
type OpenAIAdapter struct {
	client   openai.Client
	cfg      OpenAIConfig
	breakers *resilience.Registry
	metrics  *monitoring.Metrics
	logger   *monitoring.Logger
}

// NewOpenAIAdapter creates the adapter and registers its breaker in breakers.
// metrics and logger may be nil.
func NewOpenAIAdapter(cfg OpenAIConfig, breakers *resilience.Registry, metrics *monitoring.Metrics, logger *monitoring.Logger) *OpenAIAdapter {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/") + "/"

	// Single attempt: each upstream call spends one unit of the chat budget.
	breakers.Register(OpenAIBreaker, resilience.DefaultBreakerConfig(), resilience.NoRetryPolicy)

	return &OpenAIAdapter{
		client: openai.NewClient(
			option.WithAPIKey(cfg.APIKey),
			option.WithBaseURL(cfg.BaseURL),
			option.WithRequestTimeout(cfg.Timeout),
			option.WithMaxRetries(0),
		),
		cfg:      cfg,
		breakers: breakers,
		metrics:  metrics,
		logger:   logger,
	}
}

// Rewrite restyles text conversationally, returning text unchanged on any failure.
func (o *OpenAIAdapter) Rewrite(ctx context.Context, question, text string) string {
	out, err := o.complete(ctx, "rewrite", o.params(rewriteMaxTokens,
		openai.SystemMessage(rewriteSystemPrompt(question, text)),
	))
	if err != nil || strings.TrimSpace(out) == "" {
		return text
	}
	return out
}

// Answer answers a general MVP question.
func (o *OpenAIAdapter) Answer(ctx context.Context, question string) (string, error) {
	out, err := o.complete(ctx, "answer", o.params(answerMaxTokens,
		openai.SystemMessage(answerSystemPrompt),
		openai.UserMessage(question),
	))
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out) == "" {
		return "", fmt.Errorf("openai returned an empty answer")
	}
	return out, nil
}

func (o *OpenAIAdapter) params(maxTokens int64, messages ...openai.ChatCompletionMessageParamUnion) openai.ChatCompletionNewParams {
	return openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(o.cfg.Model),
		Messages:    messages,
		MaxTokens:   openai.Int(maxTokens),
		Temperature: openai.Float(llmTemperature),
	}
}

func (o *OpenAIAdapter) complete(ctx context.Context, operation string, req openai.ChatCompletionNewParams) (string, error) {
	start := time.Now()

	var content string
	err := o.breakers.Execute(ctx, OpenAIBreaker, func(ctx context.Context) error {
		out, err := o.send(ctx, req)
		if err != nil {
			return err
		}
		content = out
		return nil
	})

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	if o.metrics != nil {
		o.metrics.RecordLLMCall(operation, outcome)
		o.metrics.RecordExternalAPIRequest("openai", err == nil)
	}
	if o.logger != nil {
		status := http.StatusOK
		if err != nil {
			status = statusOf(err)
		}
		o.logger.ExternalAPILogger("openai", http.MethodPost, "/chat/completions", status, time.Since(start), err == nil)
	}

	if err != nil {
		return "", apperrors.NewExternalAPIError("OpenAI", err)
	}
	return content, nil
}

func (o *OpenAIAdapter) send(ctx context.Context, params openai.ChatCompletionNewParams) (string, error) {
	completion, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", resilience.NewHTTPError(apiErr.StatusCode, http.StatusText(apiErr.StatusCode), apiErr.Message)
		}
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("openai response has no choices")
	}

	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}
