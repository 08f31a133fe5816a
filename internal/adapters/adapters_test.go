package adapters

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/mvp-o-meter/internal/analysis"
	"github.com/ZanzyTHEbar/mvp-o-meter/internal/monitoring"
	"github.com/ZanzyTHEbar/mvp-o-meter/internal/predictor"
	"github.com/ZanzyTHEbar/mvp-o-meter/internal/resilience"
)

func newOpenAI(t *testing.T, handler http.HandlerFunc) (*OpenAIAdapter, *monitoring.Metrics) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	metrics := monitoring.NewMetrics()
	adapter := NewOpenAIAdapter(OpenAIConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL + "/",
		Model:   "gpt-3.5-turbo",
		Timeout: 2 * time.Second,
	}, resilience.NewRegistry(nil, nil), metrics, monitoring.NewLoggerTo(io.Discard, slog.LevelError))
	return adapter, metrics
}

// completionRequest is the wire shape of a chat-completions request.
type completionRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

func completion(content string) string {
	body, _ := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	})
	return string(body)
}

func TestOpenAIAdapter_Answer(t *testing.T) {
	var got completionRequest
	adapter, metrics := newOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, completion("  Lamar Jackson won in 2019.  "))
	})

	answer, err := adapter.Answer(context.Background(), "who won in 2019?")
	require.NoError(t, err)
	assert.Equal(t, "Lamar Jackson won in 2019.", answer)

	assert.Equal(t, "gpt-3.5-turbo", got.Model)
	assert.Equal(t, 200, got.MaxTokens)
	assert.Equal(t, 0.7, got.Temperature)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, answerSystemPrompt, got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "who won in 2019?", got.Messages[1].Content)

	assert.Equal(t, int64(1), metrics.LLMCalls)
}

func TestOpenAIAdapter_Rewrite(t *testing.T) {
	var got completionRequest
	adapter, _ := newOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, completion("Nice work, keep throwing!"))
	})

	out := adapter.Rewrite(context.Background(), "why?", "Overall MVP Score: 0.10")
	assert.Equal(t, "Nice work, keep throwing!", out)

	assert.Equal(t, 300, got.MaxTokens)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Contains(t, got.Messages[0].Content, `Original question: "why?" Technical analysis: "Overall MVP Score: 0.10" `)
}

func TestOpenAIAdapter_RewriteFailsOpen(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		attempts int64
	}{
		{"server error is not retried", http.StatusInternalServerError, `{"error":{"message":"boom"}}`, 1},
		{"rate limited is not retried", http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`, 1},
		{"bad request", http.StatusBadRequest, `{"error":{"message":"bad"}}`, 1},
		{"empty choices", http.StatusOK, `{"choices":[]}`, 1},
		{"blank content", http.StatusOK, completion("   "), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int64
			adapter, _ := newOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt64(&calls, 1)
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			out := adapter.Rewrite(context.Background(), "why?", "technical text")
			assert.Equal(t, "technical text", out)
			assert.Equal(t, tt.attempts, atomic.LoadInt64(&calls))
		})
	}
}

func TestOpenAIAdapter_AnswerError(t *testing.T) {
	adapter, metrics := newOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"invalid key"}}`)
	})

	_, err := adapter.Answer(context.Background(), "hello")
	require.Error(t, err)

	var httpErr *resilience.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)

	stats := metrics.GetExternalAPIStats()["openai"].(map[string]interface{})
	assert.Equal(t, int64(1), stats["errors"])
}

func newRemote(t *testing.T, handler http.HandlerFunc) *RemotePredictor {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewRemotePredictor(srv.URL, 0.5, 2*time.Second, resilience.NewRegistry(nil, nil), nil, nil)
}

func TestRemotePredictor_Predict(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantProb  float64
		wantMVP   bool
		wantLabel string
	}{
		{"above threshold", `{"probability":0.8}`, 0.8, true, predictor.LabelMVP},
		{"below threshold", `{"probability":0.2}`, 0.2, false, predictor.LabelNotMVP},
		{"service verdict wins", `{"probability":0.3,"mvp":true}`, 0.3, true, predictor.LabelMVP},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var received analysis.Profile
			rp := newRemote(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
				_, _ = io.WriteString(w, tt.body)
			})

			p, err := rp.Predict(context.Background(), analysis.Profile{"wins": 14})
			require.NoError(t, err)
			assert.Equal(t, tt.wantProb, p.Probability)
			assert.Equal(t, tt.wantMVP, p.MVP)
			assert.Equal(t, tt.wantLabel, p.Label)
			assert.Equal(t, predictor.SourceRemote, p.Source)
			assert.Equal(t, analysis.Profile{"wins": 14}, received)
		})
	}
}

func TestRemotePredictor_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"missing probability", http.StatusOK, `{"mvp":true}`},
		{"out of range", http.StatusOK, `{"probability":1.5}`},
		{"malformed", http.StatusOK, `not json`},
		{"unavailable", http.StatusServiceUnavailable, `down`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rp := newRemote(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := rp.Predict(context.Background(), analysis.Profile{})
			assert.Error(t, err)
		})
	}
}

func TestRemotePredictor_FallsBackToBaseline(t *testing.T) {
	rp := newRemote(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	p := &predictor.Fallback{
		Primary:   rp,
		Secondary: predictor.NewBaselinePredictor(analysis.NewExplainer(), 0.5),
	}

	got, err := p.Predict(context.Background(), analysis.Profile{})
	require.NoError(t, err)
	assert.Equal(t, predictor.SourceBaseline, got.Source)
	assert.False(t, got.MVP)
}
