package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ZanzyTHEbar/mvp-o-meter/internal/analysis"
	"github.com/ZanzyTHEbar/mvp-o-meter/internal/monitoring"
	"github.com/ZanzyTHEbar/mvp-o-meter/internal/predictor"
	"github.com/ZanzyTHEbar/mvp-o-meter/internal/resilience"
)

// PredictorBreaker names the circuit breaker guarding the remote model.
const PredictorBreaker = "predictor"

type remotePrediction struct {
	Probability *float64 `json:"probability"`
	MVP         *bool    `json:"mvp"`
}

// RemotePredictor asks an external model service for the MVP verdict.
type RemotePredictor struct {
	httpClient *http.Client
	url        string
	threshold  float64
	breakers   *resilience.Registry
	metrics    *monitoring.Metrics
	logger     *monitoring.Logger
}

// NewRemotePredictor posts profiles to url and registers its breaker in breakers.
// metrics and logger may be nil.
func NewRemotePredictor(url string, threshold float64, timeout time.Duration, breakers *resilience.Registry, metrics *monitoring.Metrics, logger *monitoring.Logger) *RemotePredictor {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	breakers.Register(PredictorBreaker, resilience.DefaultBreakerConfig(), resilience.FastRetryPolicy)

	return &RemotePredictor{
		httpClient: &http.Client{Timeout: timeout},
		url:        url,
		threshold:  threshold,
		breakers:   breakers,
		metrics:    metrics,
		logger:     logger,
	}
}

// Predict implements predictor.Predictor. When the service omits mvp it is
// derived from probability and the threshold.
func (r *RemotePredictor) Predict(ctx context.Context, profile analysis.Profile) (predictor.Prediction, error) {
	start := time.Now()

	var out remotePrediction
	err := r.breakers.Execute(ctx, PredictorBreaker, func(ctx context.Context) error {
		res, err := r.send(ctx, profile)
		if err != nil {
			return err
		}
		out = res
		return nil
	})

	if r.metrics != nil {
		r.metrics.RecordExternalAPIRequest(PredictorBreaker, err == nil)
	}
	if r.logger != nil {
		status := http.StatusOK
		if err != nil {
			status = statusOf(err)
		}
		r.logger.ExternalAPILogger(PredictorBreaker, http.MethodPost, r.url, status, time.Since(start), err == nil)
	}
	if err != nil {
		return predictor.Prediction{}, fmt.Errorf("remote predictor failed: %w", err)
	}

	p := predictor.NewPrediction(*out.Probability, r.threshold, predictor.SourceRemote)
	if out.MVP != nil && *out.MVP != p.MVP {
		p.MVP = *out.MVP
		p.Label = predictor.LabelNotMVP
		if p.MVP {
			p.Label = predictor.LabelMVP
		}
	}
	return p, nil
}

func (r *RemotePredictor) send(ctx context.Context, profile analysis.Profile) (remotePrediction, error) {
	body, err := json.Marshal(profile)
	if err != nil {
		return remotePrediction{}, fmt.Errorf("failed to marshal profile: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return remotePrediction{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return remotePrediction{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return remotePrediction{}, resilience.NewHTTPError(resp.StatusCode, resp.Status, string(raw))
	}

	var out remotePrediction
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return remotePrediction{}, fmt.Errorf("failed to decode prediction: %w", err)
	}
	if out.Probability == nil {
		return remotePrediction{}, errors.New("prediction response has no probability")
	}
	if *out.Probability < 0 || *out.Probability > 1 {
		return remotePrediction{}, fmt.Errorf("probability %v out of range", *out.Probability)
	}
	return out, nil
}

// statusOf extracts the upstream status code for logging, 502 when there is none.
func statusOf(err error) int {
	var httpErr *resilience.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return http.StatusBadGateway
}
