package types

import "github.com/ZanzyTHEbar/mvp-o-meter/internal/analysis"

// MaxStatValue bounds the magnitude of any submitted stat. Larger values
// overflow the percentage difference against the baseline.
const MaxStatValue = 1e9

// ProfileTag validates profile maps: every key must be a known feature and
// every value must lie within ±MaxStatValue.
const ProfileTag = "dive,keys,mvpfeature,endkeys,gte=-1e9,lte=1e9"

// PredictResponse is the body returned by POST /predict.
type PredictResponse struct {
	Probability float64 `json:"probability"`
	MVP         bool    `json:"mvp"`
	Label       string  `json:"label"`
	Source      string  `json:"source"`
}

// SuggestResponse is the body returned by POST /suggest.
type SuggestResponse struct {
	Suggestions []analysis.Suggestion `json:"suggestions"`
}

// ChatRequest is the body accepted by POST /chat.
type ChatRequest struct {
	Message        string           `json:"message" binding:"required,max=2000"`
	PredictionData analysis.Profile `json:"prediction_data" binding:"omitempty,dive,keys,mvpfeature,endkeys,gte=-1e9,lte=1e9"`
	SessionID      string           `json:"session_id" binding:"omitempty,max=128"`
}

// HealthResponse is the body returned by GET /health.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Version   string                 `json:"version"`
	Services  map[string]string      `json:"services"`
	Breakers  map[string]interface{} `json:"circuit_breakers"`
	Metrics   map[string]interface{} `json:"metrics"`
}
