package predictor

import (
	"context"
	"log/slog"

	"github.com/ZanzyTHEbar/mvp-o-meter/internal/analysis"
)

const (
	LabelMVP    = "MVP"
	LabelNotMVP = "Not MVP"

	SourceBaseline = "baseline"
	SourceRemote   = "remote"
)

// Prediction is the MVP verdict for one profile.
type Prediction struct {
	Probability float64 `json:"probability"`
	MVP         bool    `json:"mvp"`
	Label       string  `json:"label"`
	Source      string  `json:"source"`
}

// Predictor turns a stat line into an MVP verdict.
type Predictor interface {
	Predict(ctx context.Context, profile analysis.Profile) (Prediction, error)
}

// NewPrediction labels probability against threshold.
func NewPrediction(probability, threshold float64, source string) Prediction {
	p := Prediction{
		Probability: probability,
		MVP:         probability >= threshold,
		Source:      source,
	}
	p.Label = LabelNotMVP
	if p.MVP {
		p.Label = LabelMVP
	}
	return p
}

// BaselinePredictor uses the explainer's probability against the baseline season.
type BaselinePredictor struct {
	explainer *analysis.Explainer
	threshold float64
}

// NewBaselinePredictor creates a predictor over explainer.
func NewBaselinePredictor(explainer *analysis.Explainer, threshold float64) *BaselinePredictor {
	return &BaselinePredictor{explainer: explainer, threshold: threshold}
}

// Predict never fails.
func (b *BaselinePredictor) Predict(_ context.Context, profile analysis.Profile) (Prediction, error) {
	ex := b.explainer.Explain(profile)
	return NewPrediction(ex.PredictionProbability, b.threshold, SourceBaseline), nil
}

// Fallback tries Primary and answers from Secondary when it fails.
type Fallback struct {
	Primary   Predictor
	Secondary Predictor
	Logger    *slog.Logger
}

// Predict implements Predictor.
func (f *Fallback) Predict(ctx context.Context, profile analysis.Profile) (Prediction, error) {
	p, err := f.Primary.Predict(ctx, profile)
	if err == nil {
		return p, nil
	}
	if ctx.Err() != nil {
		return Prediction{}, ctx.Err()
	}

	logger := f.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("Primary predictor failed, using fallback", "error", err)

	return f.Secondary.Predict(ctx, profile)
}
