package predictor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/mvp-o-meter/internal/analysis"
)

type mockPredictor struct {
	mock.Mock
}

func (m *mockPredictor) Predict(ctx context.Context, profile analysis.Profile) (Prediction, error) {
	args := m.Called(ctx, profile)
	return args.Get(0).(Prediction), args.Error(1)
}

func baselineProfile() analysis.Profile {
	p := analysis.Profile{}
	for _, f := range analysis.Features() {
		p[f.Key] = f.Baseline
	}
	return p
}

func TestNewPrediction(t *testing.T) {
	tests := []struct {
		name      string
		prob      float64
		threshold float64
		wantMVP   bool
		wantLabel string
	}{
		{"above", 0.8, 0.5, true, LabelMVP},
		{"at threshold", 0.5, 0.5, true, LabelMVP},
		{"below", 0.49, 0.5, false, LabelNotMVP},
		{"zero", 0, 0.5, false, LabelNotMVP},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPrediction(tt.prob, tt.threshold, SourceBaseline)
			assert.Equal(t, tt.wantMVP, p.MVP)
			assert.Equal(t, tt.wantLabel, p.Label)
			assert.Equal(t, tt.prob, p.Probability)
			assert.Equal(t, SourceBaseline, p.Source)
		})
	}
}

func TestBaselinePredictor(t *testing.T) {
	bp := NewBaselinePredictor(analysis.NewExplainer(), 0.5)

	p, err := bp.Predict(context.Background(), baselineProfile())
	require.NoError(t, err)
	assert.InDelta(t, 0.5, p.Probability, 1e-9)
	assert.True(t, p.MVP)

	p, err = bp.Predict(context.Background(), analysis.Profile{})
	require.NoError(t, err)
	assert.Zero(t, p.Probability)
	assert.False(t, p.MVP)
	assert.Equal(t, LabelNotMVP, p.Label)
}

func TestFallback(t *testing.T) {
	profile := analysis.Profile{"wins": 13}
	remote := Prediction{Probability: 0.9, MVP: true, Label: LabelMVP, Source: SourceRemote}
	local := Prediction{Probability: 0.2, Label: LabelNotMVP, Source: SourceBaseline}

	t.Run("primary succeeds", func(t *testing.T) {
		primary, secondary := &mockPredictor{}, &mockPredictor{}
		primary.On("Predict", mock.Anything, profile).Return(remote, nil)

		got, err := (&Fallback{Primary: primary, Secondary: secondary}).Predict(context.Background(), profile)
		require.NoError(t, err)
		assert.Equal(t, remote, got)
		secondary.AssertNotCalled(t, "Predict", mock.Anything, mock.Anything)
	})

	t.Run("primary fails", func(t *testing.T) {
		primary, secondary := &mockPredictor{}, &mockPredictor{}
		primary.On("Predict", mock.Anything, profile).Return(Prediction{}, errors.New("boom"))
		secondary.On("Predict", mock.Anything, profile).Return(local, nil)

		got, err := (&Fallback{Primary: primary, Secondary: secondary}).Predict(context.Background(), profile)
		require.NoError(t, err)
		assert.Equal(t, local, got)
		primary.AssertExpectations(t)
		secondary.AssertExpectations(t)
	})

	t.Run("cancelled context is returned", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		primary, secondary := &mockPredictor{}, &mockPredictor{}
		primary.On("Predict", mock.Anything, profile).Return(Prediction{}, context.Canceled)

		_, err := (&Fallback{Primary: primary, Secondary: secondary}).Predict(ctx, profile)
		assert.ErrorIs(t, err, context.Canceled)
		secondary.AssertNotCalled(t, "Predict", mock.Anything, mock.Anything)
	})
}
