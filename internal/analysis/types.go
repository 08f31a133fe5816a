package analysis

// Profile maps feature keys to user supplied season totals.
type Profile map[string]float64

// Value returns the value for key, or 0 when absent.
func (p Profile) Value(key string) float64 {
	return p[key]
}

// Impact classifies a feature's signed contribution.
type Impact string

const (
	ImpactPositive Impact = "positive"
	ImpactNegative Impact = "negative"
)

// FeatureImpact is the per-feature comparison against the baseline season.
type FeatureImpact struct {
	Key            string  `json:"key"`
	Feature        string  `json:"feature"`
	UserValue      float64 `json:"user_value"`
	BaselineValue  float64 `json:"baseline_value"`
	PercentageDiff float64 `json:"percentage_diff"`
	IsBetter       bool    `json:"is_better"`
	ImpactScore    float64 `json:"impact_score"`
	Impact         Impact  `json:"impact"`
}

// Explanation aggregates every FeatureImpact for one profile.
type Explanation struct {
	PredictionProbability float64         `json:"prediction_probability"`
	TotalScore            float64         `json:"total_score"`
	BaselinePlayer        string          `json:"baseline_player"`
	FeatureImpacts        []FeatureImpact `json:"feature_impacts"`
	TopPositive           []FeatureImpact `json:"top_positive"`
	TopNegative           []FeatureImpact `json:"top_negative"`
}

// Suggestion is an improvement hint derived from a negative impact.
type Suggestion struct {
	Feature string   `json:"feature"`
	Message string   `json:"message"`
	Target  *float64 `json:"target,omitempty"`
}
