package analysis

import (
	"math"
	"sort"
)

const (
	topImpactCount  = 3
	suggestionCount = 2
	baseProbability = 0.5
)

// Explainer compares profiles against the baseline season. It holds no
// mutable state and is safe for concurrent use.
type Explainer struct {
	features []FeatureSpec
	policy   ClampPolicy
}

// Option configures an Explainer.
type Option func(*Explainer)

// WithClampPolicy selects how per-feature deltas are bounded.
func WithClampPolicy(p ClampPolicy) Option {
	return func(e *Explainer) {
		e.policy = p
	}
}

// NewExplainer creates an explainer over the fixed feature table.
func NewExplainer(opts ...Option) *Explainer {
	e := &Explainer{
		features: featureTable,
		policy:   ClampAsymmetric,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policy returns the clamp policy in use.
func (e *Explainer) Policy() ClampPolicy {
	return e.policy
}

// Explain scores every feature of p against the baseline. Missing keys count as 0.
func (e *Explainer) Explain(p Profile) Explanation {
	impacts := make([]FeatureImpact, 0, len(e.features))
	total := 0.0

	for _, f := range e.features {
		fi := e.compare(f, p.Value(f.Key))
		total += fi.ImpactScore
		impacts = append(impacts, fi)
	}

	sort.SliceStable(impacts, func(i, j int) bool {
		return math.Abs(impacts[i].ImpactScore) > math.Abs(impacts[j].ImpactScore)
	})

	return Explanation{
		PredictionProbability: clip(baseProbability+total, 0, 1),
		TotalScore:            total,
		BaselinePlayer:        BaselinePlayer,
		FeatureImpacts:        impacts,
		TopPositive:           firstWithImpact(impacts, ImpactPositive, topImpactCount),
		TopNegative:           firstWithImpact(impacts, ImpactNegative, topImpactCount),
	}
}

// Suggest returns at most two improvement hints for the worst ranked features.
func (e *Explainer) Suggest(p Profile) []Suggestion {
	return SuggestionsFrom(e.Explain(p))
}

// SuggestionsFrom derives suggestions from an existing explanation.
func SuggestionsFrom(ex Explanation) []Suggestion {
	negatives := ex.TopNegative
	if len(negatives) > suggestionCount {
		negatives = negatives[:suggestionCount]
	}
	out := make([]Suggestion, 0, len(negatives))
	for _, fi := range negatives {
		out = append(out, SuggestionFor(fi))
	}
	return out
}

func (e *Explainer) compare(f FeatureSpec, user float64) FeatureImpact {
	pct := 0.0
	if f.Baseline != 0 {
		pct = (user - f.Baseline) / f.Baseline * 100
	}

	delta := pct / 100
	if f.Direction == LowerIsBetter {
		delta = -pct / 100
	}
	score := e.policy.apply(delta) * f.Weight

	impact := ImpactNegative
	if score > 0 {
		impact = ImpactPositive
	}

	return FeatureImpact{
		Key:            f.Key,
		Feature:        f.DisplayName,
		UserValue:      user,
		BaselineValue:  f.Baseline,
		PercentageDiff: pct,
		IsBetter:       f.Better(user),
		ImpactScore:    score,
		Impact:         impact,
	}
}

func firstWithImpact(sorted []FeatureImpact, kind Impact, n int) []FeatureImpact {
	out := make([]FeatureImpact, 0, n)
	for _, fi := range sorted {
		if len(out) == n {
			break
		}
		if fi.Impact == kind {
			out = append(out, fi)
		}
	}
	return out
}
