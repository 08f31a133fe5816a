package analysis

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// BaselinePlayer labels the season every profile is compared against.
const BaselinePlayer = "Josh Allen (2024 MVP)"

// Direction says which side of the baseline counts as better.
type Direction string

const (
	HigherIsBetter Direction = "higher"
	LowerIsBetter  Direction = "lower"
)

// FeatureSpec describes one compared statistic.
type FeatureSpec struct {
	Key         string    `json:"key"`
	DisplayName string    `json:"display_name"`
	Baseline    float64   `json:"baseline"`
	Weight      float64   `json:"weight"`
	Direction   Direction `json:"direction"`
}

// Better reports whether user is at least as good as the baseline.
func (f FeatureSpec) Better(user float64) bool {
	if f.Direction == LowerIsBetter {
		return user <= f.Baseline
	}
	return user >= f.Baseline
}

// featureTable is iterated in this order everywhere: it decides tie-breaks
// in the impact ranking and therefore suggestion priority.
var featureTable = []FeatureSpec{
	newFeature("wins", 13, 0.25, HigherIsBetter),
	newFeature("passing_yards", 4306, 0.04, HigherIsBetter),
	newFeature("passing_tds", 28, 0.20, HigherIsBetter),
	newFeature("interceptions", 6, 0.08, LowerIsBetter),
	newFeature("passer_rating", 99.6, 0.15, HigherIsBetter),
	newFeature("qbr_total", 68.2, 0.12, HigherIsBetter),
	newFeature("epa_total", 85.4, 0.10, HigherIsBetter),
	newFeature("epa_per_play", 0.142, 0.04, HigherIsBetter),
	newFeature("qb_plays", 601, 0.02, HigherIsBetter),
	newFeature("sacks", 23, 0.05, LowerIsBetter),
	newFeature("rushing_yards", 523, 0.03, HigherIsBetter),
	newFeature("rushing_tds", 15, 0.08, HigherIsBetter),
}

var featureIndex = func() map[string]int {
	idx := make(map[string]int, len(featureTable))
	for i, f := range featureTable {
		idx[f.Key] = i
	}
	return idx
}()

func newFeature(key string, baseline, weight float64, dir Direction) FeatureSpec {
	return FeatureSpec{
		Key:         key,
		DisplayName: DisplayName(key),
		Baseline:    baseline,
		Weight:      weight,
		Direction:   dir,
	}
}

// Features returns a copy of the comparison table in iteration order.
func Features() []FeatureSpec {
	out := make([]FeatureSpec, len(featureTable))
	copy(out, featureTable)
	return out
}

// FeatureKeys lists the accepted profile keys in table order.
func FeatureKeys() []string {
	keys := make([]string, len(featureTable))
	for i, f := range featureTable {
		keys[i] = f.Key
	}
	return keys
}

// IsFeature reports whether key names a compared statistic.
func IsFeature(key string) bool {
	_, ok := featureIndex[key]
	return ok
}

// LookupFeature returns the table entry for key.
func LookupFeature(key string) (FeatureSpec, bool) {
	i, ok := featureIndex[key]
	if !ok {
		return FeatureSpec{}, false
	}
	return featureTable[i], true
}

// DisplayName turns a snake_case key into a title-cased label,
// e.g. "passing_tds" becomes "Passing Tds".
func DisplayName(key string) string {
	// Casers hold state, so one is built per call.
	return cases.Title(language.English).String(strings.ReplaceAll(key, "_", " "))
}
