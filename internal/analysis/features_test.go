package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisplayName(t *testing.T) {
	tests := []struct {
		key      string
		expected string
	}{
		{"wins", "Wins"},
		{"passing_tds", "Passing Tds"},
		{"qbr_total", "Qbr Total"},
		{"epa_per_play", "Epa Per Play"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.expected, DisplayName(tt.key))
		})
	}
}

func TestFeatureTable(t *testing.T) {
	features := Features()
	require.Len(t, features, 12)

	assert.Equal(t, []string{
		"wins", "passing_yards", "passing_tds", "interceptions",
		"passer_rating", "qbr_total", "epa_total", "epa_per_play",
		"qb_plays", "sacks", "rushing_yards", "rushing_tds",
	}, FeatureKeys())

	total := 0.0
	for _, f := range features {
		assert.GreaterOrEqual(t, f.Weight, 0.0, f.Key)
		assert.LessOrEqual(t, f.Weight, 1.0, f.Key)
		assert.Greater(t, f.Baseline, 0.0, f.Key)
		total += f.Weight
	}
	// weights are not normalised
	assert.InDelta(t, 1.16, total, 1e-9)

	ints, ok := LookupFeature("interceptions")
	require.True(t, ok)
	assert.Equal(t, LowerIsBetter, ints.Direction)
	assert.Equal(t, 6.0, ints.Baseline)

	rating, ok := LookupFeature("passer_rating")
	require.True(t, ok)
	assert.Equal(t, 99.6, rating.Baseline)
	assert.Equal(t, 0.15, rating.Weight)

	_, ok = LookupFeature("fumbles")
	assert.False(t, ok)
	assert.False(t, IsFeature("Wins"))
}

func TestFeatures_ReturnsCopy(t *testing.T) {
	features := Features()
	features[0].Baseline = 1

	wins, _ := LookupFeature("wins")
	assert.Equal(t, 13.0, wins.Baseline)
}

func TestParseClampPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    ClampPolicy
		wantErr bool
	}{
		{"", ClampAsymmetric, false},
		{"asymmetric", ClampAsymmetric, false},
		{"symmetric", ClampSymmetric, false},
		{"both", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClampPolicy(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSuggestionFor(t *testing.T) {
	tests := []struct {
		key      string
		expected string
	}{
		{"interceptions", "Reduce interceptions to MVP level. Josh Allen threw only 6 INTs in 2024."},
		{"sacks", "Improve pocket presence. Josh Allen was sacked only 23 times in 2024."},
		{"rushing_tds", "Add rushing touchdowns. Josh Allen scored 15 rushing TDs in 2024."},
		{"qbr_total", "Improve Qbr Total to match MVP level performance"},
		{"epa_per_play", "Improve Epa Per Play to match MVP level performance"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			spec, ok := LookupFeature(tt.key)
			require.True(t, ok)

			s := SuggestionFor(FeatureImpact{
				Key:           spec.Key,
				Feature:       spec.DisplayName,
				BaselineValue: spec.Baseline,
			})

			assert.Equal(t, tt.expected, s.Message)
			require.NotNil(t, s.Target)
			assert.Equal(t, spec.Baseline, *s.Target)
		})
	}
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "6", FormatValue(6))
	assert.Equal(t, "99.6", FormatValue(99.6))
	assert.Equal(t, "0.142", FormatValue(0.142))
	assert.Equal(t, "4306", FormatValue(4306))
}
