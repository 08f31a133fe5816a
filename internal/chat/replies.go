package chat

import (
	"fmt"
	"math"
	"strings"

	"github.com/ZanzyTHEbar/mvp-o-meter/internal/analysis"
)

const (
	explanationFactorCount = 5

	needPredictionForImprovement = "Please make a prediction first, then I can suggest improvements!"
	needPredictionForExplanation = "Please make a prediction first, then I can explain it!"
	needPredictionForComparison  = "Please make a prediction first to see the Josh Allen comparison!"

	generalFailureText  = "Sorry, I had trouble processing that question. Try asking about MVP predictions or improvement suggestions!"
	budgetExhaustedText = "Sorry, daily limit reached."
)

var intentKeywords = []struct {
	intent   Intent
	keywords []string
}{
	{IntentImprovement, []string{"improve", "better", "increase"}},
	{IntentExplanation, []string{"why", "explain", "reason"}},
	{IntentComparison, []string{"compare", "baseline", "josh allen"}},
}

// ClassifyIntent routes a message by substring keywords, first group wins.
func ClassifyIntent(message string) Intent {
	lower := strings.ToLower(message)
	for _, group := range intentKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(lower, kw) {
				return group.intent
			}
		}
	}
	return IntentGeneral
}

func improvementText(suggestions []analysis.Suggestion) string {
	var b strings.Builder
	b.WriteString("Based on comparison to Josh Allen's 2024 MVP season, here are the top areas for improvement:\n\n")
	for i, s := range suggestions {
		fmt.Fprintf(&b, "%d. %s", i+1, s.Message)
		if s.Target != nil && *s.Target != 0 {
			fmt.Fprintf(&b, " (Target: %s)", analysis.FormatValue(*s.Target))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func explanationText(ex analysis.Explanation) string {
	var b strings.Builder
	b.WriteString("Compared to Josh Allen's 2024 MVP season:\n\n")
	fmt.Fprintf(&b, "Overall MVP Score: %.2f\n\n", ex.TotalScore)
	b.WriteString("Key factors:\n")

	factors := ex.FeatureImpacts
	if len(factors) > explanationFactorCount {
		factors = factors[:explanationFactorCount]
	}
	for _, fi := range factors {
		status := "worse"
		if fi.IsBetter {
			status = "better"
		}
		fmt.Fprintf(&b, "• %s: %s vs %s (%.1f%% %s)\n",
			fi.Feature,
			analysis.FormatValue(fi.UserValue),
			analysis.FormatValue(fi.BaselineValue),
			math.Abs(fi.PercentageDiff),
			status,
		)
	}
	return b.String()
}

func comparisonText(ex analysis.Explanation) string {
	var b strings.Builder
	b.WriteString("Josh Allen 2024 MVP Baseline Comparison:\n\n")
	for _, fi := range ex.FeatureImpacts {
		mark := "❌"
		if fi.IsBetter {
			mark = "✅"
		}
		fmt.Fprintf(&b, "%s %s: You: %s | Josh: %s\n",
			mark,
			fi.Feature,
			analysis.FormatValue(fi.UserValue),
			analysis.FormatValue(fi.BaselineValue),
		)
	}
	return b.String()
}
