package analysis

import (
	"fmt"
	"strconv"
)

type suggestionTemplate int

const (
	templateGeneric suggestionTemplate = iota
	templateInterceptions
	templateSacks
	templateWins
	templatePassingTDs
	templatePasserRating
	templateRushingTDs
)

func templateFor(key string) suggestionTemplate {
	switch key {
	case "interceptions":
		return templateInterceptions
	case "sacks":
		return templateSacks
	case "wins":
		return templateWins
	case "passing_tds":
		return templatePassingTDs
	case "passer_rating":
		return templatePasserRating
	case "rushing_tds":
		return templateRushingTDs
	default:
		return templateGeneric
	}
}

func (t suggestionTemplate) render(fi FeatureImpact) string {
	b := FormatValue(fi.BaselineValue)
	switch t {
	case templateInterceptions:
		return fmt.Sprintf("Reduce interceptions to MVP level. Josh Allen threw only %s INTs in 2024.", b)
	case templateSacks:
		return fmt.Sprintf("Improve pocket presence. Josh Allen was sacked only %s times in 2024.", b)
	case templateWins:
		return fmt.Sprintf("Team success is crucial. Josh Allen's Bills won %s games in 2024.", b)
	case templatePassingTDs:
		return fmt.Sprintf("Increase touchdown passes. Josh Allen threw %s TDs in 2024.", b)
	case templatePasserRating:
		return fmt.Sprintf("Improve passer rating to MVP level. Josh Allen had a %s rating in 2024.", b)
	case templateRushingTDs:
		return fmt.Sprintf("Add rushing touchdowns. Josh Allen scored %s rushing TDs in 2024.", b)
	default:
		return fmt.Sprintf("Improve %s to match MVP level performance", fi.Feature)
	}
}

// SuggestionFor builds the improvement hint for one feature comparison.
func SuggestionFor(fi FeatureImpact) Suggestion {
	target := fi.BaselineValue
	return Suggestion{
		Feature: fi.Key,
		Message: templateFor(fi.Key).render(fi),
		Target:  &target,
	}
}

// FormatValue renders a stat in its shortest decimal form (6, 99.6, 0.142).
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
