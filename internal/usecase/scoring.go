package usecase

import (
	"fmt"
	"strings"
	"time"

	"planpilot-service/internal/domain/entity"
	"planpilot-service/pkg/money"
)

// Component weights, surfaced in every breakdown. They must sum to 1.0.
var scoreWeights = map[string]float64{
	"budget_fit":       0.35,
	"preference_match": 0.20,
	"seasonality":      0.15,
	"travel_time":      0.20,
	"freshness":        0.10,
}

var travelTimeBandScores = map[string]float64{
	BandShort:     94,
	BandMedium:    78,
	BandLong:      60,
	BandUltraLong: 43,
}

// ScoreInput is everything the scoring engine consumes for one package pair.
type ScoreInput struct {
	TotalMinor        int64
	BudgetMinor       int64
	PreferenceWeights map[string]float64
	CandidateTags     []string
	SeasonMultiplier  float64
	DistanceBand      string
	NonstopLikelihood float64
	FreshnessAt       *time.Time
	Now               time.Time
}

// PackageScore holds the composite plus per-component scores and a
// human-readable explanation per component.
type PackageScore struct {
	Score           float64
	BudgetFit       float64
	PreferenceMatch float64
	Seasonality     float64
	TravelTime      float64
	Freshness       float64
	Explanations    []string
	Breakdown       entity.ScoreBreakdown
}

// ScorePackage combines five clamped [0,100] components into a weighted
// composite. All thresholds are fixed so identical input always yields the
// identical ranking.
func ScorePackage(in ScoreInput) PackageScore {
	explanations := make([]string, 0, 5)

	budgetFit, note := scoreBudgetFit(in.TotalMinor, in.BudgetMinor)
	explanations = append(explanations, note)

	prefMatch, note := scorePreferenceMatch(in.PreferenceWeights, in.CandidateTags)
	explanations = append(explanations, note)

	seasonality, note := scoreSeasonality(in.SeasonMultiplier)
	explanations = append(explanations, note)

	travelTime, note := scoreTravelTime(in.DistanceBand, in.NonstopLikelihood)
	explanations = append(explanations, note)

	freshness, note := scoreFreshness(in.FreshnessAt, in.Now)
	explanations = append(explanations, note)

	composite := budgetFit*scoreWeights["budget_fit"] +
		prefMatch*scoreWeights["preference_match"] +
		seasonality*scoreWeights["seasonality"] +
		travelTime*scoreWeights["travel_time"] +
		freshness*scoreWeights["freshness"]

	weights := make(map[string]float64, len(scoreWeights))
	for name, w := range scoreWeights {
		weights[name] = w
	}

	return PackageScore{
		Score:           money.Round2(composite),
		BudgetFit:       budgetFit,
		PreferenceMatch: prefMatch,
		Seasonality:     seasonality,
		TravelTime:      travelTime,
		Freshness:       freshness,
		Explanations:    explanations,
		Breakdown: entity.ScoreBreakdown{
			BudgetFit:       budgetFit,
			PreferenceMatch: prefMatch,
			Seasonality:     seasonality,
			TravelTime:      travelTime,
			Freshness:       freshness,
			Weights:         weights,
			DistanceBand:    in.DistanceBand,
			SeasonFactor:    in.SeasonMultiplier,
		},
	}
}

func scoreBudgetFit(totalMinor, budgetMinor int64) (float64, string) {
	if budgetMinor <= 0 {
		return 50, "budget_fit: no budget provided, neutral 50"
	}
	ratio := float64(totalMinor) / float64(budgetMinor)
	score := clampScore(100 - absFloat(ratio-0.82)*110)
	return money.Round2(score), fmt.Sprintf("budget_fit: total is %.0f%% of budget", ratio*100)
}

func scorePreferenceMatch(weights map[string]float64, tags []string) (float64, string) {
	if len(weights) == 0 {
		return 60, "preference_match: no preferences given, default 60"
	}

	tagSet := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tagSet[strings.ToLower(tag)] = struct{}{}
	}

	var totalMass, matchedMass float64
	for pref, weight := range weights {
		if weight <= 0 {
			continue
		}
		totalMass += weight
		if _, ok := tagSet[strings.ToLower(pref)]; ok {
			matchedMass += weight
		}
	}
	if totalMass == 0 {
		return 58, "preference_match: all preference weights zero, default 58"
	}

	score := clampScore(matchedMass / totalMass * 100)
	return money.Round2(score), fmt.Sprintf("preference_match: %.0f%% of preference weight matched", matchedMass/totalMass*100)
}

func scoreSeasonality(multiplier float64) (float64, string) {
	score := 95 - absFloat(multiplier-1)*130
	if score < 25 {
		score = 25
	}
	if score > 100 {
		score = 100
	}
	return money.Round2(score), fmt.Sprintf("seasonality: season multiplier %.2f", multiplier)
}

func scoreTravelTime(band string, nonstopLikelihood float64) (float64, string) {
	base, ok := travelTimeBandScores[band]
	if !ok {
		base = 70
	}
	score := clampScore(base*0.72 + nonstopLikelihood*100*0.28)
	return money.Round2(score), fmt.Sprintf("travel_time: %s band, nonstop likelihood %.0f%%", band, nonstopLikelihood*100)
}

func scoreFreshness(freshnessAt *time.Time, now time.Time) (float64, string) {
	if freshnessAt == nil {
		return 45, "freshness: no data timestamp, default 45"
	}
	ageHours := now.Sub(*freshnessAt).Hours()
	var score float64
	switch {
	case ageHours <= 6:
		score = 100
	case ageHours <= 24:
		score = 85
	case ageHours <= 72:
		score = 66
	case ageHours <= 168:
		score = 48
	default:
		score = 34
	}
	return score, fmt.Sprintf("freshness: market data is %.1fh old", ageHours)
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
