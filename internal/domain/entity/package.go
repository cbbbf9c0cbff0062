package entity

import "time"

// Sort modes accepted by the package builder.
const (
	SortBestValue = "best_value"
	SortCheapest  = "cheapest"
	SortFastest   = "fastest"
	SortBestHotel = "best_hotel"
)

// ScoreBreakdown retains the weighted components for explainability.
type ScoreBreakdown struct {
	BudgetFit       float64            `json:"budget_fit"`
	PreferenceMatch float64            `json:"preference_match"`
	Seasonality     float64            `json:"seasonality"`
	TravelTime      float64            `json:"travel_time"`
	Freshness       float64            `json:"freshness"`
	Weights         map[string]float64 `json:"weights"`
	DistanceBand    string             `json:"distance_band,omitempty"`
	SeasonFactor    float64            `json:"season_multiplier,omitempty"`
	Source          string             `json:"source,omitempty"`
}

// PackageOption is a ranked flight+hotel combination for one candidate.
// The full set for a plan is deleted and rebuilt on every scoring pass.
type PackageOption struct {
	ID             string
	PlanID         string
	CandidateID    string
	FlightOptionID string
	HotelOptionID  string
	Rank           int
	Currency       string
	TotalMinor     int64

	EstimatedTotalMin        float64
	EstimatedTotalMax        float64
	EstimatedFlightMin       float64
	EstimatedFlightMax       float64
	EstimatedHotelNightlyMin float64
	EstimatedHotelNightlyMax float64

	FreshnessAt time.Time

	Score           float64
	BudgetFitScore  float64
	PreferenceScore float64
	SeasonScore     float64
	TravelTimeScore float64
	FreshnessScore  float64
	Explanations    []string
	Breakdown       ScoreBreakdown

	FlightURL string
	HotelURL  string

	CreatedAt time.Time
}
