package entity

import "time"

// CandidateMetadata carries the expansion-time priors for a destination.
type CandidateMetadata struct {
	Tier              string   `json:"tier"`
	Tags              []string `json:"tags"`
	NonstopLikelihood float64  `json:"nonstop_likelihood"`
	AirportName       string   `json:"airport_name,omitempty"`
	HeuristicScore    float64  `json:"heuristic_score,omitempty"`
	DistanceKm        float64  `json:"distance_km,omitempty"`
	DistanceBand      string   `json:"distance_band,omitempty"`
	SeasonMultiplier  float64  `json:"season_multiplier,omitempty"`
	SignalSource      string   `json:"signal_source,omitempty"`
}

// DestinationCandidate is one ranked destination under a plan. Created once
// per plan by candidate expansion and immutable thereafter, except for the
// metadata snapshot written back by the estimation job.
type DestinationCandidate struct {
	ID          string
	PlanID      string
	CountryCode string
	CityName    string
	AirportCode string
	Latitude    *float64
	Longitude   *float64
	Rank        int
	Metadata    CandidateMetadata
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
