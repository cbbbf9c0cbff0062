package entity

import "time"

// OptionBand is the min/max estimate band stored on an option's diagnostic
// payload, in major units of the option currency.
type OptionBand struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// OptionPayload is the raw diagnostic payload persisted with each option.
type OptionPayload struct {
	EstimatedBand     OptionBand        `json:"estimated_band"`
	DistanceKm        float64           `json:"distance_km,omitempty"`
	DistanceBand      string            `json:"distance_band,omitempty"`
	SeasonMultiplier  float64           `json:"season_multiplier,omitempty"`
	NonstopLikelihood float64           `json:"nonstop_likelihood,omitempty"`
	TravelTimeMinutes int               `json:"travel_time_minutes,omitempty"`
	DataSource        string            `json:"data_source,omitempty"`
	Endpoints         map[string]string `json:"endpoints,omitempty"`
}

// FlightOption is the materialized flight estimate for one candidate.
// Replaced wholesale on every refresh of the candidate.
type FlightOption struct {
	ID              string
	PlanID          string
	CandidateID     string
	Provider        string
	OriginCode      string
	DestinationCode string
	Currency        string
	AmountMinor     int64
	Payload         OptionPayload
	OutboundURL     string
	LastCheckedAt   time.Time
	CreatedAt       time.Time
}

// HotelOption is the materialized nightly hotel estimate for one candidate.
// AmountMinor is the representative nightly price.
type HotelOption struct {
	ID            string
	PlanID        string
	CandidateID   string
	Provider      string
	Name          string
	Currency      string
	AmountMinor   int64
	Payload       OptionPayload
	OutboundURL   string
	LastCheckedAt time.Time
	CreatedAt     time.Time
}
