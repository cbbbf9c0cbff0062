package entity

import "time"

// Estimate data sources.
const (
	SourceLive     = "live"
	SourceFallback = "fallback"
)

// CandidateEstimate is the transient result of blending live market data
// with the deterministic fallback bounds for one candidate. Monetary bands
// are major units in Currency.
type CandidateEstimate struct {
	Provider          string
	Source            string
	Currency          string
	FlightMin         float64
	FlightMax         float64
	HotelNightlyMin   float64
	HotelNightlyMax   float64
	FreshnessAt       time.Time
	DistanceKm        float64
	DistanceBand      string
	TravelTimeMinutes int
	NonstopLikelihood float64
	SeasonMultiplier  float64
	Tier              string
	Tags              []string
	Endpoints         map[string]string
	ErrorType         string
	ErrorSummary      string
	LatencyMs         int
}

// FlightMid returns the midpoint of the flight band.
func (e *CandidateEstimate) FlightMid() float64 {
	return (e.FlightMin + e.FlightMax) / 2
}

// HotelNightlyMid returns the midpoint of the nightly hotel band.
func (e *CandidateEstimate) HotelNightlyMid() float64 {
	return (e.HotelNightlyMin + e.HotelNightlyMax) / 2
}
