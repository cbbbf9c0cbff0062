package usecase

import (
	"time"

	"planpilot-service/pkg/geo"
	"planpilot-service/pkg/money"
)

const defaultDistanceKm = 2400

// FallbackEstimate is a synthetic pricing band derived purely from static
// tables. It is deterministic for identical input and performs no I/O, so
// the estimator can always compute it before any network call.
type FallbackEstimate struct {
	DistanceKm        float64
	DistanceBand      string
	SeasonMultiplier  float64
	FlightMin         float64
	FlightMax         float64
	HotelNightlyMin   float64
	HotelNightlyMax   float64
	TravelTimeMinutes int
	NonstopLikelihood float64
	StarRating        float64
	GuestRating       float64
}

// FallbackInput carries the knobs for one synthetic estimate. Coordinates
// are optional; a missing pair falls back to a nominal medium-haul distance.
type FallbackInput struct {
	Origin          *geo.Point
	Destination     *geo.Point
	DepartDate      time.Time
	Travelers       int
	Tier            string
	NonstopOverride *float64
}

// EstimateFallback maps distance, season, tier and party size onto flight
// and hotel price bands.
func EstimateFallback(in FallbackInput) FallbackEstimate {
	distanceKm := float64(defaultDistanceKm)
	if in.Origin != nil && in.Destination != nil {
		distanceKm = geo.HaversineKm(*in.Origin, *in.Destination)
	}

	band := distanceProfile(distanceKm)
	season := SeasonMultiplierForMonth(int(in.DepartDate.Month()))

	travelers := in.Travelers
	if travelers < 1 {
		travelers = 1
	}
	spread := 1 + 0.09*float64(travelers-1)
	occupancy := 1 + 0.18*float64(maxInt(0, travelers-2))

	tier := tierProfileFor(in.Tier)

	travelMinutes := int(band.TravelTimeHours * 60)
	if travelMinutes < 90 {
		travelMinutes = 90
	}

	nonstop := band.NonstopLikelihood
	if in.NonstopOverride != nil {
		nonstop = *in.NonstopOverride
	}

	return FallbackEstimate{
		DistanceKm:        money.Round2(distanceKm),
		DistanceBand:      band.Band,
		SeasonMultiplier:  season,
		FlightMin:         money.Round2(band.FlightMin * season * float64(travelers)),
		FlightMax:         money.Round2(band.FlightMax * season * float64(travelers) * spread),
		HotelNightlyMin:   money.Round2(tier.NightlyMin * season * occupancy),
		HotelNightlyMax:   money.Round2(tier.NightlyMax * season * occupancy),
		TravelTimeMinutes: travelMinutes,
		NonstopLikelihood: nonstop,
		StarRating:        tier.StarRating,
		GuestRating:       tier.GuestRating,
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
