package usecase

import (
	"context"
	"sort"
	"time"

	"planpilot-service/internal/domain/entity"
	"planpilot-service/internal/interface/market"
	"planpilot-service/pkg/geo"
	"planpilot-service/pkg/logger"
	"planpilot-service/pkg/money"
)

// Clamp windows applied to raw live prices relative to the fallback band.
const (
	liveMinLowerFactor = 0.55
	liveMinUpperFactor = 1.75
	liveMaxFloorFactor = 1.06
	liveMaxCeilFactor  = 2.20
	singlePointSpread  = 1.22
	hotelRatioMin      = 0.82
	hotelRatioMax      = 1.36
)

// PlanContext is the read-only slice of a plan that one estimation job needs.
// Jobs share it across the fan-out without mutating it.
type PlanContext struct {
	PlanID     string
	OriginCode string
	Origin     *geo.Point
	DepartDate time.Time
	ReturnDate time.Time
	Travelers  int
	Currency   string
	Now        time.Time
}

// CandidateEstimator computes one CandidateEstimate per destination
// candidate. The fallback band is always computed first so a total provider
// outage still yields a usable estimate.
type CandidateEstimator struct {
	aggregator *market.Client
	amadeus    *market.AmadeusClient
	log        logger.Logger
}

func NewCandidateEstimator(aggregator *market.Client, amadeus *market.AmadeusClient, log logger.Logger) *CandidateEstimator {
	return &CandidateEstimator{aggregator: aggregator, amadeus: amadeus, log: log}
}

// Estimate blends live market prices with the fallback band for one
// candidate. It never fails: provider errors are recorded on the returned
// estimate and the fallback band is used instead.
func (e *CandidateEstimator) Estimate(ctx context.Context, pctx PlanContext, candidate *entity.DestinationCandidate) entity.CandidateEstimate {
	var destPoint *geo.Point
	if candidate.Latitude != nil && candidate.Longitude != nil {
		destPoint = &geo.Point{Lat: *candidate.Latitude, Lon: *candidate.Longitude}
	}

	meta := candidate.Metadata
	var nonstopOverride *float64
	if meta.NonstopLikelihood > 0 {
		v := meta.NonstopLikelihood
		nonstopOverride = &v
	}

	fallback := EstimateFallback(FallbackInput{
		Origin:          pctx.Origin,
		Destination:     destPoint,
		DepartDate:      pctx.DepartDate,
		Travelers:       pctx.Travelers,
		Tier:            meta.Tier,
		NonstopOverride: nonstopOverride,
	})

	estimate := entity.CandidateEstimate{
		Provider:          "fallback",
		Source:            entity.SourceFallback,
		Currency:          pctx.Currency,
		FlightMin:         fallback.FlightMin,
		FlightMax:         fallback.FlightMax,
		HotelNightlyMin:   fallback.HotelNightlyMin,
		HotelNightlyMax:   fallback.HotelNightlyMax,
		FreshnessAt:       pctx.Now,
		DistanceKm:        fallback.DistanceKm,
		DistanceBand:      fallback.DistanceBand,
		TravelTimeMinutes: fallback.TravelTimeMinutes,
		NonstopLikelihood: fallback.NonstopLikelihood,
		SeasonMultiplier:  fallback.SeasonMultiplier,
		Tier:              meta.Tier,
		Tags:              meta.Tags,
		Endpoints:         map[string]string{},
	}

	live := e.collectLive(ctx, pctx, candidate, &estimate)
	if len(live.prices) == 0 {
		return estimate
	}

	liveMin, liveMax := reducePrices(live.prices)
	clampedMin, clampedMax, ok := clampLiveBand(liveMin, liveMax, fallback.FlightMin, fallback.FlightMax)
	if !ok {
		e.log.Debug("Live band rejected against fallback window",
			"airport", candidate.AirportCode,
			"liveMin", liveMin, "liveMax", liveMax,
			"fallbackMin", fallback.FlightMin, "fallbackMax", fallback.FlightMax)
		return estimate
	}

	estimate.Provider = live.provider
	estimate.Source = entity.SourceLive
	// A live blend supersedes endpoint failures that preceded it; per-endpoint
	// outcomes stay visible in Endpoints but the estimate itself is clean.
	estimate.ErrorType = ""
	estimate.ErrorSummary = ""
	estimate.FlightMin = money.Round2(clampedMin)
	estimate.FlightMax = money.Round2(clampedMax)

	// Live flight movement is the only available proxy for hotel pricing.
	fallbackMid := (fallback.FlightMin + fallback.FlightMax) / 2
	if fallbackMid > 0 {
		ratio := estimate.FlightMid() / fallbackMid
		if ratio < hotelRatioMin {
			ratio = hotelRatioMin
		}
		if ratio > hotelRatioMax {
			ratio = hotelRatioMax
		}
		estimate.HotelNightlyMin = money.Round2(fallback.HotelNightlyMin * ratio)
		estimate.HotelNightlyMax = money.Round2(fallback.HotelNightlyMax * ratio)
	}

	if latest, ok := market.LatestTimestamp(live.timestamps); ok {
		estimate.FreshnessAt = latest
	}
	return estimate
}

type liveSignals struct {
	provider   string
	prices     []float64
	timestamps []time.Time
}

// collectLive queries every configured provider endpoint. Failures are
// recorded per endpoint; the last classified error lands on the estimate so
// the caller can persist a diagnostic row and decide on retry.
func (e *CandidateEstimator) collectLive(ctx context.Context, pctx PlanContext, candidate *entity.DestinationCandidate, estimate *entity.CandidateEstimate) liveSignals {
	signals := liveSignals{provider: "aggregator"}
	query := market.Query{
		Origin:      pctx.OriginCode,
		Destination: candidate.AirportCode,
		DepartDate:  pctx.DepartDate,
		ReturnDate:  &pctx.ReturnDate,
		Currency:    pctx.Currency,
	}

	if e.aggregator != nil {
		e.runEndpoint(estimate, &signals, "cheap_prices", candidate, func() (*market.Result, error) {
			return e.aggregator.CheapPrices(ctx, query)
		})
		e.runEndpoint(estimate, &signals, "calendar_prices", candidate, func() (*market.Result, error) {
			return e.aggregator.CalendarPrices(ctx, query)
		})
	}
	if e.amadeus != nil && e.amadeus.Enabled() {
		e.runEndpoint(estimate, &signals, "flight_offers", candidate, func() (*market.Result, error) {
			return e.amadeus.FlightOffers(ctx, query, pctx.Travelers)
		})
	}
	return signals
}

func (e *CandidateEstimator) runEndpoint(estimate *entity.CandidateEstimate, signals *liveSignals, endpoint string, candidate *entity.DestinationCandidate, call func() (*market.Result, error)) {
	result, err := call()
	if err != nil {
		errType := market.ClassifyError(err)
		estimate.Endpoints[endpoint] = errType
		estimate.ErrorType = errType
		estimate.ErrorSummary = err.Error()
		return
	}
	estimate.Endpoints[endpoint] = "ok"
	estimate.LatencyMs += result.LatencyMs

	prices := market.ExtractDestinationPrices(result.Payload, candidate.AirportCode, candidate.CityName)
	signals.prices = append(signals.prices, prices...)
	signals.timestamps = append(signals.timestamps, market.ExtractTimestamps(result.Payload)...)
}

// reducePrices collapses recovered price points to a (min, max) pair,
// synthesizing a spread when only a single point survived filtering.
func reducePrices(prices []float64) (float64, float64) {
	sorted := make([]float64, len(prices))
	copy(sorted, prices)
	sort.Float64s(sorted)
	min := sorted[0]
	max := sorted[len(sorted)-1]
	if min == max {
		max = min * singlePointSpread
	}
	return min, max
}

// clampLiveBand validates the raw live minimum against the fallback window
// and clamps the maximum into its own window. A minimum outside the window
// means the upstream data is not trustworthy for this candidate.
func clampLiveBand(liveMin, liveMax, fallbackMin, fallbackMax float64) (float64, float64, bool) {
	if liveMin < liveMinLowerFactor*fallbackMin || liveMin > liveMinUpperFactor*fallbackMax {
		return 0, 0, false
	}
	floor := liveMaxFloorFactor * liveMin
	ceil := liveMaxCeilFactor * fallbackMax
	if liveMax < floor {
		liveMax = floor
	}
	if liveMax > ceil {
		liveMax = ceil
	}
	return liveMin, liveMax, true
}
