package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"planpilot-service/internal/domain/entity"
	"planpilot-service/pkg/logger"
	"planpilot-service/pkg/money"
)

const (
	defaultMaxPackages   = 10
	topOptionsPerKind    = 3
	defaultNonstopPrior  = 0.55
	defaultSeasonFactor  = 1.0
	defaultDistanceClass = BandMedium
)

// PackageBuilder cross-products flight and hotel options per candidate,
// totals and scores each pair, then sorts and truncates to the top set.
type PackageBuilder struct {
	fx  *FxService
	log logger.Logger
}

func NewPackageBuilder(fx *FxService, log logger.Logger) *PackageBuilder {
	return &PackageBuilder{fx: fx, log: log}
}

// BuildInput carries everything one build pass needs. Flight and hotel
// options may span multiple candidates; the builder groups them itself.
type BuildInput struct {
	Plan        *entity.PlanRequest
	Candidates  []*entity.DestinationCandidate
	Flights     []*entity.FlightOption
	Hotels      []*entity.HotelOption
	SortMode    string
	MaxPackages int
	Now         time.Time
}

// Build returns freshly ranked packages for the plan. The caller persists
// them with a full replace so the stored set always matches the current
// option data.
func (b *PackageBuilder) Build(ctx context.Context, in BuildInput) []*entity.PackageOption {
	maxPackages := in.MaxPackages
	if maxPackages <= 0 {
		maxPackages = defaultMaxPackages
	}

	candidatesByID := make(map[string]*entity.DestinationCandidate, len(in.Candidates))
	for _, candidate := range in.Candidates {
		candidatesByID[candidate.ID] = candidate
	}

	flightsByCandidate := make(map[string][]*entity.FlightOption)
	for _, flight := range in.Flights {
		flightsByCandidate[flight.CandidateID] = append(flightsByCandidate[flight.CandidateID], flight)
	}
	hotelsByCandidate := make(map[string][]*entity.HotelOption)
	for _, hotel := range in.Hotels {
		hotelsByCandidate[hotel.CandidateID] = append(hotelsByCandidate[hotel.CandidateID], hotel)
	}

	nightsMin, nightsMax := in.Plan.NightsMin, in.Plan.NightsMax
	if nightsMin < 1 {
		nightsMin = 1
	}
	if nightsMax < nightsMin {
		nightsMax = nightsMin
	}

	var packages []*entity.PackageOption
	for _, candidate := range in.Candidates {
		flights := topFlights(flightsByCandidate[candidate.ID])
		hotels := topHotels(hotelsByCandidate[candidate.ID])
		if len(flights) == 0 || len(hotels) == 0 {
			continue
		}
		for _, flight := range flights {
			for _, hotel := range hotels {
				packages = append(packages, b.buildPair(ctx, in, candidate, flight, hotel, nightsMin, nightsMax))
			}
		}
	}
	if len(packages) == 0 {
		return nil
	}

	SortPackages(packages, in.SortMode)
	if len(packages) > maxPackages {
		packages = packages[:maxPackages]
	}
	for i, pkg := range packages {
		pkg.Rank = i + 1
	}
	return packages
}

func (b *PackageBuilder) buildPair(ctx context.Context, in BuildInput, candidate *entity.DestinationCandidate, flight *entity.FlightOption, hotel *entity.HotelOption, nightsMin, nightsMax int) *entity.PackageOption {
	currency := in.Plan.Currency

	flightMin := b.fx.Convert(ctx, flight.Payload.EstimatedBand.Min, flight.Currency, currency)
	flightMax := b.fx.Convert(ctx, flight.Payload.EstimatedBand.Max, flight.Currency, currency)
	hotelMin := b.fx.Convert(ctx, hotel.Payload.EstimatedBand.Min, hotel.Currency, currency)
	hotelMax := b.fx.Convert(ctx, hotel.Payload.EstimatedBand.Max, hotel.Currency, currency)

	totalMin := money.Round2(flightMin + hotelMin*float64(nightsMin))
	totalMax := money.Round2(flightMax + hotelMax*float64(nightsMax))
	totalMinor := money.BandMidpointMinor(totalMin, totalMax)

	freshness := flight.LastCheckedAt
	if hotel.LastCheckedAt.Before(freshness) {
		freshness = hotel.LastCheckedAt
	}

	distanceBand := firstNonEmpty(flight.Payload.DistanceBand, hotel.Payload.DistanceBand, candidate.Metadata.DistanceBand, defaultDistanceClass)
	season := firstPositive(flight.Payload.SeasonMultiplier, hotel.Payload.SeasonMultiplier, candidate.Metadata.SeasonMultiplier, defaultSeasonFactor)
	nonstop := firstPositive(flight.Payload.NonstopLikelihood, hotel.Payload.NonstopLikelihood, candidate.Metadata.NonstopLikelihood, defaultNonstopPrior)

	freshnessAt := freshness
	score := ScorePackage(ScoreInput{
		TotalMinor:        totalMinor,
		BudgetMinor:       in.Plan.BudgetMinor,
		PreferenceWeights: in.Plan.PreferenceWeights,
		CandidateTags:     candidate.Metadata.Tags,
		SeasonMultiplier:  season,
		DistanceBand:      distanceBand,
		NonstopLikelihood: nonstop,
		FreshnessAt:       &freshnessAt,
		Now:               in.Now,
	})
	score.Breakdown.Source = firstNonEmpty(flight.Payload.DataSource, hotel.Payload.DataSource, entity.SourceFallback)

	return &entity.PackageOption{
		ID:             uuid.NewString(),
		PlanID:         in.Plan.ID,
		CandidateID:    candidate.ID,
		FlightOptionID: flight.ID,
		HotelOptionID:  hotel.ID,
		Currency:       currency,
		TotalMinor:     totalMinor,

		EstimatedTotalMin:        totalMin,
		EstimatedTotalMax:        totalMax,
		EstimatedFlightMin:       flightMin,
		EstimatedFlightMax:       flightMax,
		EstimatedHotelNightlyMin: hotelMin,
		EstimatedHotelNightlyMax: hotelMax,

		FreshnessAt: freshness,

		Score:           score.Score,
		BudgetFitScore:  score.BudgetFit,
		PreferenceScore: score.PreferenceMatch,
		SeasonScore:     score.Seasonality,
		TravelTimeScore: score.TravelTime,
		FreshnessScore:  score.Freshness,
		Explanations:    score.Explanations,
		Breakdown:       score.Breakdown,

		FlightURL: flight.OutboundURL,
		HotelURL:  hotel.OutboundURL,

		CreatedAt: in.Now,
	}
}

// SortPackages orders a package slice by one of the supported sort modes.
func SortPackages(packages []*entity.PackageOption, sortMode string) {
	var less func(a, b *entity.PackageOption) bool
	switch sortMode {
	case entity.SortCheapest:
		less = func(a, b *entity.PackageOption) bool {
			if a.TotalMinor != b.TotalMinor {
				return a.TotalMinor < b.TotalMinor
			}
			return a.Score > b.Score
		}
	case entity.SortFastest:
		less = func(a, b *entity.PackageOption) bool {
			if a.TravelTimeScore != b.TravelTimeScore {
				return a.TravelTimeScore > b.TravelTimeScore
			}
			return a.TotalMinor < b.TotalMinor
		}
	case entity.SortBestHotel:
		less = func(a, b *entity.PackageOption) bool {
			if a.PreferenceScore != b.PreferenceScore {
				return a.PreferenceScore > b.PreferenceScore
			}
			return a.TotalMinor < b.TotalMinor
		}
	default: // best_value
		less = func(a, b *entity.PackageOption) bool {
			if a.Score != b.Score {
				return a.Score > b.Score
			}
			return a.TotalMinor < b.TotalMinor
		}
	}
	sort.SliceStable(packages, func(i, j int) bool { return less(packages[i], packages[j]) })
}

func topFlights(flights []*entity.FlightOption) []*entity.FlightOption {
	sorted := make([]*entity.FlightOption, len(flights))
	copy(sorted, flights)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].AmountMinor < sorted[j].AmountMinor })
	if len(sorted) > topOptionsPerKind {
		sorted = sorted[:topOptionsPerKind]
	}
	return sorted
}

func topHotels(hotels []*entity.HotelOption) []*entity.HotelOption {
	sorted := make([]*entity.HotelOption, len(hotels))
	copy(sorted, hotels)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].AmountMinor < sorted[j].AmountMinor })
	if len(sorted) > topOptionsPerKind {
		sorted = sorted[:topOptionsPerKind]
	}
	return sorted
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPositive(values ...float64) float64 {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
