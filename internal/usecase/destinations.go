package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"planpilot-service/internal/domain/entity"
	"planpilot-service/internal/domain/repository"
	"planpilot-service/pkg/geo"
	"planpilot-service/pkg/logger"
	"planpilot-service/pkg/money"
)

const (
	defaultMaxCandidates  = 8
	exploreScanLimit      = 4000
	unknownDistanceKm     = 3200.0
	minTravelTimeMinutes  = 90
	cruiseSpeedKmPerHour  = 780.0
	taxiAndLayoverMinutes = 80
)

// DestinationExpander turns a plan's destination intent into ranked
// DestinationCandidate rows. Direct mode honors an explicit airport list;
// explore mode ranks a country's airports by a deterministic heuristic.
type DestinationExpander struct {
	airports   repository.AirportRepository
	candidates repository.CandidateRepository
	log        logger.Logger
}

func NewDestinationExpander(airports repository.AirportRepository, candidates repository.CandidateRepository, log logger.Logger) *DestinationExpander {
	return &DestinationExpander{airports: airports, candidates: candidates, log: log}
}

// Expand replaces the plan's candidate set. Zero returned candidates means
// the plan cannot proceed.
func (d *DestinationExpander) Expand(ctx context.Context, plan *entity.PlanRequest, maxItems int) ([]*entity.DestinationCandidate, error) {
	if maxItems <= 0 {
		maxItems = defaultMaxCandidates
	}

	originCode := normalizeIATA(plan.OriginCode)
	originPoint := d.airportPoint(ctx, originCode)

	var airportCodes []string
	var err error
	if len(plan.DestinationCodes) > 0 {
		airportCodes = dedupeIATA(plan.DestinationCodes)
	} else {
		airportCodes, err = d.exploreAirports(ctx, originCode, originPoint, plan.DestinationCountry, maxItems)
		if err != nil {
			return nil, fmt.Errorf("explore airports: %w", err)
		}
	}
	if len(airportCodes) == 0 {
		return nil, nil
	}
	if len(airportCodes) > maxItems {
		airportCodes = airportCodes[:maxItems]
	}

	departDate, _ := plan.ResolveDates(time.Now().UTC())
	season := SeasonMultiplierForMonth(int(departDate.Month()))

	records := make([]*entity.DestinationCandidate, 0, len(airportCodes))
	for rank, code := range airportCodes {
		airport, err := d.airports.GetByIATA(ctx, code)
		if err != nil || airport == nil {
			d.log.Warn("Skipping unknown airport", "airport", code, "planId", plan.ID)
			continue
		}

		tier, tags, nonstop := candidateProfile(code, airport.CountryCode)
		destPoint := pointOf(airport)
		score, distanceKm, _ := heuristicScore(airport.Name, originPoint, destPoint)

		candidate := &entity.DestinationCandidate{
			ID:          uuid.NewString(),
			PlanID:      plan.ID,
			CountryCode: strings.ToUpper(airport.CountryCode),
			CityName:    airport.City,
			AirportCode: airport.IATA,
			Latitude:    airport.Latitude,
			Longitude:   airport.Longitude,
			Rank:        rank + 1,
			Metadata: entity.CandidateMetadata{
				Tier:              tier,
				Tags:              tags,
				NonstopLikelihood: nonstop,
				AirportName:       airport.Name,
				HeuristicScore:    money.Round2(score),
				DistanceKm:        money.Round2(distanceKm),
				DistanceBand:      distanceProfile(distanceKm).Band,
				SeasonMultiplier:  season,
			},
		}
		records = append(records, candidate)
	}

	if err := d.candidates.ReplaceForPlan(ctx, plan.ID, records); err != nil {
		return nil, fmt.Errorf("replace candidates: %w", err)
	}
	return records, nil
}

// exploreAirports ranks a country's airports against the origin. Score ties
// break on IATA code so the ordering is stable across runs.
func (d *DestinationExpander) exploreAirports(ctx context.Context, originCode string, originPoint *geo.Point, countryCode string, maxItems int) ([]string, error) {
	countryCode = strings.ToUpper(strings.TrimSpace(countryCode))
	if countryCode == "" || countryCode == "XX" {
		return nil, nil
	}

	airports, err := d.airports.ListByCountry(ctx, countryCode, exploreScanLimit)
	if err != nil {
		return nil, err
	}

	type rankedAirport struct {
		score float64
		iata  string
	}
	ranked := make([]rankedAirport, 0, len(airports))
	for _, airport := range airports {
		if airport.IATA == originCode {
			continue
		}
		destPoint := pointOf(airport)
		if destPoint == nil {
			continue
		}
		score, _, _ := heuristicScore(airport.Name, originPoint, destPoint)
		ranked = append(ranked, rankedAirport{score: score, iata: airport.IATA})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].iata < ranked[j].iata
	})

	codes := make([]string, 0, maxItems)
	for _, item := range ranked {
		codes = append(codes, item.iata)
		if len(codes) == maxItems {
			break
		}
	}
	return codes, nil
}

// heuristicScore favors reachable, well-connected destinations. The weights
// are fixed so expansion is deterministic for a given airport dataset.
func heuristicScore(airportName string, origin, destination *geo.Point) (float64, float64, int) {
	distanceKm := unknownDistanceKm
	if origin != nil && destination != nil {
		distanceKm = geo.HaversineKm(*origin, *destination)
	}
	durationMinutes := roughTravelTimeMinutes(origin, destination)

	score := 0.0
	if strings.Contains(strings.ToLower(airportName), "international") {
		score += 24
	}

	switch {
	case distanceKm <= 1200:
		score += 16
	case distanceKm <= 3800:
		score += 26
	case distanceKm <= 8500:
		score += 18
	default:
		score += 6
	}

	switch {
	case durationMinutes <= 420:
		score += 17
	case durationMinutes <= 720:
		score += 11
	default:
		score += 5
	}

	return score, distanceKm, durationMinutes
}

// roughTravelTimeMinutes approximates door-to-door time from cruise speed
// plus a fixed taxi/layover allowance.
func roughTravelTimeMinutes(origin, destination *geo.Point) int {
	if origin == nil || destination == nil {
		return 360
	}
	distance := geo.HaversineKm(*origin, *destination)
	minutes := int(taxiAndLayoverMinutes + distance/cruiseSpeedKmPerHour*60)
	if minutes < minTravelTimeMinutes {
		return minTravelTimeMinutes
	}
	return minutes
}

// candidateProfile resolves tier/tags/nonstop prior with airport overrides
// taking precedence over country defaults.
func candidateProfile(airportCode, countryCode string) (string, []string, float64) {
	if tier, tags, nonstop, ok := AirportOverrideProfile(airportCode); ok {
		return tier, tags, nonstop
	}
	return CountryDefaultProfile(strings.ToUpper(countryCode))
}

func (d *DestinationExpander) airportPoint(ctx context.Context, iata string) *geo.Point {
	airport, err := d.airports.GetByIATA(ctx, iata)
	if err != nil || airport == nil {
		return nil
	}
	return pointOf(airport)
}

func pointOf(airport *entity.Airport) *geo.Point {
	if airport.Latitude == nil || airport.Longitude == nil {
		return nil
	}
	return &geo.Point{Lat: *airport.Latitude, Lon: *airport.Longitude}
}

func normalizeIATA(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func dedupeIATA(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, raw := range codes {
		code := normalizeIATA(raw)
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	return out
}
