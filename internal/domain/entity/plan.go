package entity

import (
	"time"
)

// Plan lifecycle states. Transitions are monotonic; failed is terminal and
// reachable from any non-terminal state.
const (
	StatusQueued                = "queued"
	StatusExpandingDestinations = "expanding_destinations"
	StatusFetchingMarketData    = "fetching_market_data"
	StatusNormalizingCurrency   = "normalizing_currency"
	StatusScoring               = "scoring"
	StatusCompleted             = "completed"
	StatusFailed                = "failed"
)

// statusRank orders the state machine so a stale writer can never move a
// plan backwards.
var statusRank = map[string]int{
	StatusQueued:                0,
	StatusExpandingDestinations: 1,
	StatusFetchingMarketData:    2,
	StatusNormalizingCurrency:   3,
	StatusScoring:               4,
	StatusCompleted:             5,
	StatusFailed:                5,
}

// StatusAllows reports whether a transition from current to next is legal.
func StatusAllows(current, next string) bool {
	if current == StatusCompleted || current == StatusFailed {
		return false
	}
	if next == StatusFailed {
		return true
	}
	return statusRank[next] > statusRank[current]
}

// Date modes for a plan request.
const (
	DateModeExact    = "exact"
	DateModeFlexible = "flexible"
)

// PlanRequest is one user's search intent and the root of the pipeline.
// The orchestrator owns it exclusively while a pipeline run is in flight.
type PlanRequest struct {
	ID                 string
	OriginCode         string
	DestinationCodes   []string
	DestinationCountry string
	DateMode           string
	DepartDate         *time.Time
	ReturnDate         *time.Time
	TravelMonth        *time.Time
	FlexibilityDays    int
	NightsMin          int
	NightsMax          int
	BudgetMinor        int64
	Travelers          int
	Currency           string
	PreferenceWeights  map[string]float64
	Status             string
	ProgressPercent    int
	ProgressMessage    string
	ErrorMessage       string
	StartedAt          *time.Time
	CompletedAt        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ResolveDates returns the concrete depart/return dates for estimation.
// Exact mode uses the stored dates; flexible mode anchors on the travel
// month's 15th (or now+45d) and spans the midpoint of the nights range.
func (p *PlanRequest) ResolveDates(now time.Time) (time.Time, time.Time) {
	if p.DateMode == DateModeExact && p.DepartDate != nil && p.ReturnDate != nil {
		return *p.DepartDate, *p.ReturnDate
	}

	var depart time.Time
	switch {
	case p.DepartDate != nil:
		depart = *p.DepartDate
	case p.TravelMonth != nil:
		depart = time.Date(p.TravelMonth.Year(), p.TravelMonth.Month(), 15, 0, 0, 0, 0, time.UTC)
	default:
		depart = now.AddDate(0, 0, 45)
	}

	nightsMin := p.NightsMin
	if nightsMin < 1 {
		nightsMin = 1
	}
	nightsMax := p.NightsMax
	if nightsMax < nightsMin {
		nightsMax = nightsMin
	}
	avgNights := (nightsMin + nightsMax) / 2
	if avgNights < nightsMin {
		avgNights = nightsMin
	}
	return depart, depart.AddDate(0, 0, avgNights)
}

// SelectedNights returns the night count the builder totals hotel costs over.
func (p *PlanRequest) SelectedNights(now time.Time) int {
	depart, ret := p.ResolveDates(now)
	nights := int(ret.Sub(depart).Hours() / 24)
	if nights < 1 {
		nights = 1
	}
	return nights
}
