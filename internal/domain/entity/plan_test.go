package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatusAllows(t *testing.T) {
	tests := []struct {
		name    string
		current string
		next    string
		want    bool
	}{
		{"forward transition", StatusQueued, StatusExpandingDestinations, true},
		{"skipping stages forward", StatusQueued, StatusScoring, true},
		{"backward transition rejected", StatusScoring, StatusFetchingMarketData, false},
		{"same status rejected", StatusScoring, StatusScoring, false},
		{"failed reachable from any active state", StatusFetchingMarketData, StatusFailed, true},
		{"completed is terminal", StatusCompleted, StatusFailed, false},
		{"failed is terminal", StatusFailed, StatusQueued, false},
		{"failed cannot complete", StatusFailed, StatusCompleted, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusAllows(tt.current, tt.next))
		})
	}
}

func TestResolveDatesExactMode(t *testing.T) {
	depart := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	ret := depart.AddDate(0, 0, 6)
	plan := &PlanRequest{DateMode: DateModeExact, DepartDate: &depart, ReturnDate: &ret}

	gotDepart, gotReturn := plan.ResolveDates(time.Now())
	assert.Equal(t, depart, gotDepart)
	assert.Equal(t, ret, gotReturn)
}

func TestResolveDatesFlexibleAnchorsOnTravelMonth(t *testing.T) {
	month := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	plan := &PlanRequest{DateMode: DateModeFlexible, TravelMonth: &month, NightsMin: 4, NightsMax: 8}

	depart, ret := plan.ResolveDates(time.Now())
	assert.Equal(t, time.Date(2026, 11, 15, 0, 0, 0, 0, time.UTC), depart)
	// Midpoint of the nights range.
	assert.Equal(t, depart.AddDate(0, 0, 6), ret)
}

func TestResolveDatesFlexibleWithoutAnchor(t *testing.T) {
	now := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	plan := &PlanRequest{DateMode: DateModeFlexible, NightsMin: 5, NightsMax: 7}

	depart, ret := plan.ResolveDates(now)
	assert.Equal(t, now.AddDate(0, 0, 45), depart)
	assert.Equal(t, depart.AddDate(0, 0, 6), ret)
}

func TestResolveDatesClampsNights(t *testing.T) {
	now := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	plan := &PlanRequest{DateMode: DateModeFlexible, NightsMin: 0, NightsMax: 0}

	depart, ret := plan.ResolveDates(now)
	assert.Equal(t, depart.AddDate(0, 0, 1), ret)
}

func TestSelectedNights(t *testing.T) {
	now := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	plan := &PlanRequest{DateMode: DateModeFlexible, NightsMin: 5, NightsMax: 7}
	assert.Equal(t, 6, plan.SelectedNights(now))
}
