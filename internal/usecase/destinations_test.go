package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planpilot-service/pkg/logger"
)

func newTestExpander() (*DestinationExpander, *fakeCandidateRepo) {
	candidates := newFakeCandidateRepo()
	return NewDestinationExpander(testAirports(), candidates, logger.NewNopLogger()), candidates
}

func TestExpandDirectModeDedupesAndRanks(t *testing.T) {
	expander, repo := newTestExpander()
	plan := queuedPlan("plan-1", "lis", "LIS", "OPO")

	got, err := expander.Expand(context.Background(), plan, 8)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "LIS", got[0].AirportCode)
	assert.Equal(t, 1, got[0].Rank)
	assert.Equal(t, "OPO", got[1].AirportCode)
	assert.Equal(t, 2, got[1].Rank)

	lisbon := got[0]
	assert.Equal(t, "PT", lisbon.CountryCode)
	assert.Equal(t, "Lisbon", lisbon.CityName)
	assert.Equal(t, TierStandard, lisbon.Metadata.Tier)
	assert.Equal(t, 0.66, lisbon.Metadata.NonstopLikelihood)
	assert.Equal(t, BandMedium, lisbon.Metadata.DistanceBand)
	assert.Greater(t, lisbon.Metadata.DistanceKm, 1000.0)
	assert.Greater(t, lisbon.Metadata.SeasonMultiplier, 0.0)
	require.NotNil(t, lisbon.Latitude)

	stored, err := repo.ListByPlan(context.Background(), "plan-1")
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestExpandDirectModeSkipsUnknownAirports(t *testing.T) {
	expander, _ := newTestExpander()
	plan := queuedPlan("plan-2", "LIS", "XXX")

	got, err := expander.Expand(context.Background(), plan, 8)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "LIS", got[0].AirportCode)
}

func TestExpandExploreModeRanksCountryAirports(t *testing.T) {
	expander, _ := newTestExpander()
	plan := queuedPlan("plan-3")
	plan.DestinationCountry = "PT"

	got, err := expander.Expand(context.Background(), plan, 8)
	require.NoError(t, err)
	require.Len(t, got, 2)
	// Equal heuristic scores break ties on IATA code.
	assert.Equal(t, "LIS", got[0].AirportCode)
	assert.Equal(t, "OPO", got[1].AirportCode)
}

func TestExpandExploreModeHonorsLimit(t *testing.T) {
	expander, _ := newTestExpander()
	plan := queuedPlan("plan-4")
	plan.DestinationCountry = "PT"

	got, err := expander.Expand(context.Background(), plan, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "LIS", got[0].AirportCode)
}

func TestExpandWithoutDestinationIntent(t *testing.T) {
	expander, _ := newTestExpander()
	plan := queuedPlan("plan-5")

	got, err := expander.Expand(context.Background(), plan, 8)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestHeuristicScoreFavorsInternationalHubs(t *testing.T) {
	plain, _, _ := heuristicScore("Humberto Delgado Airport", &parisPoint, &londonPoint)
	hub, _, _ := heuristicScore("Heathrow International Airport", &parisPoint, &londonPoint)
	assert.Equal(t, plain+24, hub)
}

func TestCandidateProfileOverridePrecedence(t *testing.T) {
	tier, tags, nonstop := candidateProfile("CDG", "FR")
	assert.Equal(t, TierPremium, tier)
	assert.Contains(t, tags, "city")
	assert.Equal(t, 0.88, nonstop)

	// No hub override falls back to the country default.
	tier, _, nonstop = candidateProfile("LIS", "PT")
	assert.Equal(t, TierStandard, tier)
	assert.Equal(t, 0.66, nonstop)

	tier, tags, nonstop = candidateProfile("ZZZ", "ZZ")
	assert.Equal(t, TierStandard, tier)
	assert.Equal(t, []string{"culture", "food"}, tags)
	assert.Equal(t, 0.55, nonstop)
}
