package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planpilot-service/internal/domain/entity"
	"planpilot-service/pkg/logger"
)

func newTestPlanner() (*PlannerService, *fakePlanRepo) {
	plans := newFakePlanRepo()
	return NewPlannerService(plans, newFakePackageRepo(), logger.NewNopLogger()), plans
}

func TestCreatePlanNormalizesInput(t *testing.T) {
	planner, plans := newTestPlanner()

	plan, err := planner.CreatePlan(context.Background(), CreatePlanInput{
		OriginCode:       " cdg ",
		DestinationCodes: []string{"lis", "LIS", " opo"},
		Budget:           1500.50,
		NightsMax:        3,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, plan.ID)
	assert.Equal(t, "CDG", plan.OriginCode)
	assert.Equal(t, []string{"LIS", "OPO"}, plan.DestinationCodes)
	assert.Equal(t, entity.DateModeFlexible, plan.DateMode)
	assert.Equal(t, 1, plan.NightsMin)
	assert.Equal(t, 3, plan.NightsMax)
	assert.Equal(t, 1, plan.Travelers)
	assert.Equal(t, "USD", plan.Currency)
	assert.Equal(t, int64(150050), plan.BudgetMinor)
	assert.Equal(t, entity.StatusQueued, plan.Status)
	assert.Equal(t, progressQueued, plan.ProgressPercent)

	stored, err := plans.GetByID(context.Background(), plan.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, plan.ID, stored.ID)
}

func TestCreatePlanRequiresOrigin(t *testing.T) {
	planner, _ := newTestPlanner()

	_, err := planner.CreatePlan(context.Background(), CreatePlanInput{DestinationCodes: []string{"LIS"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "origin code")
}

func TestCreatePlanRequiresDestinationIntent(t *testing.T) {
	planner, _ := newTestPlanner()

	_, err := planner.CreatePlan(context.Background(), CreatePlanInput{OriginCode: "CDG"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "destination")
}

func TestCreatePlanAcceptsCountryExploreMode(t *testing.T) {
	planner, _ := newTestPlanner()

	plan, err := planner.CreatePlan(context.Background(), CreatePlanInput{
		OriginCode:         "CDG",
		DestinationCountry: "pt",
		Currency:           "eur",
	})
	require.NoError(t, err)
	assert.Equal(t, "PT", plan.DestinationCountry)
	assert.Equal(t, "EUR", plan.Currency)
	assert.Empty(t, plan.DestinationCodes)
}
