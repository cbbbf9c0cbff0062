package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planpilot-service/internal/domain/entity"
	"planpilot-service/internal/domain/repository"
	"planpilot-service/pkg/logger"
	"planpilot-service/pkg/metrics"
)

// Shared across tests: promauto registers on the default registry, so the
// metric set may only be constructed once per test binary.
var pipelineTestMetrics = metrics.NewMetrics("planpilot_test")

type fakePlanRepo struct {
	mu      sync.Mutex
	plans   map[string]*entity.PlanRequest
	updates []repository.StatusUpdate
}

func newFakePlanRepo() *fakePlanRepo {
	return &fakePlanRepo{plans: make(map[string]*entity.PlanRequest)}
}

func (r *fakePlanRepo) Create(_ context.Context, plan *entity.PlanRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *plan
	r.plans[plan.ID] = &copied
	return nil
}

func (r *fakePlanRepo) GetByID(_ context.Context, id string) (*entity.PlanRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	plan, ok := r.plans[id]
	if !ok {
		return nil, nil
	}
	copied := *plan
	return &copied, nil
}

func (r *fakePlanRepo) UpdateStatus(_ context.Context, id string, update repository.StatusUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	plan := r.plans[id]
	plan.Status = update.Status
	plan.ProgressPercent = update.ProgressPercent
	plan.ProgressMessage = update.ProgressMessage
	if update.ErrorMessage != "" {
		plan.ErrorMessage = update.ErrorMessage
	}
	if update.StartedAt != nil {
		plan.StartedAt = update.StartedAt
	}
	if update.CompletedAt != nil {
		plan.CompletedAt = update.CompletedAt
	}
	r.updates = append(r.updates, update)
	return nil
}

func (r *fakePlanRepo) statusHistory() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.updates))
	for i, update := range r.updates {
		out[i] = update.Status
	}
	return out
}

type fakeCandidateRepo struct {
	mu     sync.Mutex
	byPlan map[string][]*entity.DestinationCandidate
}

func newFakeCandidateRepo() *fakeCandidateRepo {
	return &fakeCandidateRepo{byPlan: make(map[string][]*entity.DestinationCandidate)}
}

func (r *fakeCandidateRepo) ReplaceForPlan(_ context.Context, planID string, candidates []*entity.DestinationCandidate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byPlan[planID] = candidates
	return nil
}

func (r *fakeCandidateRepo) ListByPlan(_ context.Context, planID string) ([]*entity.DestinationCandidate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byPlan[planID], nil
}

func (r *fakeCandidateRepo) GetByID(_ context.Context, id string) (*entity.DestinationCandidate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, candidates := range r.byPlan {
		for _, candidate := range candidates {
			if candidate.ID == id {
				return candidate, nil
			}
		}
	}
	return nil, nil
}

func (r *fakeCandidateRepo) UpdateMetadata(_ context.Context, id string, metadata entity.CandidateMetadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, candidates := range r.byPlan {
		for _, candidate := range candidates {
			if candidate.ID == id {
				candidate.Metadata = metadata
			}
		}
	}
	return nil
}

type fakeOptionRepo struct {
	mu      sync.Mutex
	flights map[string]*entity.FlightOption
	hotels  map[string]*entity.HotelOption
}

func newFakeOptionRepo() *fakeOptionRepo {
	return &fakeOptionRepo{
		flights: make(map[string]*entity.FlightOption),
		hotels:  make(map[string]*entity.HotelOption),
	}
}

func (r *fakeOptionRepo) ReplaceForCandidate(_ context.Context, _, candidateID string, flight *entity.FlightOption, hotel *entity.HotelOption) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flights[candidateID] = flight
	r.hotels[candidateID] = hotel
	return nil
}

func (r *fakeOptionRepo) FlightsByPlan(_ context.Context, planID string) ([]*entity.FlightOption, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.FlightOption
	for _, flight := range r.flights {
		if flight.PlanID == planID {
			out = append(out, flight)
		}
	}
	return out, nil
}

func (r *fakeOptionRepo) HotelsByPlan(_ context.Context, planID string) ([]*entity.HotelOption, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.HotelOption
	for _, hotel := range r.hotels {
		if hotel.PlanID == planID {
			out = append(out, hotel)
		}
	}
	return out, nil
}

func (r *fakeOptionRepo) CurrenciesByPlan(_ context.Context, planID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[string]struct{})
	var out []string
	for _, flight := range r.flights {
		if flight.PlanID == planID {
			if _, ok := seen[flight.Currency]; !ok {
				seen[flight.Currency] = struct{}{}
				out = append(out, flight.Currency)
			}
		}
	}
	return out, nil
}

type fakePackageRepo struct {
	mu     sync.Mutex
	byPlan map[string][]*entity.PackageOption
}

func newFakePackageRepo() *fakePackageRepo {
	return &fakePackageRepo{byPlan: make(map[string][]*entity.PackageOption)}
}

func (r *fakePackageRepo) ReplaceForPlan(_ context.Context, planID string, packages []*entity.PackageOption) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byPlan[planID] = packages
	return nil
}

func (r *fakePackageRepo) ListByPlan(_ context.Context, planID string) ([]*entity.PackageOption, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byPlan[planID], nil
}

func (r *fakePackageRepo) CountByPlan(_ context.Context, planID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byPlan[planID]), nil
}

type fakeDiagRepo struct {
	mu     sync.Mutex
	calls  []*entity.ProviderCall
	errors []*entity.ProviderErrorRecord
}

func (r *fakeDiagRepo) RecordCall(_ context.Context, call *entity.ProviderCall) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
	return nil
}

func (r *fakeDiagRepo) RecordError(_ context.Context, record *entity.ProviderErrorRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, record)
	return nil
}

func (r *fakeDiagRepo) HealthByProvider(_ context.Context, provider string, _ int) (*entity.ProviderHealth, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	health := &entity.ProviderHealth{Provider: provider, ErrorCounts: make(map[string]int)}
	for _, call := range r.calls {
		if call.Provider != provider {
			continue
		}
		health.TotalCalls++
		if !call.Success {
			health.ErrorCounts[call.ErrorType]++
		}
	}
	return health, nil
}

func (r *fakeDiagRepo) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

type fakeAirportRepo struct {
	byIATA map[string]*entity.Airport
}

func (r *fakeAirportRepo) GetByIATA(_ context.Context, iata string) (*entity.Airport, error) {
	return r.byIATA[iata], nil
}

func (r *fakeAirportRepo) ListByCountry(_ context.Context, countryCode string, limit int) ([]*entity.Airport, error) {
	var out []*entity.Airport
	for _, airport := range r.byIATA {
		if airport.CountryCode == countryCode && len(out) < limit {
			out = append(out, airport)
		}
	}
	return out, nil
}

func coord(v float64) *float64 { return &v }

func testAirports() *fakeAirportRepo {
	return &fakeAirportRepo{byIATA: map[string]*entity.Airport{
		"CDG": {IATA: "CDG", Name: "Charles de Gaulle International Airport", City: "Paris", CountryCode: "FR", Latitude: coord(49.0097), Longitude: coord(2.5479)},
		"LIS": {IATA: "LIS", Name: "Humberto Delgado Airport", City: "Lisbon", CountryCode: "PT", Latitude: coord(38.7742), Longitude: coord(-9.1342)},
		"OPO": {IATA: "OPO", Name: "Francisco Sa Carneiro Airport", City: "Porto", CountryCode: "PT", Latitude: coord(41.2481), Longitude: coord(-8.6814)},
	}}
}

type pipelineFixture struct {
	plans    *fakePlanRepo
	packages *fakePackageRepo
	options  *fakeOptionRepo
	diags    *fakeDiagRepo
	orch     *Orchestrator
}

func newPipelineFixture(cfg OrchestratorConfig) *pipelineFixture {
	log := logger.NewNopLogger()
	return newPipelineFixtureWithEstimator(cfg, NewCandidateEstimator(nil, nil, log))
}

func newPipelineFixtureWithEstimator(cfg OrchestratorConfig, estimator Estimator) *pipelineFixture {
	log := logger.NewNopLogger()
	plans := newFakePlanRepo()
	candidates := newFakeCandidateRepo()
	options := newFakeOptionRepo()
	packages := newFakePackageRepo()
	diags := &fakeDiagRepo{}
	airports := testAirports()

	fx := NewFxService(newFakeFxRateRepo(), FallbackFxProvider{}, log)
	orch := NewOrchestrator(
		plans, candidates, options, packages, diags, airports,
		NewDestinationExpander(airports, candidates, log),
		estimator,
		fx,
		NewPackageBuilder(fx, log),
		NewSearchLinkBuilder("", "", ""),
		cfg,
		pipelineTestMetrics,
		log,
	)
	return &pipelineFixture{plans: plans, packages: packages, options: options, diags: diags, orch: orch}
}

// fakeEstimator returns live estimates except for airports listed as
// timing out, which always come back fallback-sourced with a retryable
// error classification.
type fakeEstimator struct {
	mu       sync.Mutex
	timeouts map[string]bool
	calls    map[string]int
}

func newFakeEstimator(timeoutAirports ...string) *fakeEstimator {
	timeouts := make(map[string]bool, len(timeoutAirports))
	for _, code := range timeoutAirports {
		timeouts[code] = true
	}
	return &fakeEstimator{timeouts: timeouts, calls: make(map[string]int)}
}

func (f *fakeEstimator) Estimate(_ context.Context, pctx PlanContext, candidate *entity.DestinationCandidate) entity.CandidateEstimate {
	f.mu.Lock()
	f.calls[candidate.AirportCode]++
	f.mu.Unlock()

	estimate := entity.CandidateEstimate{
		Provider:          "aggregator",
		Source:            entity.SourceFallback,
		Currency:          pctx.Currency,
		FlightMin:         260,
		FlightMax:         680,
		HotelNightlyMin:   80,
		HotelNightlyMax:   190,
		FreshnessAt:       pctx.Now,
		DistanceBand:      BandMedium,
		SeasonMultiplier:  1.02,
		NonstopLikelihood: 0.7,
		TravelTimeMinutes: 300,
		Tier:              TierStandard,
		Endpoints:         map[string]string{},
	}
	if f.timeouts[candidate.AirportCode] {
		estimate.ErrorType = entity.ErrorTimeout
		estimate.ErrorSummary = "aggregator: request timed out"
		return estimate
	}
	estimate.Source = entity.SourceLive
	estimate.FlightMin = 320
	estimate.FlightMax = 540
	return estimate
}

func (f *fakeEstimator) callsFor(airport string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[airport]
}

func queuedPlan(id string, destinations ...string) *entity.PlanRequest {
	return &entity.PlanRequest{
		ID:               id,
		OriginCode:       "CDG",
		DestinationCodes: destinations,
		DateMode:         entity.DateModeFlexible,
		NightsMin:        5,
		NightsMax:        7,
		Travelers:        2,
		Currency:         "EUR",
		Status:           entity.StatusQueued,
		ProgressPercent:  progressQueued,
	}
}

func TestRunCompletesWithFallbackEstimates(t *testing.T) {
	fixture := newPipelineFixture(OrchestratorConfig{WorkerLimit: 2, JobTimeout: 5 * time.Second})
	ctx := context.Background()
	require.NoError(t, fixture.plans.Create(ctx, queuedPlan("plan-1", "LIS", "OPO")))

	require.NoError(t, fixture.orch.Run(ctx, "plan-1"))

	plan, err := fixture.plans.GetByID(ctx, "plan-1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCompleted, plan.Status)
	assert.Equal(t, progressDone, plan.ProgressPercent)
	assert.Empty(t, plan.ErrorMessage)
	require.NotNil(t, plan.StartedAt)
	require.NotNil(t, plan.CompletedAt)

	assert.Equal(t, []string{
		entity.StatusExpandingDestinations,
		entity.StatusFetchingMarketData,
		entity.StatusNormalizingCurrency,
		entity.StatusScoring,
		entity.StatusCompleted,
	}, fixture.plans.statusHistory())

	// One flight and one hotel materialized per candidate, fallback-sourced.
	flights, err := fixture.options.FlightsByPlan(ctx, "plan-1")
	require.NoError(t, err)
	require.Len(t, flights, 2)
	for _, flight := range flights {
		assert.Equal(t, entity.SourceFallback, flight.Payload.DataSource)
		assert.NotEmpty(t, flight.OutboundURL)
		assert.Greater(t, flight.AmountMinor, int64(0))
	}

	packages, err := fixture.packages.ListByPlan(ctx, "plan-1")
	require.NoError(t, err)
	require.NotEmpty(t, packages)
	for i, pkg := range packages {
		assert.Equal(t, i+1, pkg.Rank)
		assert.Equal(t, "EUR", pkg.Currency)
	}

	// One diagnostic row per candidate job, all successful.
	assert.Equal(t, 2, fixture.diags.callCount())
	assert.Empty(t, fixture.diags.errors)
}

// One candidate's provider times out on every attempt while its sibling
// returns live data. The plan must still complete, with the failed
// candidate present as fallback and the retries recorded as diagnostics.
func TestRunConvergesWhenOneCandidateTimesOut(t *testing.T) {
	estimator := newFakeEstimator("OPO")
	fixture := newPipelineFixtureWithEstimator(OrchestratorConfig{WorkerLimit: 2, JobTimeout: 10 * time.Second}, estimator)
	ctx := context.Background()
	require.NoError(t, fixture.plans.Create(ctx, queuedPlan("plan-t", "LIS", "OPO")))

	require.NoError(t, fixture.orch.Run(ctx, "plan-t"))

	plan, err := fixture.plans.GetByID(ctx, "plan-t")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCompleted, plan.Status)
	assert.Empty(t, plan.ErrorMessage)

	// The timed-out candidate burned its full retry budget, the live one
	// succeeded first try.
	assert.Equal(t, 3, estimator.callsFor("OPO"))
	assert.Equal(t, 1, estimator.callsFor("LIS"))

	flights, err := fixture.options.FlightsByPlan(ctx, "plan-t")
	require.NoError(t, err)
	require.Len(t, flights, 2)
	sources := make(map[string]string, 2)
	for _, flight := range flights {
		sources[flight.DestinationCode] = flight.Payload.DataSource
	}
	assert.Equal(t, entity.SourceLive, sources["LIS"])
	assert.Equal(t, entity.SourceFallback, sources["OPO"])

	// Every attempt produced a call row; each failed attempt also produced
	// an immutable error record.
	assert.Equal(t, 4, fixture.diags.callCount())
	require.Len(t, fixture.diags.errors, 3)
	for _, record := range fixture.diags.errors {
		assert.Equal(t, entity.ErrorTimeout, record.ErrorType)
		assert.Equal(t, "aggregator", record.Provider)
	}

	packages, err := fixture.packages.ListByPlan(ctx, "plan-t")
	require.NoError(t, err)
	assert.Len(t, packages, 2)
}

func TestRunFailsWhenNoCandidatesResolve(t *testing.T) {
	fixture := newPipelineFixture(OrchestratorConfig{})
	ctx := context.Background()
	require.NoError(t, fixture.plans.Create(ctx, queuedPlan("plan-2", "ZZZ")))

	err := fixture.orch.Run(ctx, "plan-2")
	require.Error(t, err)

	plan, _ := fixture.plans.GetByID(ctx, "plan-2")
	assert.Equal(t, entity.StatusFailed, plan.Status)
	assert.Contains(t, plan.ErrorMessage, "no destination candidates")
	require.NotNil(t, plan.CompletedAt)
}

func TestRunRejectsTerminalPlan(t *testing.T) {
	fixture := newPipelineFixture(OrchestratorConfig{})
	ctx := context.Background()
	plan := queuedPlan("plan-3", "LIS")
	plan.Status = entity.StatusCompleted
	require.NoError(t, fixture.plans.Create(ctx, plan))

	err := fixture.orch.Run(ctx, "plan-3")
	require.Error(t, err)
	assert.Empty(t, fixture.plans.statusHistory())
}

func TestRefreshReestimatesTopCandidatesOnly(t *testing.T) {
	fixture := newPipelineFixture(OrchestratorConfig{RefreshTopN: 1, JobTimeout: 5 * time.Second})
	ctx := context.Background()
	require.NoError(t, fixture.plans.Create(ctx, queuedPlan("plan-4", "LIS", "OPO")))
	require.NoError(t, fixture.orch.Run(ctx, "plan-4"))

	callsAfterRun := fixture.diags.callCount()
	require.NoError(t, fixture.orch.Refresh(ctx, "plan-4"))

	// Only the candidate behind the top package was re-estimated.
	assert.Equal(t, callsAfterRun+1, fixture.diags.callCount())

	// A refresh never moves a completed plan's status.
	plan, _ := fixture.plans.GetByID(ctx, "plan-4")
	assert.Equal(t, entity.StatusCompleted, plan.Status)

	packages, err := fixture.packages.ListByPlan(ctx, "plan-4")
	require.NoError(t, err)
	assert.NotEmpty(t, packages)
}

func TestRefreshWithoutCandidatesErrors(t *testing.T) {
	fixture := newPipelineFixture(OrchestratorConfig{})
	ctx := context.Background()
	require.NoError(t, fixture.plans.Create(ctx, queuedPlan("plan-5", "LIS")))

	err := fixture.orch.Refresh(ctx, "plan-5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no candidates to refresh")
}
