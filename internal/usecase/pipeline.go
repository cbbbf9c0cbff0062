package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"planpilot-service/internal/domain/entity"
	"planpilot-service/internal/domain/repository"
	"planpilot-service/pkg/logger"
	"planpilot-service/pkg/metrics"
	"planpilot-service/pkg/money"
)

const (
	defaultWorkerLimit = 4
	defaultJobTimeout  = 90 * time.Second
	defaultRefreshTopN = 3
	extraRetryAttempts = 2
	retryBackoffBase   = time.Second
)

// OrchestratorConfig bounds the fan-out and shapes the built package set.
type OrchestratorConfig struct {
	WorkerLimit   int
	JobTimeout    time.Duration
	MaxCandidates int
	SortMode      string
	MaxPackages   int
	RefreshTopN   int
}

func (c *OrchestratorConfig) applyDefaults() {
	if c.WorkerLimit <= 0 {
		c.WorkerLimit = defaultWorkerLimit
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaultJobTimeout
	}
	if c.MaxCandidates <= 0 {
		c.MaxCandidates = defaultMaxCandidates
	}
	if c.SortMode == "" {
		c.SortMode = entity.SortBestValue
	}
	if c.MaxPackages <= 0 {
		c.MaxPackages = defaultMaxPackages
	}
	if c.RefreshTopN <= 0 {
		c.RefreshTopN = defaultRefreshTopN
	}
}

// Estimator produces one estimate per destination candidate. It never
// returns an error; failures are classified on the estimate itself.
type Estimator interface {
	Estimate(ctx context.Context, pctx PlanContext, candidate *entity.DestinationCandidate) entity.CandidateEstimate
}

// Orchestrator drives a plan through the estimation pipeline: expansion,
// bounded fan-out estimation, currency normalization, scoring. Individual
// job failures never abort sibling jobs; the barrier waits for every job to
// reach a terminal outcome.
type Orchestrator struct {
	plans      repository.PlanRepository
	candidates repository.CandidateRepository
	options    repository.OptionRepository
	packages   repository.PackageRepository
	diags      repository.DiagnosticRepository
	airports   repository.AirportRepository

	expander  *DestinationExpander
	estimator Estimator
	fx        *FxService
	builder   *PackageBuilder
	links     LinkBuilder

	cfg     OrchestratorConfig
	metrics *metrics.Metrics
	log     logger.Logger
}

func NewOrchestrator(
	plans repository.PlanRepository,
	candidates repository.CandidateRepository,
	options repository.OptionRepository,
	packages repository.PackageRepository,
	diags repository.DiagnosticRepository,
	airports repository.AirportRepository,
	expander *DestinationExpander,
	estimator Estimator,
	fx *FxService,
	builder *PackageBuilder,
	links LinkBuilder,
	cfg OrchestratorConfig,
	m *metrics.Metrics,
	log logger.Logger,
) *Orchestrator {
	cfg.applyDefaults()
	return &Orchestrator{
		plans:      plans,
		candidates: candidates,
		options:    options,
		packages:   packages,
		diags:      diags,
		airports:   airports,
		expander:   expander,
		estimator:  estimator,
		fx:         fx,
		builder:    builder,
		links:      links,
		cfg:        cfg,
		metrics:    m,
		log:        log,
	}
}

// Run executes the full pipeline for a queued plan.
func (o *Orchestrator) Run(ctx context.Context, planID string) error {
	started := time.Now()
	o.metrics.PlansStarted.Inc()

	plan, err := o.plans.GetByID(ctx, planID)
	if err != nil {
		return fmt.Errorf("load plan %s: %w", planID, err)
	}
	if !entity.StatusAllows(plan.Status, entity.StatusExpandingDestinations) {
		return fmt.Errorf("plan %s is not runnable from status %s", planID, plan.Status)
	}

	now := time.Now().UTC()
	o.transition(ctx, plan, repository.StatusUpdate{
		Status:          entity.StatusExpandingDestinations,
		ProgressPercent: progressExpanding,
		ProgressMessage: "Expanding destination candidates",
		StartedAt:       &now,
	})

	candidates, err := o.expander.Expand(ctx, plan, o.cfg.MaxCandidates)
	if err != nil {
		return o.fail(ctx, plan, fmt.Sprintf("destination expansion failed: %v", err), started)
	}
	if len(candidates) == 0 {
		return o.fail(ctx, plan, "no destination candidates could be generated", started)
	}

	o.transition(ctx, plan, repository.StatusUpdate{
		Status:          entity.StatusFetchingMarketData,
		ProgressPercent: progressFetching,
		ProgressMessage: fmt.Sprintf("Fetching market data for %d candidates", len(candidates)),
	})

	o.runFanout(ctx, plan, candidates)

	if err := o.normalizeAndScore(ctx, plan, started); err != nil {
		return err
	}
	o.metrics.PipelineDuration.Observe(time.Since(started).Seconds())
	return nil
}

// Refresh re-estimates only the candidates backing the current top packages
// (or the first N candidates when no packages exist yet), then re-runs
// normalization and scoring. Destination expansion is not repeated and a
// completed plan's status is left alone.
func (o *Orchestrator) Refresh(ctx context.Context, planID string) error {
	started := time.Now()

	plan, err := o.plans.GetByID(ctx, planID)
	if err != nil {
		return fmt.Errorf("load plan %s: %w", planID, err)
	}

	targets, err := o.refreshTargets(ctx, plan)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return fmt.Errorf("plan %s has no candidates to refresh", planID)
	}

	o.runFanout(ctx, plan, targets)
	if err := o.rebuildPackages(ctx, plan); err != nil {
		return err
	}
	o.log.Info("Plan refresh finished", "planId", planID, "candidates", len(targets), "took", time.Since(started).String())
	return nil
}

// refreshTargets resolves the candidate subset for a refresh run.
func (o *Orchestrator) refreshTargets(ctx context.Context, plan *entity.PlanRequest) ([]*entity.DestinationCandidate, error) {
	all, err := o.candidates.ListByPlan(ctx, plan.ID)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	if len(all) == 0 {
		return nil, nil
	}

	packages, err := o.packages.ListByPlan(ctx, plan.ID)
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}

	byID := make(map[string]*entity.DestinationCandidate, len(all))
	for _, candidate := range all {
		byID[candidate.ID] = candidate
	}

	seen := make(map[string]struct{})
	var targets []*entity.DestinationCandidate
	for _, pkg := range packages {
		if len(targets) == o.cfg.RefreshTopN {
			break
		}
		if _, ok := seen[pkg.CandidateID]; ok {
			continue
		}
		if candidate, ok := byID[pkg.CandidateID]; ok {
			seen[pkg.CandidateID] = struct{}{}
			targets = append(targets, candidate)
		}
	}
	if len(targets) > 0 {
		return targets, nil
	}

	if len(all) > o.cfg.RefreshTopN {
		all = all[:o.cfg.RefreshTopN]
	}
	return all, nil
}

// runFanout dispatches one estimation job per candidate with bounded
// parallelism and waits for every job to finish. Jobs never return errors;
// failures are recorded on diagnostics and the candidate keeps its
// fallback-derived options.
func (o *Orchestrator) runFanout(ctx context.Context, plan *entity.PlanRequest, candidates []*entity.DestinationCandidate) {
	now := time.Now().UTC()
	departDate, returnDate := plan.ResolveDates(now)

	pctx := PlanContext{
		PlanID:     plan.ID,
		OriginCode: plan.OriginCode,
		DepartDate: departDate,
		ReturnDate: returnDate,
		Travelers:  plan.Travelers,
		Currency:   plan.Currency,
		Now:        now,
	}
	if origin, err := o.airports.GetByIATA(ctx, plan.OriginCode); err == nil && origin != nil {
		pctx.Origin = pointOf(origin)
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(o.cfg.WorkerLimit)
	for _, candidate := range candidates {
		candidate := candidate
		group.Go(func() error {
			o.runCandidateJob(groupCtx, pctx, candidate)
			return nil
		})
	}
	// Barrier: every job has reached a terminal outcome once Wait returns.
	_ = group.Wait()
}

// runCandidateJob estimates one candidate under its own deadline, retrying
// transient provider failures, then materializes option rows.
func (o *Orchestrator) runCandidateJob(ctx context.Context, pctx PlanContext, candidate *entity.DestinationCandidate) {
	jobCtx, cancel := context.WithTimeout(ctx, o.cfg.JobTimeout)
	defer cancel()

	estimate := o.estimator.Estimate(jobCtx, pctx, candidate)
	for attempt := 1; attempt <= extraRetryAttempts; attempt++ {
		if estimate.Source == entity.SourceLive || !entity.RetryableError(estimate.ErrorType) {
			break
		}
		o.recordAttempt(jobCtx, pctx.PlanID, &estimate)
		backoff := retryBackoffBase << (attempt - 1)
		select {
		case <-jobCtx.Done():
			return
		case <-time.After(backoff):
		}
		estimate = o.estimator.Estimate(jobCtx, pctx, candidate)
	}
	o.recordAttempt(jobCtx, pctx.PlanID, &estimate)

	if err := o.persistOptions(jobCtx, pctx, candidate, &estimate); err != nil {
		o.log.Error("Failed to persist candidate options", "planId", pctx.PlanID, "candidateId", candidate.ID, "error", err)
		o.metrics.CandidateJobs.WithLabelValues("error").Inc()
		return
	}

	meta := candidate.Metadata
	meta.SignalSource = estimate.Source
	if err := o.candidates.UpdateMetadata(jobCtx, candidate.ID, meta); err != nil {
		o.log.Warn("Failed to update candidate metadata", "candidateId", candidate.ID, "error", err)
	}
	o.metrics.CandidateJobs.WithLabelValues(estimate.Source).Inc()
}

// recordAttempt appends call/error diagnostics for one estimation attempt.
// Diagnostics failures are logged and swallowed so they cannot fail a job.
func (o *Orchestrator) recordAttempt(ctx context.Context, planID string, estimate *entity.CandidateEstimate) {
	success := estimate.ErrorType == ""
	call := &entity.ProviderCall{
		Provider:  estimate.Provider,
		PlanID:    planID,
		Success:   success,
		ErrorType: estimate.ErrorType,
		LatencyMs: estimate.LatencyMs,
		CreatedAt: time.Now().UTC(),
	}
	if err := o.diags.RecordCall(ctx, call); err != nil {
		o.log.Warn("Failed to record provider call", "planId", planID, "error", err)
	}
	o.metrics.ProviderCalls.WithLabelValues(estimate.Provider, estimate.ErrorType).Inc()
	o.metrics.ProviderLatency.Observe(float64(estimate.LatencyMs) / 1000)

	if success {
		return
	}
	record := &entity.ProviderErrorRecord{
		PlanID:    planID,
		Provider:  estimate.Provider,
		Context:   "candidate_estimation",
		ErrorType: estimate.ErrorType,
		LatencyMs: estimate.LatencyMs,
		Message:   estimate.ErrorSummary,
		CreatedAt: time.Now().UTC(),
	}
	if err := o.diags.RecordError(ctx, record); err != nil {
		o.log.Warn("Failed to record provider error", "planId", planID, "error", err)
	}
}

// persistOptions replaces the candidate's flight/hotel rows with the fresh
// estimate. Options are delete+recreate, never partially updated.
func (o *Orchestrator) persistOptions(ctx context.Context, pctx PlanContext, candidate *entity.DestinationCandidate, estimate *entity.CandidateEstimate) error {
	payload := entity.OptionPayload{
		EstimatedBand:     entity.OptionBand{Min: estimate.FlightMin, Max: estimate.FlightMax},
		DistanceKm:        estimate.DistanceKm,
		DistanceBand:      estimate.DistanceBand,
		SeasonMultiplier:  estimate.SeasonMultiplier,
		NonstopLikelihood: estimate.NonstopLikelihood,
		TravelTimeMinutes: estimate.TravelTimeMinutes,
		DataSource:        estimate.Source,
		Endpoints:         estimate.Endpoints,
	}

	flight := &entity.FlightOption{
		ID:              uuid.NewString(),
		PlanID:          pctx.PlanID,
		CandidateID:     candidate.ID,
		Provider:        estimate.Provider,
		OriginCode:      pctx.OriginCode,
		DestinationCode: candidate.AirportCode,
		Currency:        estimate.Currency,
		AmountMinor:     money.BandMidpointMinor(estimate.FlightMin, estimate.FlightMax),
		Payload:         payload,
		OutboundURL:     o.links.FlightSearchURL(pctx.OriginCode, candidate.AirportCode, pctx.DepartDate, pctx.ReturnDate),
		LastCheckedAt:   estimate.FreshnessAt,
		CreatedAt:       pctx.Now,
	}

	hotelPayload := payload
	hotelPayload.EstimatedBand = entity.OptionBand{Min: estimate.HotelNightlyMin, Max: estimate.HotelNightlyMax}
	hotel := &entity.HotelOption{
		ID:            uuid.NewString(),
		PlanID:        pctx.PlanID,
		CandidateID:   candidate.ID,
		Provider:      estimate.Provider,
		Name:          fmt.Sprintf("%s %s stay", candidate.CityName, estimate.Tier),
		Currency:      estimate.Currency,
		AmountMinor:   money.BandMidpointMinor(estimate.HotelNightlyMin, estimate.HotelNightlyMax),
		Payload:       hotelPayload,
		OutboundURL:   o.links.HotelSearchURL(candidate.CityName, pctx.DepartDate, pctx.ReturnDate),
		LastCheckedAt: estimate.FreshnessAt,
		CreatedAt:     pctx.Now,
	}

	return o.options.ReplaceForCandidate(ctx, pctx.PlanID, candidate.ID, flight, hotel)
}

// normalizeAndScore advances the plan through the final stages of a full run.
func (o *Orchestrator) normalizeAndScore(ctx context.Context, plan *entity.PlanRequest, started time.Time) error {
	o.transition(ctx, plan, repository.StatusUpdate{
		Status:          entity.StatusNormalizingCurrency,
		ProgressPercent: progressNormalizing,
		ProgressMessage: "Refreshing currency rates",
	})
	o.refreshObservedRates(ctx, plan)

	o.transition(ctx, plan, repository.StatusUpdate{
		Status:          entity.StatusScoring,
		ProgressPercent: progressScoring,
		ProgressMessage: "Scoring package combinations",
	})

	count, err := o.buildAndStore(ctx, plan)
	if err != nil {
		return o.fail(ctx, plan, fmt.Sprintf("package build failed: %v", err), started)
	}
	if count == 0 {
		return o.fail(ctx, plan, "no package combinations available", started)
	}

	completedAt := time.Now().UTC()
	o.transition(ctx, plan, repository.StatusUpdate{
		Status:          entity.StatusCompleted,
		ProgressPercent: progressDone,
		ProgressMessage: fmt.Sprintf("Ranked %d packages", count),
		CompletedAt:     &completedAt,
	})
	o.metrics.PlansCompleted.Inc()
	o.log.Info("Plan pipeline completed", "planId", plan.ID, "packages", count, "took", time.Since(started).String())
	return nil
}

// rebuildPackages re-runs normalization and scoring without touching the
// plan's status. Used by refresh runs over already-completed plans.
func (o *Orchestrator) rebuildPackages(ctx context.Context, plan *entity.PlanRequest) error {
	o.refreshObservedRates(ctx, plan)
	count, err := o.buildAndStore(ctx, plan)
	if err != nil {
		return fmt.Errorf("rebuild packages: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("no package combinations available for plan %s", plan.ID)
	}
	return nil
}

// refreshObservedRates upserts rates for every currency seen among the
// plan's options plus the target currency. Failures degrade to the stored
// rates (or 1:1) instead of failing the pipeline.
func (o *Orchestrator) refreshObservedRates(ctx context.Context, plan *entity.PlanRequest) {
	currencies, err := o.options.CurrenciesByPlan(ctx, plan.ID)
	if err != nil {
		o.log.Warn("Failed to list observed currencies", "planId", plan.ID, "error", err)
		currencies = nil
	}
	currencies = append(currencies, plan.Currency)

	count, err := o.fx.RefreshRates(ctx, plan.Currency, currencies)
	if err != nil {
		o.log.Warn("Currency rate refresh failed, converting with stored rates", "planId", plan.ID, "error", err)
		return
	}
	o.metrics.FxRatesRefreshed.Add(float64(count))
}

func (o *Orchestrator) buildAndStore(ctx context.Context, plan *entity.PlanRequest) (int, error) {
	candidates, err := o.candidates.ListByPlan(ctx, plan.ID)
	if err != nil {
		return 0, fmt.Errorf("list candidates: %w", err)
	}
	flights, err := o.options.FlightsByPlan(ctx, plan.ID)
	if err != nil {
		return 0, fmt.Errorf("list flights: %w", err)
	}
	hotels, err := o.options.HotelsByPlan(ctx, plan.ID)
	if err != nil {
		return 0, fmt.Errorf("list hotels: %w", err)
	}

	packages := o.builder.Build(ctx, BuildInput{
		Plan:        plan,
		Candidates:  candidates,
		Flights:     flights,
		Hotels:      hotels,
		SortMode:    o.cfg.SortMode,
		MaxPackages: o.cfg.MaxPackages,
		Now:         time.Now().UTC(),
	})
	if len(packages) == 0 {
		return 0, nil
	}

	if err := o.packages.ReplaceForPlan(ctx, plan.ID, packages); err != nil {
		return 0, fmt.Errorf("replace packages: %w", err)
	}
	o.metrics.PackagesBuilt.Add(float64(len(packages)))
	return len(packages), nil
}

// transition applies a guarded partial status update. Illegal transitions
// are dropped so a stale writer can never move the plan backwards.
func (o *Orchestrator) transition(ctx context.Context, plan *entity.PlanRequest, update repository.StatusUpdate) {
	if !entity.StatusAllows(plan.Status, update.Status) {
		o.log.Warn("Dropping illegal status transition", "planId", plan.ID, "from", plan.Status, "to", update.Status)
		return
	}
	if err := o.plans.UpdateStatus(ctx, plan.ID, update); err != nil {
		o.log.Error("Failed to update plan status", "planId", plan.ID, "status", update.Status, "error", err)
		return
	}
	plan.Status = update.Status
	plan.ProgressPercent = update.ProgressPercent
	plan.ProgressMessage = update.ProgressMessage
}

func (o *Orchestrator) fail(ctx context.Context, plan *entity.PlanRequest, message string, started time.Time) error {
	completedAt := time.Now().UTC()
	o.transition(ctx, plan, repository.StatusUpdate{
		Status:          entity.StatusFailed,
		ProgressPercent: progressDone,
		ProgressMessage: "Plan failed",
		ErrorMessage:    message,
		CompletedAt:     &completedAt,
	})
	o.metrics.PlansFailed.Inc()
	o.metrics.PipelineDuration.Observe(time.Since(started).Seconds())
	o.log.Error("Plan pipeline failed", "planId", plan.ID, "error", message)
	return fmt.Errorf("plan %s failed: %s", plan.ID, message)
}
