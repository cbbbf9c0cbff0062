package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"planpilot-service/internal/domain/entity"
	"planpilot-service/internal/domain/repository"
	"planpilot-service/pkg/logger"
	"planpilot-service/pkg/money"
)

// Progress percentages reported per pipeline stage.
const (
	progressQueued      = 5
	progressExpanding   = 16
	progressFetching    = 30
	progressNormalizing = 85
	progressScoring     = 90
	progressDone        = 100
)

// CreatePlanInput is the normalized payload for starting a plan.
type CreatePlanInput struct {
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
	Budget             float64
	Travelers          int
	Currency           string
	PreferenceWeights  map[string]float64
}

// PlannerService creates plan records and exposes read paths for callers.
// Pipeline execution belongs to the Orchestrator.
type PlannerService struct {
	plans    repository.PlanRepository
	packages repository.PackageRepository
	log      logger.Logger
}

func NewPlannerService(plans repository.PlanRepository, packages repository.PackageRepository, log logger.Logger) *PlannerService {
	return &PlannerService{plans: plans, packages: packages, log: log}
}

// CreatePlan normalizes and persists a new plan in the queued state.
func (s *PlannerService) CreatePlan(ctx context.Context, in CreatePlanInput) (*entity.PlanRequest, error) {
	origin := strings.ToUpper(strings.TrimSpace(in.OriginCode))
	if origin == "" {
		return nil, fmt.Errorf("origin code is required")
	}
	if len(in.DestinationCodes) == 0 && strings.TrimSpace(in.DestinationCountry) == "" {
		return nil, fmt.Errorf("destination codes or destination country is required")
	}

	nightsMin := in.NightsMin
	if nightsMin < 1 {
		nightsMin = 1
	}
	nightsMax := in.NightsMax
	if nightsMax < nightsMin {
		nightsMax = nightsMin
	}

	travelers := in.Travelers
	if travelers < 1 {
		travelers = 1
	}

	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = "USD"
	}

	dateMode := in.DateMode
	if dateMode != entity.DateModeExact {
		dateMode = entity.DateModeFlexible
	}

	now := time.Now().UTC()
	plan := &entity.PlanRequest{
		ID:                 uuid.NewString(),
		OriginCode:         origin,
		DestinationCodes:   dedupeIATA(in.DestinationCodes),
		DestinationCountry: strings.ToUpper(strings.TrimSpace(in.DestinationCountry)),
		DateMode:           dateMode,
		DepartDate:         in.DepartDate,
		ReturnDate:         in.ReturnDate,
		TravelMonth:        in.TravelMonth,
		FlexibilityDays:    in.FlexibilityDays,
		NightsMin:          nightsMin,
		NightsMax:          nightsMax,
		BudgetMinor:        money.ToMinor(in.Budget),
		Travelers:          travelers,
		Currency:           currency,
		PreferenceWeights:  in.PreferenceWeights,
		Status:             entity.StatusQueued,
		ProgressPercent:    progressQueued,
		ProgressMessage:    "Plan queued",
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.plans.Create(ctx, plan); err != nil {
		return nil, fmt.Errorf("create plan: %w", err)
	}
	s.log.Info("Plan created", "planId", plan.ID, "origin", plan.OriginCode, "country", plan.DestinationCountry)
	return plan, nil
}

// GetPlan returns a plan by identifier.
func (s *PlannerService) GetPlan(ctx context.Context, id string) (*entity.PlanRequest, error) {
	return s.plans.GetByID(ctx, id)
}

// ListPackages returns the current ranked package set for a plan.
func (s *PlannerService) ListPackages(ctx context.Context, planID string) ([]*entity.PackageOption, error) {
	return s.packages.ListByPlan(ctx, planID)
}
