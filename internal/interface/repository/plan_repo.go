package repository

import (
	"context"
	"encoding/json"
	"time"

	"planpilot-service/internal/domain/entity"
	"planpilot-service/internal/domain/repository"

	"gorm.io/gorm"
)

// GormPlanRepository implements the PlanRepository interface
type GormPlanRepository struct {
	db *gorm.DB
}

// NewGormPlanRepository creates a new GORM plan repository
func NewGormPlanRepository(db *gorm.DB) repository.PlanRepository {
	return &GormPlanRepository{
		db: db,
	}
}

// PlanRequests GORM model for database mapping
type PlanRequests struct {
	ID                 string     `gorm:"column:id;primaryKey"`
	OriginCode         string     `gorm:"column:origin_code"`
	DestinationCodes   string     `gorm:"column:destination_codes"`
	DestinationCountry string     `gorm:"column:destination_country"`
	DateMode           string     `gorm:"column:date_mode"`
	DepartDate         *time.Time `gorm:"column:depart_date"`
	ReturnDate         *time.Time `gorm:"column:return_date"`
	TravelMonth        *time.Time `gorm:"column:travel_month"`
	FlexibilityDays    int        `gorm:"column:flexibility_days"`
	NightsMin          int        `gorm:"column:nights_min"`
	NightsMax          int        `gorm:"column:nights_max"`
	BudgetMinor        int64      `gorm:"column:budget_minor"`
	Travelers          int        `gorm:"column:travelers"`
	Currency           string     `gorm:"column:currency"`
	PreferenceWeights  string     `gorm:"column:preference_weights"`
	Status             string     `gorm:"column:status"`
	ProgressPercent    int        `gorm:"column:progress_percent"`
	ProgressMessage    string     `gorm:"column:progress_message"`
	ErrorMessage       string     `gorm:"column:error_message"`
	StartedAt          *time.Time `gorm:"column:started_at"`
	CompletedAt        *time.Time `gorm:"column:completed_at"`
	CreatedAt          time.Time  `gorm:"column:created_at"`
	UpdatedAt          time.Time  `gorm:"column:updated_at"`
}

// TableName overrides the default table name
func (PlanRequests) TableName() string {
	return "plan_requests"
}

// Create inserts a new plan request into the database
func (r *GormPlanRepository) Create(ctx context.Context, plan *entity.PlanRequest) error {
	model, err := planToModel(plan)
	if err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Create(model)
	if result.Error != nil {
		return result.Error
	}

	plan.CreatedAt = model.CreatedAt
	plan.UpdatedAt = model.UpdatedAt
	return nil
}

// GetByID finds a plan request by identifier
func (r *GormPlanRepository) GetByID(ctx context.Context, id string) (*entity.PlanRequest, error) {
	var model PlanRequests
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&model)
	if result.Error != nil {
		return nil, result.Error
	}
	return planToEntity(&model)
}

// UpdateStatus applies a targeted partial update of the lifecycle columns.
// Only the listed columns are written so a concurrent writer cannot clobber
// unrelated fields.
func (r *GormPlanRepository) UpdateStatus(ctx context.Context, id string, update repository.StatusUpdate) error {
	columns := map[string]interface{}{
		"status":           update.Status,
		"progress_percent": update.ProgressPercent,
		"progress_message": update.ProgressMessage,
		"updated_at":       time.Now().UTC(),
	}
	if update.ErrorMessage != "" {
		columns["error_message"] = update.ErrorMessage
	}
	if update.StartedAt != nil {
		columns["started_at"] = update.StartedAt
	}
	if update.CompletedAt != nil {
		columns["completed_at"] = update.CompletedAt
	}

	result := r.db.WithContext(ctx).Model(&PlanRequests{}).Where("id = ?", id).Updates(columns)
	return result.Error
}

func planToModel(plan *entity.PlanRequest) (*PlanRequests, error) {
	destinations, err := json.Marshal(plan.DestinationCodes)
	if err != nil {
		return nil, err
	}
	preferences, err := json.Marshal(plan.PreferenceWeights)
	if err != nil {
		return nil, err
	}

	return &PlanRequests{
		ID:                 plan.ID,
		OriginCode:         plan.OriginCode,
		DestinationCodes:   string(destinations),
		DestinationCountry: plan.DestinationCountry,
		DateMode:           plan.DateMode,
		DepartDate:         plan.DepartDate,
		ReturnDate:         plan.ReturnDate,
		TravelMonth:        plan.TravelMonth,
		FlexibilityDays:    plan.FlexibilityDays,
		NightsMin:          plan.NightsMin,
		NightsMax:          plan.NightsMax,
		BudgetMinor:        plan.BudgetMinor,
		Travelers:          plan.Travelers,
		Currency:           plan.Currency,
		PreferenceWeights:  string(preferences),
		Status:             plan.Status,
		ProgressPercent:    plan.ProgressPercent,
		ProgressMessage:    plan.ProgressMessage,
		ErrorMessage:       plan.ErrorMessage,
		StartedAt:          plan.StartedAt,
		CompletedAt:        plan.CompletedAt,
		CreatedAt:          plan.CreatedAt,
		UpdatedAt:          plan.UpdatedAt,
	}, nil
}

func planToEntity(model *PlanRequests) (*entity.PlanRequest, error) {
	var destinations []string
	if model.DestinationCodes != "" {
		if err := json.Unmarshal([]byte(model.DestinationCodes), &destinations); err != nil {
			return nil, err
		}
	}
	var preferences map[string]float64
	if model.PreferenceWeights != "" {
		if err := json.Unmarshal([]byte(model.PreferenceWeights), &preferences); err != nil {
			return nil, err
		}
	}

	return &entity.PlanRequest{
		ID:                 model.ID,
		OriginCode:         model.OriginCode,
		DestinationCodes:   destinations,
		DestinationCountry: model.DestinationCountry,
		DateMode:           model.DateMode,
		DepartDate:         model.DepartDate,
		ReturnDate:         model.ReturnDate,
		TravelMonth:        model.TravelMonth,
		FlexibilityDays:    model.FlexibilityDays,
		NightsMin:          model.NightsMin,
		NightsMax:          model.NightsMax,
		BudgetMinor:        model.BudgetMinor,
		Travelers:          model.Travelers,
		Currency:           model.Currency,
		PreferenceWeights:  preferences,
		Status:             model.Status,
		ProgressPercent:    model.ProgressPercent,
		ProgressMessage:    model.ProgressMessage,
		ErrorMessage:       model.ErrorMessage,
		StartedAt:          model.StartedAt,
		CompletedAt:        model.CompletedAt,
		CreatedAt:          model.CreatedAt,
		UpdatedAt:          model.UpdatedAt,
	}, nil
}
