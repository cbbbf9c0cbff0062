package repository

import (
	"context"
	"encoding/json"
	"time"

	"planpilot-service/internal/domain/entity"
	"planpilot-service/internal/domain/repository"

	"gorm.io/gorm"
)

// GormPackageRepository implements the PackageRepository interface
type GormPackageRepository struct {
	db *gorm.DB
}

// NewGormPackageRepository creates a new GORM package repository
func NewGormPackageRepository(db *gorm.DB) repository.PackageRepository {
	return &GormPackageRepository{
		db: db,
	}
}

// PackageOptions GORM model for database mapping
type PackageOptions struct {
	ID             string `gorm:"column:id;primaryKey"`
	PlanID         string `gorm:"column:plan_id;index"`
	CandidateID    string `gorm:"column:candidate_id"`
	FlightOptionID string `gorm:"column:flight_option_id"`
	HotelOptionID  string `gorm:"column:hotel_option_id"`
	Rank           int    `gorm:"column:rank"`
	Currency       string `gorm:"column:currency"`
	TotalMinor     int64  `gorm:"column:total_minor"`

	EstimatedTotalMin        float64 `gorm:"column:estimated_total_min"`
	EstimatedTotalMax        float64 `gorm:"column:estimated_total_max"`
	EstimatedFlightMin       float64 `gorm:"column:estimated_flight_min"`
	EstimatedFlightMax       float64 `gorm:"column:estimated_flight_max"`
	EstimatedHotelNightlyMin float64 `gorm:"column:estimated_hotel_nightly_min"`
	EstimatedHotelNightlyMax float64 `gorm:"column:estimated_hotel_nightly_max"`

	FreshnessAt time.Time `gorm:"column:freshness_at"`

	Score           float64 `gorm:"column:score"`
	BudgetFitScore  float64 `gorm:"column:budget_fit_score"`
	PreferenceScore float64 `gorm:"column:preference_score"`
	SeasonScore     float64 `gorm:"column:season_score"`
	TravelTimeScore float64 `gorm:"column:travel_time_score"`
	FreshnessScore  float64 `gorm:"column:freshness_score"`
	Explanations    string  `gorm:"column:explanations"`
	Breakdown       string  `gorm:"column:breakdown"`

	FlightURL string `gorm:"column:flight_url"`
	HotelURL  string `gorm:"column:hotel_url"`

	CreatedAt time.Time `gorm:"column:created_at"`
}

// TableName overrides the default table name
func (PackageOptions) TableName() string {
	return "package_options"
}

// ReplaceForPlan swaps the plan's full package set in one transaction so
// the stored ranking is always self-consistent
func (r *GormPackageRepository) ReplaceForPlan(ctx context.Context, planID string, packages []*entity.PackageOption) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("plan_id = ?", planID).Delete(&PackageOptions{}).Error; err != nil {
			return err
		}
		for _, pkg := range packages {
			model, err := packageToModel(pkg)
			if err != nil {
				return err
			}
			if err := tx.Create(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ListByPlan returns the plan's packages in rank order
func (r *GormPackageRepository) ListByPlan(ctx context.Context, planID string) ([]*entity.PackageOption, error) {
	var models []PackageOptions
	result := r.db.WithContext(ctx).Where("plan_id = ?", planID).Order("rank ASC").Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}

	var entities []*entity.PackageOption
	for i := range models {
		pkg, err := packageToEntity(&models[i])
		if err != nil {
			return nil, err
		}
		entities = append(entities, pkg)
	}
	return entities, nil
}

// CountByPlan returns how many packages are stored for a plan
func (r *GormPackageRepository) CountByPlan(ctx context.Context, planID string) (int, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&PackageOptions{}).Where("plan_id = ?", planID).Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}
	return int(count), nil
}

func packageToModel(pkg *entity.PackageOption) (*PackageOptions, error) {
	explanations, err := json.Marshal(pkg.Explanations)
	if err != nil {
		return nil, err
	}
	breakdown, err := json.Marshal(pkg.Breakdown)
	if err != nil {
		return nil, err
	}

	return &PackageOptions{
		ID:             pkg.ID,
		PlanID:         pkg.PlanID,
		CandidateID:    pkg.CandidateID,
		FlightOptionID: pkg.FlightOptionID,
		HotelOptionID:  pkg.HotelOptionID,
		Rank:           pkg.Rank,
		Currency:       pkg.Currency,
		TotalMinor:     pkg.TotalMinor,

		EstimatedTotalMin:        pkg.EstimatedTotalMin,
		EstimatedTotalMax:        pkg.EstimatedTotalMax,
		EstimatedFlightMin:       pkg.EstimatedFlightMin,
		EstimatedFlightMax:       pkg.EstimatedFlightMax,
		EstimatedHotelNightlyMin: pkg.EstimatedHotelNightlyMin,
		EstimatedHotelNightlyMax: pkg.EstimatedHotelNightlyMax,

		FreshnessAt: pkg.FreshnessAt,

		Score:           pkg.Score,
		BudgetFitScore:  pkg.BudgetFitScore,
		PreferenceScore: pkg.PreferenceScore,
		SeasonScore:     pkg.SeasonScore,
		TravelTimeScore: pkg.TravelTimeScore,
		FreshnessScore:  pkg.FreshnessScore,
		Explanations:    string(explanations),
		Breakdown:       string(breakdown),

		FlightURL: pkg.FlightURL,
		HotelURL:  pkg.HotelURL,

		CreatedAt: pkg.CreatedAt,
	}, nil
}

func packageToEntity(model *PackageOptions) (*entity.PackageOption, error) {
	var explanations []string
	if model.Explanations != "" {
		if err := json.Unmarshal([]byte(model.Explanations), &explanations); err != nil {
			return nil, err
		}
	}
	var breakdown entity.ScoreBreakdown
	if model.Breakdown != "" {
		if err := json.Unmarshal([]byte(model.Breakdown), &breakdown); err != nil {
			return nil, err
		}
	}

	return &entity.PackageOption{
		ID:             model.ID,
		PlanID:         model.PlanID,
		CandidateID:    model.CandidateID,
		FlightOptionID: model.FlightOptionID,
		HotelOptionID:  model.HotelOptionID,
		Rank:           model.Rank,
		Currency:       model.Currency,
		TotalMinor:     model.TotalMinor,

		EstimatedTotalMin:        model.EstimatedTotalMin,
		EstimatedTotalMax:        model.EstimatedTotalMax,
		EstimatedFlightMin:       model.EstimatedFlightMin,
		EstimatedFlightMax:       model.EstimatedFlightMax,
		EstimatedHotelNightlyMin: model.EstimatedHotelNightlyMin,
		EstimatedHotelNightlyMax: model.EstimatedHotelNightlyMax,

		FreshnessAt: model.FreshnessAt,

		Score:           model.Score,
		BudgetFitScore:  model.BudgetFitScore,
		PreferenceScore: model.PreferenceScore,
		SeasonScore:     model.SeasonScore,
		TravelTimeScore: model.TravelTimeScore,
		FreshnessScore:  model.FreshnessScore,
		Explanations:    explanations,
		Breakdown:       breakdown,

		FlightURL: model.FlightURL,
		HotelURL:  model.HotelURL,

		CreatedAt: model.CreatedAt,
	}, nil
}
