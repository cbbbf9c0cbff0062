package repository

import (
	"context"
	"encoding/json"
	"time"

	"planpilot-service/internal/domain/entity"
	"planpilot-service/internal/domain/repository"

	"gorm.io/gorm"
)

// GormCandidateRepository implements the CandidateRepository interface
type GormCandidateRepository struct {
	db *gorm.DB
}

// NewGormCandidateRepository creates a new GORM candidate repository
func NewGormCandidateRepository(db *gorm.DB) repository.CandidateRepository {
	return &GormCandidateRepository{
		db: db,
	}
}

// DestinationCandidates GORM model for database mapping
type DestinationCandidates struct {
	ID          string    `gorm:"column:id;primaryKey"`
	PlanID      string    `gorm:"column:plan_id;uniqueIndex:idx_candidate_plan_airport"`
	CountryCode string    `gorm:"column:country_code"`
	CityName    string    `gorm:"column:city_name"`
	AirportCode string    `gorm:"column:airport_code;uniqueIndex:idx_candidate_plan_airport"`
	Latitude    *float64  `gorm:"column:latitude"`
	Longitude   *float64  `gorm:"column:longitude"`
	Rank        int       `gorm:"column:rank"`
	Metadata    string    `gorm:"column:metadata"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

// TableName overrides the default table name
func (DestinationCandidates) TableName() string {
	return "destination_candidates"
}

// ReplaceForPlan swaps the plan's full candidate set in one transaction
func (r *GormCandidateRepository) ReplaceForPlan(ctx context.Context, planID string, candidates []*entity.DestinationCandidate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("plan_id = ?", planID).Delete(&DestinationCandidates{}).Error; err != nil {
			return err
		}
		for _, candidate := range candidates {
			model, err := candidateToModel(candidate)
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

// ListByPlan returns the plan's candidates in rank order
func (r *GormCandidateRepository) ListByPlan(ctx context.Context, planID string) ([]*entity.DestinationCandidate, error) {
	var models []DestinationCandidates
	result := r.db.WithContext(ctx).Where("plan_id = ?", planID).Order("rank ASC").Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}

	var entities []*entity.DestinationCandidate
	for i := range models {
		candidate, err := candidateToEntity(&models[i])
		if err != nil {
			return nil, err
		}
		entities = append(entities, candidate)
	}
	return entities, nil
}

// GetByID finds a candidate by identifier
func (r *GormCandidateRepository) GetByID(ctx context.Context, id string) (*entity.DestinationCandidate, error) {
	var model DestinationCandidates
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&model)
	if result.Error != nil {
		return nil, result.Error
	}
	return candidateToEntity(&model)
}

// UpdateMetadata rewrites only the metadata column
func (r *GormCandidateRepository) UpdateMetadata(ctx context.Context, id string, metadata entity.CandidateMetadata) error {
	raw, err := json.Marshal(metadata)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Model(&DestinationCandidates{}).Where("id = ?", id).Updates(map[string]interface{}{
		"metadata":   string(raw),
		"updated_at": time.Now().UTC(),
	})
	return result.Error
}

func candidateToModel(candidate *entity.DestinationCandidate) (*DestinationCandidates, error) {
	raw, err := json.Marshal(candidate.Metadata)
	if err != nil {
		return nil, err
	}
	return &DestinationCandidates{
		ID:          candidate.ID,
		PlanID:      candidate.PlanID,
		CountryCode: candidate.CountryCode,
		CityName:    candidate.CityName,
		AirportCode: candidate.AirportCode,
		Latitude:    candidate.Latitude,
		Longitude:   candidate.Longitude,
		Rank:        candidate.Rank,
		Metadata:    string(raw),
		CreatedAt:   candidate.CreatedAt,
		UpdatedAt:   candidate.UpdatedAt,
	}, nil
}

func candidateToEntity(model *DestinationCandidates) (*entity.DestinationCandidate, error) {
	var metadata entity.CandidateMetadata
	if model.Metadata != "" {
		if err := json.Unmarshal([]byte(model.Metadata), &metadata); err != nil {
			return nil, err
		}
	}
	return &entity.DestinationCandidate{
		ID:          model.ID,
		PlanID:      model.PlanID,
		CountryCode: model.CountryCode,
		CityName:    model.CityName,
		AirportCode: model.AirportCode,
		Latitude:    model.Latitude,
		Longitude:   model.Longitude,
		Rank:        model.Rank,
		Metadata:    metadata,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}, nil
}
