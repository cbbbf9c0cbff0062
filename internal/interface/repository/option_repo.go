package repository

import (
	"context"
	"encoding/json"
	"time"

	"planpilot-service/internal/domain/entity"
	"planpilot-service/internal/domain/repository"

	"gorm.io/gorm"
)

// GormOptionRepository implements the OptionRepository interface
type GormOptionRepository struct {
	db *gorm.DB
}

// NewGormOptionRepository creates a new GORM option repository
func NewGormOptionRepository(db *gorm.DB) repository.OptionRepository {
	return &GormOptionRepository{
		db: db,
	}
}

// FlightOptions GORM model for database mapping
type FlightOptions struct {
	ID              string    `gorm:"column:id;primaryKey"`
	PlanID          string    `gorm:"column:plan_id;index"`
	CandidateID     string    `gorm:"column:candidate_id;index"`
	Provider        string    `gorm:"column:provider"`
	OriginCode      string    `gorm:"column:origin_code"`
	DestinationCode string    `gorm:"column:destination_code"`
	Currency        string    `gorm:"column:currency"`
	AmountMinor     int64     `gorm:"column:amount_minor"`
	Payload         string    `gorm:"column:payload"`
	OutboundURL     string    `gorm:"column:outbound_url"`
	LastCheckedAt   time.Time `gorm:"column:last_checked_at"`
	CreatedAt       time.Time `gorm:"column:created_at"`
}

// TableName overrides the default table name
func (FlightOptions) TableName() string {
	return "flight_options"
}

// HotelOptions GORM model for database mapping
type HotelOptions struct {
	ID            string    `gorm:"column:id;primaryKey"`
	PlanID        string    `gorm:"column:plan_id;index"`
	CandidateID   string    `gorm:"column:candidate_id;index"`
	Provider      string    `gorm:"column:provider"`
	Name          string    `gorm:"column:name"`
	Currency      string    `gorm:"column:currency"`
	AmountMinor   int64     `gorm:"column:amount_minor"`
	Payload       string    `gorm:"column:payload"`
	OutboundURL   string    `gorm:"column:outbound_url"`
	LastCheckedAt time.Time `gorm:"column:last_checked_at"`
	CreatedAt     time.Time `gorm:"column:created_at"`
}

// TableName overrides the default table name
func (HotelOptions) TableName() string {
	return "hotel_options"
}

// ReplaceForCandidate swaps the candidate's flight/hotel rows in one
// transaction. Options are never partially updated.
func (r *GormOptionRepository) ReplaceForCandidate(ctx context.Context, planID, candidateID string, flight *entity.FlightOption, hotel *entity.HotelOption) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("candidate_id = ?", candidateID).Delete(&FlightOptions{}).Error; err != nil {
			return err
		}
		if err := tx.Where("candidate_id = ?", candidateID).Delete(&HotelOptions{}).Error; err != nil {
			return err
		}

		if flight != nil {
			model, err := flightToModel(flight)
			if err != nil {
				return err
			}
			if err := tx.Create(model).Error; err != nil {
				return err
			}
		}
		if hotel != nil {
			model, err := hotelToModel(hotel)
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

// FlightsByPlan returns all flight options for a plan
func (r *GormOptionRepository) FlightsByPlan(ctx context.Context, planID string) ([]*entity.FlightOption, error) {
	var models []FlightOptions
	result := r.db.WithContext(ctx).Where("plan_id = ?", planID).Order("amount_minor ASC").Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}

	var entities []*entity.FlightOption
	for i := range models {
		flight, err := flightToEntity(&models[i])
		if err != nil {
			return nil, err
		}
		entities = append(entities, flight)
	}
	return entities, nil
}

// HotelsByPlan returns all hotel options for a plan
func (r *GormOptionRepository) HotelsByPlan(ctx context.Context, planID string) ([]*entity.HotelOption, error) {
	var models []HotelOptions
	result := r.db.WithContext(ctx).Where("plan_id = ?", planID).Order("amount_minor ASC").Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}

	var entities []*entity.HotelOption
	for i := range models {
		hotel, err := hotelToEntity(&models[i])
		if err != nil {
			return nil, err
		}
		entities = append(entities, hotel)
	}
	return entities, nil
}

// CurrenciesByPlan returns the distinct currencies observed among the
// plan's options
func (r *GormOptionRepository) CurrenciesByPlan(ctx context.Context, planID string) ([]string, error) {
	var flightCurrencies []string
	if err := r.db.WithContext(ctx).Model(&FlightOptions{}).
		Where("plan_id = ?", planID).Distinct().Pluck("currency", &flightCurrencies).Error; err != nil {
		return nil, err
	}
	var hotelCurrencies []string
	if err := r.db.WithContext(ctx).Model(&HotelOptions{}).
		Where("plan_id = ?", planID).Distinct().Pluck("currency", &hotelCurrencies).Error; err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var currencies []string
	for _, code := range append(flightCurrencies, hotelCurrencies...) {
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		currencies = append(currencies, code)
	}
	return currencies, nil
}

func flightToModel(flight *entity.FlightOption) (*FlightOptions, error) {
	payload, err := json.Marshal(flight.Payload)
	if err != nil {
		return nil, err
	}
	return &FlightOptions{
		ID:              flight.ID,
		PlanID:          flight.PlanID,
		CandidateID:     flight.CandidateID,
		Provider:        flight.Provider,
		OriginCode:      flight.OriginCode,
		DestinationCode: flight.DestinationCode,
		Currency:        flight.Currency,
		AmountMinor:     flight.AmountMinor,
		Payload:         string(payload),
		OutboundURL:     flight.OutboundURL,
		LastCheckedAt:   flight.LastCheckedAt,
		CreatedAt:       flight.CreatedAt,
	}, nil
}

func flightToEntity(model *FlightOptions) (*entity.FlightOption, error) {
	var payload entity.OptionPayload
	if model.Payload != "" {
		if err := json.Unmarshal([]byte(model.Payload), &payload); err != nil {
			return nil, err
		}
	}
	return &entity.FlightOption{
		ID:              model.ID,
		PlanID:          model.PlanID,
		CandidateID:     model.CandidateID,
		Provider:        model.Provider,
		OriginCode:      model.OriginCode,
		DestinationCode: model.DestinationCode,
		Currency:        model.Currency,
		AmountMinor:     model.AmountMinor,
		Payload:         payload,
		OutboundURL:     model.OutboundURL,
		LastCheckedAt:   model.LastCheckedAt,
		CreatedAt:       model.CreatedAt,
	}, nil
}

func hotelToModel(hotel *entity.HotelOption) (*HotelOptions, error) {
	payload, err := json.Marshal(hotel.Payload)
	if err != nil {
		return nil, err
	}
	return &HotelOptions{
		ID:            hotel.ID,
		PlanID:        hotel.PlanID,
		CandidateID:   hotel.CandidateID,
		Provider:      hotel.Provider,
		Name:          hotel.Name,
		Currency:      hotel.Currency,
		AmountMinor:   hotel.AmountMinor,
		Payload:       string(payload),
		OutboundURL:   hotel.OutboundURL,
		LastCheckedAt: hotel.LastCheckedAt,
		CreatedAt:     hotel.CreatedAt,
	}, nil
}

func hotelToEntity(model *HotelOptions) (*entity.HotelOption, error) {
	var payload entity.OptionPayload
	if model.Payload != "" {
		if err := json.Unmarshal([]byte(model.Payload), &payload); err != nil {
			return nil, err
		}
	}
	return &entity.HotelOption{
		ID:            model.ID,
		PlanID:        model.PlanID,
		CandidateID:   model.CandidateID,
		Provider:      model.Provider,
		Name:          model.Name,
		Currency:      model.Currency,
		AmountMinor:   model.AmountMinor,
		Payload:       payload,
		OutboundURL:   model.OutboundURL,
		LastCheckedAt: model.LastCheckedAt,
		CreatedAt:     model.CreatedAt,
	}, nil
}
