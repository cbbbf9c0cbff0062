package repository

import (
	"context"

	"planpilot-service/internal/domain/entity"
	"planpilot-service/internal/domain/repository"

	"gorm.io/gorm"
)

// GormAirportRepository implements the AirportRepository interface
type GormAirportRepository struct {
	db *gorm.DB
}

// NewGormAirportRepository creates a new GORM airport repository
func NewGormAirportRepository(db *gorm.DB) repository.AirportRepository {
	return &GormAirportRepository{
		db: db,
	}
}

// Airports GORM model for database mapping
type Airports struct {
	IATA        string   `gorm:"column:iata;primaryKey"`
	Name        string   `gorm:"column:name"`
	City        string   `gorm:"column:city"`
	Country     string   `gorm:"column:country"`
	CountryCode string   `gorm:"column:country_code;index"`
	Latitude    *float64 `gorm:"column:latitude"`
	Longitude   *float64 `gorm:"column:longitude"`
}

// TableName overrides the default table name
func (Airports) TableName() string {
	return "airports"
}

// GetByIATA finds an airport by its IATA code
func (r *GormAirportRepository) GetByIATA(ctx context.Context, iata string) (*entity.Airport, error) {
	var model Airports
	result := r.db.WithContext(ctx).Where("iata = ?", iata).First(&model)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, result.Error
	}
	return airportToEntity(&model), nil
}

// ListByCountry returns airports for a country ordered by IATA code
func (r *GormAirportRepository) ListByCountry(ctx context.Context, countryCode string, limit int) ([]*entity.Airport, error) {
	var models []Airports
	query := r.db.WithContext(ctx).Where("country_code = ?", countryCode).Order("iata ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	var entities []*entity.Airport
	for i := range models {
		entities = append(entities, airportToEntity(&models[i]))
	}
	return entities, nil
}

func airportToEntity(model *Airports) *entity.Airport {
	return &entity.Airport{
		IATA:        model.IATA,
		Name:        model.Name,
		City:        model.City,
		Country:     model.Country,
		CountryCode: model.CountryCode,
		Latitude:    model.Latitude,
		Longitude:   model.Longitude,
	}
}
