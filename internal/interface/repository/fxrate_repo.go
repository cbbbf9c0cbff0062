package repository

import (
	"context"
	"time"

	"planpilot-service/internal/domain/entity"
	"planpilot-service/internal/domain/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormFxRateRepository implements the FxRateRepository interface
type GormFxRateRepository struct {
	db *gorm.DB
}

// NewGormFxRateRepository creates a new GORM fx rate repository
func NewGormFxRateRepository(db *gorm.DB) repository.FxRateRepository {
	return &GormFxRateRepository{
		db: db,
	}
}

// FxRates GORM model for database mapping
type FxRates struct {
	ID            uint      `gorm:"column:id;primaryKey"`
	BaseCurrency  string    `gorm:"column:base_currency;uniqueIndex:idx_fx_pair"`
	QuoteCurrency string    `gorm:"column:quote_currency;uniqueIndex:idx_fx_pair"`
	Rate          float64   `gorm:"column:rate"`
	AsOf          time.Time `gorm:"column:as_of"`
	Source        string    `gorm:"column:source"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

// TableName overrides the default table name
func (FxRates) TableName() string {
	return "fx_rates"
}

// Upsert inserts or updates the rate row for a (base, quote) pair
func (r *GormFxRateRepository) Upsert(ctx context.Context, rate *entity.FxRate) error {
	model := FxRates{
		BaseCurrency:  rate.BaseCurrency,
		QuoteCurrency: rate.QuoteCurrency,
		Rate:          rate.Rate,
		AsOf:          rate.AsOf,
		Source:        rate.Source,
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "base_currency"}, {Name: "quote_currency"}},
		DoUpdates: clause.AssignmentColumns([]string{"rate", "as_of", "source", "updated_at"}),
	}).Create(&model)
	if result.Error != nil {
		return result.Error
	}

	rate.ID = model.ID
	return nil
}

// GetRate returns the most recent rate row for a currency pair
func (r *GormFxRateRepository) GetRate(ctx context.Context, base, quote string) (*entity.FxRate, error) {
	var model FxRates
	result := r.db.WithContext(ctx).
		Where("base_currency = ? AND quote_currency = ?", base, quote).
		Order("as_of DESC").
		First(&model)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, result.Error
	}

	return &entity.FxRate{
		ID:            model.ID,
		BaseCurrency:  model.BaseCurrency,
		QuoteCurrency: model.QuoteCurrency,
		Rate:          model.Rate,
		AsOf:          model.AsOf,
		Source:        model.Source,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}, nil
}
