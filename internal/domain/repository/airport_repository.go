package repository

import (
	"context"

	"planpilot-service/internal/domain/entity"
)

// AirportRepository defines the interface for the reference airport dataset.
type AirportRepository interface {
	GetByIATA(ctx context.Context, iata string) (*entity.Airport, error)
	ListByCountry(ctx context.Context, countryCode string, limit int) ([]*entity.Airport, error)
}
