package repository

import (
	"context"

	"planpilot-service/internal/domain/entity"
)

// OptionRepository defines the interface for flight/hotel option rows.
// Options are delete+recreate per candidate; never partially updated.
type OptionRepository interface {
	ReplaceForCandidate(ctx context.Context, planID, candidateID string, flight *entity.FlightOption, hotel *entity.HotelOption) error
	FlightsByPlan(ctx context.Context, planID string) ([]*entity.FlightOption, error)
	HotelsByPlan(ctx context.Context, planID string) ([]*entity.HotelOption, error)
	CurrenciesByPlan(ctx context.Context, planID string) ([]string, error)
}
