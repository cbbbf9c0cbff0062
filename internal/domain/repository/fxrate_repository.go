package repository

import (
	"context"

	"planpilot-service/internal/domain/entity"
)

// FxRateRepository defines the interface for currency rate rows.
// Upsert keys on (base, quote); GetRate returns the most recent row.
type FxRateRepository interface {
	Upsert(ctx context.Context, rate *entity.FxRate) error
	GetRate(ctx context.Context, base, quote string) (*entity.FxRate, error)
}
