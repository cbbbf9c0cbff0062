package repository

import (
	"context"

	"planpilot-service/internal/domain/entity"
)

// PackageRepository defines the interface for ranked package options.
// ReplaceForPlan fully swaps the persisted set for a plan.
type PackageRepository interface {
	ReplaceForPlan(ctx context.Context, planID string, packages []*entity.PackageOption) error
	ListByPlan(ctx context.Context, planID string) ([]*entity.PackageOption, error)
	CountByPlan(ctx context.Context, planID string) (int, error)
}
