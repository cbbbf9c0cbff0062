package repository

import (
	"context"
	"time"

	"planpilot-service/internal/domain/entity"
)

// StatusUpdate is a targeted partial update of a plan's lifecycle fields.
// Only the listed columns are written so a slow diagnostic writer cannot
// clobber a later stage's transition.
type StatusUpdate struct {
	Status          string
	ProgressPercent int
	ProgressMessage string
	ErrorMessage    string
	StartedAt       *time.Time
	CompletedAt     *time.Time
}

// PlanRepository defines the interface for plan request persistence.
type PlanRepository interface {
	Create(ctx context.Context, plan *entity.PlanRequest) error
	GetByID(ctx context.Context, id string) (*entity.PlanRequest, error)
	UpdateStatus(ctx context.Context, id string, update StatusUpdate) error
}
