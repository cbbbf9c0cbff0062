package repository

import (
	"context"

	"planpilot-service/internal/domain/entity"
)

// CandidateRepository defines the interface for destination candidates.
// ReplaceForPlan deletes the previous set; candidates are unique per
// (plan, airport code).
type CandidateRepository interface {
	ReplaceForPlan(ctx context.Context, planID string, candidates []*entity.DestinationCandidate) error
	ListByPlan(ctx context.Context, planID string) ([]*entity.DestinationCandidate, error)
	GetByID(ctx context.Context, id string) (*entity.DestinationCandidate, error)
	UpdateMetadata(ctx context.Context, id string, metadata entity.CandidateMetadata) error
}
