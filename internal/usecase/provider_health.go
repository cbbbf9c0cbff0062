package usecase

import (
	"context"
	"fmt"

	"planpilot-service/internal/domain/entity"
	"planpilot-service/internal/domain/repository"
	"planpilot-service/pkg/logger"
)

const healthSampleSize = 200

// ProviderHealthService summarizes recent provider behavior from the
// diagnostics log. Read-only; the pipeline itself never consults it.
type ProviderHealthService struct {
	diags repository.DiagnosticRepository
	log   logger.Logger
}

func NewProviderHealthService(diags repository.DiagnosticRepository, log logger.Logger) *ProviderHealthService {
	return &ProviderHealthService{diags: diags, log: log}
}

// Health returns success rate and error counts over the most recent calls
// for one provider.
func (s *ProviderHealthService) Health(ctx context.Context, provider string) (*entity.ProviderHealth, error) {
	health, err := s.diags.HealthByProvider(ctx, provider, healthSampleSize)
	if err != nil {
		return nil, fmt.Errorf("provider health %s: %w", provider, err)
	}
	return health, nil
}
