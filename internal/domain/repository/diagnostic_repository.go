package repository

import (
	"context"

	"planpilot-service/internal/domain/entity"
)

// DiagnosticRepository defines the interface for the append-only provider
// call/error log. Writes must never fail a pipeline job; implementations
// log and swallow storage errors.
type DiagnosticRepository interface {
	RecordCall(ctx context.Context, call *entity.ProviderCall) error
	RecordError(ctx context.Context, record *entity.ProviderErrorRecord) error
	HealthByProvider(ctx context.Context, provider string, limit int) (*entity.ProviderHealth, error)
}
