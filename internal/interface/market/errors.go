package market

import (
	"errors"
	"fmt"

	"planpilot-service/internal/domain/entity"
)

// ProviderError is a classified failure from a market data source. The
// Type field always holds one of the entity.Error* taxonomy values.
type ProviderError struct {
	Provider   string
	Type       string
	HTTPStatus int
	LatencyMs  int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.HTTPStatus > 0 {
		return fmt.Sprintf("%s: %s (%s, status %d)", e.Provider, e.Message, e.Type, e.HTTPStatus)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Provider, e.Message, e.Type)
}

// ClassifyError returns the taxonomy entry for any error, unwrapping
// ProviderError and defaulting to unknown.
func ClassifyError(err error) string {
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr.Type
	}
	return entity.ErrorUnknown
}

// classifyStatus maps an HTTP status code onto the closed taxonomy.
func classifyStatus(statusCode int) string {
	switch {
	case statusCode == 429:
		return entity.ErrorRateLimit
	case statusCode == 401 || statusCode == 403:
		return entity.ErrorAuth
	case statusCode == 402:
		return entity.ErrorQuota
	default:
		return entity.ErrorUnknown
	}
}
