package market

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planpilot-service/internal/domain/entity"
)

func TestExtractPricesNestedWalk(t *testing.T) {
	payload := map[string]interface{}{
		"price": 420.5,
		"data": []interface{}{
			map[string]interface{}{"min_price": 310, "ignored": 9999},
			map[string]interface{}{"details": map[string]interface{}{"VALUE": "515.25"}},
		},
	}

	prices := ExtractPrices(payload)
	assert.ElementsMatch(t, []float64{420.5, 310, 515.25}, prices)
}

func TestExtractPricesFiltersImplausibleValues(t *testing.T) {
	payload := map[string]interface{}{
		"price":     -10,
		"min_price": 0,
		"max_price": 60000,
		"amount":    "not a number",
		"value":     480,
	}

	assert.Equal(t, []float64{480}, ExtractPrices(payload))
}

func TestExtractDestinationPricesScopesToDataEntry(t *testing.T) {
	payload := map[string]interface{}{
		"price": 9000,
		"data": map[string]interface{}{
			"LIS": map[string]interface{}{"price": 240, "max_price": 380},
			"OPO": map[string]interface{}{"price": 180},
		},
	}

	prices := ExtractDestinationPrices(payload, "LIS", "Lisbon")
	assert.ElementsMatch(t, []float64{240, 380}, prices)
}

func TestExtractDestinationPricesFallsBackToWholePayload(t *testing.T) {
	payload := map[string]interface{}{
		"results": []interface{}{
			map[string]interface{}{"price": 320},
			map[string]interface{}{"price": 12}, // below the noise floor
		},
	}

	prices := ExtractDestinationPrices(payload, "LIS", "Lisbon")
	assert.Equal(t, []float64{320}, prices)
}

func TestExtractTimestamps(t *testing.T) {
	payload := map[string]interface{}{
		"updated_at": "2026-08-20T10:30:00Z",
		"nested": map[string]interface{}{
			"fetched": "2026-08-21 08:00:00",
			"price":   120,
		},
		"expires": 12345, // non-string values are skipped
	}

	stamps := ExtractTimestamps(payload)
	require.Len(t, stamps, 2)

	latest, ok := LatestTimestamp(stamps)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 8, 21, 8, 0, 0, 0, time.UTC), latest)

	_, ok = LatestTimestamp(nil)
	assert.False(t, ok)
}

func TestClassifyError(t *testing.T) {
	provErr := &ProviderError{Provider: "aggregator", Type: entity.ErrorRateLimit, HTTPStatus: 429, Message: "too many requests"}
	assert.Equal(t, entity.ErrorRateLimit, ClassifyError(provErr))
	assert.Equal(t, entity.ErrorRateLimit, ClassifyError(fmt.Errorf("call failed: %w", provErr)))
	assert.Equal(t, entity.ErrorUnknown, ClassifyError(errors.New("plain failure")))
}

func TestClassifyStatus(t *testing.T) {
	assert.Equal(t, entity.ErrorRateLimit, classifyStatus(429))
	assert.Equal(t, entity.ErrorAuth, classifyStatus(401))
	assert.Equal(t, entity.ErrorAuth, classifyStatus(403))
	assert.Equal(t, entity.ErrorQuota, classifyStatus(402))
	assert.Equal(t, entity.ErrorUnknown, classifyStatus(500))
}
