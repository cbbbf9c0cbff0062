package market

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planpilot-service/internal/domain/entity"
	"planpilot-service/internal/infrastructure/cache"
	"planpilot-service/pkg/logger"
	"planpilot-service/pkg/metrics"
)

// Shared across tests: promauto registers on the default registry, so the
// metric set may only be constructed once per test binary.
var marketTestMetrics = metrics.NewMetrics("planpilot_market_test")

func TestCheapPricesCachesAndCountsLookups(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":{"LIS":{"price":420}}}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-token", cache.NewMemoryCache(), marketTestMetrics, logger.NewNopLogger())
	ctx := context.Background()
	query := Query{
		Origin:      "CDG",
		Destination: "LIS",
		DepartDate:  time.Date(2026, 10, 25, 0, 0, 0, 0, time.UTC),
		Currency:    "EUR",
	}

	missBefore := testutil.ToFloat64(marketTestMetrics.CacheLookups.WithLabelValues("miss"))
	hitBefore := testutil.ToFloat64(marketTestMetrics.CacheLookups.WithLabelValues("hit"))

	first, err := client.CheapPrices(ctx, query)
	require.NoError(t, err)
	second, err := client.CheapPrices(ctx, query)
	require.NoError(t, err)

	// The second call is served from cache: one upstream request, zero
	// latency, identical payload.
	assert.Equal(t, int32(1), requests.Load())
	assert.Equal(t, first.Payload, second.Payload)
	assert.Equal(t, 0, second.LatencyMs)

	assert.Equal(t, missBefore+1, testutil.ToFloat64(marketTestMetrics.CacheLookups.WithLabelValues("miss")))
	assert.Equal(t, hitBefore+1, testutil.ToFloat64(marketTestMetrics.CacheLookups.WithLabelValues("hit")))
}

func TestGetJSONFailsFastWithoutToken(t *testing.T) {
	client := NewClient("http://localhost:1", "", cache.NewMemoryCache(), marketTestMetrics, logger.NewNopLogger())

	_, err := client.CheapPrices(context.Background(), Query{Origin: "CDG", Destination: "LIS", DepartDate: time.Now(), Currency: "EUR"})
	require.Error(t, err)
	assert.Equal(t, entity.ErrorAuth, ClassifyError(err))
}
