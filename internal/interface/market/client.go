package market

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"planpilot-service/internal/domain/entity"
	"planpilot-service/internal/infrastructure/cache"
	"planpilot-service/pkg/logger"
	"planpilot-service/pkg/metrics"
)

const (
	defaultTimeout = 8 * time.Second
	maxAttempts    = 3
	cacheTTL       = 900 * time.Second
)

// Query identifies one origin/destination/date/currency request tuple.
type Query struct {
	Origin      string
	Destination string
	DepartDate  time.Time
	ReturnDate  *time.Time
	Currency    string
}

// Result is the decoded payload of one endpoint call plus its latency.
type Result struct {
	Payload   map[string]interface{}
	LatencyMs int
}

// Client fetches live price signals from the aggregator API. Each call is
// independently cached with a fixed TTL and bounded by timeout plus a small
// retry budget. When no token is configured every call fails fast with an
// auth-classified error and no network I/O.
type Client struct {
	name       string
	baseURL    string
	token      string
	httpClient *http.Client
	cache      cache.Cache
	metrics    *metrics.Metrics
	logger     logger.Logger
}

// NewClient creates a market data client. cache may not be nil; pass a
// MemoryCache when Redis is unavailable.
func NewClient(baseURL, token string, store cache.Cache, m *metrics.Metrics, log logger.Logger) *Client {
	return &Client{
		name:       "aggregator",
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: defaultTimeout},
		cache:      store,
		metrics:    m,
		logger:     log,
	}
}

// Name identifies the provider in diagnostics.
func (c *Client) Name() string { return c.name }

// Enabled reports whether a token is configured.
func (c *Client) Enabled() bool { return c.token != "" }

// CheapPrices fetches the cheapest known fares for the route.
func (c *Client) CheapPrices(ctx context.Context, q Query) (*Result, error) {
	return c.getJSON(ctx, "/v1/prices/cheap", q.params(), "cheap")
}

// CalendarPrices fetches the fare calendar around the departure date.
func (c *Client) CalendarPrices(ctx context.Context, q Query) (*Result, error) {
	return c.getJSON(ctx, "/v1/prices/calendar", q.params(), "calendar")
}

// CityDirections fetches popular direction prices from the origin city.
func (c *Client) CityDirections(ctx context.Context, origin, currency string) (*Result, error) {
	params := url.Values{}
	params.Set("origin", origin)
	params.Set("currency", currency)
	return c.getJSON(ctx, "/v1/city-directions", params, "directions")
}

func (q Query) params() url.Values {
	params := url.Values{}
	params.Set("origin", q.Origin)
	params.Set("destination", q.Destination)
	params.Set("depart_date", q.DepartDate.Format("2006-01-02"))
	params.Set("currency", q.Currency)
	if q.ReturnDate != nil {
		params.Set("return_date", q.ReturnDate.Format("2006-01-02"))
	}
	return params
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, endpoint string) (*Result, error) {
	if !c.Enabled() {
		return nil, &ProviderError{
			Provider:   c.name,
			Type:       entity.ErrorAuth,
			HTTPStatus: http.StatusUnauthorized,
			Message:    "API token is not configured",
		}
	}

	cacheKey := c.cacheKey(path, params)
	if cached, ok := c.cache.Get(ctx, cacheKey); ok {
		var payload map[string]interface{}
		if err := json.Unmarshal(cached, &payload); err == nil {
			c.metrics.CacheLookups.WithLabelValues("hit").Inc()
			return &Result{Payload: payload, LatencyMs: 0}, nil
		}
	}
	c.metrics.CacheLookups.WithLabelValues("miss").Inc()

	result, err := c.fetchWithRetry(ctx, path, params)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(result.Payload); err == nil {
		c.cache.Set(ctx, cacheKey, encoded, cacheTTL)
	}
	c.logger.Debug("Market endpoint fetched", "endpoint", endpoint, "latency_ms", result.LatencyMs)
	return result, nil
}

func (c *Client) fetchWithRetry(ctx context.Context, path string, params url.Values) (*Result, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err := c.fetchOnce(ctx, path, params)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !entity.RetryableError(ClassifyError(err)) && ClassifyError(err) != entity.ErrorParse {
			return nil, err
		}
		if attempt == maxAttempts {
			break
		}
		backoff := time.Duration(1<<(attempt-1)) * time.Second
		select {
		case <-ctx.Done():
			return nil, &ProviderError{Provider: c.name, Type: entity.ErrorTimeout, Message: ctx.Err().Error()}
		case <-time.After(backoff):
		}
	}
	return nil, lastErr
}

func (c *Client) fetchOnce(ctx context.Context, path string, params url.Values) (*Result, error) {
	endpoint := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &ProviderError{Provider: c.name, Type: entity.ErrorUnknown, Message: err.Error()}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Access-Token", c.token)

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	latencyMs := int(time.Since(started).Milliseconds())
	if err != nil {
		// Transport errors share the timeout retry path.
		return nil, &ProviderError{
			Provider:  c.name,
			Type:      entity.ErrorTimeout,
			LatencyMs: latencyMs,
			Message:   fmt.Sprintf("GET %s: %v", path, err),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, &ProviderError{
			Provider:   c.name,
			Type:       classifyStatus(resp.StatusCode),
			HTTPStatus: resp.StatusCode,
			LatencyMs:  latencyMs,
			Message:    fmt.Sprintf("GET %s: status %d", path, resp.StatusCode),
		}
	}

	var payload map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &ProviderError{
			Provider:   c.name,
			Type:       entity.ErrorParse,
			HTTPStatus: resp.StatusCode,
			LatencyMs:  latencyMs,
			Message:    fmt.Sprintf("GET %s: decode failure: %v", path, err),
		}
	}
	return &Result{Payload: payload, LatencyMs: latencyMs}, nil
}

func (c *Client) cacheKey(path string, params url.Values) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	hasher := sha256.New()
	hasher.Write([]byte(path))
	for _, key := range keys {
		hasher.Write([]byte(key))
		hasher.Write([]byte(params.Get(key)))
	}
	return "market:" + hex.EncodeToString(hasher.Sum(nil))
}
