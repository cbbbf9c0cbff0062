package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"planpilot-service/internal/domain/entity"
	"planpilot-service/pkg/logger"
)

// AmadeusClient is the secondary price-signal source. It authenticates with
// an OAuth2 client-credentials grant and exposes a single flight-offers
// lookup; token caching and refresh are handled by the oauth2 transport.
type AmadeusClient struct {
	baseURL    string
	enabled    bool
	httpClient *http.Client
	logger     logger.Logger
}

// NewAmadeusClient configures the client. With empty credentials the client
// is disabled and every call fails fast with an auth error.
func NewAmadeusClient(ctx context.Context, baseURL, clientID, clientSecret string, log logger.Logger) *AmadeusClient {
	client := &AmadeusClient{
		baseURL: baseURL,
		enabled: clientID != "" && clientSecret != "",
		logger:  log,
	}
	if client.enabled {
		conf := &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     baseURL + "/v1/security/oauth2/token",
		}
		client.httpClient = conf.Client(ctx)
		client.httpClient.Timeout = defaultTimeout
	}
	return client
}

// Name identifies the provider in diagnostics.
func (c *AmadeusClient) Name() string { return "amadeus" }

// Enabled reports whether credentials are configured.
func (c *AmadeusClient) Enabled() bool { return c.enabled }

// FlightOffers fetches offer prices for the route. The decoded payload is
// fed through the same nested price extraction as the aggregator payloads.
func (c *AmadeusClient) FlightOffers(ctx context.Context, q Query, travelers int) (*Result, error) {
	if !c.enabled {
		return nil, &ProviderError{
			Provider:   c.Name(),
			Type:       entity.ErrorAuth,
			HTTPStatus: http.StatusUnauthorized,
			Message:    "client credentials are not configured",
		}
	}

	params := url.Values{}
	params.Set("originLocationCode", q.Origin)
	params.Set("destinationLocationCode", q.Destination)
	params.Set("departureDate", q.DepartDate.Format("2006-01-02"))
	params.Set("adults", strconv.Itoa(travelers))
	params.Set("currencyCode", q.Currency)
	params.Set("max", "30")
	if q.ReturnDate != nil {
		params.Set("returnDate", q.ReturnDate.Format("2006-01-02"))
	}

	endpoint := c.baseURL + "/v2/shopping/flight-offers?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &ProviderError{Provider: c.Name(), Type: entity.ErrorUnknown, Message: err.Error()}
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	latencyMs := int(time.Since(started).Milliseconds())
	if err != nil {
		return nil, &ProviderError{
			Provider:  c.Name(),
			Type:      entity.ErrorTimeout,
			LatencyMs: latencyMs,
			Message:   fmt.Sprintf("flight offers: %v", err),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ProviderError{
			Provider:   c.Name(),
			Type:       classifyStatus(resp.StatusCode),
			HTTPStatus: resp.StatusCode,
			LatencyMs:  latencyMs,
			Message:    fmt.Sprintf("flight offers: status %d", resp.StatusCode),
		}
	}

	var payload map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &ProviderError{
			Provider:   c.Name(),
			Type:       entity.ErrorParse,
			HTTPStatus: resp.StatusCode,
			LatencyMs:  latencyMs,
			Message:    fmt.Sprintf("flight offers: decode failure: %v", err),
		}
	}
	return &Result{Payload: payload, LatencyMs: latencyMs}, nil
}
