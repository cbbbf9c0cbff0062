package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"planpilot-service/internal/domain/entity"
	"planpilot-service/internal/domain/repository"
	"planpilot-service/pkg/logger"
	"planpilot-service/pkg/money"
)

const defaultFxBaseURL = "https://api.freecurrencyapi.com/v1/latest"

// FxQuote is one fetched (base, quote) rate.
type FxQuote struct {
	BaseCurrency  string
	QuoteCurrency string
	Rate          float64
	AsOf          time.Time
	Source        string
}

// FxProvider fetches conversion rates for a base currency.
type FxProvider interface {
	Name() string
	FetchRates(ctx context.Context, baseCurrency string, quoteCurrencies []string) ([]FxQuote, error)
}

// HTTPFxProvider pulls rates from a freecurrencyapi-style JSON endpoint.
type HTTPFxProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewHTTPFxProvider(apiKey, baseURL string) *HTTPFxProvider {
	if baseURL == "" {
		baseURL = defaultFxBaseURL
	}
	return &HTTPFxProvider{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *HTTPFxProvider) Name() string { return "freecurrencyapi" }

func (p *HTTPFxProvider) FetchRates(ctx context.Context, baseCurrency string, quoteCurrencies []string) ([]FxQuote, error) {
	base := strings.ToUpper(baseCurrency)
	symbols := normalizeCurrencies(quoteCurrencies, base)
	if len(symbols) == 0 {
		return nil, nil
	}

	params := url.Values{}
	params.Set("apikey", p.apiKey)
	params.Set("base_currency", base)
	params.Set("currencies", strings.Join(symbols, ","))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fx request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fx request: unexpected status %d", resp.StatusCode)
	}

	var payload struct {
		Data map[string]float64 `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("fx decode: %w", err)
	}

	now := time.Now().UTC()
	quotes := make([]FxQuote, 0, len(payload.Data))
	for quoteCurrency, rate := range payload.Data {
		quotes = append(quotes, FxQuote{
			BaseCurrency:  base,
			QuoteCurrency: strings.ToUpper(quoteCurrency),
			Rate:          rate,
			AsOf:          now,
			Source:        p.Name(),
		})
	}
	return quotes, nil
}

// FallbackFxProvider pins every requested pair to 1.0. Used when no API key
// is configured so conversion stays deterministic instead of failing.
type FallbackFxProvider struct{}

func (FallbackFxProvider) Name() string { return "fallback" }

func (f FallbackFxProvider) FetchRates(_ context.Context, baseCurrency string, quoteCurrencies []string) ([]FxQuote, error) {
	base := strings.ToUpper(baseCurrency)
	now := time.Now().UTC()
	quotes := make([]FxQuote, 0, len(quoteCurrencies))
	for _, quote := range normalizeCurrencies(quoteCurrencies, "") {
		quotes = append(quotes, FxQuote{
			BaseCurrency:  base,
			QuoteCurrency: quote,
			Rate:          1.0,
			AsOf:          now,
			Source:        f.Name(),
		})
	}
	return quotes, nil
}

// FxService converts amounts through stored rate rows and refreshes them
// from a provider out-of-band. Conversion never errors: a missing pair
// degrades to 1:1.
type FxService struct {
	rates    repository.FxRateRepository
	provider FxProvider
	log      logger.Logger
}

func NewFxService(rates repository.FxRateRepository, provider FxProvider, log logger.Logger) *FxService {
	if provider == nil {
		provider = FallbackFxProvider{}
	}
	return &FxService{rates: rates, provider: provider, log: log}
}

// Rate returns the most recent stored rate, 1.0 for identity or missing pairs.
func (s *FxService) Rate(ctx context.Context, base, quote string) float64 {
	base = strings.ToUpper(base)
	quote = strings.ToUpper(quote)
	if base == quote {
		return 1.0
	}
	row, err := s.rates.GetRate(ctx, base, quote)
	if err != nil || row == nil {
		return 1.0
	}
	return row.Rate
}

// ConvertMinor converts minor units between currencies with cent quantization.
func (s *FxService) ConvertMinor(ctx context.Context, amountMinor int64, base, quote string) int64 {
	if amountMinor == 0 {
		return 0
	}
	converted := money.Round2(money.FromMinor(amountMinor) * s.Rate(ctx, base, quote))
	return money.ToMinor(converted)
}

// Convert converts a major-unit amount, quantized to cents.
func (s *FxService) Convert(ctx context.Context, amount float64, base, quote string) float64 {
	return money.Round2(amount * s.Rate(ctx, base, quote))
}

// RefreshRates upserts provider rates for every observed currency against
// the base. The base to base rate is always pinned to 1.0 so conversion
// stays deterministic regardless of provider payloads.
func (s *FxService) RefreshRates(ctx context.Context, baseCurrency string, quoteCurrencies []string) (int, error) {
	base := strings.ToUpper(baseCurrency)
	symbols := normalizeCurrencies(quoteCurrencies, "")

	quotes, err := s.provider.FetchRates(ctx, base, symbols)
	if err != nil {
		return 0, fmt.Errorf("fetch rates: %w", err)
	}
	quotes = append(quotes, FxQuote{
		BaseCurrency:  base,
		QuoteCurrency: base,
		Rate:          1.0,
		AsOf:          time.Now().UTC(),
		Source:        s.provider.Name(),
	})

	count := 0
	for _, quote := range quotes {
		row := &entity.FxRate{
			BaseCurrency:  quote.BaseCurrency,
			QuoteCurrency: quote.QuoteCurrency,
			Rate:          quote.Rate,
			AsOf:          quote.AsOf,
			Source:        quote.Source,
		}
		if err := s.rates.Upsert(ctx, row); err != nil {
			s.log.Error("Failed to upsert fx rate", "base", quote.BaseCurrency, "quote", quote.QuoteCurrency, "error", err)
			continue
		}
		count++
	}
	s.log.Info("Fx rates refreshed", "pairs", count, "source", s.provider.Name())
	return count, nil
}

// normalizeCurrencies uppercases, dedupes and sorts codes, dropping blanks
// and an optional excluded code.
func normalizeCurrencies(codes []string, exclude string) []string {
	seen := make(map[string]struct{}, len(codes))
	for _, raw := range codes {
		code := strings.ToUpper(strings.TrimSpace(raw))
		if code == "" || code == exclude {
			continue
		}
		seen[code] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for code := range seen {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}
