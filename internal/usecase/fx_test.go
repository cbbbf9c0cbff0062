package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planpilot-service/internal/domain/entity"
	"planpilot-service/pkg/logger"
)

type fakeFxRateRepo struct {
	rows      map[string]*entity.FxRate
	upsertErr error
}

func newFakeFxRateRepo() *fakeFxRateRepo {
	return &fakeFxRateRepo{rows: make(map[string]*entity.FxRate)}
}

func (r *fakeFxRateRepo) Upsert(_ context.Context, rate *entity.FxRate) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	copied := *rate
	r.rows[rate.BaseCurrency+"/"+rate.QuoteCurrency] = &copied
	return nil
}

func (r *fakeFxRateRepo) GetRate(_ context.Context, base, quote string) (*entity.FxRate, error) {
	return r.rows[base+"/"+quote], nil
}

type stubFxProvider struct {
	rate float64
}

func (stubFxProvider) Name() string { return "stub" }

func (p stubFxProvider) FetchRates(_ context.Context, baseCurrency string, quoteCurrencies []string) ([]FxQuote, error) {
	now := time.Now().UTC()
	quotes := make([]FxQuote, 0, len(quoteCurrencies))
	for _, quote := range quoteCurrencies {
		quotes = append(quotes, FxQuote{
			BaseCurrency:  baseCurrency,
			QuoteCurrency: quote,
			Rate:          p.rate,
			AsOf:          now,
			Source:        "stub",
		})
	}
	return quotes, nil
}

func TestFxRateIdentityAndMissingPair(t *testing.T) {
	svc := NewFxService(newFakeFxRateRepo(), FallbackFxProvider{}, logger.NewNopLogger())
	ctx := context.Background()

	assert.Equal(t, 1.0, svc.Rate(ctx, "USD", "USD"))
	assert.Equal(t, 1.0, svc.Rate(ctx, "usd", "Usd"))
	// Unknown pairs degrade to 1:1 rather than failing the pipeline.
	assert.Equal(t, 1.0, svc.Rate(ctx, "USD", "EUR"))
}

func TestFxConvertUsesStoredRate(t *testing.T) {
	repo := newFakeFxRateRepo()
	ctx := context.Background()
	require.NoError(t, repo.Upsert(ctx, &entity.FxRate{BaseCurrency: "USD", QuoteCurrency: "EUR", Rate: 0.915}))

	svc := NewFxService(repo, FallbackFxProvider{}, logger.NewNopLogger())

	assert.Equal(t, 91.5, svc.Convert(ctx, 100, "USD", "EUR"))
	// Quantized to cents.
	assert.Equal(t, 9.45, svc.Convert(ctx, 10.33, "USD", "EUR"))
	assert.Equal(t, int64(9150), svc.ConvertMinor(ctx, 10000, "USD", "EUR"))
	assert.Equal(t, int64(0), svc.ConvertMinor(ctx, 0, "USD", "EUR"))
}

// Converting there and back with static inverse rates reproduces the
// original amount within cent rounding. Without stored rates the round
// trip is exact because conversion is identity.
func TestFxConvertRoundTrip(t *testing.T) {
	repo := newFakeFxRateRepo()
	ctx := context.Background()
	require.NoError(t, repo.Upsert(ctx, &entity.FxRate{BaseCurrency: "USD", QuoteCurrency: "EUR", Rate: 0.915}))
	require.NoError(t, repo.Upsert(ctx, &entity.FxRate{BaseCurrency: "EUR", QuoteCurrency: "USD", Rate: 1 / 0.915}))

	svc := NewFxService(repo, FallbackFxProvider{}, logger.NewNopLogger())

	converted := svc.Convert(ctx, 100, "USD", "EUR")
	assert.InDelta(t, 100, svc.Convert(ctx, converted, "EUR", "USD"), 0.01)

	minor := svc.ConvertMinor(ctx, 10033, "USD", "EUR")
	back := svc.ConvertMinor(ctx, minor, "EUR", "USD")
	assert.InDelta(t, 10033, float64(back), 1)

	// Missing pairs are identity both ways.
	assert.Equal(t, 42.37, svc.Convert(ctx, svc.Convert(ctx, 42.37, "USD", "GBP"), "GBP", "USD"))
}

func TestFxRefreshRatesPinsBasePair(t *testing.T) {
	repo := newFakeFxRateRepo()
	svc := NewFxService(repo, stubFxProvider{rate: 0.9}, logger.NewNopLogger())
	ctx := context.Background()

	count, err := svc.RefreshRates(ctx, "usd", []string{"eur", "GBP", "", "eur"})
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	pinned, err := repo.GetRate(ctx, "USD", "USD")
	require.NoError(t, err)
	require.NotNil(t, pinned)
	assert.Equal(t, 1.0, pinned.Rate)

	eur, err := repo.GetRate(ctx, "USD", "EUR")
	require.NoError(t, err)
	require.NotNil(t, eur)
	assert.Equal(t, 0.9, eur.Rate)
}

func TestFxRefreshRatesSurvivesUpsertFailures(t *testing.T) {
	repo := newFakeFxRateRepo()
	repo.upsertErr = errors.New("connection reset")
	svc := NewFxService(repo, stubFxProvider{rate: 0.9}, logger.NewNopLogger())

	count, err := svc.RefreshRates(context.Background(), "USD", []string{"EUR"})
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestNormalizeCurrencies(t *testing.T) {
	got := normalizeCurrencies([]string{" eur", "USD", "usd", "", "gbp"}, "USD")
	assert.Equal(t, []string{"EUR", "GBP"}, got)
}
