package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all prometheus metrics
type Metrics struct {
	PlansStarted      prometheus.Counter
	PlansCompleted    prometheus.Counter
	PlansFailed       prometheus.Counter
	CandidateJobs     *prometheus.CounterVec
	ProviderCalls     *prometheus.CounterVec
	ProviderLatency   prometheus.Histogram
	PackagesBuilt     prometheus.Counter
	PipelineDuration  prometheus.Histogram
	FxRatesRefreshed  prometheus.Counter
	CacheLookups      *prometheus.CounterVec
}

// NewMetrics creates new prometheus metrics
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		PlansStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plans_started_total",
			Help:      "The total number of plan pipelines started",
		}),
		PlansCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plans_completed_total",
			Help:      "The total number of plan pipelines completed",
		}),
		PlansFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plans_failed_total",
			Help:      "The total number of plan pipelines that failed",
		}),
		CandidateJobs: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidate_jobs_total",
			Help:      "Per-candidate estimation jobs by outcome",
		}, []string{"outcome"}),
		ProviderCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_calls_total",
			Help:      "Market data provider calls by provider and error type",
		}, []string{"provider", "error_type"}),
		ProviderLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_latency_seconds",
			Help:      "Latency of market data provider calls",
			Buckets:   prometheus.DefBuckets,
		}),
		PackagesBuilt: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "packages_built_total",
			Help:      "The total number of package options persisted",
		}),
		PipelineDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "End-to-end plan pipeline duration",
			Buckets:   []float64{1, 5, 15, 30, 60, 90, 120, 180},
		}),
		FxRatesRefreshed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fx_rates_refreshed_total",
			Help:      "The total number of FX rate rows upserted",
		}),
		CacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "market_cache_lookups_total",
			Help:      "Market data cache lookups by result",
		}, []string{"result"}),
	}
}
