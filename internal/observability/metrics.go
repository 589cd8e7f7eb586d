// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the enrichment engine.
type Metrics struct {
	// Fetch metrics
	PagesFetched  prometheus.Counter
	FetchRetries  prometheus.Counter
	FetchGiveUps  prometheus.Counter
	FetchDuration prometheus.Histogram

	// Sync metrics
	ActivitiesSynced  prometheus.Counter
	SyncRuns          *prometheus.CounterVec
	SyncBoundary      prometheus.Gauge
	LastSuccessfulRun prometheus.Gauge

	// Resolution metrics
	ProxyResolutions   prometheus.Counter
	UnresolvableProxy  prometheus.Counter
	TransferFetchCalls prometheus.Counter

	// Enrichment metrics
	ContextsAssembled prometheus.Counter
	BranchFailures    *prometheus.CounterVec

	// Cache metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	// Archive metrics
	ActivitiesArchived prometheus.Counter
	ArchiveErrors      prometheus.Counter
}

// NewMetrics creates a Metrics instance with all metrics registered on the
// default registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "ens_market_context"
	}

	return &Metrics{
		PagesFetched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_fetched_total",
			Help:      "Activity pages fetched from the marketplace API",
		}),
		FetchRetries: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_retries_total",
			Help:      "Page fetch retry attempts",
		}),
		FetchGiveUps: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_giveups_total",
			Help:      "Page fetches downgraded to empty+incomplete after retry exhaustion",
		}),
		FetchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of single page fetches including retries",
			Buckets:   prometheus.DefBuckets,
		}),
		ActivitiesSynced: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activities_synced_total",
			Help:      "Qualifying activities emitted by incremental sync",
		}),
		SyncRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_runs_total",
			Help:      "Sync runs by outcome",
		}, []string{"outcome"}),
		SyncBoundary: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sync_boundary_timestamp",
			Help:      "Persisted sync boundary (unix seconds)",
		}),
		LastSuccessfulRun: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_successful_sync_timestamp",
			Help:      "Wall-clock time of the last successful sync run",
		}),
		ProxyResolutions: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "proxy_resolutions_total",
			Help:      "Activities resolved through a settlement proxy",
		}),
		UnresolvableProxy: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unresolvable_proxy_total",
			Help:      "Proxy detections that fell back to unresolved addresses",
		}),
		TransferFetchCalls: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfer_fetch_calls_total",
			Help:      "Same-transaction transfer lookups issued by the resolver",
		}),
		ContextsAssembled: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "contexts_assembled_total",
			Help:      "Reply contexts assembled",
		}),
		BranchFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "branch_failures_total",
			Help:      "Enrichment fan-out branches degraded to incomplete",
		}, []string{"branch"}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Lookup cache hits",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Lookup cache misses",
		}),
		ActivitiesArchived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activities_archived_total",
			Help:      "Resolved activities written to the analytics archive",
		}),
		ArchiveErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_errors_total",
			Help:      "Archive writes that failed (logged, never blocking)",
		}),
	}
}

// Handler returns the HTTP handler exposing the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
