// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Feed metrics
	FeedPagesFetched prometheus.Counter
	SwapsNormalized  prometheus.Counter
	SwapsDropped     prometheus.Counter

	// Pricing metrics
	PriceLookups       *prometheus.CounterVec
	PriceCacheHits     *prometheus.CounterVec
	PriceProviderCalls *prometheus.CounterVec

	// Reconstruction metrics
	TradesBuilt            *prometheus.CounterVec
	ReconstructionRuns     *prometheus.CounterVec
	ReconstructionDuration prometheus.Histogram

	// Sync metrics
	TradesInserted   prometheus.Counter
	TradesDuplicated prometheus.Counter
	TradesFailed     prometheus.Counter

	// Batch metrics
	BatchAccounts   *prometheus.CounterVec
	LastBatchRun    prometheus.Gauge
	StaleDeactivate prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "wallet_ledger"
	}

	return &Metrics{
		FeedPagesFetched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "pages_fetched_total",
			Help:      "Total number of swap feed pages fetched",
		}),
		SwapsNormalized: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "swaps_normalized_total",
			Help:      "Total number of raw swaps normalized from feed records",
		}),
		SwapsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "swaps_dropped_total",
			Help:      "Total number of feed records dropped as unusable",
		}),

		PriceLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pricing",
			Name:      "lookups_total",
			Help:      "Total number of price lookups by outcome",
		}, []string{"outcome"}),
		PriceCacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pricing",
			Name:      "cache_hits_total",
			Help:      "Total number of price cache hits by tier",
		}, []string{"tier"}),
		PriceProviderCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pricing",
			Name:      "provider_calls_total",
			Help:      "Total number of upstream price provider calls by status",
		}, []string{"status"}),

		TradesBuilt: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconstruction",
			Name:      "trades_built_total",
			Help:      "Total number of trades built from swaps by side",
		}, []string{"side"}),
		ReconstructionRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconstruction",
			Name:      "runs_total",
			Help:      "Total number of wallet reconstruction runs by status",
		}, []string{"status"}),
		ReconstructionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "reconstruction",
			Name:      "duration_seconds",
			Help:      "Wallet reconstruction duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		}),

		TradesInserted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "trades_inserted_total",
			Help:      "Total number of trades persisted",
		}),
		TradesDuplicated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "trades_duplicated_total",
			Help:      "Total number of trades skipped as already persisted",
		}),
		TradesFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "trades_failed_total",
			Help:      "Total number of trades that failed both insert attempts",
		}),

		BatchAccounts: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "accounts_total",
			Help:      "Total number of accounts handled by batch runs by status",
		}, []string{"status"}),
		LastBatchRun: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "last_run_timestamp",
			Help:      "Unix timestamp of the last completed batch run",
		}),
		StaleDeactivate: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "stale_deactivated_total",
			Help:      "Total number of accounts deactivated as stale",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordFeedPage increments the feed pages fetched counter.
func RecordFeedPage() {
	DefaultMetrics.FeedPagesFetched.Inc()
}

// RecordSwapNormalized increments the swaps normalized counter.
func RecordSwapNormalized() {
	DefaultMetrics.SwapsNormalized.Inc()
}

// RecordSwapDropped increments the dropped feed records counter.
func RecordSwapDropped() {
	DefaultMetrics.SwapsDropped.Inc()
}

// RecordPriceLookup records a price lookup outcome ("hit", "miss", "degraded").
func RecordPriceLookup(outcome string) {
	DefaultMetrics.PriceLookups.WithLabelValues(outcome).Inc()
}

// RecordPriceCacheHit records a cache hit at the given tier ("memory", "store").
func RecordPriceCacheHit(tier string) {
	DefaultMetrics.PriceCacheHits.WithLabelValues(tier).Inc()
}

// RecordProviderCall records an upstream provider call ("ok", "error").
func RecordProviderCall(status string) {
	DefaultMetrics.PriceProviderCalls.WithLabelValues(status).Inc()
}

// RecordTradeBuilt increments the trades built counter for a side.
func RecordTradeBuilt(side string) {
	DefaultMetrics.TradesBuilt.WithLabelValues(side).Inc()
}

// RecordReconstruction records a reconstruction run.
func RecordReconstruction(status string, durationSeconds float64) {
	DefaultMetrics.ReconstructionRuns.WithLabelValues(status).Inc()
	DefaultMetrics.ReconstructionDuration.Observe(durationSeconds)
}

// RecordSyncResult records the outcome counts of one ledger sync.
func RecordSyncResult(inserted, duplicates, failed int) {
	DefaultMetrics.TradesInserted.Add(float64(inserted))
	DefaultMetrics.TradesDuplicated.Add(float64(duplicates))
	DefaultMetrics.TradesFailed.Add(float64(failed))
}

// RecordBatchAccount records one account handled by a batch run.
func RecordBatchAccount(status string) {
	DefaultMetrics.BatchAccounts.WithLabelValues(status).Inc()
}
