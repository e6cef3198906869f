package scan

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the scan pipeline.
type Metrics struct {
	ScansTotal      *prometheus.CounterVec
	ScanDuration    prometheus.Histogram
	PoolsDiscovered prometheus.Counter
	CacheHits       prometheus.Counter
	EnrichFailures  *prometheus.CounterVec
	RPCErrors       *prometheus.CounterVec
}

// NewMetrics creates and registers the pipeline metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		ScansTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "watcher_scans_total",
			Help: "Total scan requests, labeled by outcome.",
		}, []string{"result"}),

		ScanDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "watcher_scan_duration_seconds",
			Help:    "Wall time of one scan request, cache hits included.",
			Buckets: prometheus.DefBuckets,
		}),

		PoolsDiscovered: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "watcher_pools_discovered_total",
			Help: "Unique pool creations decoded across all scans.",
		}),

		CacheHits: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "watcher_cache_hits_total",
			Help: "Scan requests served from the result cache.",
		}),

		EnrichFailures: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "watcher_enrich_failures_total",
			Help: "Per-pool enrichment failures, labeled by stage.",
		}, []string{"stage"}),

		RPCErrors: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "watcher_rpc_errors_total",
			Help: "Recovered RPC errors, labeled by query kind.",
		}, []string{"kind"}),
	}
}

func (m *Metrics) scanResult(result string) {
	if m != nil {
		m.ScansTotal.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) observeDuration(seconds float64) {
	if m != nil {
		m.ScanDuration.Observe(seconds)
	}
}

func (m *Metrics) addPools(n int) {
	if m != nil {
		m.PoolsDiscovered.Add(float64(n))
	}
}

func (m *Metrics) cacheHit() {
	if m != nil {
		m.CacheHits.Inc()
	}
}

func (m *Metrics) enrichFailure(stage string) {
	if m != nil {
		m.EnrichFailures.WithLabelValues(stage).Inc()
	}
}

func (m *Metrics) rpcError(kind string) {
	if m != nil {
		m.RPCErrors.WithLabelValues(kind).Inc()
	}
}
