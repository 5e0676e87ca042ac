package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector exposes Prometheus metrics for the sync engine.
type Collector struct {
	registry         *prometheus.Registry
	apiRequests      *prometheus.CounterVec
	apiLatency       *prometheus.HistogramVec
	rateLimitRetries prometheus.Counter
	accountsSynced   *prometheus.CounterVec
	viralAlerts      *prometheus.CounterVec
	syncDuration     prometheus.Histogram
}

// NewCollector constructs a collector with default histograms/counters.
func NewCollector() (*Collector, error) {
	registry := prometheus.NewRegistry()

	apiRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pulse",
		Subsystem: "api_client",
		Name:      "requests_total",
		Help:      "Total number of outbound platform API requests.",
	}, []string{"platform", "operation", "status"})

	apiLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pulse",
		Subsystem: "api_client",
		Name:      "request_duration_seconds",
		Help:      "Latency distribution for outbound platform API requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"platform", "operation"})

	rateLimitRetries := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pulse",
		Subsystem: "api_client",
		Name:      "rate_limit_retries_total",
		Help:      "Number of backoff retries triggered by rate-limit responses.",
	})

	accountsSynced := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pulse",
		Subsystem: "sync",
		Name:      "accounts_total",
		Help:      "Accounts processed during bulk sync, labeled by outcome.",
	}, []string{"platform", "result"})

	viralAlerts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pulse",
		Subsystem: "sync",
		Name:      "viral_alerts_total",
		Help:      "Viral notifications attempted, labeled by delivery result.",
	}, []string{"platform", "result"})

	syncDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "pulse",
		Subsystem: "sync",
		Name:      "cycle_duration_seconds",
		Help:      "Duration of full bulk sync cycles.",
		Buckets:   []float64{1, 5, 15, 60, 300, 900, 3600},
	})

	for _, c := range []prometheus.Collector{
		apiRequests, apiLatency, rateLimitRetries,
		accountsSynced, viralAlerts, syncDuration,
	} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return &Collector{
		registry:         registry,
		apiRequests:      apiRequests,
		apiLatency:       apiLatency,
		rateLimitRetries: rateLimitRetries,
		accountsSynced:   accountsSynced,
		viralAlerts:      viralAlerts,
		syncDuration:     syncDuration,
	}, nil
}

// Handler returns an HTTP handler for exposing Prometheus metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveAPIRequest records one outbound API call.
func (c *Collector) ObserveAPIRequest(platform, operation, status string, duration time.Duration) {
	if c == nil {
		return
	}
	c.apiRequests.WithLabelValues(platform, operation, status).Inc()
	c.apiLatency.WithLabelValues(platform, operation).Observe(duration.Seconds())
}

// ObserveRateLimitRetry records one backoff retry after a 429.
func (c *Collector) ObserveRateLimitRetry() {
	if c == nil {
		return
	}
	c.rateLimitRetries.Inc()
}

// ObserveAccountSynced records one account sync outcome.
func (c *Collector) ObserveAccountSynced(platform, result string) {
	if c == nil {
		return
	}
	c.accountsSynced.WithLabelValues(platform, result).Inc()
}

// ObserveViralAlert records one viral notification attempt.
func (c *Collector) ObserveViralAlert(platform string, delivered bool) {
	if c == nil {
		return
	}
	result := "delivered"
	if !delivered {
		result = "failed"
	}
	c.viralAlerts.WithLabelValues(platform, result).Inc()
}

// ObserveSyncCycle records the duration of a full bulk sync.
func (c *Collector) ObserveSyncCycle(duration time.Duration) {
	if c == nil {
		return
	}
	c.syncDuration.Observe(duration.Seconds())
}
