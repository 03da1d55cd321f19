package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Upstream call outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeSkipped = "skipped"
)

// Metrics holds all Prometheus metrics for the application. All methods are
// safe on a nil receiver so tests and the CLI can run without a registry.
type Metrics struct {
	HTTPLatency       *prometheus.HistogramVec
	UpstreamCalls     *prometheus.CounterVec
	UpstreamLatency   *prometheus.HistogramVec
	CallerIDFallbacks prometheus.Counter
	CacheLookups      *prometheus.CounterVec
	SentinelResults   prometheus.Counter
}

// New creates and registers all metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dbservice_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by route, method and status",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}, []string{"route", "method", "status"}),

		UpstreamCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dbservice_upstream_calls_total",
			Help: "Total upstream API calls by provider and outcome",
		}, []string{"provider", "outcome"}),

		UpstreamLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dbservice_upstream_duration_seconds",
			Help:    "Duration of upstream API calls by provider",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}, []string{"provider"}),

		CallerIDFallbacks: f.NewCounter(prometheus.CounterOpts{
			Name: "dbservice_callerid_fallbacks_total",
			Help: "Total caller-ID lookups answered through the backup API path",
		}),

		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dbservice_lookup_cache_total",
			Help: "Lookup cache reads by result (hit, miss)",
		}, []string{"result"}),

		SentinelResults: f.NewCounter(prometheus.CounterOpts{
			Name: "dbservice_lookup_post2022_total",
			Help: "Total registry answers carrying the registered-after-2022 sentinel",
		}),
	}
}

// ObserveHTTP records a finished HTTP request.
func (m *Metrics) ObserveHTTP(route, method, status string, d time.Duration) {
	if m != nil {
		m.HTTPLatency.WithLabelValues(route, method, status).Observe(d.Seconds())
	}
}

// ObserveUpstream records one upstream call.
func (m *Metrics) ObserveUpstream(provider, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamCalls.WithLabelValues(provider, outcome).Inc()
	if outcome != OutcomeSkipped {
		m.UpstreamLatency.WithLabelValues(provider).Observe(d.Seconds())
	}
}

// IncrementFallbacks counts a caller-ID request that went to the backup.
func (m *Metrics) IncrementFallbacks() {
	if m != nil {
		m.CallerIDFallbacks.Inc()
	}
}

// RecordCache counts a cache read.
func (m *Metrics) RecordCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.CacheLookups.WithLabelValues("miss").Inc()
}

// IncrementSentinel counts a post-2022 sentinel answer.
func (m *Metrics) IncrementSentinel() {
	if m != nil {
		m.SentinelResults.Inc()
	}
}
