package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the playout service.
type Metrics struct {
	registry               *prometheus.Registry
	requestsTotal          prometheus.Counter
	errorsTotal            prometheus.Counter
	nextVodTotal           prometheus.Counter
	stitchFailuresTotal    prometheus.Counter
	positionConflictsTotal prometheus.Counter
	channels               prometheus.Gauge
	requestDuration        prometheus.Histogram
}

// New creates and registers Prometheus metrics for the playout service.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "playout_requests_total",
		Help: "Total number of HTTP requests received",
	})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "playout_errors_total",
		Help: "Total number of HTTP responses with error status (4xx or 5xx)",
	})
	nextVodTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "playout_next_vod_total",
		Help: "Total number of successfully served next-vod advancements",
	})
	stitchFailuresTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "playout_stitch_failures_total",
		Help: "Total number of stitch calls that fell back to the unstitched asset URL",
	})
	positionConflictsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "playout_position_conflicts_total",
		Help: "Total number of lost position compare-and-swap races",
	})
	channels := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "playout_channels",
		Help: "Number of channels in the store",
	})
	requestDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "playout_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	})

	registry.MustRegister(
		requestsTotal,
		errorsTotal,
		nextVodTotal,
		stitchFailuresTotal,
		positionConflictsTotal,
		channels,
		requestDuration,
	)

	return &Metrics{
		registry:               registry,
		requestsTotal:          requestsTotal,
		errorsTotal:            errorsTotal,
		nextVodTotal:           nextVodTotal,
		stitchFailuresTotal:    stitchFailuresTotal,
		positionConflictsTotal: positionConflictsTotal,
		channels:               channels,
		requestDuration:        requestDuration,
	}
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	m.requestsTotal.Inc()
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// IncNextVodServed increments the served advancement counter.
func (m *Metrics) IncNextVodServed() {
	m.nextVodTotal.Inc()
}

// IncStitchFailures increments the stitch fallback counter.
func (m *Metrics) IncStitchFailures() {
	m.stitchFailuresTotal.Inc()
}

// IncPositionConflicts increments the lost-race counter.
func (m *Metrics) IncPositionConflicts() {
	m.positionConflictsTotal.Inc()
}

// SetChannels sets the stored channel count gauge.
func (m *Metrics) SetChannels(n int) {
	m.channels.Set(float64(n))
}

// ObserveRequestDuration records one request's duration.
func (m *Metrics) ObserveRequestDuration(d time.Duration) {
	m.requestDuration.Observe(d.Seconds())
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values (e.g. the
// channel count).
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}
