package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder records pipeline and HTTP metrics on its own registry.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	fetchAttempts *prometheus.CounterVec
	tickerResults *prometheus.CounterVec
	cacheLookups  *prometheus.CounterVec
	batchDuration prometheus.Histogram
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		fetchAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fuyaseru_fetch_attempts_total",
				Help: "Market data fetch attempts by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		tickerResults: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fuyaseru_ticker_results_total",
				Help: "Ticker pipeline results by status",
			},
			[]string{"status"},
		),
		cacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fuyaseru_cache_lookups_total",
				Help: "Bundle cache lookups by result",
			},
			[]string{"result"},
		),
		batchDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "fuyaseru_batch_duration_seconds",
				Help:    "Wall time of uncached bundle runs",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
			},
		),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fuyaseru_http_requests_total",
				Help: "HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fuyaseru_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.005, 0.025, 0.1, 0.5, 1, 5, 30, 120},
			},
			[]string{"method", "route"},
		),
	}
}

// RecordFetch counts one provider call. kind is "history", "fundamentals" or "name".
func (r *Recorder) RecordFetch(kind, outcome string) {
	if r == nil {
		return
	}
	r.fetchAttempts.WithLabelValues(kind, outcome).Inc()
}

// RecordTickerResult counts one finished ticker
func (r *Recorder) RecordTickerResult(status string) {
	if r == nil {
		return
	}
	r.tickerResults.WithLabelValues(status).Inc()
}

// RecordCacheLookup counts a bundle cache hit or miss
func (r *Recorder) RecordCacheLookup(hit bool) {
	if r == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(result).Inc()
}

// RecordBatch observes the duration of a computed bundle
func (r *Recorder) RecordBatch(d time.Duration) {
	if r == nil {
		return
	}
	r.batchDuration.Observe(d.Seconds())
}

// RecordHTTP records one served request
func (r *Recorder) RecordHTTP(method, route, status string, d time.Duration) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(method, route, status).Inc()
	r.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler exposes the registry in Prometheus text format
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Gatherer returns the underlying registry
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}
