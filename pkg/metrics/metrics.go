package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	SourcesProcessed    *prometheus.CounterVec
	ArticlesProcessed   *prometheus.CounterVec
	FetchFailures       *prometheus.CounterVec
	Candidates          *prometheus.CounterVec
	Duplicates          prometheus.Counter
	FetchDuration       *prometheus.HistogramVec
	RunDuration         prometheus.Histogram
}

// New registers the metrics with reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		SourcesProcessed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_sources_processed_total",
			Help: "Sources processed per run, by outcome.",
		}, []string{"source", "status"}), // status: ok, failed
		ArticlesProcessed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_articles_processed_total",
			Help: "Articles that reached the revenue extractor.",
		}, []string{"source"}),
		FetchFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_fetch_failures_total",
			Help: "Failed network fetches.",
		}, []string{"stage", "error_type"}),
		Candidates: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_candidates_total",
			Help: "Revenue candidates produced, by decision.",
		}, []string{"decision"}),
		Duplicates: f.NewCounter(prometheus.CounterOpts{
			Name: "tracker_duplicates_total",
			Help: "Discovered articles dropped as already seen.",
		}),
		FetchDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tracker_fetch_duration_seconds",
			Help:    "Duration of network fetches.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
		}, []string{"stage"}),
		RunDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "tracker_run_duration_seconds",
			Help:    "Duration of full pipeline runs.",
			Buckets: []float64{10, 30, 60, 120, 300, 600, 1200},
		}),
	}
}

// NewNop returns metrics registered against a throwaway registry.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

func (m *Metrics) IncFetchFailure(stage, errorType string) {
	m.FetchFailures.WithLabelValues(stage, errorType).Inc()
}

func (m *Metrics) ObserveFetch(stage string, seconds float64) {
	m.FetchDuration.WithLabelValues(stage).Observe(seconds)
}
