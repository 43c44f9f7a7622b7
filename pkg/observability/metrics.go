package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	aggregationRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "metrics_aggregation_runs_total",
		Help: "Total aggregation runs by window scheme and outcome",
	}, []string{
		"scheme", // single, calendar_month, calendar_week, rolling
		"status", // success, failed
	})

	aggregationWindowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "metrics_aggregation_windows_total",
		Help: "Total windows reduced into metric points",
	}, []string{
		"scheme",
	})

	aggregationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "metrics_aggregation_duration_seconds",
		Help:    "End-to-end duration of one aggregation run",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{
		"scheme",
		"status",
	})

	sourceFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "metrics_source_fetch_duration_seconds",
		Help:    "Duration of one event-source fetch call",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{
		"kind", // payments, disputes
	})

	sourceFetchErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "metrics_source_fetch_errors_total",
		Help: "Total event-source fetch failures (after retries)",
	}, []string{
		"kind",
	})
)

// RecordAggregation records one completed aggregation run
func RecordAggregation(scheme, status string, elapsed time.Duration) {
	aggregationRunsTotal.WithLabelValues(scheme, status).Inc()
	aggregationDuration.WithLabelValues(scheme, status).Observe(elapsed.Seconds())
}

// RecordWindow records one window reduced into a metric point
func RecordWindow(scheme string) {
	aggregationWindowsTotal.WithLabelValues(scheme).Inc()
}

// ObserveFetch records the duration of one event-source fetch
func ObserveFetch(kind string, elapsed time.Duration) {
	sourceFetchDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// RecordFetchError records a fetch failure that exhausted its retries
func RecordFetchError(kind string) {
	sourceFetchErrorsTotal.WithLabelValues(kind).Inc()
}
