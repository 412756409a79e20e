// Package metrics exposes Prometheus instrumentation for store fetches, report
// assembly, HTTP requests and scheduled jobs.
//
// Usage:
//
//	// Record a store fetch
//	RecordStoreFetch("questions", 35*time.Millisecond, nil)
//
//	// Record a report section status
//	RecordSection("overview", "gauges", "ok")
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StoreFetchDuration tracks how long each collection fetch takes.
	StoreFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "medinsight_store_fetch_duration_seconds",
			Help:    "Duration of event store fetches in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"collection"},
	)

	// StoreFetchErrorsTotal counts failed fetches, including open-breaker rejections.
	StoreFetchErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medinsight_store_fetch_errors_total",
			Help: "Total number of failed event store fetches",
		},
		[]string{"collection"},
	)

	// MalformedRecordsTotal counts records skipped because their timestamp did not parse.
	MalformedRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medinsight_malformed_records_total",
			Help: "Total number of records with unparsable timestamps",
		},
		[]string{"collection"},
	)

	// BreakerState is 0 closed, 1 half-open, 2 open.
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "medinsight_store_breaker_state",
			Help: "Event store circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"breaker"},
	)

	// ReportDuration tracks end-to-end bundle assembly time.
	ReportDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "medinsight_report_duration_seconds",
			Help:    "Duration of report bundle assembly in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"bundle"},
	)

	// ReportSectionsTotal counts section outcomes per bundle.
	ReportSectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medinsight_report_sections_total",
			Help: "Total number of report sections by status",
		},
		[]string{"bundle", "section", "status"},
	)

	// HTTPRequestsTotal counts API requests by route and status code.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medinsight_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "status"},
	)

	// JobRunsTotal counts scheduled job executions by outcome.
	JobRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medinsight_job_runs_total",
			Help: "Total number of scheduled job runs",
		},
		[]string{"job", "outcome"},
	)
)

// RecordStoreFetch records a fetch duration and its failure, if any.
func RecordStoreFetch(collection string, duration time.Duration, err error) {
	StoreFetchDuration.WithLabelValues(collection).Observe(duration.Seconds())
	if err != nil {
		StoreFetchErrorsTotal.WithLabelValues(collection).Inc()
	}
}

// RecordMalformed adds n skipped records for a collection.
func RecordMalformed(collection string, n int) {
	if n > 0 {
		MalformedRecordsTotal.WithLabelValues(collection).Add(float64(n))
	}
}

// RecordBreakerState publishes a breaker state as 0, 1 or 2.
func RecordBreakerState(name string, state int) {
	BreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordReport records the assembly time of a bundle.
func RecordReport(bundle string, duration time.Duration) {
	ReportDuration.WithLabelValues(bundle).Observe(duration.Seconds())
}

// RecordSection counts a section outcome.
func RecordSection(bundle, section, status string) {
	ReportSectionsTotal.WithLabelValues(bundle, section, status).Inc()
}

// RecordHTTPRequest counts an API request.
func RecordHTTPRequest(route, status string) {
	HTTPRequestsTotal.WithLabelValues(route, status).Inc()
}

// RecordJobRun counts a job execution.
func RecordJobRun(job string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	JobRunsTotal.WithLabelValues(job, outcome).Inc()
}
