package metrics

import (
	"database/sql"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

const (
	metricPrefix = "uptime_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	reportJobsTotal   *prometheus.CounterVec
	reportJobLatency  *prometheus.HistogramVec
	reportJobsRunning prometheus.Gauge
	reportSitesTotal  prometheus.Counter

	reportExportTotal   *prometheus.CounterVec
	reportExportLatency *prometheus.HistogramVec

	httpRequestsTotal  *prometheus.CounterVec
	httpRequestLatency *prometheus.HistogramVec
)

// Init registers service metrics and DB-backed gauges.
func Init(db *sql.DB, logger logrus.FieldLogger) {
	registerOnce.Do(func() {
		reportJobsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_jobs_total",
				Help: "Total report jobs by terminal state",
			},
			[]string{"state"},
		)
		reportJobLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "report_job_duration_seconds",
				Help:    "Report job duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900, 1800},
			},
			[]string{"state"},
		)
		reportJobsRunning = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "report_jobs_running",
			Help: "Report jobs currently running",
		})
		reportSitesTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "report_sites_computed_total",
			Help: "Total per-site report rows computed",
		})

		reportExportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_export_total",
				Help: "Total report payload exports by format and result",
			},
			[]string{"format", "result"},
		)
		reportExportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "report_export_latency_seconds",
				Help:    "Report export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		httpRequestsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "Total HTTP requests by route and status",
			},
			[]string{"route", "status"},
		)
		httpRequestLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_request_latency_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		)

		prometheus.MustRegister(
			reportJobsTotal,
			reportJobLatency,
			reportJobsRunning,
			reportSitesTotal,
			reportExportTotal,
			reportExportLatency,
			httpRequestsTotal,
			httpRequestLatency,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// JobStarted marks a report job as running.
func JobStarted() {
	if reportJobsRunning != nil {
		reportJobsRunning.Inc()
	}
}

// ObserveJob records a terminal job state and its duration.
func ObserveJob(state string, duration time.Duration) {
	if state == "" {
		state = "unknown"
	}
	if reportJobsRunning != nil {
		reportJobsRunning.Dec()
	}
	if reportJobsTotal != nil {
		reportJobsTotal.WithLabelValues(state).Inc()
	}
	if reportJobLatency != nil {
		reportJobLatency.WithLabelValues(state).Observe(duration.Seconds())
	}
}

// IncSiteComputed counts one computed report row.
func IncSiteComputed() {
	if reportSitesTotal != nil {
		reportSitesTotal.Inc()
	}
}

// ObserveExport records export latency and result.
func ObserveExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if reportExportTotal != nil {
		reportExportTotal.WithLabelValues(format, result).Inc()
	}
	if reportExportLatency != nil {
		reportExportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// ObserveHTTP records a served request.
func ObserveHTTP(route, status string, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	if httpRequestsTotal != nil {
		httpRequestsTotal.WithLabelValues(route, status).Inc()
	}
	if httpRequestLatency != nil {
		httpRequestLatency.WithLabelValues(route).Observe(duration.Seconds())
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)
