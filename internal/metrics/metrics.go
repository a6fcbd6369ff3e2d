package metrics

import (
	"regexp"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestDuration tracks HTTP request duration in seconds by method, path, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts HTTP requests by method, path, status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// DispatchTotal counts dispatch attempts by kind (fixed_date, repeating) and
	// outcome (sent, failed, skipped).
	DispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_attempts_total",
			Help: "Total number of template dispatch attempts by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	// DueTemplates is the number of due templates found at the last poll.
	DueTemplates = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dispatch_due_templates",
			Help: "Number of templates found due at the last dispatcher poll",
		},
		[]string{"kind"},
	)

	// SweepTotal counts housekeeping sweep runs.
	SweepTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_sweeps_total",
			Help: "Total number of schedule housekeeping sweeps",
		},
	)

	// SweepUpdates counts schedule records changed by housekeeping sweeps.
	SweepUpdates = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_sweep_updates_total",
			Help: "Total number of schedule records changed by housekeeping sweeps",
		},
	)
)

var (
	numericPathSegment = regexp.MustCompile(`/[0-9]+(/|$)`)
	initOnce           sync.Once
)

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestDuration, RequestTotal, DispatchTotal, DueTemplates, SweepTotal, SweepUpdates)
	})
}

// NormalizePath reduces cardinality by replacing numeric path segments with {id}.
// E.g. /v1/templates/123 -> /v1/templates/{id}.
func NormalizePath(path string) string {
	return numericPathSegment.ReplaceAllString(path, "/{id}$1")
}

// RecordRequest records duration and count for an HTTP request. Call from middleware with method, path, statusCode, duration.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

// RecordDispatch counts one dispatch attempt. kind is fixed_date|repeating;
// outcome is sent|failed|skipped.
func RecordDispatch(kind, outcome string) {
	DispatchTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordDue sets the due-template gauge for one poll.
func RecordDue(kind string, n int) {
	DueTemplates.WithLabelValues(kind).Set(float64(n))
}
