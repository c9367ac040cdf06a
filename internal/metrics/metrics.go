// Package metrics exposes Prometheus collectors for the site service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Form outcomes recorded by ObserveForm.
const (
	OutcomeCreated   = "created"
	OutcomeDuplicate = "duplicate"
	OutcomeInvalid   = "invalid"
	OutcomeSpam      = "spam"
	OutcomeError     = "error"
	OutcomeOK        = "ok"
	OutcomeDenied    = "denied"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests, labeled by method, route and code.",
		},
		[]string{"method", "route", "code"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, labeled by method and route.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"method", "route"},
	)

	formSubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "site_form_submissions_total",
			Help: "Form submissions, labeled by form and outcome.",
		},
		[]string{"form", "outcome"},
	)

	rateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "site_rate_limited_total",
			Help: "Requests rejected by the per-client rate limiter, labeled by route.",
		},
		[]string{"route"},
	)

	revalidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "site_revalidations_total",
			Help: "Revalidation webhook calls, labeled by document type and outcome.",
		},
		[]string{"doc_type", "outcome"},
	)

	dbQueryDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "site_db_query_duration_seconds",
			Help:    "Histogram of database statement latencies, labeled by statement and result.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
		[]string{"statement", "result"},
	)

	dbSlowQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "site_db_slow_queries_total",
			Help: "Statements that exceeded the slow query threshold.",
		},
		[]string{"statement"},
	)

	eventDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "site_event_deliveries_total",
			Help: "Lead event deliveries, labeled by sink and outcome.",
		},
		[]string{"sink", "outcome"},
	)

	webVitals = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "site_web_vitals",
			Help: "Client-reported web vitals, labeled by metric name and rating.",
			// Millisecond-scale metrics dominate; CLS lands in the first buckets.
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 50, 100, 200, 500, 1000, 1800, 2500, 4000, 8000},
		},
		[]string{"name", "rating"},
	)
)

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveForm counts a form submission outcome.
func ObserveForm(form, outcome string) {
	formSubmissionsTotal.WithLabelValues(form, outcome).Inc()
}

// ObserveRateLimited counts a throttled request.
func ObserveRateLimited(route string) {
	rateLimitedTotal.WithLabelValues(route).Inc()
}

// ObserveRevalidation counts a revalidation webhook call.
func ObserveRevalidation(docType, outcome string) {
	if docType == "" {
		docType = "unknown"
	}
	revalidationsTotal.WithLabelValues(docType, outcome).Inc()
}

// ObserveQuery records a statement latency.
func ObserveQuery(statement string, duration time.Duration, err error) {
	result := OutcomeOK
	if err != nil {
		result = OutcomeError
	}
	dbQueryDurationSeconds.WithLabelValues(statement, result).Observe(duration.Seconds())
}

// ObserveSlowQuery counts a statement above the slow threshold.
func ObserveSlowQuery(statement string) {
	dbSlowQueriesTotal.WithLabelValues(statement).Inc()
}

// ObserveEventDelivery counts a sink delivery attempt.
func ObserveEventDelivery(sink string, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	eventDeliveriesTotal.WithLabelValues(sink, outcome).Inc()
}

// ObserveWebVital records one client-reported vital.
func ObserveWebVital(name, rating string, value float64) {
	if rating == "" {
		rating = "unknown"
	}
	webVitals.WithLabelValues(name, rating).Observe(value)
}
