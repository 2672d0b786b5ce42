// DietScope - Recipe Macronutrient Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dietscope

package metrics

import (
	"errors"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Query Chain Metrics
	QueryTierResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analysis_query_tier_results_total",
			Help: "Outcome of each cache tier consulted by the analysis endpoint",
		},
		[]string{"tier", "outcome"}, // outcome: "hit", "absent", "error"
	)

	ComputeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "analysis_compute_duration_seconds",
			Help:    "Time spent cleaning and aggregating the dataset on demand",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	// Refresh Metrics
	RefreshRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refresh_runs_total",
			Help: "Total number of refresh runs by outcome",
		},
		[]string{"trigger", "outcome"}, // outcome: "success", "partial", "failed"
	)

	RefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "refresh_duration_seconds",
			Help:    "Duration of a full refresh run",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	RefreshRowsCleaned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "refresh_rows_cleaned_total",
			Help: "Total number of cleaned rows produced by refresh runs",
		},
	)

	RefreshLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "refresh_last_success_timestamp",
			Help: "Unix timestamp of the last successful refresh",
		},
	)

	RecipesUpserted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recipe_index_upserts_total",
			Help: "Total number of recipe documents upserted",
		},
	)

	RecipeUpsertFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recipe_index_upsert_failures_total",
			Help: "Total number of recipe documents that failed to upsert",
		},
	)

	// Search Metrics
	SearchQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipe_search_queries_total",
			Help: "Total number of recipe search queries by outcome",
		},
		[]string{"outcome"}, // "ok", "rejected", "error"
	)

	// Storage Metrics
	BlobOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blob_operations_total",
			Help: "Total number of blob store operations",
		},
		[]string{"driver", "operation", "outcome"}, // outcome: "success", "not_found", "error"
	)

	BlobOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "blob_operation_duration_seconds",
			Help:    "Duration of blob store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"driver", "operation"},
	)

	DocumentOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "document_store_operation_duration_seconds",
			Help:    "Duration of document store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "operation"},
	)

	DocumentOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "document_store_operation_errors_total",
			Help: "Total number of failed document store operations",
		},
		[]string{"backend", "operation"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Event Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_events_published_total",
			Help: "Total number of source-changed events published",
		},
		[]string{"trigger"},
	)

	EventsConsumed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "source_events_consumed_total",
			Help: "Total number of source-changed events received by the refresh handler",
		},
	)

	EventsDeduplicated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "source_events_deduplicated_total",
			Help: "Total number of duplicate source-changed events skipped",
		},
	)

	EventsParseFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "source_events_parse_failed_total",
			Help: "Total number of source-changed events that could not be decoded",
		},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
		func() float64 { return time.Since(processStart).Seconds() },
	)
)

var processStart = time.Now()

// SetAppInfo publishes the build version.
func SetAppInfo(version string) {
	AppInfo.WithLabelValues(version, runtime.Version()).Set(1)
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordTierResult counts one cache tier outcome.
func RecordTierResult(tier, outcome string) {
	QueryTierResults.WithLabelValues(tier, outcome).Inc()
}

// RecordRefresh records a finished refresh run. outcome is "success",
// "partial" or "failed".
func RecordRefresh(trigger, outcome string, duration time.Duration, rows, upserted, failed int) {
	RefreshRuns.WithLabelValues(trigger, outcome).Inc()
	RefreshDuration.Observe(duration.Seconds())
	RefreshRowsCleaned.Add(float64(rows))
	RecipesUpserted.Add(float64(upserted))
	RecipeUpsertFailures.Add(float64(failed))
	if outcome != "failed" {
		RefreshLastSuccess.Set(float64(time.Now().Unix()))
	}
}

// RecordSearch counts a recipe search by outcome.
func RecordSearch(outcome string) {
	SearchQueries.WithLabelValues(outcome).Inc()
}

// RecordBlobOp records a blob store call. notFound classifies err as a
// miss rather than a failure.
func RecordBlobOp(driver, operation string, duration time.Duration, err error, notFound error) {
	outcome := "success"
	switch {
	case err == nil:
	case notFound != nil && errors.Is(err, notFound):
		outcome = "not_found"
	default:
		outcome = "error"
	}
	BlobOperations.WithLabelValues(driver, operation, outcome).Inc()
	BlobOperationDuration.WithLabelValues(driver, operation).Observe(duration.Seconds())
}

// RecordDocumentOp records a document store call.
func RecordDocumentOp(backend, operation string, duration time.Duration, err error) {
	DocumentOperationDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
	if err != nil {
		DocumentOperationErrors.WithLabelValues(backend, operation).Inc()
	}
}

// RecordBreakerTransition records a breaker state change. States are
// gobreaker's String() values.
func RecordBreakerTransition(name, from, to string) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
	CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
}

func breakerStateValue(state string) float64 {
	switch state {
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return 0
	}
}
