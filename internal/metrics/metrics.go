// Package metrics provides the Prometheus metrics of the scheduler API.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the custom prometheus registry for our application
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

// RecommendationsComputed counts successful recommendation requests per store.
var RecommendationsComputed = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "scheduler",
	Name:      "recommendations_computed_total",
	Help:      "Number of staffing recommendations computed",
}, []string{"store"})

// RecommendationErrors counts rejected recommendation requests by reason.
var RecommendationErrors = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "scheduler",
	Name:      "recommendation_errors_total",
	Help:      "Recommendation requests rejected, by reason",
}, []string{"reason"})

// ActivityRecordsAggregated counts activity records run through the work-hours aggregator.
var ActivityRecordsAggregated = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "scheduler",
	Name:      "activity_records_aggregated_total",
	Help:      "Number of daily activity records aggregated into worked hours",
})

// SyncRuns counts HR synchronisation runs by outcome.
var SyncRuns = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "scheduler",
	Name:      "sync_runs_total",
	Help:      "HR synchronisation runs by status",
}, []string{"status"})

// CacheLookups counts response cache lookups by result (hit or miss).
var CacheLookups = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "scheduler",
	Name:      "cache_lookups_total",
	Help:      "Response cache lookups by result",
}, []string{"cache", "result"})

// UpstreamDuration tracks latency of calls to Airtable and the HR API.
var UpstreamDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "scheduler",
	Name:      "upstream_request_duration_seconds",
	Help:      "Latency of requests to external services",
	Buckets:   prometheus.DefBuckets,
}, []string{"service", "status"})

// Handler exposes the registry in the Prometheus text format
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
