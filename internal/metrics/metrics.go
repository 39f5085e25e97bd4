// Package metrics holds the Prometheus collectors shared by the pipeline
// and the HTTP layer. All collectors register on the default registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Collection pipeline
	CollectionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "appvis_collection_duration_seconds",
			Help:    "Duration of a full inventory collection pass in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
	)

	BackendRecords = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "appvis_backend_records",
			Help: "Number of records produced by each backend in the last collection",
		},
		[]string{"source"},
	)

	CommandFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "appvis_command_failures_total",
			Help: "External commands that failed, timed out or could not be spawned",
		},
	)

	ProbeResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appvis_probe_results_total",
			Help: "Reachability probe outcomes",
		},
		[]string{"result"},
	)

	SpawnedProcesses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appvis_spawned_processes_total",
			Help: "Processes started through the command runner endpoint, by exit outcome",
		},
		[]string{"result"},
	)

	// Snapshot cache
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appvis_snapshot_cache_total",
			Help: "Snapshot cache lookups by outcome (hit, miss, stale, degraded)",
		},
		[]string{"result"},
	)

	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appvis_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "appvis_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "appvis_http_requests_in_flight",
			Help: "Current number of HTTP requests being processed",
		},
	)

	AccessRejects = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appvis_access_rejects_total",
			Help: "Requests rejected by the access filters",
		},
		[]string{"filter"},
	)

	RateLimitRejects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "appvis_rate_limit_rejects_total",
			Help: "Total number of requests rejected due to rate limiting",
		},
	)
)
