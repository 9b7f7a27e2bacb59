// Package metrics owns the Prometheus collectors of the catalog service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is served on /metrics.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(
		StoreOperationDuration, StoreFailures,
		HTTPRequests, HTTPRequestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// StoreOperationDuration is the latency of repository operations in seconds.
var StoreOperationDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "catalog_store_operation_duration_seconds",
		Help:    "Latency of repository operations.",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"collection", "operation"},
)

// StoreFailures counts repository operations that returned a failure.
var StoreFailures = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "catalog_store_failures_total",
		Help: "Repository operations that returned a failure, by kind.",
	},
	[]string{"collection", "operation", "kind"},
)

var HTTPRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "catalog_http_requests_total",
		Help: "HTTP requests by route and status.",
	},
	[]string{"method", "route", "status"},
)

var HTTPRequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "catalog_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"method", "route"},
)

// ObserveStoreOperation records one repository call. kind is empty on success.
func ObserveStoreOperation(collection, operation string, start time.Time, kind string) {
	StoreOperationDuration.WithLabelValues(collection, operation).Observe(time.Since(start).Seconds())
	if kind != "" {
		StoreFailures.WithLabelValues(collection, operation, kind).Inc()
	}
}

// Handler exposes Registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
