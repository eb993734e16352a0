// Package metrics provides the Prometheus registry reference and the HTTP
// request metrics middleware for the API server.
// Component metrics are defined in their respective packages (client,
// cache, ratelimit) to keep packages independent.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the registry /metrics reads from.
var Gatherer = prometheus.DefaultGatherer

// Metrics Documentation
//
// HTTP Metrics (pkg/metrics):
//   - swapi_http_requests_total{route, method, status} (Counter): API requests served
//   - swapi_http_request_duration_seconds{route, method} (Histogram): API request latency
//   - swapi_http_requests_in_flight (Gauge): Requests currently being served
//
// Cache Metrics (pkg/cache):
//   - swapi_cache_hits_total{layer} (Counter): Cache hits by layer (memory, redis)
//   - swapi_cache_misses_total{layer} (Counter): Cache misses
//   - swapi_cache_evictions_total{layer} (Counter): Expired entries evicted on read
//   - swapi_cache_memory_entries (Gauge): Entries in the in-memory cache
//   - swapi_cache_errors_total{operation} (Counter): Cache backend errors
//
// Upstream Metrics (pkg/client):
//   - swapi_requests_total{resource, status} (Counter): SWAPI requests by collection and status
//   - swapi_request_duration_seconds{resource} (Histogram): SWAPI latency
//   - swapi_errors_total{class} (Counter): Errors by class (client, server, timeout, network, decode)
//
// Rate Limit Metrics (pkg/ratelimit):
//   - swapi_rate_limit_allowed_total{backend} (Counter): Requests admitted
//   - swapi_rate_limit_rejections_total{backend, window} (Counter): Requests rejected
//
// Example Prometheus Queries:
//
//	# Cache Hit Rate
//	sum(rate(swapi_cache_hits_total[5m])) /
//	(sum(rate(swapi_cache_hits_total[5m])) + sum(rate(swapi_cache_misses_total[5m])))
//
//	# Upstream Error Rate
//	rate(swapi_errors_total[5m])
//
//	# P95 API Latency by route
//	histogram_quantile(0.95, sum by (le, route) (rate(swapi_http_request_duration_seconds_bucket[5m])))
