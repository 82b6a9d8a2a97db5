// Package metrics exposes the Prometheus registry used by learncache.
// Collectors are defined next to the code that updates them (cacheditem,
// kvstore, api, warmup) and registered via promauto.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by learncache.
var Registry = prometheus.DefaultRegisterer

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Metrics Documentation
//
// Cached item metrics (pkg/cacheditem):
//   - learncache_item_requests_total{op, outcome} (Counter): Lookups by operation
//     (get_cached, get) and outcome (fresh, fetched, empty, stale, fallback, error)
//   - learncache_producer_errors_total{producer} (Counter): Failed primary/secondary producer calls
//   - learncache_store_errors_total{operation} (Counter): Swallowed store errors (get, set, decode, encode)
//
// Store metrics (pkg/kvstore):
//   - learncache_kv_operation_duration_seconds{backend, operation} (Histogram)
//   - learncache_kv_operation_errors_total{backend, operation} (Counter)
//
// API metrics (pkg/api):
//   - learncache_api_requests_total{endpoint, status} (Counter)
//   - learncache_api_request_duration_seconds{endpoint} (Histogram)
//   - learncache_api_errors_total{class} (Counter)
//   - learncache_api_retries_total{error_class} (Counter)
//   - learncache_api_retry_exhausted_total{error_class} (Counter)
//
// Warmup metrics (pkg/warmup):
//   - learncache_warmup_jobs_total{outcome} (Counter)
//   - learncache_warmup_run_duration_seconds (Histogram)
//
// Example Prometheus Queries:
//
//   # Share of lookups answered without the network
//   sum(rate(learncache_item_requests_total{outcome="fresh"}[5m])) /
//   sum(rate(learncache_item_requests_total[5m]))
//
//   # Stale serves (platform API failing while cache covers for it)
//   rate(learncache_item_requests_total{outcome="stale"}[5m])
//
//   # P95 store latency per backend
//   histogram_quantile(0.95, sum by (backend, le) (rate(learncache_kv_operation_duration_seconds_bucket[5m])))
