// Package metrics provides the Prometheus registry used by the feed loader.
// Metrics are defined next to the code that records them (loader, cache) and
// registered through promauto.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the loader packages.
var Registry = prometheus.DefaultRegisterer

// Handler serves the metrics in Registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Metrics Documentation
//
// Loader Metrics (pkg/loader):
//   - feed_fetches_total{result} (Counter): Page fetches by result (success, failure)
//   - feed_fetch_duration_seconds (Histogram): Page fetch duration
//   - feed_loads_suppressed_total (Counter): Loads dropped while a fetch was in flight
//   - feed_records (Gauge): Records held, self record included
//   - feed_duplicates_dropped_total (Counter): Incoming records dropped as duplicates
//   - feed_merges_dropped_total (Counter): Merges dropped by the merge guard
//   - feed_end_of_data_total (Counter): Responses without a next cursor
//   - feed_refresh_timeouts_total (Counter): Refreshes recovered by the watchdog
//
// Page Cache Metrics (pkg/cache):
//   - feed_page_cache_hits_total (Counter): Cache hits
//   - feed_page_cache_misses_total (Counter): Cache misses
//   - feed_page_cache_size_bytes (Gauge): Bytes written to the cache
//   - feed_page_cache_errors_total{operation} (Counter): Cache operation errors
//
// Example Prometheus Queries:
//
//   # Fetch failure rate
//   rate(feed_fetches_total{result="failure"}[5m]) / rate(feed_fetches_total[5m])
//
//   # Duplicate ratio of incoming records
//   rate(feed_duplicates_dropped_total[5m])
//
//   # P95 fetch latency
//   histogram_quantile(0.95, rate(feed_fetch_duration_seconds_bucket[5m]))
//
//   # Page cache hit rate
//   rate(feed_page_cache_hits_total[5m]) /
//   (rate(feed_page_cache_hits_total[5m]) + rate(feed_page_cache_misses_total[5m]))
