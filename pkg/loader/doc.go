// Package loader implements an incremental list loader: it pulls pages from a
// pagination.PageFetcher, deduplicates them against the records accumulated so
// far, keeps a synthetic self record at the head of the list, and reports
// loading, end-of-data and failure state to a presenter.
//
// # Basic Usage
//
//	l := loader.New(fetcher, loader.DefaultConfig())
//	l.SetNotifier(loader.NotifierFunc(func(msg string, terminal bool) {
//		// show an alert
//	}))
//
//	l.Load(ctx, false, func(success bool) {
//		// re-render from l.Snapshot()
//	})
//
// At most one fetch is in flight per loader. A Load issued while another is
// outstanding is dropped without a callback; presenters poll ShouldPrefetch on
// every render and re-issue Load when it reports true.
//
// # Refresh
//
// A Refresher starts a refresh and arms a watchdog. If the refresh has not
// completed when the watchdog fires, the refreshing state is cleared and a
// non-terminal "Time Out" notification is raised:
//
//	r := loader.NewRefresher(l, loader.DefaultRefreshTimeout, endSpinner)
//	r.BeginRefresh(ctx, onDone)
//
// # Metrics
//
//   - feed_fetches_total{result} - Fetches by result (success, failure)
//   - feed_fetch_duration_seconds - Fetch latency
//   - feed_loads_suppressed_total - Loads dropped while a fetch was in flight
//   - feed_records - Records currently held, self record included
//   - feed_duplicates_dropped_total - Incoming records rejected as duplicates
//   - feed_merges_dropped_total - Merges dropped by the merge guard
//   - feed_end_of_data_total - Responses that carried no next cursor
//   - feed_refresh_timeouts_total - Refresh watchdog firings
package loader
