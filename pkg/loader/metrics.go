package loader

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FetchesTotal tracks completed fetches by result ("success", "failure")
	FetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_fetches_total",
			Help: "Total number of page fetches by result",
		},
		[]string{"result"},
	)

	// FetchDuration tracks fetch latency
	FetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feed_fetch_duration_seconds",
			Help:    "Page fetch duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 15},
		},
	)

	// LoadsSuppressed tracks loads dropped by the in-flight guard
	LoadsSuppressed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_loads_suppressed_total",
			Help: "Total number of loads dropped while a fetch was in flight",
		},
	)

	// RecordsHeld tracks the size of the accumulated record list
	RecordsHeld = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feed_records",
			Help: "Number of records currently held by the loader",
		},
	)

	// DuplicatesDropped tracks incoming records rejected by dedup
	DuplicatesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_duplicates_dropped_total",
			Help: "Total number of incoming records dropped as duplicates",
		},
	)

	// MergesDropped tracks merges dropped by the merge guard
	MergesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_merges_dropped_total",
			Help: "Total number of merges dropped because another merge was running",
		},
	)

	// EndOfData tracks responses without a next cursor
	EndOfData = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_end_of_data_total",
			Help: "Total number of responses that reached the end of data",
		},
	)

	// RefreshTimeouts tracks refresh watchdog firings
	RefreshTimeouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_refresh_timeouts_total",
			Help: "Total number of refreshes recovered by the watchdog",
		},
	)
)
