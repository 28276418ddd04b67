package loader

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/feedloader/pkg/pagination"
)

const (
	// DefaultSelfName is the display name of the self record.
	DefaultSelfName = "Me"

	// DefaultPrefetchDistance is how many rows before the end of the list a
	// render triggers the next page.
	DefaultPrefetchDistance = 6

	// EndOfDataMessage is the terminal notification sent when the source has
	// no further pages.
	EndOfDataMessage = "This is the end :("

	// EmptyListMessage is what presenters show when only the self record is held.
	EmptyListMessage = "No one here but me :)"
)

// Config holds loader configuration.
type Config struct {
	// SelfName is the display name of the synthesized self record
	SelfName string

	// PrefetchDistance is the distance from the end of the list at which
	// ShouldPrefetch fires
	PrefetchDistance int

	// FetchTimeout bounds a single page fetch (0 disables the bound)
	FetchTimeout time.Duration
}

// DefaultConfig returns the default loader configuration.
func DefaultConfig() Config {
	return Config{
		SelfName:         DefaultSelfName,
		PrefetchDistance: DefaultPrefetchDistance,
		FetchTimeout:     pagination.DefaultConfig().Timeout,
	}
}

// State is a point-in-time copy of the loader state.
type State struct {
	Records    []pagination.Record
	Cursor     pagination.Cursor
	Loading    bool
	Merging    bool
	ReachedEnd bool
}

// Loader accumulates pages from a PageFetcher into a deduplicated list headed
// by the self record.
type Loader struct {
	fetcher pagination.PageFetcher
	config  Config
	self    pagination.Record
	logger  zerolog.Logger

	mu         sync.Mutex
	records    []pagination.Record
	seen       map[int64]struct{}
	cursor     pagination.Cursor
	loading    bool
	merging    bool
	reachedEnd bool

	notifyMu sync.RWMutex
	notifier Notifier
}

// New creates a loader that pulls pages from fetcher.
func New(fetcher pagination.PageFetcher, cfg Config) *Loader {
	if fetcher == nil {
		panic("page fetcher cannot be nil")
	}
	if cfg.SelfName == "" {
		cfg.SelfName = DefaultSelfName
	}
	if cfg.PrefetchDistance <= 0 {
		cfg.PrefetchDistance = DefaultPrefetchDistance
	}

	return &Loader{
		fetcher: pagination.WithTimeout(fetcher, cfg.FetchTimeout),
		config:  cfg,
		self:    pagination.Record{ID: pagination.SelfID, DisplayName: cfg.SelfName},
		logger:  log.With().Str("component", "loader").Logger(),
		seen:    map[int64]struct{}{pagination.SelfID: {}},
	}
}

// SetNotifier replaces the presenter notification sink. The loader does not
// manage the presenter's lifetime; passing nil detaches it and later
// notifications are dropped.
func (l *Loader) SetNotifier(n Notifier) {
	l.notifyMu.Lock()
	defer l.notifyMu.Unlock()
	l.notifier = n
}

func (l *Loader) notify(message string, terminal bool) {
	l.notifyMu.RLock()
	n := l.notifier
	l.notifyMu.RUnlock()

	if n == nil {
		l.logger.Debug().
			Str("message", message).
			Bool("terminal", terminal).
			Msg("No notifier attached, dropping notification")
		return
	}
	n.Notify(message, terminal)
}

// Load fetches the next page, or the first page when refresh is set, and
// merges it into the accumulated records. It returns immediately; onComplete
// is invoked exactly once with the outcome.
//
// If a fetch is already in flight the call is dropped: no fetch is issued,
// onComplete is never invoked, and Load returns false.
func (l *Loader) Load(ctx context.Context, refresh bool, onComplete func(success bool)) bool {
	l.mu.Lock()
	if l.loading {
		l.mu.Unlock()
		LoadsSuppressed.Inc()
		l.logger.Debug().Bool("refresh", refresh).Msg("Fetch in flight, load dropped")
		return false
	}
	if refresh {
		l.cursor = ""
		l.reachedEnd = false
	}
	l.loading = true
	cursor := l.cursor
	l.mu.Unlock()

	l.logger.Debug().
		Bool("refresh", refresh).
		Str("cursor", cursor).
		Msg("Fetching page")

	go l.fetch(ctx, refresh, cursor, onComplete)
	return true
}

func (l *Loader) fetch(ctx context.Context, refresh bool, cursor pagination.Cursor, onComplete func(bool)) {
	start := time.Now()
	page, err := l.fetcher.Fetch(ctx, cursor)
	FetchDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		FetchesTotal.WithLabelValues("failure").Inc()
		description := pagination.Describe(err)
		l.logger.Warn().
			Err(err).
			Str("cursor", cursor).
			Bool("refresh", refresh).
			Msg("Page fetch failed")

		l.mu.Lock()
		l.loading = false
		l.mu.Unlock()

		l.notify(description, false)
		complete(onComplete, false)
		return
	}

	FetchesTotal.WithLabelValues("success").Inc()

	l.mu.Lock()
	reachedEnd := !page.HasMore()
	if reachedEnd {
		l.cursor = ""
		l.reachedEnd = true
	} else {
		l.cursor = page.Next
	}
	l.loading = false
	l.merge(refresh, page.Records)
	count := len(l.records)
	l.mu.Unlock()

	l.logger.Debug().
		Int("fetched", len(page.Records)).
		Int("records", count).
		Bool("refresh", refresh).
		Dur("duration", time.Since(start)).
		Msg("Page merged")

	if reachedEnd {
		EndOfData.Inc()
		l.logger.Info().Int("records", count).Msg("Reached end of data")
		l.notify(EndOfDataMessage, true)
	}
	complete(onComplete, true)
}

func complete(onComplete func(bool), success bool) {
	if onComplete != nil {
		onComplete(success)
	}
}

// ShouldPrefetch reports whether rendering the row at visibleIndex should
// trigger loading the next page. It is level-triggered: it stays true across
// renders until a load starts or the list grows.
func (l *Loader) ShouldPrefetch(visibleIndex int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return visibleIndex == len(l.records)-l.config.PrefetchDistance &&
		!l.loading &&
		!l.reachedEnd
}

// Snapshot returns a copy of the current state. The copy does not change when
// the loader does.
func (l *Loader) Snapshot() State {
	l.mu.Lock()
	defer l.mu.Unlock()

	records := make([]pagination.Record, len(l.records))
	copy(records, l.records)

	return State{
		Records:    records,
		Cursor:     l.cursor,
		Loading:    l.loading,
		Merging:    l.merging,
		ReachedEnd: l.reachedEnd,
	}
}

// Len returns the number of records held, self record included.
func (l *Loader) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// IsLoading reports whether a fetch is in flight.
func (l *Loader) IsLoading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loading
}

// ReachedEnd reports whether the most recent successful fetch was the last page.
func (l *Loader) ReachedEnd() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reachedEnd
}

// Self returns the loader's self record.
func (l *Loader) Self() pagination.Record {
	return l.self
}
