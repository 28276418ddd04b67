package loader

import (
	"context"
	"sync"
	"time"
)

const (
	// DefaultRefreshTimeout is how long a refresh may run before the watchdog
	// gives up on it.
	DefaultRefreshTimeout = 5 * time.Second

	// TimeoutMessage is the non-terminal notification raised by the watchdog.
	TimeoutMessage = "Time Out"
)

// Refresher coordinates a presenter's refresh gesture with a Loader. It owns
// the refreshing flag the presenter displays and a watchdog that clears it if
// the refresh stalls.
type Refresher struct {
	loader        *Loader
	timeout       time.Duration
	endRefreshing func()

	mu         sync.Mutex
	refreshing bool
	timer      *time.Timer
	generation uint64
}

// NewRefresher creates a refresher for l. endRefreshing, if non-nil, is called
// when the watchdog forcibly ends a refresh so the presenter can drop its
// refresh indicator. A non-positive timeout uses DefaultRefreshTimeout.
func NewRefresher(l *Loader, timeout time.Duration, endRefreshing func()) *Refresher {
	if l == nil {
		panic("loader cannot be nil")
	}
	if timeout <= 0 {
		timeout = DefaultRefreshTimeout
	}
	return &Refresher{
		loader:        l,
		timeout:       timeout,
		endRefreshing: endRefreshing,
	}
}

// BeginRefresh reloads the list from the first page and arms the watchdog,
// replacing any watchdog still pending. onComplete follows Loader.Load: it is
// not called when the load is dropped because a fetch is already in flight,
// in which case the refresh stays up until the watchdog clears it.
func (r *Refresher) BeginRefresh(ctx context.Context, onComplete func(success bool)) bool {
	r.mu.Lock()
	r.refreshing = true
	r.generation++
	generation := r.generation
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.timeout, func() { r.expire(generation) })
	r.mu.Unlock()

	return r.loader.Load(ctx, true, func(success bool) {
		r.finish()
		complete(onComplete, success)
	})
}

// IsRefreshing reports whether a refresh is outstanding.
func (r *Refresher) IsRefreshing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.refreshing
}

// Stop cancels the pending watchdog. The underlying fetch is not affected.
func (r *Refresher) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopTimer()
}

func (r *Refresher) finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refreshing = false
	r.stopTimer()
}

func (r *Refresher) stopTimer() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.generation++
}

func (r *Refresher) expire(generation uint64) {
	r.mu.Lock()
	if generation != r.generation || !r.refreshing {
		r.mu.Unlock()
		return
	}
	r.refreshing = false
	r.timer = nil
	r.mu.Unlock()

	RefreshTimeouts.Inc()
	r.loader.logger.Warn().Dur("timeout", r.timeout).Msg("Refresh timed out")

	if r.endRefreshing != nil {
		r.endRefreshing()
	}
	r.loader.notify(TimeoutMessage, false)
}
