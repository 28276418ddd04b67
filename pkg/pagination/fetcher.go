package pagination

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
)

// TimeoutMessage is the description of a fetch that exceeded its deadline.
const TimeoutMessage = "Request timed out"

// Config holds fetch configuration.
type Config struct {
	// Timeout bounds a single page fetch
	Timeout time.Duration
}

// DefaultConfig returns safe default configuration.
func DefaultConfig() Config {
	return Config{
		Timeout: 15 * time.Second,
	}
}

// PageFetcher is the interface a page source must implement.
type PageFetcher interface {
	// Fetch returns the page addressed by cursor. An empty cursor requests
	// the first page.
	Fetch(ctx context.Context, cursor Cursor) (Page, error)
}

// FetcherFunc adapts a plain function to the PageFetcher interface.
type FetcherFunc func(ctx context.Context, cursor Cursor) (Page, error)

// Fetch implements PageFetcher.
func (f FetcherFunc) Fetch(ctx context.Context, cursor Cursor) (Page, error) {
	return f(ctx, cursor)
}

// WithTimeout bounds every fetch of next by timeout. A fetch that runs out of
// time fails with a *FetchError described by TimeoutMessage. A non-positive
// timeout returns next unchanged.
func WithTimeout(next PageFetcher, timeout time.Duration) PageFetcher {
	if timeout <= 0 {
		return next
	}
	return FetcherFunc(func(ctx context.Context, cursor Cursor) (Page, error) {
		pageCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		page, err := next.Fetch(pageCtx, cursor)
		if err != nil && errors.Is(pageCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			log.Warn().
				Str("cursor", cursor).
				Dur("timeout", timeout).
				Msg("Page fetch timed out")
			return Page{}, &FetchError{Message: TimeoutMessage, Err: err}
		}
		return page, err
	})
}
