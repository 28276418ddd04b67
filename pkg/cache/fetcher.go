package cache

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/feedloader/pkg/pagination"
)

// DefaultTTL is how long a continuation page stays cached.
const DefaultTTL = 5 * time.Minute

// CachingFetcher serves continuation pages from a Store and falls through to
// the wrapped fetcher on a miss. Last pages are never stored, so a list that
// grows past its old end is picked up on the next pass. Sources whose content
// can change in place should encode a list version in their cursors.
type CachingFetcher struct {
	next   pagination.PageFetcher
	store  Store
	source string
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCachingFetcher wraps next with a page cache. source namespaces the cache
// keys; a non-positive ttl uses DefaultTTL.
func NewCachingFetcher(next pagination.PageFetcher, store Store, source string, ttl time.Duration) *CachingFetcher {
	if next == nil {
		panic("page fetcher cannot be nil")
	}
	if store == nil {
		panic("cache store cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CachingFetcher{
		next:   next,
		store:  store,
		source: source,
		ttl:    ttl,
		logger: log.With().Str("component", "page-cache").Str("source", source).Logger(),
	}
}

// Fetch implements pagination.PageFetcher.
func (f *CachingFetcher) Fetch(ctx context.Context, cursor pagination.Cursor) (pagination.Page, error) {
	if cursor == "" {
		return f.next.Fetch(ctx, cursor)
	}

	key := CacheKey{Source: f.source, Cursor: cursor}
	entry, err := f.store.Get(ctx, key)
	switch {
	case err == nil:
		f.logger.Debug().Str("cursor", cursor).Dur("ttl", entry.TTL()).Msg("Page cache hit")
		return entry.Page, nil
	case !errors.Is(err, ErrCacheMiss):
		f.logger.Warn().Err(err).Str("cursor", cursor).Msg("Page cache get error")
	}

	page, err := f.next.Fetch(ctx, cursor)
	if err != nil {
		return pagination.Page{}, err
	}

	if !page.HasMore() {
		return page, nil
	}
	if err := f.store.Set(ctx, key, NewPageEntry(page, f.ttl)); err != nil {
		f.logger.Warn().Err(err).Str("cursor", cursor).Msg("Failed to cache page")
	}
	return page, nil
}
