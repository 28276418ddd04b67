// Package cache provides a Redis-backed cache for continuation pages.
//
// Pages addressed by a non-empty cursor are stored under a deterministic key
// with a TTL. First pages and last pages are never cached, so a refresh
// always reaches the source and a list that grows past its old end is read
// to its new end. Sources whose lists can change in place version their
// cursors (see source.RedisSource):
//
//	manager := cache.NewManager(redisClient)
//	fetcher := cache.NewCachingFetcher(src, manager, "people", 5*time.Minute)
//	l := loader.New(fetcher, loader.DefaultConfig())
//
// Fetch errors are never cached. Cache read or write failures are logged and
// the page is served from the source.
//
// # Metrics
//
//   - feed_page_cache_hits_total - Cache hits
//   - feed_page_cache_misses_total - Cache misses
//   - feed_page_cache_size_bytes - Bytes written to the cache
//   - feed_page_cache_errors_total{operation} - Cache operation errors
package cache
