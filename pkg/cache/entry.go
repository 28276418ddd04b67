package cache

import (
	"time"

	"github.com/Sternrassler/feedloader/pkg/pagination"
)

// PageEntry represents a cached page.
type PageEntry struct {
	// Page is the cached page
	Page pagination.Page `json:"page"`

	// Expires is when the entry becomes stale
	Expires time.Time `json:"expires"`

	// CachedAt is when the page was cached
	CachedAt time.Time `json:"cached_at"`
}

// NewPageEntry wraps page in an entry that expires after ttl.
func NewPageEntry(page pagination.Page, ttl time.Duration) *PageEntry {
	now := time.Now()
	return &PageEntry{
		Page:     page,
		Expires:  now.Add(ttl),
		CachedAt: now,
	}
}

// IsExpired returns true if the cache entry has expired.
func (e *PageEntry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the time until expiration.
// Returns 0 if already expired.
func (e *PageEntry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}
