package cache

import (
	"strings"

	"github.com/Sternrassler/feedloader/pkg/pagination"
)

// CacheKey identifies a cached page.
type CacheKey struct {
	// Source names the page source (e.g. "people")
	Source string

	// Cursor is the cursor the page was fetched with
	Cursor pagination.Cursor
}

// String generates a deterministic cache key string.
// Format: feed:page:source:cursor
//
// Example:
//
//	feed:page:people:40
func (k CacheKey) String() string {
	parts := []string{"feed", "page"}

	source := strings.TrimSpace(k.Source)
	if source == "" {
		source = "default"
	}
	parts = append(parts, source)

	if k.Cursor != "" {
		parts = append(parts, k.Cursor)
	}

	return strings.Join(parts, ":")
}
