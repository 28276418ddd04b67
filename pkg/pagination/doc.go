// Package pagination defines the page-fetching contract shared by the loader
// and its sources.
//
// A source hands out pages of records addressed by an opaque cursor. The first
// page is requested with an empty cursor, and a page whose Next cursor is empty
// is the last one:
//
//	page, err := fetcher.Fetch(ctx, "")
//	for err == nil && page.Next != "" {
//		page, err = fetcher.Fetch(ctx, page.Next)
//	}
//
// Failures should be reported as *FetchError so presenters get a readable
// description. Decorators such as WithTimeout wrap any PageFetcher:
//
//	fetcher := pagination.WithTimeout(src, pagination.DefaultConfig().Timeout)
package pagination
