package pagination

// SelfID is the sentinel ID of the locally synthesized self record.
const SelfID int64 = 0

// Record is a single list entry. Two records with the same ID are duplicates,
// whatever their other fields hold.
type Record struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
}

// IsSelf reports whether r carries the self sentinel ID.
func (r Record) IsSelf() bool {
	return r.ID == SelfID
}

// Cursor identifies the next page to fetch. The empty cursor means absent:
// the first page on a request, the end of data on a response.
type Cursor = string

// Page is one batch of records returned by a single fetch.
type Page struct {
	Records []Record `json:"records"`
	// Next is the cursor of the following page, empty on the last page.
	Next Cursor `json:"next,omitempty"`
}

// HasMore reports whether another page follows this one.
func (p Page) HasMore() bool {
	return p.Next != ""
}
