// Package testutil provides test doubles for the loader and its presenters.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Sternrassler/feedloader/pkg/pagination"
)

// ErrNoResponse is returned when a ScriptedFetcher runs out of responses.
var ErrNoResponse = errors.New("no scripted response")

// Response defines the outcome of one scripted fetch.
type Response struct {
	Page  pagination.Page
	Err   error
	Delay time.Duration
	// Gate, if set, holds the fetch until it is closed or receives a value.
	Gate <-chan struct{}
}

// ScriptedFetcher is a PageFetcher that replays responses in order.
type ScriptedFetcher struct {
	mu        sync.Mutex
	responses []Response
	calls     []pagination.Cursor
}

// NewScriptedFetcher creates a fetcher that replays responses.
func NewScriptedFetcher(responses ...Response) *ScriptedFetcher {
	return &ScriptedFetcher{responses: responses}
}

// Push appends responses to the script.
func (f *ScriptedFetcher) Push(responses ...Response) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, responses...)
}

// Fetch implements pagination.PageFetcher.
func (f *ScriptedFetcher) Fetch(ctx context.Context, cursor pagination.Cursor) (pagination.Page, error) {
	f.mu.Lock()
	f.calls = append(f.calls, cursor)
	if len(f.responses) == 0 {
		f.mu.Unlock()
		return pagination.Page{}, ErrNoResponse
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	f.mu.Unlock()

	if resp.Gate != nil {
		select {
		case <-resp.Gate:
		case <-ctx.Done():
			return pagination.Page{}, ctx.Err()
		}
	}
	if resp.Delay > 0 {
		select {
		case <-time.After(resp.Delay):
		case <-ctx.Done():
			return pagination.Page{}, ctx.Err()
		}
	}
	return resp.Page, resp.Err
}

// Calls returns the cursors of every fetch so far.
func (f *ScriptedFetcher) Calls() []pagination.Cursor {
	f.mu.Lock()
	defer f.mu.Unlock()
	calls := make([]pagination.Cursor, len(f.calls))
	copy(calls, f.calls)
	return calls
}

// CallCount returns the number of fetches so far.
func (f *ScriptedFetcher) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// People returns records named after their IDs.
func People(ids ...int64) []pagination.Record {
	records := make([]pagination.Record, len(ids))
	for i, id := range ids {
		records[i] = pagination.Record{ID: id, DisplayName: fmt.Sprintf("Person %d", id)}
	}
	return records
}

// PageOf builds a page of People with the given next cursor.
func PageOf(next pagination.Cursor, ids ...int64) Response {
	return Response{Page: pagination.Page{Records: People(ids...), Next: next}}
}

// Failure builds a failing response with a user-facing message.
func Failure(message string) Response {
	return Response{Err: &pagination.FetchError{Message: message}}
}
