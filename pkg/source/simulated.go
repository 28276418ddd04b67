// Package source provides page sources for the loader: a simulated people
// directory for demos and tests, and a Redis-list backed source.
package source

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/Sternrassler/feedloader/pkg/pagination"
)

// Messages reported by the simulated source.
const (
	MessageServerError    = "Internal Server Error"
	MessageParameterError = "Parameter error"
)

var (
	firstNames = []string{
		"Ada", "Alan", "Barbara", "Claude", "Dennis", "Donald", "Edsger", "Frances",
		"Grace", "Hedy", "John", "Ken", "Leslie", "Linus", "Margaret", "Niklaus",
		"Radia", "Rob", "Shafi", "Tim",
	}
	lastNames = []string{
		"Allen", "Backus", "Dijkstra", "Goldwasser", "Hamilton", "Hopper", "Kay",
		"Knuth", "Lamport", "Liskov", "Lovelace", "McCarthy", "Perlman", "Pike",
		"Ritchie", "Shannon", "Thompson", "Torvalds", "Turing", "Wirth",
	}
)

// SimulatedConfig controls the behaviour of a Simulated source.
type SimulatedConfig struct {
	// Total is the number of distinct people in the directory
	Total int

	// PageSize is the number of people per page
	PageSize int

	// MinDelay and MaxDelay bound the simulated latency of a fetch
	MinDelay time.Duration
	MaxDelay time.Duration

	// FailureRate is the probability in [0,1] that a fetch fails
	FailureRate float64

	// DuplicateRate is the probability in [0,1] that a page repeats a person
	// from an earlier page
	DuplicateRate float64

	// Seed makes the directory and behaviour reproducible (0 picks a random seed)
	Seed int64
}

// DefaultSimulatedConfig returns a configuration that behaves like a slow,
// slightly unreliable remote directory.
func DefaultSimulatedConfig() SimulatedConfig {
	return SimulatedConfig{
		Total:         120,
		PageSize:      20,
		MinDelay:      100 * time.Millisecond,
		MaxDelay:      2 * time.Second,
		FailureRate:   0.05,
		DuplicateRate: 0.2,
	}
}

// Simulated is an in-memory people directory that pages by offset and
// injects latency, failures and duplicate records.
type Simulated struct {
	config SimulatedConfig
	people []pagination.Record

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulated creates a simulated source.
func NewSimulated(cfg SimulatedConfig) *Simulated {
	if cfg.Total < 0 {
		cfg.Total = 0
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 20
	}
	if cfg.MaxDelay < cfg.MinDelay {
		cfg.MaxDelay = cfg.MinDelay
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	people := make([]pagination.Record, cfg.Total)
	for i := range people {
		people[i] = pagination.Record{
			ID:          int64(i + 1),
			DisplayName: firstNames[rng.Intn(len(firstNames))] + " " + lastNames[rng.Intn(len(lastNames))],
		}
	}

	return &Simulated{
		config: cfg,
		people: people,
		rng:    rng,
	}
}

// People returns the full directory in page order.
func (s *Simulated) People() []pagination.Record {
	out := make([]pagination.Record, len(s.people))
	copy(out, s.people)
	return out
}

// Fetch implements pagination.PageFetcher. The cursor is the offset of the
// next person.
func (s *Simulated) Fetch(ctx context.Context, cursor pagination.Cursor) (pagination.Page, error) {
	offset, err := parseOffset(cursor)
	if err != nil || offset > len(s.people) {
		return pagination.Page{}, &pagination.FetchError{Message: MessageParameterError, Err: pagination.ErrInvalidCursor}
	}

	s.mu.Lock()
	delay := s.config.MinDelay
	if spread := s.config.MaxDelay - s.config.MinDelay; spread > 0 {
		delay += time.Duration(s.rng.Int63n(int64(spread)))
	}
	fail := s.rng.Float64() < s.config.FailureRate
	duplicate := offset > 0 && s.rng.Float64() < s.config.DuplicateRate
	var dupIndex int
	if duplicate {
		dupIndex = s.rng.Intn(offset)
	}
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return pagination.Page{}, ctx.Err()
		case <-time.After(delay):
		}
	}

	if fail {
		return pagination.Page{}, &pagination.FetchError{Message: MessageServerError}
	}

	end := offset + s.config.PageSize
	if end > len(s.people) {
		end = len(s.people)
	}

	records := make([]pagination.Record, 0, end-offset+1)
	if duplicate {
		records = append(records, s.people[dupIndex])
	}
	records = append(records, s.people[offset:end]...)

	page := pagination.Page{Records: records}
	if end < len(s.people) {
		page.Next = strconv.Itoa(end)
	}
	return page, nil
}

func parseOffset(cursor pagination.Cursor) (int, error) {
	if cursor == "" {
		return 0, nil
	}
	offset, err := strconv.Atoi(cursor)
	if err != nil {
		return 0, fmt.Errorf("parse cursor %q: %w", cursor, err)
	}
	if offset < 0 {
		return 0, fmt.Errorf("negative cursor %d", offset)
	}
	return offset, nil
}
