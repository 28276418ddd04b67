package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/feedloader/pkg/pagination"
)

// DefaultRedisKey is the list key records are read from.
const DefaultRedisKey = "feed:records"

// RedisSource pages through records stored as JSON in a Redis list.
//
// Cursors have the form "offset.length.generation": the list offset of the
// next record plus the list length and Seed generation observed when the
// cursor was issued. Only the offset drives the read; the rest makes cursors
// from different list versions distinct, so page caches keyed on the cursor
// never mix versions.
type RedisSource struct {
	redis    *redis.Client
	key      string
	pageSize int64
}

// NewRedisSource creates a source reading key in pages of pageSize.
func NewRedisSource(redisClient *redis.Client, key string, pageSize int) *RedisSource {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if key == "" {
		key = DefaultRedisKey
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return &RedisSource{
		redis:    redisClient,
		key:      key,
		pageSize: int64(pageSize),
	}
}

// Key returns the list key this source reads.
func (s *RedisSource) Key() string {
	return s.key
}

func (s *RedisSource) generationKey() string {
	return s.key + ":generation"
}

// Fetch implements pagination.PageFetcher.
func (s *RedisSource) Fetch(ctx context.Context, cursor pagination.Cursor) (pagination.Page, error) {
	start, err := parseListCursor(cursor)
	if err != nil {
		return pagination.Page{}, &pagination.FetchError{Message: MessageParameterError, Err: pagination.ErrInvalidCursor}
	}

	pipe := s.redis.Pipeline()
	rangeCmd := pipe.LRange(ctx, s.key, start, start+s.pageSize-1)
	lenCmd := pipe.LLen(ctx, s.key)
	genCmd := pipe.Get(ctx, s.generationKey())
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return pagination.Page{}, &pagination.FetchError{Message: MessageServerError, Err: fmt.Errorf("redis lrange: %w", err)}
	}
	generation, err := genCmd.Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return pagination.Page{}, &pagination.FetchError{Message: MessageServerError, Err: fmt.Errorf("redis generation: %w", err)}
	}

	raw := rangeCmd.Val()
	records := make([]pagination.Record, 0, len(raw))
	for i, item := range raw {
		var r pagination.Record
		if err := json.Unmarshal([]byte(item), &r); err != nil {
			log.Warn().
				Err(err).
				Str("key", s.key).
				Int64("index", start+int64(i)).
				Msg("Skipping undecodable record")
			continue
		}
		records = append(records, r)
	}

	page := pagination.Page{Records: records}
	if next := start + int64(len(raw)); next < lenCmd.Val() {
		page.Next = formatListCursor(next, lenCmd.Val(), generation)
	}
	return page, nil
}

func formatListCursor(offset, length, generation int64) pagination.Cursor {
	return fmt.Sprintf("%d.%d.%d", offset, length, generation)
}

// parseListCursor returns the offset a cursor points at. The empty cursor is
// the start of the list.
func parseListCursor(cursor pagination.Cursor) (int64, error) {
	if cursor == "" {
		return 0, nil
	}
	parts := strings.Split(cursor, ".")
	if len(parts) != 3 {
		return 0, fmt.Errorf("malformed cursor %q", cursor)
	}
	var fields [3]int64
	for i, part := range parts {
		v, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse cursor %q: %w", cursor, err)
		}
		if v < 0 {
			return 0, fmt.Errorf("negative field in cursor %q", cursor)
		}
		fields[i] = v
	}
	return fields[0], nil
}

// Seed replaces the list with records, in order, and starts a new generation
// so cursors issued before the call never match cursors issued after it.
func (s *RedisSource) Seed(ctx context.Context, records []pagination.Record) error {
	values := make([]interface{}, len(records))
	for i, r := range records {
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("marshal record %d: %w", r.ID, err)
		}
		values[i] = data
	}

	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key)
		if len(values) > 0 {
			pipe.RPush(ctx, s.key, values...)
		}
		pipe.Incr(ctx, s.generationKey())
		return nil
	})
	if err != nil {
		return fmt.Errorf("seed redis list: %w", err)
	}
	return nil
}
