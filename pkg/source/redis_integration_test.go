//go:build integration

package source_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Sternrassler/feedloader/internal/testutil"
	"github.com/Sternrassler/feedloader/pkg/cache"
	"github.com/Sternrassler/feedloader/pkg/loader"
	"github.com/Sternrassler/feedloader/pkg/pagination"
	"github.com/Sternrassler/feedloader/pkg/source"
)

// setupRedis creates a Redis container for integration testing.
func setupRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		redisClient.Close()
		container.Terminate(ctx)
	}

	return redisClient, cleanup
}

// loadAll loads pages until the loader reports the end of data.
func loadAll(t *testing.T, l *loader.Loader, refresh bool) {
	t.Helper()

	for i := 0; i < 50; i++ {
		done := make(chan bool, 1)
		require.True(t, l.Load(context.Background(), refresh && i == 0, func(ok bool) { done <- ok }))

		select {
		case ok := <-done:
			require.True(t, ok, "load %d failed", i)
		case <-time.After(10 * time.Second):
			t.Fatalf("load %d did not complete", i)
		}

		if l.ReachedEnd() {
			return
		}
	}
	t.Fatal("end of data never reached")
}

// TestFullLoadFlow tests the complete flow: Loader → Page Cache → Redis list.
func TestFullLoadFlow(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	ctx := context.Background()

	// 30 distinct people, with repeats that straddle page boundaries.
	records := testutil.People(1, 2, 3, 4, 5, 6, 7, 8, 9, 10)
	records = append(records, testutil.People(9, 10, 11, 12, 13, 14, 15, 16, 17, 18)...)
	records = append(records, testutil.People(19, 20, 21, 1, 22, 23, 24, 25, 26, 27, 28, 29, 30)...)

	src := source.NewRedisSource(redisClient, "people", 10)
	require.NoError(t, src.Seed(ctx, records))

	fetcher := cache.NewCachingFetcher(src, cache.NewManager(redisClient), src.Key(), time.Minute)
	notifier := &testutil.RecordingNotifier{}
	l := loader.New(fetcher, loader.DefaultConfig())
	l.SetNotifier(notifier)

	hitsBefore := promtest.ToFloat64(cache.CacheHits)
	missesBefore := promtest.ToFloat64(cache.CacheMisses)

	t.Run("first pass reads through to Redis", func(t *testing.T) {
		loadAll(t, l, false)

		state := l.Snapshot()
		require.Len(t, state.Records, 31)
		assert.Equal(t, pagination.SelfID, state.Records[0].ID)
		for i, r := range state.Records {
			assert.Equal(t, int64(i), r.ID, "records keep first-seen order")
		}

		assert.Equal(t, 1, notifier.Count(loader.EndOfDataMessage))
		assert.Equal(t, 0.0, promtest.ToFloat64(cache.CacheHits)-hitsBefore)
		assert.Equal(t, 3.0, promtest.ToFloat64(cache.CacheMisses)-missesBefore)
	})

	t.Run("refresh serves continuation pages from cache", func(t *testing.T) {
		hits := promtest.ToFloat64(cache.CacheHits)

		loadAll(t, l, true)

		assert.Equal(t, 31, l.Len())
		// The last page is never cached.
		assert.Equal(t, 2.0, promtest.ToFloat64(cache.CacheHits)-hits)
		assert.Equal(t, 2, notifier.Count(loader.EndOfDataMessage))
	})

	t.Run("grown list is read to the end", func(t *testing.T) {
		for _, r := range testutil.People(31, 32, 33, 34, 35, 36, 37, 38, 39, 40) {
			data, err := json.Marshal(r)
			require.NoError(t, err)
			require.NoError(t, redisClient.RPush(ctx, src.Key(), data).Err())
		}
		hits := promtest.ToFloat64(cache.CacheHits)

		loadAll(t, l, true)

		state := l.Snapshot()
		require.Len(t, state.Records, 41)
		for i, r := range state.Records {
			assert.Equal(t, int64(i), r.ID)
		}
		assert.True(t, state.ReachedEnd)
		assert.Equal(t, 0.0, promtest.ToFloat64(cache.CacheHits)-hits, "pages of the shorter list are not reused")
		assert.Equal(t, 3, notifier.Count(loader.EndOfDataMessage))
	})

	t.Run("reseeded list is never served stale", func(t *testing.T) {
		updated := append(testutil.People(99), records...)
		require.NoError(t, src.Seed(ctx, updated))

		loadAll(t, l, true)

		want := []int64{0, 99}
		for id := int64(1); id <= 30; id++ {
			want = append(want, id)
		}
		state := l.Snapshot()
		got := make([]int64, len(state.Records))
		for i, r := range state.Records {
			got[i] = r.ID
		}
		assert.Equal(t, want, got)
		assert.True(t, state.ReachedEnd)
	})
}

func TestRedisSource_EmptyList(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	l := loader.New(source.NewRedisSource(redisClient, "nobody", 10), loader.DefaultConfig())
	loadAll(t, l, false)

	state := l.Snapshot()
	assert.Equal(t, []pagination.Record{l.Self()}, state.Records)
	assert.True(t, state.ReachedEnd)
}
