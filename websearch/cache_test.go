package websearch

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metasearch/websearch/types"
)

func newTestCache(t *testing.T, maxSize int) (*Cache, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	cache := NewCache(&CacheConfig{
		Enabled:         true,
		TTL:             5 * time.Minute,
		CleanupInterval: time.Minute,
		MaxSize:         maxSize,
		Clock:           clock,
	})
	return cache, clock
}

func testResult(providerID, query string) *types.ProviderResult {
	return &types.ProviderResult{
		ProviderID: providerID,
		Query:      query,
		Items: []types.SearchItem{
			{Title: query + " title", URL: "https://example.com/" + query, Snippet: "snippet"},
		},
		ItemCount: 1,
		Status:    types.StatusSuccess,
	}
}

func TestNewCache_Defaults(t *testing.T) {
	cache := NewCache(nil)
	require.NotNil(t, cache)

	assert.True(t, cache.config.Enabled)
	assert.Equal(t, DefaultCacheMaxSize, cache.config.MaxSize)
	assert.Equal(t, DefaultCacheTTL, cache.config.TTL)
	assert.Equal(t, DefaultCacheCleanupInterval, cache.config.CleanupInterval)
}

func TestCache_GetSet(t *testing.T) {
	cache, _ := newTestCache(t, 10)
	result := testResult("duckduckgo", "cats")

	cache.Set("k", result)

	cached, found := cache.Get("k")
	require.True(t, found)
	assert.Same(t, result, cached)
	assert.True(t, cache.Has("k"))

	_, found = cache.Get("missing")
	assert.False(t, found)
}

func TestCache_Expiry(t *testing.T) {
	cache, clock := newTestCache(t, 10)

	cache.Set("default", testResult("a", "cats"))
	cache.SetWithTTL("short", testResult("a", "dogs"), time.Second)

	clock.Advance(time.Second)
	_, found := cache.Get("short")
	assert.False(t, found, "entry must expire exactly at expiresAt")
	assert.Equal(t, 1, cache.Len(), "expired entry is removed eagerly on read")

	assert.True(t, cache.Has("default"))
	clock.Advance(5 * time.Minute)
	assert.False(t, cache.Has("default"))
	assert.Zero(t, cache.Len())
}

func TestCache_CapacityEvictsOldestInsert(t *testing.T) {
	cache, _ := newTestCache(t, 2)

	cache.Set("k1", testResult("a", "1"))
	cache.Set("k2", testResult("a", "2"))
	cache.Set("k3", testResult("a", "3"))

	assert.False(t, cache.Has("k1"))
	assert.True(t, cache.Has("k2"))
	assert.True(t, cache.Has("k3"))
	assert.Equal(t, 2, cache.Len())
	assert.Equal(t, int64(1), cache.GetStats().Evictions)
}

func TestCache_LRUConsidersReads(t *testing.T) {
	cache, clock := newTestCache(t, 3)

	for i := 1; i <= 3; i++ {
		cache.Set(fmt.Sprintf("k%d", i), testResult("a", fmt.Sprint(i)))
		clock.Advance(time.Second)
	}

	_, found := cache.Get("k1")
	require.True(t, found)
	clock.Advance(time.Second)

	cache.Set("k4", testResult("a", "4"))

	assert.True(t, cache.Has("k1"))
	assert.False(t, cache.Has("k2"))
	assert.True(t, cache.Has("k3"))
	assert.True(t, cache.Has("k4"))
}

func TestCache_HasDoesNotRefreshRecency(t *testing.T) {
	cache, clock := newTestCache(t, 2)

	cache.Set("k1", testResult("a", "1"))
	clock.Advance(time.Second)
	cache.Set("k2", testResult("a", "2"))
	clock.Advance(time.Second)

	assert.True(t, cache.Has("k1"))
	cache.Set("k3", testResult("a", "3"))

	assert.False(t, cache.Has("k1"))
}

func TestCache_StatsDoNotMutateAccessTime(t *testing.T) {
	cache, clock := newTestCache(t, 10)
	cache.Set("k", testResult("a", "cats"))
	before := cache.data["k"].LastAccessedAt

	clock.Advance(time.Minute)
	stats := cache.GetStats()

	assert.Equal(t, before, cache.data["k"].LastAccessedAt)
	assert.Equal(t, 1, stats.TotalEntries)
	assert.Equal(t, 1, stats.ValidEntries)
	assert.InDelta(t, 10.0, stats.CapacityUsagePercent, 0.001)
}

func TestCache_Stats(t *testing.T) {
	cache, clock := newTestCache(t, 4)

	cache.Set("valid", testResult("a", "1"))
	cache.SetWithTTL("expired", testResult("a", "2"), time.Second)
	cache.Get("valid")
	cache.Get("missing")
	clock.Advance(2 * time.Second)

	stats := cache.GetStats()
	assert.Equal(t, 2, stats.TotalEntries)
	assert.Equal(t, 1, stats.ValidEntries)
	assert.Equal(t, 1, stats.ExpiredEntries)
	assert.InDelta(t, 0.5, stats.HitRate, 0.001)
	assert.InDelta(t, 50.0, stats.CapacityUsagePercent, 0.001)
}

func TestCache_EntryInvariants(t *testing.T) {
	cache, clock := newTestCache(t, 10)
	cache.Set("k", testResult("a", "1"))
	clock.Advance(time.Second)
	cache.Get("k")

	entry := cache.data["k"]
	assert.False(t, entry.LastAccessedAt.Before(entry.CreatedAt))
	assert.True(t, entry.ExpiresAt.After(entry.CreatedAt))
	assert.Positive(t, entry.ApproximateSizeBytes)
}

func TestCache_DeleteAndClear(t *testing.T) {
	cache, _ := newTestCache(t, 10)
	cache.Set("a", testResult("a", "1"))
	cache.Set("b", testResult("a", "2"))

	cache.Delete("a")
	assert.False(t, cache.Has("a"))
	assert.True(t, cache.Has("b"))

	cache.Clear()
	assert.Zero(t, cache.Len())
	assert.Zero(t, cache.GetStats().Hits)
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(&CacheConfig{Enabled: false})
	cache.Set("k", testResult("a", "1"))

	_, found := cache.Get("k")
	assert.False(t, found)
	assert.False(t, cache.Has("k"))
	assert.Zero(t, cache.Len())
}

func TestCache_ExportImport(t *testing.T) {
	source, clock := newTestCache(t, 10)
	source.Set("live", testResult("a", "live"))
	source.SetWithTTL("dying", testResult("a", "dying"), time.Second)
	clock.Advance(2 * time.Second)

	snapshot := source.Export()
	require.Len(t, snapshot, 1)
	assert.Equal(t, "live", snapshot[0].Key)

	snapshot = append(snapshot, CacheSnapshotEntry{
		Key:       "stale",
		Payload:   testResult("a", "stale"),
		CreatedAt: clock.Now().Add(-time.Hour),
		ExpiresAt: clock.Now().Add(-time.Minute),
	})

	target := NewCache(&CacheConfig{Enabled: true, MaxSize: 10, Clock: clock})
	imported := target.Import(snapshot)

	assert.Equal(t, 1, imported)
	assert.True(t, target.Has("live"))
	assert.False(t, target.Has("stale"))
}

func TestCache_ImportRespectsCapacity(t *testing.T) {
	cache, clock := newTestCache(t, 2)
	expires := clock.Now().Add(time.Minute)

	snapshot := make([]CacheSnapshotEntry, 0, 3)
	for i := 0; i < 3; i++ {
		snapshot = append(snapshot, CacheSnapshotEntry{
			Key:       fmt.Sprintf("k%d", i),
			Payload:   testResult("a", fmt.Sprint(i)),
			CreatedAt: clock.Now(),
			ExpiresAt: expires,
		})
	}

	assert.Equal(t, 3, cache.Import(snapshot))
	assert.Equal(t, 2, cache.Len())
}

func TestCache_Sweep(t *testing.T) {
	cache, clock := newTestCache(t, 10)
	cache.SetWithTTL("a", testResult("a", "1"), time.Second)
	cache.SetWithTTL("b", testResult("a", "2"), time.Hour)

	clock.Advance(2 * time.Second)
	assert.Equal(t, 1, cache.Sweep())
	assert.Equal(t, 1, cache.Len())
}

func TestCache_BackgroundSweep(t *testing.T) {
	cache, clock := newTestCache(t, 10)
	cache.SetWithTTL("a", testResult("a", "1"), time.Second)

	cache.Start()
	defer cache.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	clock.Advance(time.Minute)

	require.Eventually(t, func() bool {
		return cache.Len() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCache_StartStopIdempotent(t *testing.T) {
	cache, _ := newTestCache(t, 10)

	cache.Start()
	cache.Start()
	cache.Stop()
	cache.Stop()
}

func TestCacheKey(t *testing.T) {
	key := CacheKey("duckduckgo", "en", "Cats")

	assert.Len(t, key, 64)
	assert.Equal(t, key, CacheKey("duckduckgo", "EN", "  cats "))
	assert.NotEqual(t, key, CacheKey("bing", "en", "cats"))
	assert.NotEqual(t, key, CacheKey("duckduckgo", "ru", "cats"))
	assert.NotEqual(t, key, CacheKey("duckduckgo", "en", "dogs"))
}
