package websearch

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metasearch/internal/infrastructure/persistence"
)

type memoryStatsStore struct {
	mu      sync.Mutex
	rows    map[string]persistence.ProviderStats
	loadErr error
	writes  int
}

func newMemoryStatsStore(rows ...persistence.ProviderStats) *memoryStatsStore {
	store := &memoryStatsStore{rows: make(map[string]persistence.ProviderStats)}
	for _, r := range rows {
		store.rows[r.ProviderName] = r
	}
	return store
}

func (s *memoryStatsStore) GetAllProviderStats() ([]persistence.ProviderStats, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]persistence.ProviderStats, 0, len(s.rows))
	for _, r := range s.rows {
		result = append(result, r)
	}
	return result, nil
}

func (s *memoryStatsStore) UpdateProviderStats(stats *persistence.ProviderStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[stats.ProviderName] = *stats
	s.writes++
	return nil
}

func TestReliabilityManager_RecordsAndAverages(t *testing.T) {
	rm := NewReliabilityManager(nil, nil)

	require.NoError(t, rm.RecordSuccess("bing", 100*time.Millisecond))
	require.NoError(t, rm.RecordSuccess("bing", 300*time.Millisecond))
	require.NoError(t, rm.RecordFailure("bing", errors.New("status 503")))

	stats := rm.GetStats("bing")
	assert.Equal(t, int64(3), stats.RequestsTotal)
	assert.Equal(t, int64(2), stats.RequestsSuccess)
	assert.Equal(t, int64(1), stats.RequestsFailed)
	assert.Equal(t, int64(200), stats.AvgResponseTimeMs)
	assert.InDelta(t, 1.0/3.0, stats.FailureRate, 0.0001)
	assert.Equal(t, "status 503", stats.LastError)
	assert.NotNil(t, stats.LastSuccess)
	assert.NotNil(t, stats.LastFailure)
}

func TestReliabilityManager_GetStatsReturnsCopy(t *testing.T) {
	rm := NewReliabilityManager(nil, nil)
	require.NoError(t, rm.RecordSuccess("a", time.Millisecond))

	stats := rm.GetStats("a")
	stats.RequestsTotal = 100

	assert.Equal(t, int64(1), rm.GetStats("a").RequestsTotal)
	assert.Equal(t, "unknown", rm.GetStats("unknown").ProviderName)
	assert.Len(t, rm.GetAllStats(), 1)
}

func TestReliabilityManager_PersistsToStore(t *testing.T) {
	store := newMemoryStatsStore(persistence.ProviderStats{
		ProviderName:    "google",
		RequestsTotal:   4,
		RequestsSuccess: 4,
	})
	rm := NewReliabilityManager(store, nil)

	assert.Equal(t, int64(4), rm.GetStats("google").RequestsTotal)

	require.NoError(t, rm.RecordFailure("google", errors.New("quota")))
	rm.Wait()

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Equal(t, 1, store.writes)
	assert.Equal(t, int64(5), store.rows["google"].RequestsTotal)
	assert.Equal(t, "quota", store.rows["google"].LastError)
}

func TestReliabilityManager_LoadFailureIsNotFatal(t *testing.T) {
	store := newMemoryStatsStore()
	store.loadErr = errors.New("database is locked")

	rm := NewReliabilityManager(store, nil)

	require.NotNil(t, rm)
	assert.Empty(t, rm.GetAllStats())
}

func TestReliabilityManager_NilReceiver(t *testing.T) {
	var rm *ReliabilityManager

	assert.NoError(t, rm.RecordSuccess("a", time.Millisecond))
	assert.NoError(t, rm.RecordFailure("a", errors.New("x")))
	assert.Nil(t, rm.GetStats("a"))
	assert.Empty(t, rm.GetAllStats())
}
