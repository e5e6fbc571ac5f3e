package persistence

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metasearch/database"
)

func newTestRepository(t *testing.T) *WebSearchRepository {
	t.Helper()

	db, err := database.NewServiceDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewWebSearchRepository(db)
}

func TestWebSearchRepository_SeededProviders(t *testing.T) {
	repo := newTestRepository(t)

	all, err := repo.GetAllProviders()
	require.NoError(t, err)
	assert.Len(t, all, 5)

	enabled, err := repo.GetEnabledProviders()
	require.NoError(t, err)
	names := make([]string, 0, len(enabled))
	for _, p := range enabled {
		names = append(names, p.Name)
	}
	assert.ElementsMatch(t, []string{"duckduckgo", "duckduckgo_html"}, names)
}

func TestWebSearchRepository_CreateUpdateDelete(t *testing.T) {
	repo := newTestRepository(t)

	provider := &WebSearchProvider{
		Name:             "searx",
		DisplayName:      "SearX",
		Enabled:          true,
		BaseURL:          "http://localhost:8888",
		RateLimitSeconds: 2,
		Priority:         5,
		Region:           "eu",
	}
	require.NoError(t, repo.CreateProvider(provider))

	got, err := repo.GetProviderByName("searx")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "SearX", got.DisplayName)
	assert.Equal(t, 2, got.RateLimitSeconds)
	assert.True(t, got.Enabled)

	got.Enabled = false
	got.APIKey = "secret"
	require.NoError(t, repo.UpdateProvider(got))

	updated, err := repo.GetProviderByName("searx")
	require.NoError(t, err)
	assert.False(t, updated.Enabled)
	assert.Equal(t, "secret", updated.APIKey)

	require.NoError(t, repo.DeleteProvider("searx"))
	missing, err := repo.GetProviderByName("searx")
	require.NoError(t, err)
	assert.Nil(t, missing)

	err = repo.DeleteProvider("searx")
	assert.True(t, errors.Is(err, ErrProviderNotFound))
}

func TestWebSearchRepository_UpdateUnknownProvider(t *testing.T) {
	repo := newTestRepository(t)

	err := repo.UpdateProvider(&WebSearchProvider{Name: "missing"})
	assert.ErrorIs(t, err, ErrProviderNotFound)
}

func TestWebSearchRepository_ProviderStats(t *testing.T) {
	repo := newTestRepository(t)

	empty, err := repo.GetProviderStats("bing")
	require.NoError(t, err)
	assert.Equal(t, "bing", empty.ProviderName)
	assert.Zero(t, empty.RequestsTotal)

	lastFailure := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, repo.UpdateProviderStats(&ProviderStats{
		ProviderName:      "bing",
		RequestsTotal:     4,
		RequestsSuccess:   3,
		RequestsFailed:    1,
		FailureRate:       0.25,
		AvgResponseTimeMs: 120,
		LastFailure:       &lastFailure,
		LastError:         "timeout",
	}))

	stats, err := repo.GetProviderStats("bing")
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.RequestsTotal)
	assert.InDelta(t, 0.25, stats.FailureRate, 0.0001)
	assert.Nil(t, stats.LastSuccess)
	require.NotNil(t, stats.LastFailure)
	assert.True(t, stats.LastFailure.Equal(lastFailure))
	assert.Equal(t, "timeout", stats.LastError)

	all, err := repo.GetAllProviderStats()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "bing", all[0].ProviderName)
}
