package container

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metasearch/internal/config"
	"metasearch/websearch/providers"
)

func testConfig() *config.Config {
	cfg := config.GetDefaults()
	cfg.ServiceDatabasePath = ":memory:"
	return cfg
}

func newTestContainer(t *testing.T, cfg *config.Config) *Container {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c, err := NewContainer(cfg, logger)
	require.NoError(t, err)
	require.NoError(t, c.Initialize())
	t.Cleanup(func() {
		_ = c.Shutdown(context.Background())
	})
	return c
}

func TestNewContainer_NilConfig(t *testing.T) {
	_, err := NewContainer(nil, nil)
	assert.Error(t, err)
}

func TestInitialize_WiresWebSearch(t *testing.T) {
	c := newTestContainer(t, testConfig())

	assert.True(t, c.IsInitialized())
	require.NotNil(t, c.ServiceDB)
	require.NotNil(t, c.WebSearchRepo)
	require.NotNil(t, c.WebSearchAggregator)
	assert.Same(t, c.WebSearchRegistry, c.WebSearchAggregator.Registry())
	assert.Same(t, c.WebSearchCache, c.WebSearchAggregator.Cache())

	// По умолчанию включены только провайдеры без ключей
	assert.Equal(t, 2, c.WebSearchRegistry.Len())
	_, ok := c.WebSearchRegistry.Get("duckduckgo")
	assert.True(t, ok)
	_, ok = c.WebSearchRegistry.Get("bing")
	assert.False(t, ok)
}

func TestInitialize_Twice(t *testing.T) {
	c := newTestContainer(t, testConfig())
	assert.Error(t, c.Initialize())
}

func TestInitialize_BreakerDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.WebSearch.Breaker.Enabled = false
	c := newTestContainer(t, cfg)

	p, ok := c.WebSearchRegistry.Get("duckduckgo")
	require.True(t, ok)
	assert.IsType(t, &providers.DuckDuckGoProvider{}, p)
}

func TestInitialize_WebSearchDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.WebSearch.Enabled = false
	c := newTestContainer(t, cfg)

	assert.Equal(t, 0, c.WebSearchRegistry.Len())

	result, err := c.WebSearchAggregator.Aggregate(context.Background(), "golang", "en")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Summary.Attempted)
}

func TestReloadProviders_FromConfig(t *testing.T) {
	cfg := testConfig()
	c := newTestContainer(t, cfg)

	cfg.WebSearch.Providers[1].Enabled = false
	n, err := c.ReloadProviders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, c.WebSearchRegistry.Len())
}

func TestReloadProviders_FromDatabase(t *testing.T) {
	cfg := testConfig()
	cfg.WebSearch.ProvidersFromDB = true
	c := newTestContainer(t, cfg)

	// Миграция заполняет таблицу провайдерами по умолчанию
	dbProviders, err := c.WebSearchConfigLoader.LoadEnabledProviders()
	require.NoError(t, err)
	assert.Equal(t, len(dbProviders), c.WebSearchRegistry.Len())

	n, err := c.ReloadProviders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(dbProviders), n)
}

func TestInitialize_WarnsAboutMissingCredentials(t *testing.T) {
	cfg := testConfig()
	cfg.WebSearch.Providers[2].Enabled = true

	var logs bytes.Buffer
	c, err := NewContainer(cfg, slog.New(slog.NewTextHandler(&logs, nil)))
	require.NoError(t, err)
	require.NoError(t, c.Initialize())
	t.Cleanup(func() {
		_ = c.Shutdown(context.Background())
	})

	// bing без ключа регистрируется, но остается недоступным
	assert.Equal(t, 3, c.WebSearchRegistry.Len())
	assert.Contains(t, logs.String(), "Provider credentials check failed")
	assert.Contains(t, logs.String(), "provider=bing")
}

func TestReloadProviders_NotInitialized(t *testing.T) {
	c, err := NewContainer(testConfig(), nil)
	require.NoError(t, err)

	_, err = c.ReloadProviders(context.Background())
	assert.Error(t, err)
}

func TestShutdown(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c, err := NewContainer(testConfig(), logger)
	require.NoError(t, err)

	// Завершение до инициализации ничего не делает
	require.NoError(t, c.Shutdown(context.Background()))

	require.NoError(t, c.Initialize())
	require.NoError(t, c.Shutdown(context.Background()))
	assert.False(t, c.IsInitialized())
	assert.Error(t, c.GetContext().Err())
}
