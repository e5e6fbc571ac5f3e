package websearch

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metasearch/internal/infrastructure/persistence"
	"metasearch/websearch/providers"
)

type stubProviderSource struct {
	rows []persistence.WebSearchProvider
	err  error
}

func (s stubProviderSource) GetEnabledProviders() ([]persistence.WebSearchProvider, error) {
	if s.err != nil {
		return nil, s.err
	}
	var enabled []persistence.WebSearchProvider
	for _, r := range s.rows {
		if r.Enabled {
			enabled = append(enabled, r)
		}
	}
	return enabled, nil
}

func (s stubProviderSource) GetAllProviders() ([]persistence.WebSearchProvider, error) {
	return s.rows, s.err
}

func TestConfigLoader(t *testing.T) {
	source := stubProviderSource{rows: []persistence.WebSearchProvider{
		{Name: "duckduckgo", DisplayName: "DuckDuckGo", Enabled: true, RateLimitSeconds: 1, Priority: 1},
		{Name: "bing", Enabled: false, APIKey: "secret"},
		{Name: "yandex", Enabled: true, APIKey: "key", User: "user", Region: "213"},
	}}
	loader := NewConfigLoader(source)

	enabled, err := loader.LoadEnabledProviders()
	require.NoError(t, err)
	require.Len(t, enabled, 2)
	assert.Equal(t, "DuckDuckGo", enabled[0].DisplayName)
	assert.Equal(t, "user", enabled[1].User)
	assert.Equal(t, "213", enabled[1].Region)

	all, err := loader.LoadAllProviders()
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "secret", all[1].APIKey)
}

func TestConfigLoader_NilRepository(t *testing.T) {
	_, err := NewConfigLoader(nil).LoadEnabledProviders()
	assert.Error(t, err)
}

func TestProviderFactory_Create(t *testing.T) {
	factory := NewProviderFactory(ProviderFactoryConfig{})

	for _, name := range []string{
		providers.DuckDuckGoName,
		providers.DuckDuckGoHTMLName,
		providers.BingName,
		providers.GoogleName,
		providers.YandexName,
	} {
		provider, err := factory.Create(ProviderConfigDB{Name: name, Enabled: true})
		require.NoError(t, err, name)
		assert.Equal(t, name, provider.GetName())
		assert.IsType(t, &providers.BreakerProvider{}, provider)
	}

	_, err := factory.Create(ProviderConfigDB{Name: "altavista"})
	assert.Error(t, err)
}

func TestProviderFactory_BreakerDisabled(t *testing.T) {
	factory := NewProviderFactory(ProviderFactoryConfig{BreakerDisabled: true})

	provider, err := factory.Create(ProviderConfigDB{Name: providers.DuckDuckGoName, DisplayName: "DDG"})
	require.NoError(t, err)

	assert.IsType(t, &providers.DuckDuckGoProvider{}, provider)
	assert.Equal(t, "DDG", DisplayName(provider))
}

func TestProviderFactory_CreateAll(t *testing.T) {
	var logs bytes.Buffer
	factory := NewProviderFactory(ProviderFactoryConfig{Logger: slog.New(slog.NewTextHandler(&logs, nil))})

	created := factory.CreateAll(context.Background(), []ProviderConfigDB{
		{Name: providers.DuckDuckGoName, Enabled: true},
		{Name: providers.BingName, Enabled: true},
		{Name: providers.GoogleName, Enabled: false, APIKey: "k", SearchID: "cx"},
		{Name: "altavista", Enabled: true},
	})

	require.Len(t, created, 2)
	assert.True(t, IsProviderAvailable(created[providers.DuckDuckGoName]))
	assert.False(t, IsProviderAvailable(created[providers.BingName]), "bing without a key is registered but unavailable")
	assert.Error(t, ValidateProviderCredentials(context.Background(), created[providers.BingName]))
	assert.Contains(t, logs.String(), "Provider credentials check failed")
	assert.Contains(t, logs.String(), "provider=bing")
}
