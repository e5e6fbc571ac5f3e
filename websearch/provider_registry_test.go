package websearch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metasearch/websearch/types"
)

func TestProviderRegistry_RegisterAndSnapshot(t *testing.T) {
	registry := NewProviderRegistry(nil)

	require.NoError(t, registry.Register(newMockProvider("yandex", nil)))
	require.NoError(t, registry.Register(newMockProvider("bing", nil)))
	require.NoError(t, registry.Register(newMockProvider("duckduckgo", nil)))

	assert.Error(t, registry.Register(newMockProvider("bing", nil)))
	assert.Error(t, registry.Register(nil))
	assert.Error(t, registry.Register(newMockProvider("", nil)))

	snapshot := registry.Snapshot()
	ids := make([]string, 0, len(snapshot))
	for _, rp := range snapshot {
		ids = append(ids, rp.ID)
	}
	assert.Equal(t, []string{"bing", "duckduckgo", "yandex"}, ids)
	assert.Equal(t, 3, registry.Len())
}

func TestProviderRegistry_UpdateAndUnregister(t *testing.T) {
	registry := NewProviderRegistry(map[string]types.SearchProviderInterface{
		"a":   newMockProvider("a", nil),
		"nil": nil,
	})
	assert.Equal(t, 1, registry.Len())

	registry.UpdateProviders(map[string]types.SearchProviderInterface{
		"b": newMockProvider("b", nil),
		"c": newMockProvider("c", nil),
	})
	_, ok := registry.Get("a")
	assert.False(t, ok)

	registry.Unregister("b")
	providers := registry.GetProviders()
	assert.Len(t, providers, 1)
	assert.Contains(t, providers, "c")

	// копия не влияет на реестр
	delete(providers, "c")
	assert.Equal(t, 1, registry.Len())
}

func TestProviderCapabilities(t *testing.T) {
	provider := newMockProvider("google", nil)
	assert.Equal(t, "google", DisplayName(provider))
	assert.True(t, IsProviderAvailable(provider))
	assert.True(t, CheckProviderRateLimit(provider))

	provider.displayName = "Google"
	provider.unavailable = true
	provider.rateLimited = true
	assert.Equal(t, "Google", DisplayName(provider))
	assert.False(t, IsProviderAvailable(provider))
	assert.False(t, CheckProviderRateLimit(provider))
}

// bareProvider реализует только обязательный интерфейс
type bareProvider struct{}

func (bareProvider) Search(_ context.Context, query, _ string) (*types.ProviderResult, error) {
	return &types.ProviderResult{Query: query}, nil
}
func (bareProvider) GetName() string                       { return "bare" }
func (bareProvider) GetDirectSearchURL(_, _ string) string { return "" }

func TestProviderCapabilities_Defaults(t *testing.T) {
	var p bareProvider

	assert.Equal(t, "bare", DisplayName(p))
	assert.True(t, IsProviderAvailable(p))
	assert.True(t, CheckProviderRateLimit(p))
}
