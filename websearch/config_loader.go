package websearch

import (
	"fmt"

	"metasearch/internal/infrastructure/persistence"
)

// ProviderConfigDB конфигурация провайдера из БД или файла конфигурации
type ProviderConfigDB struct {
	Name             string `json:"name"`
	DisplayName      string `json:"display_name,omitempty"`
	Enabled          bool   `json:"enabled"`
	APIKey           string `json:"-"`
	SearchID         string `json:"-"`
	User             string `json:"-"`
	BaseURL          string `json:"base_url,omitempty"`
	RateLimitSeconds int    `json:"rate_limit_seconds"`
	Priority         int    `json:"priority"`
	Region           string `json:"region,omitempty"`
}

// ProviderSource источник строк конфигурации провайдеров
type ProviderSource interface {
	GetEnabledProviders() ([]persistence.WebSearchProvider, error)
	GetAllProviders() ([]persistence.WebSearchProvider, error)
}

// ConfigLoader загружает конфигурацию провайдеров из базы данных
type ConfigLoader struct {
	repo ProviderSource
}

// NewConfigLoader создает новый загрузчик конфигурации
func NewConfigLoader(repo ProviderSource) *ConfigLoader {
	return &ConfigLoader{
		repo: repo,
	}
}

// LoadEnabledProviders загружает включенные провайдеры из БД
func (cl *ConfigLoader) LoadEnabledProviders() ([]ProviderConfigDB, error) {
	if cl.repo == nil {
		return nil, fmt.Errorf("repository is nil")
	}

	providers, err := cl.repo.GetEnabledProviders()
	if err != nil {
		return nil, fmt.Errorf("failed to load enabled providers: %w", err)
	}

	return toProviderConfigs(providers), nil
}

// LoadAllProviders загружает всех провайдеров из БД
func (cl *ConfigLoader) LoadAllProviders() ([]ProviderConfigDB, error) {
	if cl.repo == nil {
		return nil, fmt.Errorf("repository is nil")
	}

	providers, err := cl.repo.GetAllProviders()
	if err != nil {
		return nil, fmt.Errorf("failed to load providers: %w", err)
	}

	return toProviderConfigs(providers), nil
}

func toProviderConfigs(providers []persistence.WebSearchProvider) []ProviderConfigDB {
	configs := make([]ProviderConfigDB, 0, len(providers))
	for _, p := range providers {
		configs = append(configs, ProviderConfigDB{
			Name:             p.Name,
			DisplayName:      p.DisplayName,
			Enabled:          p.Enabled,
			APIKey:           p.APIKey,
			SearchID:         p.SearchID,
			User:             p.User,
			BaseURL:          p.BaseURL,
			RateLimitSeconds: p.RateLimitSeconds,
			Priority:         p.Priority,
			Region:           p.Region,
		})
	}
	return configs
}
