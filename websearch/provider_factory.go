package websearch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"metasearch/websearch/providers"
	"metasearch/websearch/types"
)

// ProviderFactoryConfig общие параметры создаваемых провайдеров
type ProviderFactoryConfig struct {
	// Timeout таймаут HTTP клиента провайдера
	Timeout time.Duration
	// BreakerDisabled отключает обертку предохранителем
	BreakerDisabled bool
	Breaker         providers.BreakerConfig
	HTTPClient      *http.Client
	Logger          *slog.Logger
}

// ProviderFactory создает провайдеров по их конфигурации
type ProviderFactory struct {
	config ProviderFactoryConfig
	logger *slog.Logger
}

// NewProviderFactory создает фабрику провайдеров
func NewProviderFactory(config ProviderFactoryConfig) *ProviderFactory {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ProviderFactory{
		config: config,
		logger: logger.With("component", "provider_factory"),
	}
}

// Create создает провайдера по конфигурации
func (f *ProviderFactory) Create(cfg ProviderConfigDB) (types.SearchProviderInterface, error) {
	opts := providers.Options{
		BaseURL:     cfg.BaseURL,
		Timeout:     f.config.Timeout,
		RateLimit:   time.Duration(cfg.RateLimitSeconds) * time.Second,
		DisplayName: cfg.DisplayName,
		Region:      cfg.Region,
		HTTPClient:  f.config.HTTPClient,
	}

	var provider providers.Provider
	switch cfg.Name {
	case providers.DuckDuckGoName:
		provider = providers.NewDuckDuckGoProvider(opts)
	case providers.DuckDuckGoHTMLName:
		provider = providers.NewDuckDuckGoHTMLProvider(opts)
	case providers.BingName:
		provider = providers.NewBingProvider(cfg.APIKey, opts)
	case providers.GoogleName:
		provider = providers.NewGoogleProvider(cfg.APIKey, cfg.SearchID, opts)
	case providers.YandexName:
		provider = providers.NewYandexProvider(cfg.APIKey, cfg.User, opts)
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Name)
	}

	if f.config.BreakerDisabled {
		return provider, nil
	}
	return providers.NewBreakerProvider(provider, f.config.Breaker, f.logger), nil
}

// CreateAll создает включенных провайдеров. Неизвестные провайдеры пропускаются с предупреждением.
func (f *ProviderFactory) CreateAll(ctx context.Context, configs []ProviderConfigDB) map[string]types.SearchProviderInterface {
	result := make(map[string]types.SearchProviderInterface, len(configs))
	for _, cfg := range configs {
		if !cfg.Enabled {
			continue
		}
		provider, err := f.Create(cfg)
		if err != nil {
			f.logger.Warn("Skipping provider", "provider", cfg.Name, "error", err)
			continue
		}
		// провайдер остается в реестре: без ключа он недоступен и дает unavailable
		if err := ValidateProviderCredentials(ctx, provider); err != nil {
			f.logger.Warn("Provider credentials check failed", "provider", cfg.Name, "error", err)
		}
		result[cfg.Name] = provider
	}
	return result
}
