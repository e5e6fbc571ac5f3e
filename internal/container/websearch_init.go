package container

import (
	"context"
	"fmt"

	"metasearch/internal/config"
	"metasearch/websearch"
	"metasearch/websearch/providers"
)

// initWebSearch собирает агрегатор: кэш, классификатор, статистику надежности и провайдеров
func (c *Container) initWebSearch() error {
	wsConfig := c.Config.WebSearch
	if wsConfig == nil {
		return fmt.Errorf("web search config is nil")
	}
	logger := c.Logger

	c.WebSearchCache = websearch.NewCache(&websearch.CacheConfig{
		Enabled:         wsConfig.Cache.Enabled,
		TTL:             wsConfig.Cache.TTL,
		CleanupInterval: wsConfig.Cache.CleanupInterval,
		MaxSize:         wsConfig.Cache.MaxSize,
		Logger:          logger,
	})

	c.WebSearchClassifier = websearch.NewFailureClassifier(websearch.ClassifierConfig{
		HistorySize:        wsConfig.ErrorHistorySize,
		BaseDelay:          wsConfig.RetryBaseDelay,
		MaxDelay:           wsConfig.RetryMaxDelay,
		HealthWindow:       wsConfig.HealthWindow,
		UnhealthyThreshold: wsConfig.UnhealthyThreshold,
		Logger:             logger,
	})

	// Статистика хранится в сервисной БД, если она открыта
	var store websearch.StatsStore
	if c.WebSearchRepo != nil {
		store = c.WebSearchRepo
		c.WebSearchConfigLoader = websearch.NewConfigLoader(c.WebSearchRepo)
	}
	c.WebSearchReliability = websearch.NewReliabilityManager(store, logger)

	c.WebSearchFactory = websearch.NewProviderFactory(websearch.ProviderFactoryConfig{
		Timeout:         wsConfig.ProviderTimeout,
		BreakerDisabled: !wsConfig.Breaker.Enabled,
		Breaker: providers.BreakerConfig{
			MaxFailures: wsConfig.Breaker.MaxFailures,
			Timeout:     wsConfig.Breaker.Timeout,
			Interval:    wsConfig.Breaker.Interval,
		},
		Logger: logger,
	})

	c.WebSearchRegistry = websearch.NewProviderRegistry(nil)
	if wsConfig.Enabled {
		c.WebSearchRegistry.UpdateProviders(c.WebSearchFactory.CreateAll(context.Background(), c.providerConfigs()))
	} else {
		logger.Info("Web search is disabled in config, no providers registered")
	}

	maxRetries := wsConfig.MaxRetries
	if maxRetries == 0 {
		maxRetries = websearch.NoRetries
	}

	c.WebSearchAggregator = websearch.NewAggregator(
		c.WebSearchRegistry,
		c.WebSearchCache,
		c.WebSearchClassifier,
		c.WebSearchReliability,
		websearch.AggregatorConfig{
			ProviderTimeout: wsConfig.ProviderTimeout,
			MaxRetries:      maxRetries,
			DefaultLanguage: wsConfig.DefaultLanguage,
			DedupeInFlight:  wsConfig.DedupeInFlight,
			Logger:          logger,
		},
	)

	c.WebSearchCache.Start()

	logger.Info("Web search initialized",
		"providers", c.WebSearchRegistry.Len(),
		"cache_enabled", wsConfig.Cache.Enabled,
		"max_retries", wsConfig.MaxRetries)
	return nil
}

// ReloadProviders перечитывает конфигурацию провайдеров и заменяет их в реестре
func (c *Container) ReloadProviders(ctx context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.WebSearchFactory == nil || c.WebSearchRegistry == nil {
		return 0, fmt.Errorf("web search is not initialized")
	}

	created := map[string]websearch.SearchProviderInterface{}
	if c.Config.WebSearch.Enabled {
		created = c.WebSearchFactory.CreateAll(ctx, c.providerConfigs())
	}
	c.WebSearchRegistry.UpdateProviders(created)
	c.Logger.Info("Web search providers reloaded", "providers", len(created))
	return len(created), nil
}

// providerConfigs возвращает настройки провайдеров из БД или из файла конфигурации
func (c *Container) providerConfigs() []websearch.ProviderConfigDB {
	wsConfig := c.Config.WebSearch
	if wsConfig.ProvidersFromDB && c.WebSearchConfigLoader != nil {
		configs, err := c.WebSearchConfigLoader.LoadEnabledProviders()
		if err == nil {
			return configs
		}
		c.Logger.Warn("Failed to load providers from DB, using config file", "error", err)
	}
	return toProviderConfigs(wsConfig.Providers)
}

func toProviderConfigs(list []config.ProviderConfig) []websearch.ProviderConfigDB {
	configs := make([]websearch.ProviderConfigDB, 0, len(list))
	for _, p := range list {
		configs = append(configs, websearch.ProviderConfigDB{
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
