package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Validate проверяет корректность конфигурации
func (c *Config) Validate() error {
	var errors []string

	// Валидация порта
	if c.Port == "" {
		errors = append(errors, "port is required")
	} else {
		port, err := strconv.Atoi(c.Port)
		if err != nil {
			errors = append(errors, fmt.Sprintf("invalid port: %s", c.Port))
		} else if port < 1 || port > 65535 {
			errors = append(errors, fmt.Sprintf("port must be between 1 and 65535, got %d", port))
		}
	}

	if c.ServiceDatabasePath == "" {
		errors = append(errors, "service database path is required")
	}

	// Валидация connection pooling
	if c.MaxOpenConns < 1 {
		errors = append(errors, "max open connections must be at least 1")
	}
	if c.MaxIdleConns < 1 {
		errors = append(errors, "max idle connections must be at least 1")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		errors = append(errors, "max idle connections cannot be greater than max open connections")
	}
	if c.ConnMaxLifetime < time.Second {
		errors = append(errors, "connection max lifetime must be at least 1 second")
	}

	// Валидация уровня логирования
	validLogLevels := []string{"DEBUG", "INFO", "WARN", "ERROR"}
	if c.LogLevel != "" && !contains(validLogLevels, strings.ToUpper(c.LogLevel)) {
		errors = append(errors, fmt.Sprintf("invalid log level: %s (valid: %s)",
			c.LogLevel, strings.Join(validLogLevels, ", ")))
	}
	validLogFormats := []string{"json", "text"}
	if c.LogFormat != "" && !contains(validLogFormats, strings.ToLower(c.LogFormat)) {
		errors = append(errors, fmt.Sprintf("invalid log format: %s (valid: %s)",
			c.LogFormat, strings.Join(validLogFormats, ", ")))
	}

	validExporters := []string{"", "stdout", "noop"}
	if !contains(validExporters, c.Tracing.Exporter) {
		errors = append(errors, fmt.Sprintf("invalid tracing exporter: %s", c.Tracing.Exporter))
	}

	if c.WebSearch == nil {
		errors = append(errors, "web search config is required")
	} else if err := c.WebSearch.Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("web search config: %v", err))
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

// Validate проверяет корректность конфигурации веб-поиска
func (ws *WebSearchConfig) Validate() error {
	var errors []string

	if ws.ProviderTimeout < 10*time.Millisecond {
		errors = append(errors, "provider timeout must be at least 10ms")
	}
	if ws.MaxRetries < -1 {
		errors = append(errors, "max retries must be -1 (disabled) or greater")
	}
	if ws.RetryBaseDelay <= 0 {
		errors = append(errors, "retry base delay must be positive")
	}
	if ws.RetryMaxDelay < ws.RetryBaseDelay {
		errors = append(errors, "retry max delay cannot be less than base delay")
	}
	if ws.DefaultLanguage == "" {
		errors = append(errors, "default language is required")
	}
	if ws.ErrorHistorySize < 1 {
		errors = append(errors, "error history size must be at least 1")
	}
	if ws.HealthWindow < 1 {
		errors = append(errors, "health window must be at least 1")
	}
	if ws.UnhealthyThreshold < 1 {
		errors = append(errors, "unhealthy threshold must be at least 1")
	}

	// Валидация кэша
	if ws.Cache.MaxSize < 1 {
		errors = append(errors, "cache max size must be at least 1")
	}
	if ws.Cache.TTL < time.Second {
		errors = append(errors, "cache TTL must be at least 1 second")
	}
	if ws.Cache.CleanupInterval < time.Second {
		errors = append(errors, "cache cleanup interval must be at least 1 second")
	}

	// Валидация провайдеров
	seen := make(map[string]bool, len(ws.Providers))
	for i, p := range ws.Providers {
		if p.Name == "" {
			errors = append(errors, fmt.Sprintf("provider #%d name is required", i))
			continue
		}
		if seen[p.Name] {
			errors = append(errors, fmt.Sprintf("provider %s is configured twice", p.Name))
		}
		seen[p.Name] = true
		if p.RateLimitSeconds < 0 {
			errors = append(errors, fmt.Sprintf("provider %s rate limit cannot be negative", p.Name))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, "; "))
	}

	return nil
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

// GetDefaults возвращает конфигурацию со значениями по умолчанию
func GetDefaults() *Config {
	return &Config{
		Port:                "9999",
		ServiceDatabasePath: "service.db",
		MaxOpenConns:        25,
		MaxIdleConns:        5,
		ConnMaxLifetime:     5 * time.Minute,
		LogLevel:            "INFO",
		LogFormat:           "json",
		WebSearch:           GetDefaultWebSearchConfig(),
		Tracing: TracingConfig{
			Enabled:  false,
			Exporter: "stdout",
		},
	}
}

// GetDefaultWebSearchConfig возвращает конфигурацию веб-поиска со значениями по умолчанию
func GetDefaultWebSearchConfig() *WebSearchConfig {
	return &WebSearchConfig{
		Enabled:            true,
		ProviderTimeout:    10 * time.Second,
		MaxRetries:         3,
		RetryBaseDelay:     1000 * time.Millisecond,
		RetryMaxDelay:      10000 * time.Millisecond,
		DefaultLanguage:    "en",
		DedupeInFlight:     false,
		ErrorHistorySize:   100,
		HealthWindow:       10,
		UnhealthyThreshold: 5,
		Cache: CacheConfig{
			Enabled:         true,
			TTL:             5 * time.Minute,
			CleanupInterval: 60 * time.Second,
			MaxSize:         100,
		},
		Breaker: BreakerConfig{
			Enabled:     true,
			MaxFailures: 5,
			Timeout:     30 * time.Second,
			Interval:    60 * time.Second,
		},
		Providers: []ProviderConfig{
			{Name: "duckduckgo", DisplayName: "DuckDuckGo", Enabled: true, RateLimitSeconds: 1, Priority: 1},
			{Name: "duckduckgo_html", DisplayName: "DuckDuckGo HTML", Enabled: true, RateLimitSeconds: 1, Priority: 2},
			{Name: "bing", DisplayName: "Bing", Enabled: false, RateLimitSeconds: 1, Priority: 3},
			{Name: "google", DisplayName: "Google", Enabled: false, RateLimitSeconds: 1, Priority: 4},
			{Name: "yandex", DisplayName: "Яндекс", Enabled: false, RateLimitSeconds: 1, Priority: 5, Region: "225"},
		},
	}
}
