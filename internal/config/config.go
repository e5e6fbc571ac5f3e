package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config конфигурация сервера
type Config struct {
	// Сервер
	Port string `yaml:"port" json:"port"`

	// Сервисная БД (настройки провайдеров и статистика надежности)
	ServiceDatabasePath string `yaml:"service_database_path" json:"service_database_path"`

	// Connection pooling
	MaxOpenConns    int           `yaml:"max_open_conns" json:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" json:"conn_max_lifetime"`

	// Логирование
	LogLevel  string `yaml:"log_level" json:"log_level"`
	LogFormat string `yaml:"log_format" json:"log_format"`

	// Веб-поиск
	WebSearch *WebSearchConfig `yaml:"web_search" json:"web_search"`

	// Трассировка
	Tracing TracingConfig `yaml:"tracing" json:"tracing"`
}

// WebSearchConfig конфигурация агрегатора веб-поиска
type WebSearchConfig struct {
	Enabled         bool          `yaml:"enabled" json:"enabled"`
	ProviderTimeout time.Duration `yaml:"provider_timeout" json:"provider_timeout"`
	// MaxRetries 0 или -1 отключают повторы
	MaxRetries      int           `yaml:"max_retries" json:"max_retries"`
	RetryBaseDelay  time.Duration `yaml:"retry_base_delay" json:"retry_base_delay"`
	RetryMaxDelay   time.Duration `yaml:"retry_max_delay" json:"retry_max_delay"`
	DefaultLanguage string        `yaml:"default_language" json:"default_language"`
	DedupeInFlight  bool          `yaml:"dedupe_in_flight" json:"dedupe_in_flight"`

	ErrorHistorySize   int `yaml:"error_history_size" json:"error_history_size"`
	HealthWindow       int `yaml:"health_window" json:"health_window"`
	UnhealthyThreshold int `yaml:"unhealthy_threshold" json:"unhealthy_threshold"`

	Cache   CacheConfig   `yaml:"cache" json:"cache"`
	Breaker BreakerConfig `yaml:"breaker" json:"breaker"`

	// ProvidersFromDB провайдеры читаются из таблицы websearch_providers вместо списка Providers
	ProvidersFromDB bool             `yaml:"providers_from_db" json:"providers_from_db"`
	Providers       []ProviderConfig `yaml:"providers" json:"providers"`
}

// CacheConfig конфигурация кэша результатов
type CacheConfig struct {
	Enabled         bool          `yaml:"enabled" json:"enabled"`
	TTL             time.Duration `yaml:"ttl" json:"ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" json:"cleanup_interval"`
	MaxSize         int           `yaml:"max_size" json:"max_size"`
}

// BreakerConfig конфигурация предохранителей провайдеров
type BreakerConfig struct {
	Enabled     bool          `yaml:"enabled" json:"enabled"`
	MaxFailures uint32        `yaml:"max_failures" json:"max_failures"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
	Interval    time.Duration `yaml:"interval" json:"interval"`
}

// ProviderConfig настройки одного провайдера
type ProviderConfig struct {
	Name             string `yaml:"name" json:"name"`
	DisplayName      string `yaml:"display_name" json:"display_name,omitempty"`
	Enabled          bool   `yaml:"enabled" json:"enabled"`
	APIKey           string `yaml:"api_key" json:"api_key,omitempty"`
	SearchID         string `yaml:"search_id" json:"search_id,omitempty"`
	User             string `yaml:"user" json:"user,omitempty"`
	BaseURL          string `yaml:"base_url" json:"base_url,omitempty"`
	RateLimitSeconds int    `yaml:"rate_limit_seconds" json:"rate_limit_seconds"`
	Priority         int    `yaml:"priority" json:"priority"`
	Region           string `yaml:"region" json:"region,omitempty"`
}

// TracingConfig конфигурация OpenTelemetry
type TracingConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	// Exporter: stdout или noop
	Exporter string `yaml:"exporter" json:"exporter"`
}

// LoadConfig загружает конфигурацию: значения по умолчанию, затем YAML файл (если path не пуст),
// затем переменные окружения
func LoadConfig(path string) (*Config, error) {
	config := GetDefaults()

	if path != "" {
		if err := config.loadFile(path); err != nil {
			return nil, err
		}
	}

	config.applyEnv()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

func (c *Config) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if c.WebSearch == nil {
		c.WebSearch = GetDefaultWebSearchConfig()
	}
	return nil
}

// applyEnv переменные окружения имеют приоритет над файлом
func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", getEnv("SERVER_PORT", c.Port))
	c.ServiceDatabasePath = getEnv("SERVICE_DATABASE_PATH", c.ServiceDatabasePath)

	c.MaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", c.MaxOpenConns)
	c.MaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", c.MaxIdleConns)
	c.ConnMaxLifetime = getEnvDuration("DB_CONN_MAX_LIFETIME", c.ConnMaxLifetime)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)

	c.Tracing.Enabled = getEnvBool("TRACING_ENABLED", c.Tracing.Enabled)
	c.Tracing.Exporter = getEnv("TRACING_EXPORTER", c.Tracing.Exporter)

	ws := c.WebSearch
	ws.Enabled = getEnvBool("WEB_SEARCH_ENABLED", ws.Enabled)
	ws.ProviderTimeout = getEnvDuration("WEB_SEARCH_TIMEOUT", ws.ProviderTimeout)
	ws.MaxRetries = getEnvInt("WEB_SEARCH_MAX_RETRIES", ws.MaxRetries)
	ws.RetryBaseDelay = getEnvDuration("WEB_SEARCH_RETRY_BASE_DELAY", ws.RetryBaseDelay)
	ws.RetryMaxDelay = getEnvDuration("WEB_SEARCH_RETRY_MAX_DELAY", ws.RetryMaxDelay)
	ws.DefaultLanguage = getEnv("WEB_SEARCH_DEFAULT_LANGUAGE", ws.DefaultLanguage)
	ws.DedupeInFlight = getEnvBool("WEB_SEARCH_DEDUPE", ws.DedupeInFlight)
	ws.ProvidersFromDB = getEnvBool("WEB_SEARCH_PROVIDERS_FROM_DB", ws.ProvidersFromDB)

	ws.Cache.Enabled = getEnvBool("WEB_SEARCH_CACHE_ENABLED", ws.Cache.Enabled)
	ws.Cache.TTL = getEnvDuration("WEB_SEARCH_CACHE_TTL", ws.Cache.TTL)
	ws.Cache.CleanupInterval = getEnvDuration("WEB_SEARCH_CACHE_CLEANUP", ws.Cache.CleanupInterval)
	ws.Cache.MaxSize = getEnvInt("WEB_SEARCH_CACHE_MAX_SIZE", ws.Cache.MaxSize)

	ws.Breaker.Enabled = getEnvBool("WEB_SEARCH_BREAKER_ENABLED", ws.Breaker.Enabled)

	// Ключи провайдеров: BING_API_KEY, GOOGLE_SEARCH_ID, YANDEX_USER и т.д.
	for i := range ws.Providers {
		p := &ws.Providers[i]
		prefix := strings.ToUpper(p.Name) + "_"
		p.APIKey = getEnv(prefix+"API_KEY", p.APIKey)
		p.SearchID = getEnv(prefix+"SEARCH_ID", p.SearchID)
		p.User = getEnv(prefix+"USER", p.User)
		p.BaseURL = getEnv(prefix+"BASE_URL", p.BaseURL)
		p.Enabled = getEnvBool(prefix+"ENABLED", p.Enabled)
	}
}

// Provider возвращает настройки провайдера по имени
func (ws *WebSearchConfig) Provider(name string) (ProviderConfig, bool) {
	for _, p := range ws.Providers {
		if p.Name == name {
			return p, true
		}
	}
	return ProviderConfig{}, false
}

// Redacted возвращает копию конфигурации со скрытыми ключами
func (c *Config) Redacted() *Config {
	clone := *c
	if c.WebSearch != nil {
		ws := *c.WebSearch
		ws.Providers = make([]ProviderConfig, len(c.WebSearch.Providers))
		for i, p := range c.WebSearch.Providers {
			if p.APIKey != "" {
				p.APIKey = "***"
			}
			ws.Providers[i] = p
		}
		clone.WebSearch = &ws
	}
	return &clone
}

// WriteYAML сериализует конфигурацию в YAML
func (c *Config) WriteYAML(w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return encoder.Close()
}

// getEnv получает переменную окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает переменную окружения как int или возвращает значение по умолчанию
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvDuration получает переменную окружения как Duration или возвращает значение по умолчанию
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
