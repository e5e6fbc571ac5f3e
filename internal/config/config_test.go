package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestConfigLogLevelValidation(t *testing.T) {
	tests := []struct {
		name      string
		logLevel  string
		wantError bool
	}{
		{"Valid DEBUG", "DEBUG", false},
		{"Valid INFO", "INFO", false},
		{"Valid WARN", "WARN", false},
		{"Valid ERROR", "ERROR", false},
		{"Valid lowercase debug", "debug", false},
		{"Invalid value", "INVALID", true},
		{"Empty string", "", false}, // пустая строка допустима, используется INFO
		{"Mixed case", "DeBuG", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaults()
			cfg.LogLevel = tt.logLevel

			err := cfg.Validate()
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	ws := cfg.WebSearch
	if ws.ProviderTimeout != 10*time.Second {
		t.Errorf("ProviderTimeout = %v, want 10s", ws.ProviderTimeout)
	}
	if ws.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", ws.MaxRetries)
	}
	if ws.RetryBaseDelay != time.Second || ws.RetryMaxDelay != 10*time.Second {
		t.Errorf("retry delays = %v/%v, want 1s/10s", ws.RetryBaseDelay, ws.RetryMaxDelay)
	}
	if ws.Cache.MaxSize != 100 || ws.Cache.TTL != 5*time.Minute || ws.Cache.CleanupInterval != time.Minute {
		t.Errorf("unexpected cache defaults: %+v", ws.Cache)
	}
	if ws.DedupeInFlight {
		t.Error("in-flight dedupe must be off by default")
	}
	if p, ok := ws.Provider("duckduckgo"); !ok || !p.Enabled {
		t.Error("duckduckgo should be enabled by default")
	}
	if p, ok := ws.Provider("bing"); !ok || p.Enabled {
		t.Error("bing should be disabled by default")
	}
}

func TestConfigEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("WEB_SEARCH_TIMEOUT", "3s")
	t.Setenv("WEB_SEARCH_MAX_RETRIES", "-1")
	t.Setenv("WEB_SEARCH_DEDUPE", "true")
	t.Setenv("WEB_SEARCH_CACHE_MAX_SIZE", "7")
	t.Setenv("BING_API_KEY", "bing-secret")
	t.Setenv("BING_ENABLED", "true")
	t.Setenv("TRACING_ENABLED", "true")
	t.Setenv("TRACING_EXPORTER", "noop")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Port != "8081" {
		t.Errorf("Port = %s, want 8081", cfg.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %s, want debug", cfg.LogLevel)
	}
	if cfg.WebSearch.ProviderTimeout != 3*time.Second {
		t.Errorf("ProviderTimeout = %v, want 3s", cfg.WebSearch.ProviderTimeout)
	}
	if cfg.WebSearch.MaxRetries != -1 {
		t.Errorf("MaxRetries = %d, want -1", cfg.WebSearch.MaxRetries)
	}
	if !cfg.WebSearch.DedupeInFlight {
		t.Error("DedupeInFlight should be enabled by env")
	}
	if cfg.WebSearch.Cache.MaxSize != 7 {
		t.Errorf("Cache.MaxSize = %d, want 7", cfg.WebSearch.Cache.MaxSize)
	}
	bing, _ := cfg.WebSearch.Provider("bing")
	if bing.APIKey != "bing-secret" || !bing.Enabled {
		t.Errorf("bing env overrides not applied: %+v", bing)
	}
	if !cfg.Tracing.Enabled || cfg.Tracing.Exporter != "noop" {
		t.Errorf("tracing env overrides not applied: %+v", cfg.Tracing)
	}
}

func TestConfigFromYAML(t *testing.T) {
	path := writeConfigFile(t, `
port: "7000"
log_level: WARN
web_search:
  provider_timeout: 2s
  max_retries: 1
  default_language: ru
  cache:
    enabled: true
    ttl: 1m
    cleanup_interval: 10s
    max_size: 50
  providers:
    - name: duckduckgo
      enabled: true
    - name: yandex
      display_name: Яндекс
      enabled: true
      api_key: file-key
      user: search-user
      rate_limit_seconds: 2
`)
	t.Setenv("YANDEX_API_KEY", "env-key")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Port != "7000" || cfg.LogLevel != "WARN" {
		t.Errorf("server settings not loaded: port=%s level=%s", cfg.Port, cfg.LogLevel)
	}
	ws := cfg.WebSearch
	if ws.ProviderTimeout != 2*time.Second || ws.MaxRetries != 1 || ws.DefaultLanguage != "ru" {
		t.Errorf("web search settings not loaded: %+v", ws)
	}
	if ws.RetryBaseDelay != time.Second {
		t.Errorf("unset fields must keep defaults, RetryBaseDelay = %v", ws.RetryBaseDelay)
	}
	if len(ws.Providers) != 2 {
		t.Fatalf("providers = %d, want 2", len(ws.Providers))
	}
	yandex, _ := ws.Provider("yandex")
	if yandex.APIKey != "env-key" {
		t.Errorf("environment must override file, APIKey = %s", yandex.APIKey)
	}
	if yandex.User != "search-user" || yandex.RateLimitSeconds != 2 {
		t.Errorf("yandex settings not loaded: %+v", yandex)
	}
}

func TestConfigFromYAML_Errors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	unknown := writeConfigFile(t, "prot: 9999\n")
	if _, err := LoadConfig(unknown); err == nil {
		t.Error("expected error for unknown field")
	}

	invalid := writeConfigFile(t, "web_search:\n  max_retries: -5\n")
	_, err := LoadConfig(invalid)
	if err == nil || !strings.Contains(err.Error(), "max retries") {
		t.Errorf("expected max retries validation error, got %v", err)
	}
}

func TestConfigEmptyYAMLKeepsDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfigFile(t, ""))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.WebSearch == nil || len(cfg.WebSearch.Providers) != 5 {
		t.Error("empty file must keep default web search config")
	}
}

func TestWebSearchValidation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(ws *WebSearchConfig)
		want   string
	}{
		{"zero timeout", func(ws *WebSearchConfig) { ws.ProviderTimeout = 0 }, "provider timeout"},
		{"max below base", func(ws *WebSearchConfig) { ws.RetryMaxDelay = time.Millisecond }, "retry max delay"},
		{"no language", func(ws *WebSearchConfig) { ws.DefaultLanguage = "" }, "default language"},
		{"zero cache size", func(ws *WebSearchConfig) { ws.Cache.MaxSize = 0 }, "cache max size"},
		{"duplicate provider", func(ws *WebSearchConfig) {
			ws.Providers = append(ws.Providers, ProviderConfig{Name: "bing"})
		}, "configured twice"},
		{"unnamed provider", func(ws *WebSearchConfig) {
			ws.Providers = append(ws.Providers, ProviderConfig{})
		}, "name is required"},
		{"negative rate limit", func(ws *WebSearchConfig) { ws.Providers[0].RateLimitSeconds = -1 }, "rate limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaults()
			tt.modify(cfg.WebSearch)

			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() error = %v, want substring %q", err, tt.want)
			}
		})
	}
}

func TestConfigValidationAggregatesErrors(t *testing.T) {
	cfg := GetDefaults()
	cfg.Port = "70000"
	cfg.ServiceDatabasePath = ""
	cfg.Tracing.Exporter = "jaeger"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"port must be between", "service database path", "tracing exporter"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestConfigRedactedYAML(t *testing.T) {
	cfg := GetDefaults()
	cfg.WebSearch.Providers[2].APIKey = "super-secret"

	var buf bytes.Buffer
	if err := cfg.Redacted().WriteYAML(&buf); err != nil {
		t.Fatalf("WriteYAML() error = %v", err)
	}

	if strings.Contains(buf.String(), "super-secret") {
		t.Error("redacted config leaks api key")
	}
	if cfg.WebSearch.Providers[2].APIKey != "super-secret" {
		t.Error("Redacted must not modify the original config")
	}
}
