package database

import (
	"database/sql"
	"fmt"
)

// InitWebSearchSchema создает таблицы для веб-поиска в service.db
func InitWebSearchSchema(db *sql.DB) error {
	// Таблица конфигурации провайдеров
	createProvidersTable := `
	CREATE TABLE IF NOT EXISTS websearch_providers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		display_name TEXT DEFAULT '',
		enabled BOOLEAN NOT NULL DEFAULT FALSE,
		api_key TEXT DEFAULT '',
		search_id TEXT DEFAULT '',
		user TEXT DEFAULT '',
		base_url TEXT DEFAULT '',
		rate_limit_seconds INTEGER DEFAULT 1,
		priority INTEGER DEFAULT 1,
		region TEXT DEFAULT 'global',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`

	// Таблица статистики надежности
	createStatsTable := `
	CREATE TABLE IF NOT EXISTS websearch_provider_stats (
		provider_name TEXT PRIMARY KEY,
		requests_total INTEGER DEFAULT 0,
		requests_success INTEGER DEFAULT 0,
		requests_failed INTEGER DEFAULT 0,
		failure_rate REAL DEFAULT 0.0,
		avg_response_time_ms INTEGER DEFAULT 0,
		last_success DATETIME,
		last_failure DATETIME,
		last_error TEXT DEFAULT '',
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`

	if _, err := db.Exec(createProvidersTable); err != nil {
		return fmt.Errorf("failed to create websearch_providers table: %w", err)
	}

	if _, err := db.Exec(createStatsTable); err != nil {
		return fmt.Errorf("failed to create websearch_provider_stats table: %w", err)
	}

	// Начальные данные: бесплатные DuckDuckGo включены, платные API выключены до ввода ключей
	initialProviders := []struct {
		name        string
		displayName string
		enabled     bool
		priority    int
	}{
		{"duckduckgo", "DuckDuckGo", true, 1},
		{"duckduckgo_html", "DuckDuckGo HTML", true, 1},
		{"bing", "Bing", false, 2},
		{"google", "Google", false, 3},
		{"yandex", "Яндекс", false, 4},
	}

	for _, provider := range initialProviders {
		_, err := db.Exec(`
			INSERT OR IGNORE INTO websearch_providers (name, display_name, enabled, priority, rate_limit_seconds)
			VALUES (?, ?, ?, ?, ?)
		`, provider.name, provider.displayName, provider.enabled, provider.priority, 1)
		if err != nil {
			return fmt.Errorf("failed to insert initial provider %s: %w", provider.name, err)
		}
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_websearch_providers_enabled ON websearch_providers(enabled)`,
		`CREATE INDEX IF NOT EXISTS idx_websearch_providers_priority ON websearch_providers(priority)`,
	}

	for _, indexSQL := range indexes {
		if _, err := db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}
