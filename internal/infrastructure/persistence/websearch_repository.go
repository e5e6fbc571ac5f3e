package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"metasearch/database"
)

// WebSearchProvider модель провайдера веб-поиска
type WebSearchProvider struct {
	ID               int       `json:"id"`
	Name             string    `json:"name"`
	DisplayName      string    `json:"display_name"`
	Enabled          bool      `json:"enabled"`
	APIKey           string    `json:"api_key,omitempty"`
	SearchID         string    `json:"search_id,omitempty"`
	User             string    `json:"user,omitempty"`
	BaseURL          string    `json:"base_url"`
	RateLimitSeconds int       `json:"rate_limit_seconds"`
	Priority         int       `json:"priority"`
	Region           string    `json:"region"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ProviderStats статистика провайдера
type ProviderStats struct {
	ProviderName      string     `json:"provider_name"`
	RequestsTotal     int64      `json:"requests_total"`
	RequestsSuccess   int64      `json:"requests_success"`
	RequestsFailed    int64      `json:"requests_failed"`
	FailureRate       float64    `json:"failure_rate"`
	AvgResponseTimeMs int64      `json:"avg_response_time_ms"`
	LastSuccess       *time.Time `json:"last_success,omitempty"`
	LastFailure       *time.Time `json:"last_failure,omitempty"`
	LastError         string     `json:"last_error"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// ErrProviderNotFound провайдер отсутствует в таблице
var ErrProviderNotFound = errors.New("provider not found")

// WebSearchRepository репозиторий для работы с веб-поиском
type WebSearchRepository struct {
	serviceDB *database.ServiceDB
}

// NewWebSearchRepository создает новый репозиторий веб-поиска
func NewWebSearchRepository(serviceDB *database.ServiceDB) *WebSearchRepository {
	return &WebSearchRepository{
		serviceDB: serviceDB,
	}
}

const providerColumns = `id, name, display_name, enabled, api_key, search_id, user, base_url,
	                 rate_limit_seconds, priority, region, created_at, updated_at`

// rowScanner общий интерфейс *sql.Row и *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProvider(row rowScanner) (WebSearchProvider, error) {
	var p WebSearchProvider
	var displayName, apiKey, searchID, user, baseURL, region sql.NullString
	err := row.Scan(
		&p.ID, &p.Name, &displayName, &p.Enabled, &apiKey, &searchID, &user,
		&baseURL, &p.RateLimitSeconds, &p.Priority, &region,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return p, err
	}
	p.DisplayName = displayName.String
	p.APIKey = apiKey.String
	p.SearchID = searchID.String
	p.User = user.String
	p.BaseURL = baseURL.String
	p.Region = region.String
	return p, nil
}

func (r *WebSearchRepository) queryProviders(query string, args ...interface{}) ([]WebSearchProvider, error) {
	rows, err := r.serviceDB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var providers []WebSearchProvider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan provider: %w", err)
		}
		providers = append(providers, p)
	}

	return providers, rows.Err()
}

// GetAllProviders возвращает всех провайдеров
func (r *WebSearchRepository) GetAllProviders() ([]WebSearchProvider, error) {
	providers, err := r.queryProviders(`SELECT ` + providerColumns + `
	          FROM websearch_providers
	          ORDER BY priority DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query providers: %w", err)
	}
	return providers, nil
}

// GetEnabledProviders возвращает только включенные провайдеры
func (r *WebSearchRepository) GetEnabledProviders() ([]WebSearchProvider, error) {
	providers, err := r.queryProviders(`SELECT ` + providerColumns + `
	          FROM websearch_providers
	          WHERE enabled = TRUE
	          ORDER BY priority DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query enabled providers: %w", err)
	}
	return providers, nil
}

// GetProviderByName возвращает провайдера по имени. Возвращает nil, nil если провайдер не найден.
func (r *WebSearchRepository) GetProviderByName(name string) (*WebSearchProvider, error) {
	p, err := scanProvider(r.serviceDB.QueryRow(`SELECT `+providerColumns+`
	          FROM websearch_providers
	          WHERE name = ?`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get provider: %w", err)
	}

	return &p, nil
}

// UpdateProvider обновляет провайдера
func (r *WebSearchRepository) UpdateProvider(provider *WebSearchProvider) error {
	query := `UPDATE websearch_providers
	          SET display_name = ?, enabled = ?, api_key = ?, search_id = ?, user = ?, base_url = ?,
	              rate_limit_seconds = ?, priority = ?, region = ?, updated_at = CURRENT_TIMESTAMP
	          WHERE name = ?`

	result, err := r.serviceDB.Exec(
		query,
		provider.DisplayName, provider.Enabled, provider.APIKey, provider.SearchID, provider.User,
		provider.BaseURL, provider.RateLimitSeconds, provider.Priority,
		provider.Region, provider.Name,
	)
	if err != nil {
		return fmt.Errorf("failed to update provider: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrProviderNotFound, provider.Name)
	}

	return nil
}

// CreateProvider создает нового провайдера
func (r *WebSearchRepository) CreateProvider(provider *WebSearchProvider) error {
	query := `INSERT INTO websearch_providers
	          (name, display_name, enabled, api_key, search_id, user, base_url, rate_limit_seconds, priority, region)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.serviceDB.Exec(
		query,
		provider.Name, provider.DisplayName, provider.Enabled, provider.APIKey, provider.SearchID,
		provider.User, provider.BaseURL, provider.RateLimitSeconds,
		provider.Priority, provider.Region,
	)
	if err != nil {
		return fmt.Errorf("failed to create provider: %w", err)
	}

	return nil
}

// DeleteProvider удаляет провайдера и его статистику
func (r *WebSearchRepository) DeleteProvider(name string) error {
	result, err := r.serviceDB.Exec(`DELETE FROM websearch_providers WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete provider: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("%w: %s", ErrProviderNotFound, name)
	}

	if _, err := r.serviceDB.Exec(`DELETE FROM websearch_provider_stats WHERE provider_name = ?`, name); err != nil {
		return fmt.Errorf("failed to delete provider stats: %w", err)
	}
	return nil
}

const statsColumns = `provider_name, requests_total, requests_success, requests_failed,
	                 failure_rate, avg_response_time_ms, last_success, last_failure,
	                 last_error, updated_at`

func scanStats(row rowScanner) (ProviderStats, error) {
	var stats ProviderStats
	var lastSuccess, lastFailure sql.NullTime
	var lastError sql.NullString

	err := row.Scan(
		&stats.ProviderName, &stats.RequestsTotal, &stats.RequestsSuccess,
		&stats.RequestsFailed, &stats.FailureRate, &stats.AvgResponseTimeMs,
		&lastSuccess, &lastFailure, &lastError, &stats.UpdatedAt,
	)
	if err != nil {
		return stats, err
	}

	if lastSuccess.Valid {
		t := lastSuccess.Time
		stats.LastSuccess = &t
	}
	if lastFailure.Valid {
		t := lastFailure.Time
		stats.LastFailure = &t
	}
	stats.LastError = lastError.String
	return stats, nil
}

// GetProviderStats возвращает статистику провайдера
func (r *WebSearchRepository) GetProviderStats(providerName string) (*ProviderStats, error) {
	stats, err := scanStats(r.serviceDB.QueryRow(`SELECT `+statsColumns+`
	          FROM websearch_provider_stats
	          WHERE provider_name = ?`, providerName))
	if errors.Is(err, sql.ErrNoRows) {
		return &ProviderStats{
			ProviderName: providerName,
			UpdatedAt:    time.Now(),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get provider stats: %w", err)
	}

	return &stats, nil
}

// GetAllProviderStats возвращает статистику всех провайдеров
func (r *WebSearchRepository) GetAllProviderStats() ([]ProviderStats, error) {
	rows, err := r.serviceDB.Query(`SELECT ` + statsColumns + `
	          FROM websearch_provider_stats
	          ORDER BY provider_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query provider stats: %w", err)
	}
	defer rows.Close()

	var result []ProviderStats
	for rows.Next() {
		stats, err := scanStats(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan provider stats: %w", err)
		}
		result = append(result, stats)
	}

	return result, rows.Err()
}

// UpdateProviderStats обновляет статистику провайдера
func (r *WebSearchRepository) UpdateProviderStats(stats *ProviderStats) error {
	query := `INSERT OR REPLACE INTO websearch_provider_stats
	          (provider_name, requests_total, requests_success, requests_failed,
	           failure_rate, avg_response_time_ms, last_success, last_failure,
	           last_error, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`

	var lastSuccess, lastFailure interface{}
	if stats.LastSuccess != nil {
		lastSuccess = *stats.LastSuccess
	}
	if stats.LastFailure != nil {
		lastFailure = *stats.LastFailure
	}

	_, err := r.serviceDB.Exec(
		query,
		stats.ProviderName, stats.RequestsTotal, stats.RequestsSuccess,
		stats.RequestsFailed, stats.FailureRate, stats.AvgResponseTimeMs,
		lastSuccess, lastFailure, stats.LastError,
	)
	if err != nil {
		return fmt.Errorf("failed to update provider stats: %w", err)
	}

	return nil
}
