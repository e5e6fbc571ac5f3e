package websearch

import (
	"time"
)

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
	LastError         string     `json:"last_error,omitempty"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// ReliabilityManagerInterface интерфейс для учета надежности провайдеров
type ReliabilityManagerInterface interface {
	// RecordSuccess записывает успешный запрос с временем ответа
	RecordSuccess(providerName string, responseTime time.Duration) error

	// RecordFailure записывает неуспешный запрос с ошибкой
	RecordFailure(providerName string, err error) error

	// GetStats возвращает копию статистики провайдера
	GetStats(providerName string) *ProviderStats

	// GetAllStats возвращает копию статистики всех провайдеров
	GetAllStats() map[string]*ProviderStats
}
