package types

import (
	"context"
	"time"
)

// Query нормализованный поисковый запрос. Не изменяется после создания.
type Query struct {
	Text          string    `json:"text"`
	Language      string    `json:"language"`
	IssuedAt      time.Time `json:"issued_at"`
	CorrelationID string    `json:"correlation_id"`
}

// SearchItem элемент результата поиска
type SearchItem struct {
	Title      string            `json:"title"`
	URL        string            `json:"url"`
	Snippet    string            `json:"snippet"`
	DisplayURL string            `json:"display_url"`
	Relevance  float64           `json:"relevance"` // релевантность от 0.0 до 1.0
	Extra      map[string]string `json:"extra,omitempty"`
}

// ResultStatus статус результата провайдера
type ResultStatus string

const (
	StatusSuccess ResultStatus = "success"
	StatusError   ResultStatus = "error"
)

// ProviderResult результат одного провайдера
type ProviderResult struct {
	ProviderID string       `json:"provider_id"`
	Query      string       `json:"query"`
	Items      []SearchItem `json:"items"`
	ItemCount  int          `json:"item_count"`
	LatencyMs  int64        `json:"latency_ms"`
	Status     ResultStatus `json:"status"`
	Timestamp  time.Time    `json:"timestamp"`
}

// Clone возвращает глубокую копию результата
func (r *ProviderResult) Clone() *ProviderResult {
	if r == nil {
		return nil
	}
	c := *r
	if r.Items != nil {
		c.Items = make([]SearchItem, len(r.Items))
		for i, item := range r.Items {
			c.Items[i] = item
			if item.Extra != nil {
				c.Items[i].Extra = make(map[string]string, len(item.Extra))
				for k, v := range item.Extra {
					c.Items[i].Extra[k] = v
				}
			}
		}
	}
	return &c
}

// ErrorKind тип ошибки провайдера
type ErrorKind string

const (
	KindTimeout      ErrorKind = "timeout"
	KindUnavailable  ErrorKind = "unavailable"
	KindNetwork      ErrorKind = "network"
	KindAPI          ErrorKind = "api"
	KindParsing      ErrorKind = "parsing"
	KindGeneral      ErrorKind = "general"
	KindInvalidInput ErrorKind = "invalid_input"
)

// APIErrorClass подкласс ошибки api по диапазону HTTP статуса
type APIErrorClass string

const (
	APIClassClient    APIErrorClass = "client"
	APIClassRateLimit APIErrorClass = "rate_limit"
	APIClassServer    APIErrorClass = "server"
	APIClassOther     APIErrorClass = "other"
)

// ErrorRecord классифицированная ошибка провайдера
type ErrorRecord struct {
	ProviderID   string        `json:"provider_id"`
	Kind         ErrorKind     `json:"kind"`
	APIClass     APIErrorClass `json:"api_class,omitempty"`
	StatusCode   int           `json:"status_code,omitempty"`
	RawMessage   string        `json:"raw_message"`
	ClassifiedAt time.Time     `json:"classified_at"`
	UserMessage  string        `json:"user_message"`
	Retryable    bool          `json:"retryable"`
}

// ProviderOutcome итог по одному провайдеру в рамках одной агрегации
type ProviderOutcome struct {
	ProviderID string          `json:"provider_id"`
	Status     ResultStatus    `json:"status"`
	Data       *ProviderResult `json:"data,omitempty"`
	Error      *ErrorRecord    `json:"error,omitempty"`
	FromCache  bool            `json:"from_cache"`
	Attempts   int             `json:"attempts"`
	DirectURL  string          `json:"direct_url,omitempty"`
}

// Summary сводка агрегации
type Summary struct {
	Attempted  int `json:"attempted"`
	Succeeded  int `json:"succeeded"`
	Failed     int `json:"failed"`
	TotalItems int `json:"total_items"`
}

// AggregatedResult объединенный результат всех провайдеров.
// ProviderOrder содержит идентификаторы провайдеров в детерминированном порядке.
type AggregatedResult struct {
	Query          string                      `json:"query"`
	Language       string                      `json:"language"`
	CorrelationID  string                      `json:"correlation_id"`
	TotalLatencyMs int64                       `json:"total_latency_ms"`
	PerProvider    map[string]*ProviderOutcome `json:"per_provider"`
	ProviderOrder  []string                    `json:"provider_order"`
	Summary        Summary                     `json:"summary"`
}

// SearchProviderInterface интерфейс для провайдеров веб-поиска
// Определен здесь, чтобы избежать циклических импортов
type SearchProviderInterface interface {
	// Search выполняет поиск по запросу
	Search(ctx context.Context, query, language string) (*ProviderResult, error)

	// GetName возвращает имя провайдера (идентификатор)
	GetName() string

	// GetDirectSearchURL возвращает ссылку на поиск на сайте поисковика
	GetDirectSearchURL(query, language string) string
}

// AvailabilityChecker необязательная возможность провайдера. По умолчанию провайдер доступен.
type AvailabilityChecker interface {
	IsAvailable() bool
}

// RateLimitChecker необязательная возможность провайдера. false блокирует вызов до сетевого запроса.
type RateLimitChecker interface {
	CheckRateLimit() bool
}

// CredentialsValidator необязательная проверка учетных данных при старте
type CredentialsValidator interface {
	ValidateCredentials(ctx context.Context) error
}

// DisplayNamer необязательное человекочитаемое имя провайдера
type DisplayNamer interface {
	GetDisplayName() string
}
