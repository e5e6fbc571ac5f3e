package websearch

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"metasearch/websearch/types"
)

const (
	DefaultErrorHistorySize   = 100
	DefaultRetryBaseDelay     = 1000 * time.Millisecond
	DefaultRetryMaxDelay      = 10000 * time.Millisecond
	DefaultHealthWindow       = 10
	DefaultUnhealthyThreshold = 5
)

// ClassifierConfig конфигурация классификатора ошибок и политики повторов
type ClassifierConfig struct {
	HistorySize        int
	BaseDelay          time.Duration
	MaxDelay           time.Duration
	HealthWindow       int
	UnhealthyThreshold int

	Clock  clockwork.Clock
	Logger *slog.Logger
}

// ErrorStats агрегированная статистика ошибок
type ErrorStats struct {
	Total              int                         `json:"total"`
	ByKind             map[types.ErrorKind]int     `json:"by_kind"`
	ByProvider         map[string]int              `json:"by_provider"`
	ByAPIClass         map[types.APIErrorClass]int `json:"by_api_class"`
	PendingRetries     map[string]int              `json:"pending_retries"`
	Recent             []types.ErrorRecord         `json:"recent"`
	UnhealthyProviders []string                    `json:"unhealthy_providers"`
	Healthy            bool                        `json:"healthy"`
}

// FailureClassifier классифицирует ошибки провайдеров, ведет журнал последних ошибок
// и вычисляет задержки повторов
type FailureClassifier struct {
	config ClassifierConfig
	clock  clockwork.Clock
	logger *slog.Logger

	mu           sync.Mutex
	history      *errorRing
	attempts     map[string]int
	displayNames map[string]string
}

// NewFailureClassifier создает классификатор
func NewFailureClassifier(config ClassifierConfig) *FailureClassifier {
	if config.HistorySize <= 0 {
		config.HistorySize = DefaultErrorHistorySize
	}
	if config.BaseDelay <= 0 {
		config.BaseDelay = DefaultRetryBaseDelay
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = DefaultRetryMaxDelay
	}
	if config.MaxDelay < config.BaseDelay {
		config.MaxDelay = config.BaseDelay
	}
	if config.HealthWindow <= 0 {
		config.HealthWindow = DefaultHealthWindow
	}
	if config.UnhealthyThreshold <= 0 {
		config.UnhealthyThreshold = DefaultUnhealthyThreshold
	}
	if config.Clock == nil {
		config.Clock = clockwork.NewRealClock()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &FailureClassifier{
		config:       config,
		clock:        config.Clock,
		logger:       config.Logger.With("component", "failure_classifier"),
		history:      newErrorRing(config.HistorySize),
		attempts:     make(map[string]int),
		displayNames: make(map[string]string),
	}
}

// SetDisplayName задает отображаемое имя провайдера для пользовательских сообщений
func (fc *FailureClassifier) SetDisplayName(providerID, displayName string) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.displayNames[providerID] = displayName
}

// Classify классифицирует ошибку провайдера и добавляет запись в журнал
func (fc *FailureClassifier) Classify(rawErr error, providerID string) types.ErrorRecord {
	kind, apiClass, statusCode := classifyError(rawErr)

	rawMessage := ""
	if rawErr != nil {
		rawMessage = rawErr.Error()
	}

	fc.mu.Lock()
	defer fc.mu.Unlock()

	record := types.ErrorRecord{
		ProviderID:   providerID,
		Kind:         kind,
		APIClass:     apiClass,
		StatusCode:   statusCode,
		RawMessage:   rawMessage,
		ClassifiedAt: fc.clock.Now(),
		UserMessage:  userMessage(kind, fc.displayNameLocked(providerID)),
		Retryable:    IsRetryable(kind),
	}
	fc.history.push(record)

	fc.logger.Debug("Provider error classified",
		"provider", providerID,
		"error_kind", string(kind),
		"api_class", string(apiClass),
		"retryable", record.Retryable,
		"error", rawMessage)

	return record
}

// IsRetryable сообщает, допускает ли тип ошибки повтор
func IsRetryable(kind types.ErrorKind) bool {
	switch kind {
	case types.KindNetwork, types.KindTimeout, types.KindAPI:
		return true
	default:
		return false
	}
}

// IsRetryable метод-обертка для удобства потребителей классификатора
func (fc *FailureClassifier) IsRetryable(kind types.ErrorKind) bool {
	return IsRetryable(kind)
}

// BackoffDelay вычисляет задержку перед повтором: min(base * 2^attempt, max)
func (fc *FailureClassifier) BackoffDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	delay := fc.config.BaseDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= fc.config.MaxDelay {
			return fc.config.MaxDelay
		}
	}
	if delay > fc.config.MaxDelay {
		return fc.config.MaxDelay
	}
	return delay
}

// NextBackoffDelay задержка для провайдера по его текущему счетчику попыток
func (fc *FailureClassifier) NextBackoffDelay(providerID string) time.Duration {
	fc.mu.Lock()
	attempt := fc.attempts[providerID]
	fc.mu.Unlock()
	return fc.BackoffDelay(attempt)
}

// RecordAttempt увеличивает счетчик попыток провайдера
func (fc *FailureClassifier) RecordAttempt(providerID string) int {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.attempts[providerID]++
	return fc.attempts[providerID]
}

// ResetAttempts сбрасывает счетчик попыток провайдера
func (fc *FailureClassifier) ResetAttempts(providerID string) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	delete(fc.attempts, providerID)
}

// Attempts возвращает текущий счетчик попыток провайдера
func (fc *FailureClassifier) Attempts(providerID string) int {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.attempts[providerID]
}

// ErrorStats возвращает статистику по журналу ошибок
func (fc *FailureClassifier) ErrorStats() *ErrorStats {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	records := fc.history.items()
	stats := &ErrorStats{
		Total:          len(records),
		ByKind:         make(map[types.ErrorKind]int),
		ByProvider:     make(map[string]int),
		ByAPIClass:     make(map[types.APIErrorClass]int),
		PendingRetries: make(map[string]int, len(fc.attempts)),
		Healthy:        true,
	}
	for _, r := range records {
		stats.ByKind[r.Kind]++
		stats.ByProvider[r.ProviderID]++
		if r.APIClass != "" {
			stats.ByAPIClass[r.APIClass]++
		}
	}
	for id, n := range fc.attempts {
		stats.PendingRetries[id] = n
	}

	recent := records
	if len(recent) > fc.config.HealthWindow {
		recent = recent[len(recent)-fc.config.HealthWindow:]
	}
	stats.Recent = append([]types.ErrorRecord(nil), recent...)

	recentByProvider := make(map[string]int)
	for _, r := range recent {
		recentByProvider[r.ProviderID]++
	}
	for id, n := range recentByProvider {
		if n > fc.config.UnhealthyThreshold {
			stats.UnhealthyProviders = append(stats.UnhealthyProviders, id)
		}
	}
	sort.Strings(stats.UnhealthyProviders)
	stats.Healthy = len(stats.UnhealthyProviders) == 0

	return stats
}

// History возвращает копию журнала ошибок, от старых к новым
func (fc *FailureClassifier) History() []types.ErrorRecord {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.history.items()
}

// ClearHistory очищает журнал ошибок
func (fc *FailureClassifier) ClearHistory() {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.history = newErrorRing(fc.config.HistorySize)
}

func (fc *FailureClassifier) displayNameLocked(providerID string) string {
	if name, ok := fc.displayNames[providerID]; ok && name != "" {
		return name
	}
	return providerID
}

// classifyError определяет тип ошибки. Проверки идут в порядке приоритета.
func classifyError(err error) (types.ErrorKind, types.APIErrorClass, int) {
	if err == nil {
		return types.KindGeneral, "", 0
	}

	if errors.Is(err, ErrInvalidInput) {
		return types.KindInvalidInput, "", 0
	}

	// timeout: операция прервана собственным дедлайном
	if errors.Is(err, context.DeadlineExceeded) {
		return types.KindTimeout, "", 0
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return types.KindTimeout, "", 0
	}

	// unavailable: блокировка на уровне платформы или политики безопасности
	if errors.Is(err, types.ErrUnavailable) || isSecurityDenial(err) {
		return types.KindUnavailable, "", 0
	}

	// network: сбой соединения или транспорта
	if isNetworkError(err) {
		return types.KindNetwork, "", 0
	}

	// api: удаленная сторона ответила ошибочным статусом
	var statusErr *types.HTTPStatusError
	if errors.As(err, &statusErr) {
		return types.KindAPI, apiClassFor(statusErr.StatusCode), statusErr.StatusCode
	}

	// parsing: ответ получен, но не разобран
	if isParsingError(err) {
		return types.KindParsing, "", 0
	}

	return types.KindGeneral, "", 0
}

func apiClassFor(statusCode int) types.APIErrorClass {
	switch {
	case statusCode == 429:
		return types.APIClassRateLimit
	case statusCode >= 400 && statusCode < 500:
		return types.APIClassClient
	case statusCode >= 500 && statusCode < 600:
		return types.APIClassServer
	default:
		return types.APIClassOther
	}
}

func isSecurityDenial(err error) bool {
	var unknownAuthority x509.UnknownAuthorityError
	var hostname x509.HostnameError
	var invalid x509.CertificateInvalidError
	var verification *tls.CertificateVerificationError
	return errors.As(err, &unknownAuthority) ||
		errors.As(err, &hostname) ||
		errors.As(err, &invalid) ||
		errors.As(err, &verification)
}

func isNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed)
}

func isParsingError(err error) bool {
	var parseErr *types.ParseError
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var xmlErr *xml.SyntaxError
	return errors.As(err, &parseErr) ||
		errors.As(err, &syntaxErr) ||
		errors.As(err, &typeErr) ||
		errors.As(err, &xmlErr)
}

// userMessage сообщение для пользователя. Зависит только от типа ошибки и имени провайдера.
func userMessage(kind types.ErrorKind, displayName string) string {
	switch kind {
	case types.KindTimeout:
		return fmt.Sprintf("%s не ответил вовремя. Попробуйте повторить поиск позже.", displayName)
	case types.KindUnavailable:
		return fmt.Sprintf("%s сейчас недоступен. Откройте поиск напрямую на сайте %s.", displayName, displayName)
	case types.KindNetwork:
		return fmt.Sprintf("Не удалось подключиться к %s. Проверьте сетевое соединение.", displayName)
	case types.KindAPI:
		return fmt.Sprintf("%s вернул ошибку. Возможно, превышен лимит запросов.", displayName)
	case types.KindParsing:
		return fmt.Sprintf("Не удалось обработать ответ %s.", displayName)
	case types.KindInvalidInput:
		return "Введите поисковый запрос."
	default:
		return fmt.Sprintf("При поиске в %s произошла ошибка.", displayName)
	}
}

// errorRing кольцевой буфер фиксированной емкости, старые записи вытесняются первыми
type errorRing struct {
	buf   []types.ErrorRecord
	start int
	size  int
}

func newErrorRing(capacity int) *errorRing {
	return &errorRing{buf: make([]types.ErrorRecord, capacity)}
}

func (r *errorRing) push(rec types.ErrorRecord) {
	if r.size < len(r.buf) {
		r.buf[(r.start+r.size)%len(r.buf)] = rec
		r.size++
		return
	}
	r.buf[r.start] = rec
	r.start = (r.start + 1) % len(r.buf)
}

func (r *errorRing) items() []types.ErrorRecord {
	out := make([]types.ErrorRecord, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.buf[(r.start+i)%len(r.buf)]
	}
	return out
}
