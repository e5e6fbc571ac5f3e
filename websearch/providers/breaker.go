package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"metasearch/websearch/types"
)

const (
	defaultBreakerMaxFailures uint32        = 5
	defaultBreakerTimeout     time.Duration = 30 * time.Second
	defaultBreakerInterval    time.Duration = 60 * time.Second
)

// BreakerConfig настройки предохранителя провайдера
type BreakerConfig struct {
	// MaxFailures число подряд идущих сбоев до размыкания
	MaxFailures uint32        `json:"max_failures" yaml:"max_failures"`
	Timeout     time.Duration `json:"timeout" yaml:"timeout"`
	Interval    time.Duration `json:"interval" yaml:"interval"`
}

// Provider провайдер вместе с возможностями, которые реализуют все провайдеры пакета
type Provider interface {
	types.SearchProviderInterface
	types.AvailabilityChecker
	types.CredentialsValidator
}

// BreakerProvider оборачивает провайдера предохранителем.
// Пока предохранитель разомкнут, IsAvailable возвращает false и вызов не доходит до сети.
type BreakerProvider struct {
	inner   Provider
	breaker *gobreaker.CircuitBreaker[*types.ProviderResult]
	logger  *slog.Logger
}

// NewBreakerProvider оборачивает inner предохранителем
func NewBreakerProvider(inner Provider, cfg BreakerConfig, logger *slog.Logger) *BreakerProvider {
	if logger == nil {
		logger = slog.Default()
	}
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = defaultBreakerMaxFailures
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultBreakerTimeout
	}
	interval := cfg.Interval
	if interval == 0 {
		interval = defaultBreakerInterval
	}

	cb := gobreaker.NewCircuitBreaker[*types.ProviderResult](gobreaker.Settings{
		Name:        "websearch:" + inner.GetName(),
		MaxRequests: 1,
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String())
		},
		IsSuccessful: func(err error) bool {
			return !isBreakerFailure(err)
		},
	})

	return &BreakerProvider{
		inner:   inner,
		breaker: cb,
		logger:  logger,
	}
}

// isBreakerFailure учитываются только сбои удаленной стороны: сеть, таймаут, 429 и 5xx.
// Отмена вызывающей стороной и ошибки запроса предохранитель не размыкают.
func isBreakerFailure(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var statusErr *types.HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= 500
	}
	var parseErr *types.ParseError
	return !errors.As(err, &parseErr)
}

func (p *BreakerProvider) GetName() string {
	return p.inner.GetName()
}

func (p *BreakerProvider) GetDirectSearchURL(query, language string) string {
	return p.inner.GetDirectSearchURL(query, language)
}

// IsAvailable false, если провайдер не настроен или предохранитель разомкнут
func (p *BreakerProvider) IsAvailable() bool {
	return p.inner.IsAvailable() && p.breaker.State() != gobreaker.StateOpen
}

// CheckRateLimit передается вложенному провайдеру, если он это поддерживает
func (p *BreakerProvider) CheckRateLimit() bool {
	if checker, ok := p.inner.(types.RateLimitChecker); ok {
		return checker.CheckRateLimit()
	}
	return true
}

func (p *BreakerProvider) ValidateCredentials(ctx context.Context) error {
	return p.inner.ValidateCredentials(ctx)
}

func (p *BreakerProvider) GetDisplayName() string {
	if namer, ok := p.inner.(types.DisplayNamer); ok {
		return namer.GetDisplayName()
	}
	return p.inner.GetName()
}

// State текущее состояние предохранителя
func (p *BreakerProvider) State() string {
	return p.breaker.State().String()
}

// Search выполняет поиск через предохранитель
func (p *BreakerProvider) Search(ctx context.Context, query, language string) (*types.ProviderResult, error) {
	result, err := p.breaker.Execute(func() (*types.ProviderResult, error) {
		return p.inner.Search(ctx, query, language)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: provider %q circuit open: %v", types.ErrUnavailable, p.inner.GetName(), err)
		}
		return nil, err
	}
	return result, nil
}
