package websearch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"metasearch/internal/infrastructure/tracer"
	"metasearch/websearch/types"
)

const (
	DefaultProviderTimeout = 10 * time.Second
	DefaultMaxRetries      = 3
	DefaultLanguage        = "en"

	// NoRetries отключает повторы: провайдер вызывается ровно один раз
	NoRetries = -1
)

// AggregatorConfig конфигурация координатора агрегации
type AggregatorConfig struct {
	// ProviderTimeout таймаут одного вызова провайдера
	ProviderTimeout time.Duration
	// MaxRetries максимальное число повторов; 0 означает значение по умолчанию, NoRetries отключает повторы
	MaxRetries      int
	DefaultLanguage string
	// DedupeInFlight объединяет одновременные одинаковые запросы к провайдеру
	DedupeInFlight bool

	// OnProviderSettled вызывается для каждого провайдера во всех агрегациях
	OnProviderSettled SettledFunc

	Clock  clockwork.Clock
	Logger *slog.Logger
}

// DefaultAggregatorConfig возвращает конфигурацию по умолчанию
func DefaultAggregatorConfig() AggregatorConfig {
	return AggregatorConfig{
		ProviderTimeout: DefaultProviderTimeout,
		MaxRetries:      DefaultMaxRetries,
		DefaultLanguage: DefaultLanguage,
	}
}

// Aggregator рассылает запрос всем зарегистрированным провайдерам параллельно,
// дожидается итога по каждому (включая повторы) и собирает AggregatedResult.
// Сбой отдельного провайдера никогда не прерывает агрегацию.
type Aggregator struct {
	registry    *ProviderRegistry
	cache       *Cache
	classifier  *FailureClassifier
	reliability ReliabilityManagerInterface

	config     AggregatorConfig
	maxRetries int
	clock      clockwork.Clock
	logger     *slog.Logger

	inflight singleflight.Group
}

// retryState состояние повторов одного провайдера в рамках одного вызова
type retryState struct {
	providerID string
	attempt    int
}

// invocation итог разрешения провайдера без учета кэша
type invocation struct {
	data     *types.ProviderResult
	record   *types.ErrorRecord
	attempts int
}

// NewAggregator создает координатор. cache, classifier и reliability могут быть nil.
func NewAggregator(
	registry *ProviderRegistry,
	cache *Cache,
	classifier *FailureClassifier,
	reliability ReliabilityManagerInterface,
	config AggregatorConfig,
) *Aggregator {
	if registry == nil {
		registry = NewProviderRegistry(nil)
	}
	if config.ProviderTimeout <= 0 {
		config.ProviderTimeout = DefaultProviderTimeout
	}
	if config.DefaultLanguage == "" {
		config.DefaultLanguage = DefaultLanguage
	}
	if config.Clock == nil {
		config.Clock = clockwork.NewRealClock()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	maxRetries := config.MaxRetries
	switch {
	case maxRetries == 0:
		maxRetries = DefaultMaxRetries
	case maxRetries < 0:
		maxRetries = 0
	}

	if cache == nil {
		cache = NewCache(&CacheConfig{Enabled: false, Clock: config.Clock, Logger: config.Logger})
	}
	if classifier == nil {
		classifier = NewFailureClassifier(ClassifierConfig{Clock: config.Clock, Logger: config.Logger})
	}

	return &Aggregator{
		registry:    registry,
		cache:       cache,
		classifier:  classifier,
		reliability: reliability,
		config:      config,
		maxRetries:  maxRetries,
		clock:       config.Clock,
		logger:      config.Logger.With("component", "aggregator"),
	}
}

// Registry возвращает реестр провайдеров
func (a *Aggregator) Registry() *ProviderRegistry {
	return a.registry
}

// Cache возвращает кэш результатов
func (a *Aggregator) Cache() *Cache {
	return a.cache
}

// Classifier возвращает классификатор ошибок
func (a *Aggregator) Classifier() *FailureClassifier {
	return a.classifier
}

// Aggregate выполняет поиск во всех провайдерах.
// Ошибку возвращает только при некорректном вводе (ErrInvalidInput).
func (a *Aggregator) Aggregate(ctx context.Context, text, language string) (*types.AggregatedResult, error) {
	return a.AggregateWithCallback(ctx, text, language, nil)
}

// AggregateWithCallback как Aggregate, дополнительно вызывает onSettled ровно один раз
// для каждого провайдера с его итоговым результатом
func (a *Aggregator) AggregateWithCallback(
	ctx context.Context,
	text, language string,
	onSettled SettledFunc,
) (*types.AggregatedResult, error) {
	query, err := NewQuery(text, language, a.config.DefaultLanguage, a.clock.Now())
	if err != nil {
		return nil, err
	}

	ctx, span := tracer.StartSpan(ctx, "websearch.aggregate",
		tracer.StringAttr("correlation_id", query.CorrelationID),
		tracer.StringAttr("language", query.Language),
	)
	defer span.End()

	start := a.clock.Now()
	providers := a.registry.Snapshot()
	logger := a.logger.With(
		"correlation_id", query.CorrelationID,
		"query", query.Text,
		"language", query.Language,
	)
	logger.Debug("Starting aggregation", "providers", len(providers))

	outcomes := make([]*types.ProviderOutcome, len(providers))
	var notifyMu sync.Mutex
	var wg sync.WaitGroup

	for i, rp := range providers {
		wg.Add(1)
		go func(i int, rp RegisteredProvider) {
			defer wg.Done()

			outcome := a.resolve(ctx, query, rp, logger)
			outcomes[i] = outcome

			notifyMu.Lock()
			defer notifyMu.Unlock()
			a.notify(a.config.OnProviderSettled, outcome, logger)
			a.notify(onSettled, outcome, logger)
		}(i, rp)
	}

	wg.Wait()

	result := &types.AggregatedResult{
		Query:         query.Text,
		Language:      query.Language,
		CorrelationID: query.CorrelationID,
		PerProvider:   make(map[string]*types.ProviderOutcome, len(providers)),
		ProviderOrder: make([]string, 0, len(providers)),
	}
	result.Summary.Attempted = len(providers)
	for i, rp := range providers {
		outcome := outcomes[i]
		result.PerProvider[rp.ID] = outcome
		result.ProviderOrder = append(result.ProviderOrder, rp.ID)
		if outcome.Status == types.StatusSuccess {
			result.Summary.Succeeded++
			if outcome.Data != nil {
				result.Summary.TotalItems += outcome.Data.ItemCount
			}
		} else {
			result.Summary.Failed++
		}
	}
	result.TotalLatencyMs = a.clock.Since(start).Milliseconds()

	span.SetAttributes(
		tracer.IntAttr("succeeded", result.Summary.Succeeded),
		tracer.IntAttr("failed", result.Summary.Failed),
	)
	tracer.SetOK(span)

	logger.Info("Aggregation completed",
		"attempted", result.Summary.Attempted,
		"succeeded", result.Summary.Succeeded,
		"failed", result.Summary.Failed,
		"total_items", result.Summary.TotalItems,
		"duration_ms", result.TotalLatencyMs)

	return result, nil
}

// notify вызывает обработчик, не позволяя его панике нарушить агрегацию
func (a *Aggregator) notify(fn SettledFunc, outcome *types.ProviderOutcome, logger *slog.Logger) {
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Settled callback panicked", "provider", outcome.ProviderID, "panic", r)
		}
	}()
	view := *outcome
	fn(outcome.ProviderID, &view)
}

// resolve определяет итог одного провайдера: кэш, затем вызов с повторами
func (a *Aggregator) resolve(
	ctx context.Context,
	query types.Query,
	rp RegisteredProvider,
	logger *slog.Logger,
) *types.ProviderOutcome {
	outcome := &types.ProviderOutcome{
		ProviderID: rp.ID,
		DirectURL:  rp.Provider.GetDirectSearchURL(query.Text, query.Language),
	}

	key := CacheKey(rp.ID, query.Language, query.Text)
	if cached, ok := a.cache.Get(key); ok {
		logger.Debug("Cache hit", "provider", rp.ID)
		outcome.Status = types.StatusSuccess
		outcome.Data = cached.Clone()
		outcome.FromCache = true
		return outcome
	}

	var inv invocation
	if a.config.DedupeInFlight {
		// общий вызов не зависит от отмены любого из ожидающих
		ch := a.inflight.DoChan(key, func() (interface{}, error) {
			return a.invoke(context.WithoutCancel(ctx), query, rp, key, logger), nil
		})
		select {
		case res := <-ch:
			inv = res.Val.(invocation)
		case <-ctx.Done():
			record := a.classifier.Classify(ctx.Err(), rp.ID)
			logger.Warn("Stopped waiting for shared provider call",
				"provider", rp.ID,
				"error", ctx.Err())
			inv = invocation{record: &record, attempts: 1}
		}
	} else {
		inv = a.invoke(ctx, query, rp, key, logger)
	}

	outcome.Attempts = inv.attempts
	if inv.record != nil {
		outcome.Status = types.StatusError
		record := *inv.record
		outcome.Error = &record
		return outcome
	}
	outcome.Status = types.StatusSuccess
	outcome.Data = inv.data.Clone()
	return outcome
}

// invoke вызывает провайдера, повторяя попытки по решению классификатора
func (a *Aggregator) invoke(
	ctx context.Context,
	query types.Query,
	rp RegisteredProvider,
	key string,
	logger *slog.Logger,
) invocation {
	state := &retryState{providerID: rp.ID}
	a.classifier.SetDisplayName(rp.ID, DisplayName(rp.Provider))
	a.classifier.ResetAttempts(rp.ID)

	for {
		result, err := a.attempt(ctx, query, rp, state)
		if err == nil {
			a.classifier.ResetAttempts(rp.ID)
			a.cache.Set(key, result.Clone())
			logger.Debug("Provider succeeded",
				"provider", rp.ID,
				"attempt", state.attempt,
				"items", result.ItemCount,
				"duration_ms", result.LatencyMs)
			return invocation{data: result, attempts: state.attempt + 1}
		}

		record := a.classifier.Classify(err, rp.ID)
		if !record.Retryable || state.attempt >= a.maxRetries {
			logger.Warn("Provider failed",
				"provider", rp.ID,
				"attempt", state.attempt,
				"error_kind", string(record.Kind),
				"error", record.RawMessage)
			return invocation{record: &record, attempts: state.attempt + 1}
		}

		delay := a.classifier.BackoffDelay(state.attempt)
		state.attempt++
		a.classifier.RecordAttempt(rp.ID)
		logger.Debug("Scheduling provider retry",
			"provider", rp.ID,
			"attempt", state.attempt,
			"error_kind", string(record.Kind),
			"delay_ms", delay.Milliseconds())

		select {
		case <-a.clock.After(delay):
		case <-ctx.Done():
			record = a.classifier.Classify(ctx.Err(), rp.ID)
			logger.Warn("Provider retry cancelled",
				"provider", rp.ID,
				"attempt", state.attempt,
				"error", ctx.Err())
			return invocation{record: &record, attempts: state.attempt}
		}
	}
}

// attempt одна попытка вызова провайдера под собственным таймаутом
func (a *Aggregator) attempt(
	ctx context.Context,
	query types.Query,
	rp RegisteredProvider,
	state *retryState,
) (*types.ProviderResult, error) {
	provider := rp.Provider
	if !IsProviderAvailable(provider) {
		return nil, fmt.Errorf("%w: provider %s is not available", types.ErrUnavailable, rp.ID)
	}
	if !CheckProviderRateLimit(provider) {
		return nil, fmt.Errorf("%w: provider %s rate limit exceeded", types.ErrUnavailable, rp.ID)
	}

	ctx, span := tracer.StartSpan(ctx, "websearch.provider.search",
		tracer.StringAttr("provider", rp.ID),
		tracer.IntAttr("attempt", state.attempt),
	)
	defer span.End()

	callCtx, cancel := context.WithTimeout(ctx, a.config.ProviderTimeout)
	defer cancel()

	start := a.clock.Now()
	result, err := executeWithContext(callCtx, func() (*types.ProviderResult, error) {
		return provider.Search(callCtx, query.Text, query.Language)
	})
	elapsed := a.clock.Since(start)

	if err == nil && result == nil {
		err = types.NewParseError(fmt.Errorf("provider %s returned no result", rp.ID))
	}
	if err != nil {
		a.recordFailure(rp.ID, err)
		tracer.RecordError(span, err)
		return nil, err
	}

	a.recordSuccess(rp.ID, elapsed)
	tracer.SetOK(span)

	result = result.Clone()
	result.ProviderID = rp.ID
	result.Query = query.Text
	result.Status = types.StatusSuccess
	result.ItemCount = len(result.Items)
	result.LatencyMs = elapsed.Milliseconds()
	if result.Timestamp.IsZero() {
		result.Timestamp = a.clock.Now()
	}
	return result, nil
}

func (a *Aggregator) recordSuccess(providerID string, elapsed time.Duration) {
	if a.reliability == nil {
		return
	}
	if err := a.reliability.RecordSuccess(providerID, elapsed); err != nil {
		a.logger.Warn("Failed to record provider success", "provider", providerID, "error", err)
	}
}

func (a *Aggregator) recordFailure(providerID string, cause error) {
	if a.reliability == nil {
		return
	}
	if err := a.reliability.RecordFailure(providerID, cause); err != nil {
		a.logger.Warn("Failed to record provider failure", "provider", providerID, "error", err)
	}
}

// executeWithContext выполняет функцию с учетом контекста. Паника провайдера превращается в ошибку.
func executeWithContext(ctx context.Context, fn func() (*types.ProviderResult, error)) (*types.ProviderResult, error) {
	type callResult struct {
		result *types.ProviderResult
		err    error
	}
	done := make(chan callResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- callResult{err: fmt.Errorf("provider panicked: %v", r)}
			}
		}()
		result, err := fn()
		done <- callResult{result: result, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		return res.result, res.err
	}
}
