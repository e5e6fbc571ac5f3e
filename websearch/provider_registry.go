package websearch

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"metasearch/websearch/types"
)

// ProviderRegistry явная карта провайдеров (идентификатор -> реализация).
// Порядок обхода детерминирован: по идентификатору.
type ProviderRegistry struct {
	providers map[string]types.SearchProviderInterface
	mu        sync.RWMutex
}

// RegisteredProvider снимок провайдера из реестра
type RegisteredProvider struct {
	ID       string
	Provider types.SearchProviderInterface
}

// NewProviderRegistry создает реестр из карты провайдеров
func NewProviderRegistry(providers map[string]types.SearchProviderInterface) *ProviderRegistry {
	registry := &ProviderRegistry{
		providers: make(map[string]types.SearchProviderInterface, len(providers)),
	}
	for id, p := range providers {
		if p != nil {
			registry.providers[id] = p
		}
	}
	return registry
}

// Register добавляет провайдера под его именем
func (pr *ProviderRegistry) Register(provider types.SearchProviderInterface) error {
	if provider == nil {
		return fmt.Errorf("provider is nil")
	}
	id := provider.GetName()
	if id == "" {
		return fmt.Errorf("provider name is empty")
	}

	pr.mu.Lock()
	defer pr.mu.Unlock()

	if _, exists := pr.providers[id]; exists {
		return fmt.Errorf("provider %s already registered", id)
	}
	pr.providers[id] = provider
	return nil
}

// Unregister удаляет провайдера
func (pr *ProviderRegistry) Unregister(id string) {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	delete(pr.providers, id)
}

// UpdateProviders заменяет список провайдеров целиком
func (pr *ProviderRegistry) UpdateProviders(providers map[string]types.SearchProviderInterface) {
	next := make(map[string]types.SearchProviderInterface, len(providers))
	for id, p := range providers {
		if p != nil {
			next[id] = p
		}
	}

	pr.mu.Lock()
	defer pr.mu.Unlock()
	pr.providers = next
}

// GetProviders возвращает копию карты провайдеров
func (pr *ProviderRegistry) GetProviders() map[string]types.SearchProviderInterface {
	pr.mu.RLock()
	defer pr.mu.RUnlock()

	result := make(map[string]types.SearchProviderInterface, len(pr.providers))
	for k, v := range pr.providers {
		result[k] = v
	}
	return result
}

// Get возвращает провайдера по идентификатору
func (pr *ProviderRegistry) Get(id string) (types.SearchProviderInterface, bool) {
	pr.mu.RLock()
	defer pr.mu.RUnlock()
	p, ok := pr.providers[id]
	return p, ok
}

// Snapshot возвращает провайдеров, упорядоченных по идентификатору
func (pr *ProviderRegistry) Snapshot() []RegisteredProvider {
	pr.mu.RLock()
	defer pr.mu.RUnlock()

	snapshot := make([]RegisteredProvider, 0, len(pr.providers))
	for id, p := range pr.providers {
		snapshot = append(snapshot, RegisteredProvider{ID: id, Provider: p})
	}
	sort.Slice(snapshot, func(i, j int) bool {
		return snapshot[i].ID < snapshot[j].ID
	})
	return snapshot
}

// Len возвращает количество зарегистрированных провайдеров
func (pr *ProviderRegistry) Len() int {
	pr.mu.RLock()
	defer pr.mu.RUnlock()
	return len(pr.providers)
}

// DisplayName возвращает отображаемое имя провайдера, если оно задано
func DisplayName(provider types.SearchProviderInterface) string {
	if namer, ok := provider.(types.DisplayNamer); ok {
		if name := namer.GetDisplayName(); name != "" {
			return name
		}
	}
	return provider.GetName()
}

// IsProviderAvailable проверяет необязательную возможность IsAvailable, по умолчанию true
func IsProviderAvailable(provider types.SearchProviderInterface) bool {
	if checker, ok := provider.(types.AvailabilityChecker); ok {
		return checker.IsAvailable()
	}
	return true
}

// CheckProviderRateLimit проверяет необязательную возможность CheckRateLimit, по умолчанию true
func CheckProviderRateLimit(provider types.SearchProviderInterface) bool {
	if checker, ok := provider.(types.RateLimitChecker); ok {
		return checker.CheckRateLimit()
	}
	return true
}

// ValidateProviderCredentials проверяет учетные данные, если провайдер это умеет
func ValidateProviderCredentials(ctx context.Context, provider types.SearchProviderInterface) error {
	if validator, ok := provider.(types.CredentialsValidator); ok {
		return validator.ValidateCredentials(ctx)
	}
	return nil
}
