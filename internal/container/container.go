package container

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"metasearch/database"
	"metasearch/internal/config"
	"metasearch/internal/infrastructure/persistence"
	"metasearch/internal/infrastructure/tracer"
	"metasearch/websearch"
)

// Container контейнер зависимостей
// Управляет жизненным циклом всех компонентов приложения
type Container struct {
	mu sync.RWMutex

	// Конфигурация
	Config *config.Config
	Logger *slog.Logger

	// Сервисная БД
	ServiceDB     *database.ServiceDB
	WebSearchRepo *persistence.WebSearchRepository

	// Веб-поиск компоненты
	WebSearchConfigLoader *websearch.ConfigLoader
	WebSearchFactory      *websearch.ProviderFactory
	WebSearchRegistry     *websearch.ProviderRegistry
	WebSearchCache        *websearch.Cache
	WebSearchClassifier   *websearch.FailureClassifier
	WebSearchReliability  *websearch.ReliabilityManager
	WebSearchAggregator   *websearch.Aggregator

	tracerShutdown func(context.Context) error

	// Контекст для управления жизненным циклом
	ctx    context.Context
	cancel context.CancelFunc

	// Флаги инициализации
	initialized bool
}

// NewContainer создает новый контейнер зависимостей
func NewContainer(cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Container{
		Config: cfg,
		Logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Initialize инициализирует все зависимости контейнера
func (c *Container) Initialize() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return fmt.Errorf("container already initialized")
	}

	// Шаг 1: трассировка
	shutdown, err := tracer.Setup(c.ctx, c.Config.Tracing)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	c.tracerShutdown = shutdown

	// Шаг 2: сервисная БД
	if err := c.initDatabases(); err != nil {
		return fmt.Errorf("failed to initialize databases: %w", err)
	}

	// Шаг 3: веб-поиск
	if err := c.initWebSearch(); err != nil {
		return fmt.Errorf("failed to initialize web search: %w", err)
	}

	c.initialized = true
	c.Logger.Info("Container initialized successfully")
	return nil
}

// Shutdown корректно завершает работу контейнера
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized {
		return nil
	}

	c.cancel()

	if c.WebSearchCache != nil {
		c.WebSearchCache.Stop()
	}

	// Дожидаемся фоновых записей статистики до закрытия БД
	if c.WebSearchReliability != nil {
		c.WebSearchReliability.Wait()
	}

	if c.ServiceDB != nil {
		if err := c.ServiceDB.Close(); err != nil {
			c.Logger.Error("Error closing service database", "error", err)
		}
	}

	if c.tracerShutdown != nil {
		if err := c.tracerShutdown(ctx); err != nil {
			c.Logger.Error("Error shutting down tracer", "error", err)
		}
	}

	c.initialized = false
	c.Logger.Info("Container shut down successfully")
	return nil
}

// GetContext возвращает контекст контейнера
func (c *Container) GetContext() context.Context {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ctx
}

// IsInitialized проверяет, инициализирован ли контейнер
func (c *Container) IsInitialized() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.initialized
}
