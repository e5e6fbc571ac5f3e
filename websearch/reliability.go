package websearch

import (
	"log/slog"
	"sync"
	"time"

	"metasearch/internal/infrastructure/persistence"
)

// StatsStore хранилище статистики провайдеров
type StatsStore interface {
	GetAllProviderStats() ([]persistence.ProviderStats, error)
	UpdateProviderStats(stats *persistence.ProviderStats) error
}

// ReliabilityManager ведет статистику надежности провайдеров.
// Если передано хранилище, статистика загружается из него и асинхронно сохраняется.
type ReliabilityManager struct {
	store  StatsStore
	stats  map[string]*ProviderStats
	logger *slog.Logger
	mu     sync.Mutex
	writes sync.WaitGroup
}

// NewReliabilityManager создает менеджер надежности. store может быть nil.
func NewReliabilityManager(store StatsStore, logger *slog.Logger) *ReliabilityManager {
	if logger == nil {
		logger = slog.Default()
	}
	rm := &ReliabilityManager{
		store:  store,
		stats:  make(map[string]*ProviderStats),
		logger: logger.With("component", "reliability_manager"),
	}

	if store != nil {
		if err := rm.loadStats(); err != nil {
			rm.logger.Warn("Failed to load provider stats", "error", err)
		}
	}

	return rm
}

// loadStats загружает статистику из хранилища
func (rm *ReliabilityManager) loadStats() error {
	rows, err := rm.store.GetAllProviderStats()
	if err != nil {
		return err
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	for _, s := range rows {
		rm.stats[s.ProviderName] = &ProviderStats{
			ProviderName:      s.ProviderName,
			RequestsTotal:     s.RequestsTotal,
			RequestsSuccess:   s.RequestsSuccess,
			RequestsFailed:    s.RequestsFailed,
			FailureRate:       s.FailureRate,
			AvgResponseTimeMs: s.AvgResponseTimeMs,
			LastSuccess:       s.LastSuccess,
			LastFailure:       s.LastFailure,
			LastError:         s.LastError,
			UpdatedAt:         s.UpdatedAt,
		}
	}
	return nil
}

// RecordSuccess записывает успешный запрос с временем ответа
func (rm *ReliabilityManager) RecordSuccess(providerName string, responseTime time.Duration) error {
	if rm == nil {
		return nil
	}

	rm.mu.Lock()
	stats := rm.getOrCreateStats(providerName)
	stats.RequestsTotal++
	stats.RequestsSuccess++
	now := time.Now()
	stats.LastSuccess = &now
	stats.UpdatedAt = now

	// скользящее среднее по успешным запросам
	stats.AvgResponseTimeMs = (stats.AvgResponseTimeMs*(stats.RequestsSuccess-1) + responseTime.Milliseconds()) / stats.RequestsSuccess
	stats.FailureRate = float64(stats.RequestsFailed) / float64(stats.RequestsTotal)
	snapshot := *stats
	rm.mu.Unlock()

	rm.persist(snapshot)
	return nil
}

// RecordFailure записывает неуспешный запрос
func (rm *ReliabilityManager) RecordFailure(providerName string, err error) error {
	if rm == nil {
		return nil
	}

	rm.mu.Lock()
	stats := rm.getOrCreateStats(providerName)
	stats.RequestsTotal++
	stats.RequestsFailed++
	now := time.Now()
	stats.LastFailure = &now
	stats.UpdatedAt = now
	if err != nil {
		stats.LastError = err.Error()
	}
	stats.FailureRate = float64(stats.RequestsFailed) / float64(stats.RequestsTotal)
	snapshot := *stats
	rm.mu.Unlock()

	rm.persist(snapshot)
	return nil
}

// GetStats возвращает копию статистики провайдера
func (rm *ReliabilityManager) GetStats(providerName string) *ProviderStats {
	if rm == nil {
		return nil
	}
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if stats, ok := rm.stats[providerName]; ok {
		c := *stats
		return &c
	}
	return &ProviderStats{ProviderName: providerName}
}

// GetAllStats возвращает копию всей статистики
func (rm *ReliabilityManager) GetAllStats() map[string]*ProviderStats {
	result := make(map[string]*ProviderStats)
	if rm == nil {
		return result
	}
	rm.mu.Lock()
	defer rm.mu.Unlock()

	for name, stats := range rm.stats {
		c := *stats
		result[name] = &c
	}
	return result
}

// Wait дожидается завершения фоновых записей в хранилище
func (rm *ReliabilityManager) Wait() {
	rm.writes.Wait()
}

// getOrCreateStats вызывается под rm.mu
func (rm *ReliabilityManager) getOrCreateStats(providerName string) *ProviderStats {
	if stats, exists := rm.stats[providerName]; exists {
		return stats
	}
	stats := &ProviderStats{
		ProviderName: providerName,
		UpdatedAt:    time.Now(),
	}
	rm.stats[providerName] = stats
	return stats
}

// persist асинхронно сохраняет снимок статистики, не блокируя основной поток
func (rm *ReliabilityManager) persist(stat ProviderStats) {
	if rm.store == nil {
		return
	}

	rm.writes.Add(1)
	go func() {
		defer rm.writes.Done()

		dbStats := &persistence.ProviderStats{
			ProviderName:      stat.ProviderName,
			RequestsTotal:     stat.RequestsTotal,
			RequestsSuccess:   stat.RequestsSuccess,
			RequestsFailed:    stat.RequestsFailed,
			FailureRate:       stat.FailureRate,
			AvgResponseTimeMs: stat.AvgResponseTimeMs,
			LastSuccess:       stat.LastSuccess,
			LastFailure:       stat.LastFailure,
			LastError:         stat.LastError,
			UpdatedAt:         stat.UpdatedAt,
		}
		if err := rm.store.UpdateProviderStats(dbStats); err != nil {
			rm.logger.Warn("Failed to update provider stats", "provider", stat.ProviderName, "error", err)
		}
	}()
}
