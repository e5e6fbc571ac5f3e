package websearch

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"metasearch/websearch/types"
)

const (
	DefaultCacheMaxSize         = 100
	DefaultCacheTTL             = 5 * time.Minute
	DefaultCacheCleanupInterval = 60 * time.Second
)

// CacheConfig конфигурация кэша
type CacheConfig struct {
	Enabled         bool          `json:"enabled" yaml:"enabled"`
	TTL             time.Duration `json:"ttl" yaml:"ttl"`
	CleanupInterval time.Duration `json:"cleanup_interval" yaml:"cleanup_interval"`
	MaxSize         int           `json:"max_size" yaml:"max_size"`

	Clock  clockwork.Clock `json:"-" yaml:"-"`
	Logger *slog.Logger    `json:"-" yaml:"-"`
}

// DefaultCacheConfig возвращает конфигурацию кэша по умолчанию
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		Enabled:         true,
		TTL:             DefaultCacheTTL,
		CleanupInterval: DefaultCacheCleanupInterval,
		MaxSize:         DefaultCacheMaxSize,
	}
}

// CacheEntry запись в кэше.
// Инварианты: LastAccessedAt >= CreatedAt, ExpiresAt > CreatedAt.
type CacheEntry struct {
	Key                  string
	Payload              *types.ProviderResult
	CreatedAt            time.Time
	LastAccessedAt       time.Time
	ExpiresAt            time.Time
	ApproximateSizeBytes int

	// порядковый номер последнего обращения, различает записи с одинаковым временем
	accessSeq uint64
}

// CacheStats статистика кэша
type CacheStats struct {
	TotalEntries         int     `json:"total_entries"`
	ValidEntries         int     `json:"valid_entries"`
	ExpiredEntries       int     `json:"expired_entries"`
	HitRate              float64 `json:"hit_rate"`
	CapacityUsagePercent float64 `json:"capacity_usage_percent"`
	Hits                 int64   `json:"hits"`
	Misses               int64   `json:"misses"`
	Evictions            int64   `json:"evictions"`
}

// CacheSnapshotEntry элемент выгрузки кэша
type CacheSnapshotEntry struct {
	Key       string                `json:"key"`
	Payload   *types.ProviderResult `json:"payload"`
	CreatedAt time.Time             `json:"created_at"`
	ExpiresAt time.Time             `json:"expires_at"`
}

// Cache ограниченный LRU-кэш результатов провайдеров с TTL и фоновой очисткой.
// Все структурные изменения выполняются под mutex.
type Cache struct {
	config *CacheConfig
	clock  clockwork.Clock
	logger *slog.Logger

	data  map[string]*CacheEntry
	mutex sync.RWMutex
	seq   uint64

	hits      int64
	misses    int64
	evictions int64

	lifecycleMu sync.Mutex
	stopCh      chan struct{}
	doneCh      chan struct{}
}

// NewCache создает новый кэш. Фоновая очистка запускается отдельно через Start.
func NewCache(config *CacheConfig) *Cache {
	if config == nil {
		config = DefaultCacheConfig()
	}
	if config.MaxSize <= 0 {
		config.MaxSize = DefaultCacheMaxSize
	}
	if config.TTL <= 0 {
		config.TTL = DefaultCacheTTL
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultCacheCleanupInterval
	}

	clock := config.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Cache{
		config: config,
		clock:  clock,
		logger: logger.With("component", "websearch_cache"),
		data:   make(map[string]*CacheEntry),
	}
}

// CacheKey вычисляет ключ кэша из провайдера, языка и нормализованного текста запроса
func CacheKey(providerID, language, text string) string {
	normalized := NormalizeQueryText(text)
	hash := sha256.Sum256([]byte(providerID + "\x00" + strings.ToLower(strings.TrimSpace(language)) + "\x00" + normalized))
	return hex.EncodeToString(hash[:])
}

// NormalizeQueryText приводит текст запроса к нижнему регистру и обрезает пробелы
func NormalizeQueryText(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// Start запускает периодическую очистку устаревших записей. Повторный вызов ничего не делает.
func (c *Cache) Start() {
	c.lifecycleMu.Lock()
	defer c.lifecycleMu.Unlock()

	if !c.config.Enabled || c.stopCh != nil {
		return
	}

	c.stopCh = make(chan struct{})
	c.doneCh = make(chan struct{})
	go c.runCleanup(c.stopCh, c.doneCh)
}

// Stop останавливает фоновую очистку и дожидается её завершения
func (c *Cache) Stop() {
	c.lifecycleMu.Lock()
	defer c.lifecycleMu.Unlock()

	if c.stopCh == nil {
		return
	}
	close(c.stopCh)
	<-c.doneCh
	c.stopCh = nil
	c.doneCh = nil
}

// Get возвращает результат из кэша и обновляет время последнего обращения
func (c *Cache) Get(key string) (*types.ProviderResult, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if !c.config.Enabled {
		c.misses++
		return nil, false
	}

	entry, exists := c.data[key]
	if !exists {
		c.misses++
		return nil, false
	}

	now := c.clock.Now()
	if !now.Before(entry.ExpiresAt) {
		delete(c.data, key)
		c.misses++
		return nil, false
	}

	if now.After(entry.LastAccessedAt) {
		entry.LastAccessedAt = now
	}
	c.seq++
	entry.accessSeq = c.seq
	c.hits++
	return entry.Payload, true
}

// Has проверяет наличие действительной записи без обновления времени обращения
func (c *Cache) Has(key string) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if !c.config.Enabled {
		return false
	}

	entry, exists := c.data[key]
	if !exists {
		return false
	}
	if !c.clock.Now().Before(entry.ExpiresAt) {
		delete(c.data, key)
		return false
	}
	return true
}

// Set сохраняет результат в кэш с TTL по умолчанию
func (c *Cache) Set(key string, payload *types.ProviderResult) {
	c.SetWithTTL(key, payload, 0)
}

// SetWithTTL сохраняет результат в кэш. ttl <= 0 означает TTL по умолчанию.
func (c *Cache) SetWithTTL(key string, payload *types.ProviderResult, ttl time.Duration) {
	if !c.config.Enabled || payload == nil {
		return
	}
	if ttl <= 0 {
		ttl = c.config.TTL
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.clock.Now()
	c.seq++

	if entry, exists := c.data[key]; exists {
		entry.Payload = payload
		entry.CreatedAt = now
		entry.LastAccessedAt = now
		entry.ExpiresAt = now.Add(ttl)
		entry.ApproximateSizeBytes = approximateSize(key, payload)
		entry.accessSeq = c.seq
		return
	}

	if len(c.data) >= c.config.MaxSize {
		c.evictLRU()
	}

	c.data[key] = &CacheEntry{
		Key:                  key,
		Payload:              payload,
		CreatedAt:            now,
		LastAccessedAt:       now,
		ExpiresAt:            now.Add(ttl),
		ApproximateSizeBytes: approximateSize(key, payload),
		accessSeq:            c.seq,
	}
}

// Delete удаляет запись из кэша
func (c *Cache) Delete(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.data, key)
}

// Clear очищает весь кэш и сбрасывает счетчики
func (c *Cache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data = make(map[string]*CacheEntry)
	c.hits = 0
	c.misses = 0
	c.evictions = 0
}

// Len возвращает количество записей, включая еще не удаленные устаревшие
func (c *Cache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.data)
}

// GetStats возвращает статистику кэша. Не меняет время обращения к записям.
func (c *Cache) GetStats() *CacheStats {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	now := c.clock.Now()
	stats := &CacheStats{
		TotalEntries: len(c.data),
		Hits:         c.hits,
		Misses:       c.misses,
		Evictions:    c.evictions,
	}
	for _, entry := range c.data {
		if now.Before(entry.ExpiresAt) {
			stats.ValidEntries++
		} else {
			stats.ExpiredEntries++
		}
	}
	if total := c.hits + c.misses; total > 0 {
		stats.HitRate = float64(c.hits) / float64(total)
	}
	stats.CapacityUsagePercent = float64(len(c.data)) / float64(c.config.MaxSize) * 100
	return stats
}

// Export возвращает снимок действительных записей
func (c *Cache) Export() []CacheSnapshotEntry {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	now := c.clock.Now()
	snapshot := make([]CacheSnapshotEntry, 0, len(c.data))
	for key, entry := range c.data {
		if !now.Before(entry.ExpiresAt) {
			continue
		}
		snapshot = append(snapshot, CacheSnapshotEntry{
			Key:       key,
			Payload:   entry.Payload.Clone(),
			CreatedAt: entry.CreatedAt,
			ExpiresAt: entry.ExpiresAt,
		})
	}
	return snapshot
}

// Import восстанавливает записи из снимка. Устаревшие записи молча пропускаются.
// Возвращает количество импортированных записей.
func (c *Cache) Import(snapshot []CacheSnapshotEntry) int {
	if !c.config.Enabled {
		return 0
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.clock.Now()
	imported := 0
	for _, item := range snapshot {
		if item.Key == "" || item.Payload == nil || !now.Before(item.ExpiresAt) {
			continue
		}
		createdAt := item.CreatedAt
		if createdAt.IsZero() || !createdAt.Before(item.ExpiresAt) || createdAt.After(now) {
			createdAt = now
		}

		if _, exists := c.data[item.Key]; !exists && len(c.data) >= c.config.MaxSize {
			c.evictLRU()
		}

		c.seq++
		c.data[item.Key] = &CacheEntry{
			Key:                  item.Key,
			Payload:              item.Payload.Clone(),
			CreatedAt:            createdAt,
			LastAccessedAt:       now,
			ExpiresAt:            item.ExpiresAt,
			ApproximateSizeBytes: approximateSize(item.Key, item.Payload),
			accessSeq:            c.seq,
		}
		imported++
	}
	return imported
}

// evictLRU удаляет запись с самым старым временем обращения.
// Вызывается под c.mutex.
func (c *Cache) evictLRU() {
	var lru *CacheEntry
	for _, entry := range c.data {
		if lru == nil || olderAccess(entry, lru) {
			lru = entry
		}
	}
	if lru == nil {
		return
	}

	delete(c.data, lru.Key)
	c.evictions++
	c.logger.Debug("Cache entry evicted", "key", lru.Key, "last_accessed_at", lru.LastAccessedAt)
}

// olderAccess упорядочивает записи по времени обращения, затем по номеру обращения, затем по ключу
func olderAccess(a, b *CacheEntry) bool {
	if !a.LastAccessedAt.Equal(b.LastAccessedAt) {
		return a.LastAccessedAt.Before(b.LastAccessedAt)
	}
	if a.accessSeq != b.accessSeq {
		return a.accessSeq < b.accessSeq
	}
	return a.Key < b.Key
}

// runCleanup периодически удаляет устаревшие записи
func (c *Cache) runCleanup(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := c.clock.NewTicker(c.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.Chan():
			if removed := c.Sweep(); removed > 0 {
				c.logger.Debug("Expired cache entries removed", "count", removed)
			}
		}
	}
}

// Sweep удаляет все устаревшие записи и возвращает их количество
func (c *Cache) Sweep() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.clock.Now()
	removed := 0
	for key, entry := range c.data {
		if !now.Before(entry.ExpiresAt) {
			delete(c.data, key)
			removed++
		}
	}
	return removed
}

// approximateSize грубая оценка занимаемой памяти
func approximateSize(key string, payload *types.ProviderResult) int {
	size := len(key) + len(payload.ProviderID) + len(payload.Query) + 64
	for _, item := range payload.Items {
		size += len(item.Title) + len(item.URL) + len(item.Snippet) + len(item.DisplayURL) + 16
		for k, v := range item.Extra {
			size += len(k) + len(v)
		}
	}
	return size
}
