package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "metasearch/server/errors"
	"metasearch/server/middleware"
	"metasearch/websearch"
)

// ProviderReloader перечитывает конфигурацию провайдеров
type ProviderReloader interface {
	ReloadProviders(ctx context.Context) (int, error)
}

// breakerStater провайдер, обернутый предохранителем
type breakerStater interface {
	State() string
}

// WebSearchAdminHandler административные операции: провайдеры, кэш, журнал ошибок
type WebSearchAdminHandler struct {
	registry    *websearch.ProviderRegistry
	cache       *websearch.Cache
	classifier  *websearch.FailureClassifier
	reliability websearch.ReliabilityManagerInterface
	reloader    ProviderReloader
}

// NewWebSearchAdminHandler создает административный обработчик. reliability и reloader могут быть nil.
func NewWebSearchAdminHandler(
	aggregator *websearch.Aggregator,
	reliability websearch.ReliabilityManagerInterface,
	reloader ProviderReloader,
) *WebSearchAdminHandler {
	return &WebSearchAdminHandler{
		registry:    aggregator.Registry(),
		cache:       aggregator.Cache(),
		classifier:  aggregator.Classifier(),
		reliability: reliability,
		reloader:    reloader,
	}
}

// ProviderInfo состояние провайдера. CredentialsError заполняется, если провайдер не настроен.
type ProviderInfo struct {
	ID               string                   `json:"id"`
	DisplayName      string                   `json:"display_name"`
	Available        bool                     `json:"available"`
	BreakerState     string                   `json:"breaker_state,omitempty"`
	CredentialsError string                   `json:"credentials_error,omitempty"`
	Stats            *websearch.ProviderStats `json:"stats,omitempty"`
}

// HandleListProviders возвращает список провайдеров
// @Summary Список провайдеров
// @Tags admin
// @Produce json
// @Success 200 {array} ProviderInfo
// @Router /search/providers [get]
func (h *WebSearchAdminHandler) HandleListProviders(c *gin.Context) {
	snapshot := h.registry.Snapshot()
	providers := make([]ProviderInfo, 0, len(snapshot))
	for _, rp := range snapshot {
		info := ProviderInfo{
			ID:          rp.ID,
			DisplayName: websearch.DisplayName(rp.Provider),
			Available:   websearch.IsProviderAvailable(rp.Provider),
		}
		if err := websearch.ValidateProviderCredentials(c.Request.Context(), rp.Provider); err != nil {
			info.CredentialsError = err.Error()
		}
		if b, ok := rp.Provider.(breakerStater); ok {
			info.BreakerState = b.State()
		}
		if h.reliability != nil {
			info.Stats = h.reliability.GetStats(rp.ID)
		}
		providers = append(providers, info)
	}

	c.JSON(http.StatusOK, gin.H{
		"providers": providers,
		"count":     len(providers),
	})
}

// HandleReloadProviders перечитывает конфигурацию провайдеров
// @Summary Перезагрузка провайдеров
// @Tags admin
// @Produce json
// @Failure 503 {object} ErrorResponse
// @Router /search/providers/reload [post]
func (h *WebSearchAdminHandler) HandleReloadProviders(c *gin.Context) {
	if h.reloader == nil {
		middleware.HandleGinError(c, apperrors.NewServiceUnavailableError("provider reload is not configured", nil))
		return
	}

	count, err := h.reloader.ReloadProviders(c.Request.Context())
	if err != nil {
		SendAppError(c, err, "failed to reload providers")
		return
	}

	c.JSON(http.StatusOK, gin.H{"reloaded": count})
}

// HandleCacheStats возвращает статистику кэша
// @Summary Статистика кэша
// @Tags cache
// @Produce json
// @Success 200 {object} websearch.CacheStats
// @Router /search/cache/stats [get]
func (h *WebSearchAdminHandler) HandleCacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.cache.GetStats())
}

// HandleCacheClear очищает кэш
// @Summary Очистка кэша
// @Tags cache
// @Router /search/cache [delete]
func (h *WebSearchAdminHandler) HandleCacheClear(c *gin.Context) {
	removed := h.cache.Len()
	h.cache.Clear()
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// HandleCacheDelete удаляет запись кэша по ключу
// @Summary Удаление записи кэша
// @Tags cache
// @Param key path string true "Ключ записи"
// @Failure 404 {object} ErrorResponse
// @Router /search/cache/{key} [delete]
func (h *WebSearchAdminHandler) HandleCacheDelete(c *gin.Context) {
	key := c.Param("key")
	if !h.cache.Has(key) {
		middleware.HandleGinError(c, apperrors.NewNotFoundError("cache entry not found", nil).WithContext("key="+key))
		return
	}
	h.cache.Delete(key)
	c.Status(http.StatusNoContent)
}

// HandleCacheExport выгружает действующие записи кэша
// @Summary Выгрузка кэша
// @Tags cache
// @Produce json
// @Success 200 {array} websearch.CacheSnapshotEntry
// @Router /search/cache/export [get]
func (h *WebSearchAdminHandler) HandleCacheExport(c *gin.Context) {
	c.JSON(http.StatusOK, h.cache.Export())
}

// HandleCacheImport загружает записи кэша из выгрузки
// @Summary Загрузка кэша
// @Tags cache
// @Accept json
// @Produce json
// @Param snapshot body []websearch.CacheSnapshotEntry true "Выгрузка"
// @Failure 400 {object} ErrorResponse
// @Router /search/cache/import [post]
func (h *WebSearchAdminHandler) HandleCacheImport(c *gin.Context) {
	var snapshot []websearch.CacheSnapshotEntry
	if err := c.ShouldBindJSON(&snapshot); err != nil {
		middleware.HandleGinError(c, apperrors.NewValidationError("invalid cache snapshot", err))
		return
	}

	imported := h.cache.Import(snapshot)
	c.JSON(http.StatusOK, gin.H{
		"received": len(snapshot),
		"imported": imported,
	})
}

// HandleErrorStats возвращает статистику ошибок провайдеров
// @Summary Статистика ошибок
// @Tags errors
// @Produce json
// @Success 200 {object} websearch.ErrorStats
// @Router /search/errors [get]
func (h *WebSearchAdminHandler) HandleErrorStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.classifier.ErrorStats())
}

// HandleErrorHistory возвращает журнал последних ошибок
// @Summary Журнал ошибок
// @Tags errors
// @Produce json
// @Router /search/errors/history [get]
func (h *WebSearchAdminHandler) HandleErrorHistory(c *gin.Context) {
	history := h.classifier.History()
	c.JSON(http.StatusOK, gin.H{
		"errors": history,
		"count":  len(history),
	})
}

// HandleErrorHistoryClear очищает журнал ошибок
// @Summary Очистка журнала ошибок
// @Tags errors
// @Router /search/errors [delete]
func (h *WebSearchAdminHandler) HandleErrorHistoryClear(c *gin.Context) {
	h.classifier.ClearHistory()
	c.Status(http.StatusNoContent)
}
