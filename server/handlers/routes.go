package handlers

import (
	"github.com/gin-gonic/gin"
)

// StreamPath путь потокового поиска, исключается из сжатия
const StreamPath = "/api/search/stream"

// Handlers набор обработчиков HTTP API
type Handlers struct {
	Search *WebSearchHandler
	Admin  *WebSearchAdminHandler
	Health *HealthHandler
}

// RegisterRoutes регистрирует маршруты API
func RegisterRoutes(router *gin.Engine, h Handlers) {
	router.GET("/health", h.Health.HandleHealth)

	api := router.Group("/api")
	search := api.Group("/search")
	{
		search.GET("", h.Search.HandleSearch)
		search.GET("/stream", h.Search.HandleSearchStream)
		search.GET("/export", h.Search.HandleSearchExport)
		search.GET("/direct-urls", h.Search.HandleDirectURLs)

		search.GET("/providers", h.Admin.HandleListProviders)
		search.POST("/providers/reload", h.Admin.HandleReloadProviders)

		search.GET("/cache/stats", h.Admin.HandleCacheStats)
		search.GET("/cache/export", h.Admin.HandleCacheExport)
		search.POST("/cache/import", h.Admin.HandleCacheImport)
		search.DELETE("/cache", h.Admin.HandleCacheClear)
		search.DELETE("/cache/:key", h.Admin.HandleCacheDelete)

		search.GET("/errors", h.Admin.HandleErrorStats)
		search.GET("/errors/history", h.Admin.HandleErrorHistory)
		search.DELETE("/errors", h.Admin.HandleErrorHistoryClear)
	}
}
