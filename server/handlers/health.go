package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"metasearch/websearch"
)

// Pinger проверка доступности хранилища
type Pinger interface {
	Ping() error
}

// HealthHandler проверка состояния сервиса
type HealthHandler struct {
	registry   *websearch.ProviderRegistry
	classifier *websearch.FailureClassifier
	db         Pinger
	startedAt  time.Time
}

// NewHealthHandler создает обработчик проверки состояния. db может быть nil.
func NewHealthHandler(aggregator *websearch.Aggregator, db Pinger) *HealthHandler {
	return &HealthHandler{
		registry:   aggregator.Registry(),
		classifier: aggregator.Classifier(),
		db:         db,
		startedAt:  time.Now(),
	}
}

// HandleHealth возвращает состояние сервиса.
// Недоступная БД дает 503, нездоровые провайдеры только помечают статус degraded.
// @Summary Проверка состояния
// @Tags system
// @Produce json
// @Router /health [get]
func (h *HealthHandler) HandleHealth(c *gin.Context) {
	status := "ok"
	code := http.StatusOK

	dbStatus := "disabled"
	if h.db != nil {
		dbStatus = "ok"
		if err := h.db.Ping(); err != nil {
			dbStatus = "error"
			status = "unavailable"
			code = http.StatusServiceUnavailable
		}
	}

	errStats := h.classifier.ErrorStats()
	if status == "ok" && !errStats.Healthy {
		status = "degraded"
	}

	c.JSON(code, gin.H{
		"status":              status,
		"database":            dbStatus,
		"providers":           h.registry.Len(),
		"unhealthy_providers": errStats.UnhealthyProviders,
		"uptime_seconds":      int64(time.Since(h.startedAt).Seconds()),
	})
}
