package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"metasearch/server/middleware"
	"metasearch/websearch"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// WebSearchHandler обработчик агрегированного поиска
type WebSearchHandler struct {
	client          websearch.SearchClientInterface
	registry        *websearch.ProviderRegistry
	defaultLanguage string
	// requestTimeout общий предел на один HTTP запрос поиска
	requestTimeout time.Duration
	logger         *slog.Logger
}

// WebSearchHandlerConfig параметры обработчика поиска
type WebSearchHandlerConfig struct {
	DefaultLanguage string
	RequestTimeout  time.Duration
	Logger          *slog.Logger
}

// NewWebSearchHandler создает обработчик поиска
func NewWebSearchHandler(client websearch.SearchClientInterface, registry *websearch.ProviderRegistry, cfg WebSearchHandlerConfig) *WebSearchHandler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 2 * time.Minute
	}
	return &WebSearchHandler{
		client:          client,
		registry:        registry,
		defaultLanguage: cfg.DefaultLanguage,
		requestTimeout:  cfg.RequestTimeout,
		logger:          cfg.Logger.With("component", "websearch_handler"),
	}
}

// DirectURL ссылка на поиск на сайте поисковика
type DirectURL struct {
	ProviderID  string `json:"provider_id"`
	DisplayName string `json:"display_name"`
	URL         string `json:"url"`
}

// HandleSearch выполняет поиск по всем провайдерам
// @Summary Агрегированный поиск
// @Description Рассылает запрос всем зарегистрированным провайдерам и возвращает итог по каждому
// @Tags search
// @Produce json
// @Param q query string true "Текст запроса"
// @Param lang query string false "Код языка BCP 47"
// @Success 200 {object} websearch.AggregatedResult
// @Failure 400 {object} ErrorResponse
// @Router /search [get]
func (h *WebSearchHandler) HandleSearch(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.requestTimeout)
	defer cancel()

	result, err := h.client.Aggregate(ctx, c.Query("q"), c.Query("lang"))
	if err != nil {
		SendAppError(c, err, "search failed")
		return
	}

	c.JSON(http.StatusOK, result)
}

// HandleSearchStream отдает итоги провайдеров по мере готовности через SSE.
// События: provider для каждого провайдера и result с полным итогом.
// @Summary Потоковый поиск
// @Tags search
// @Produce text/event-stream
// @Param q query string true "Текст запроса"
// @Param lang query string false "Код языка BCP 47"
// @Router /search/stream [get]
func (h *WebSearchHandler) HandleSearchStream(c *gin.Context) {
	text, lang := c.Query("q"), c.Query("lang")
	if _, err := websearch.NewQuery(text, lang, h.defaultLanguage, time.Now()); err != nil {
		SendAppError(c, err, "search failed")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.requestTimeout)
	defer cancel()

	type finished struct {
		result *websearch.AggregatedResult
		err    error
	}
	events := make(chan *websearch.ProviderOutcome, h.registry.Len())
	done := make(chan finished, 1)

	go func() {
		result, err := h.client.AggregateWithCallback(ctx, text, lang, func(_ string, outcome *websearch.ProviderOutcome) {
			select {
			case events <- outcome:
			case <-ctx.Done():
			}
		})
		done <- finished{result: result, err: err}
	}()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	for {
		select {
		case outcome := <-events:
			if !h.writeEvent(c, "provider", outcome) {
				return
			}
		case fin := <-done:
			// Итоги, пришедшие до завершения агрегации, отдаются раньше result
			for drained := false; !drained; {
				select {
				case outcome := <-events:
					if !h.writeEvent(c, "provider", outcome) {
						return
					}
				default:
					drained = true
				}
			}
			if fin.err != nil {
				h.writeEvent(c, "error", gin.H{"error": fin.err.Error()})
				return
			}
			h.writeEvent(c, "result", fin.result)
			return
		case <-c.Request.Context().Done():
			h.logger.Info("Client disconnected from search stream",
				"request_id", middleware.GetRequestIDFromGin(c))
			return
		}
	}
}

func (h *WebSearchHandler) writeEvent(c *gin.Context, event string, payload interface{}) bool {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Failed to encode stream event", "event", event, "error", err)
		return false
	}
	if _, err := fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event, data); err != nil {
		h.logger.Error("Error writing stream event",
			"event", event,
			"error", err,
			"request_id", middleware.GetRequestIDFromGin(c))
		return false
	}
	c.Writer.Flush()
	return true
}

// HandleSearchExport выполняет поиск и возвращает отчет XLSX
// @Summary Экспорт результатов поиска в XLSX
// @Tags search
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param q query string true "Текст запроса"
// @Param lang query string false "Код языка BCP 47"
// @Failure 400 {object} ErrorResponse
// @Router /search/export [get]
func (h *WebSearchHandler) HandleSearchExport(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.requestTimeout)
	defer cancel()

	result, err := h.client.Aggregate(ctx, c.Query("q"), c.Query("lang"))
	if err != nil {
		SendAppError(c, err, "search failed")
		return
	}

	var buf bytes.Buffer
	if err := websearch.WriteXLSX(&buf, result); err != nil {
		SendAppError(c, err, "failed to build report")
		return
	}

	filename := fmt.Sprintf("search_%s.xlsx", result.CorrelationID)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// HandleDirectURLs возвращает ссылки на поиск на сайтах поисковиков без сетевых запросов
// @Summary Прямые ссылки на поисковики
// @Tags search
// @Produce json
// @Param q query string true "Текст запроса"
// @Param lang query string false "Код языка BCP 47"
// @Success 200 {array} DirectURL
// @Failure 400 {object} ErrorResponse
// @Router /search/direct-urls [get]
func (h *WebSearchHandler) HandleDirectURLs(c *gin.Context) {
	query, err := websearch.NewQuery(c.Query("q"), c.Query("lang"), h.defaultLanguage, time.Now())
	if err != nil {
		SendAppError(c, err, "invalid query")
		return
	}

	snapshot := h.registry.Snapshot()
	urls := make([]DirectURL, 0, len(snapshot))
	for _, rp := range snapshot {
		urls = append(urls, DirectURL{
			ProviderID:  rp.ID,
			DisplayName: websearch.DisplayName(rp.Provider),
			URL:         rp.Provider.GetDirectSearchURL(query.Text, query.Language),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"query":    query.Text,
		"language": query.Language,
		"urls":     urls,
	})
}
