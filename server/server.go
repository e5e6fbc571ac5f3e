package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"metasearch/internal/config"
	"metasearch/internal/container"
	"metasearch/server/handlers"
	"metasearch/server/middleware"
)

// Server HTTP сервер агрегированного поиска
type Server struct {
	config    *config.Config
	container *container.Container
	logger    *slog.Logger

	handlerOnce    sync.Once
	httpHandler    http.Handler
	handlerInitErr error

	mu         sync.Mutex
	httpServer *http.Server
}

// NewServer создает сервер поверх инициализированного контейнера
func NewServer(cfg *config.Config, c *container.Container) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if c == nil || !c.IsInitialized() {
		return nil, fmt.Errorf("container must be initialized")
	}

	return &Server{
		config:    cfg,
		container: c,
		logger:    c.Logger.With("component", "http_server"),
	}, nil
}

// Handler возвращает HTTP handler сервера, создавая его при первом обращении
func (s *Server) Handler() (http.Handler, error) {
	s.handlerOnce.Do(func() {
		s.httpHandler, s.handlerInitErr = s.buildHTTPHandler()
	})
	return s.httpHandler, s.handlerInitErr
}

func (s *Server) buildHTTPHandler() (http.Handler, error) {
	c := s.container
	if c.WebSearchAggregator == nil {
		return nil, fmt.Errorf("web search aggregator is not initialized")
	}

	// release для продакшена, GIN_MODE переопределяет
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.GinRequestIDMiddleware())
	router.Use(middleware.GinCORSMiddleware())
	router.Use(middleware.GinGzipMiddleware(handlers.StreamPath))
	router.Use(middleware.GinLoggerMiddleware(s.logger))
	router.Use(middleware.GinRecoveryMiddleware())

	handlers.RegisterSwaggerRoutes(router, "localhost:"+s.config.Port)

	var db handlers.Pinger
	if c.ServiceDB != nil {
		db = c.ServiceDB
	}

	handlers.RegisterRoutes(router, handlers.Handlers{
		Search: handlers.NewWebSearchHandler(c.WebSearchAggregator, c.WebSearchRegistry, handlers.WebSearchHandlerConfig{
			DefaultLanguage: s.config.WebSearch.DefaultLanguage,
			Logger:          s.logger,
		}),
		Admin:  handlers.NewWebSearchAdminHandler(c.WebSearchAggregator, c.WebSearchReliability, c),
		Health: handlers.NewHealthHandler(c.WebSearchAggregator, db),
	})

	return router, nil
}

// Start запускает HTTP сервер и блокируется до его остановки
func (s *Server) Start() error {
	handler, err := s.Handler()
	if err != nil {
		return err
	}

	// WriteTimeout увеличен для потокового поиска и экспорта
	srv := &http.Server{
		Addr:         ":" + s.config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	s.logger.Info("Starting HTTP server", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server on %s: %w", srv.Addr, err)
	}
	return nil
}

// Shutdown останавливает HTTP сервер и освобождает ресурсы контейнера
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()

	var errs []error
	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http server shutdown: %w", err))
		}
	}
	if err := s.container.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("container shutdown: %w", err))
	}
	s.logger.Info("HTTP server stopped")
	return errors.Join(errs...)
}
