package server

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metasearch/internal/config"
	"metasearch/internal/container"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	t.Setenv("GIN_MODE", "test")

	cfg := config.GetDefaults()
	cfg.ServiceDatabasePath = ":memory:"
	// сетевые провайдеры в тестах не нужны
	cfg.WebSearch.Enabled = false

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c, err := container.NewContainer(cfg, logger)
	require.NoError(t, err)
	require.NoError(t, c.Initialize())

	srv, err := NewServer(cfg, c)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = srv.Shutdown(context.Background())
	})
	return srv
}

func TestNewServer_RequiresInitializedContainer(t *testing.T) {
	_, err := NewServer(nil, nil)
	assert.Error(t, err)

	cfg := config.GetDefaults()
	c, err := container.NewContainer(cfg, nil)
	require.NoError(t, err)
	_, err = NewServer(cfg, c)
	assert.Error(t, err)
}

func TestServerRoutes(t *testing.T) {
	srv := newTestServer(t)
	handler, err := srv.Handler()
	require.NoError(t, err)

	again, err := srv.Handler()
	require.NoError(t, err)
	assert.Same(t, handler, again)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/api/search?q=golang", http.StatusOK},
		{http.MethodGet, "/api/search", http.StatusBadRequest},
		{http.MethodGet, "/api/search/providers", http.StatusOK},
		{http.MethodPost, "/api/search/providers/reload", http.StatusOK},
		{http.MethodGet, "/api/search/cache/stats", http.StatusOK},
		{http.MethodGet, "/api/search/errors", http.StatusOK},
		{http.MethodGet, "/swagger/doc.json", http.StatusOK},
		{http.MethodGet, "/api/unknown", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.want, w.Code)
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		})
	}
}

func TestServerSwaggerDoc(t *testing.T) {
	handler, err := newTestServer(t).Handler()
	require.NoError(t, err)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Metasearch API")
	assert.Contains(t, w.Body.String(), "/search/stream")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "warn", "text")
	logger.Info("hidden")
	logger.Warn("visible")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "visible")

	buf.Reset()
	NewLogger(&buf, "DEBUG", "json").Debug("debug line")
	assert.Contains(t, buf.String(), `"msg":"debug line"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARNING"))
	assert.Equal(t, slog.LevelError, ParseLevel("ERROR"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}
