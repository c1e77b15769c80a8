package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/thumbnail-service/internal/event"
	"github.com/weiawesome/thumbnail-service/internal/handler"
	"github.com/weiawesome/thumbnail-service/internal/processor"
	"github.com/weiawesome/thumbnail-service/pkg/jwt"
	"github.com/weiawesome/thumbnail-service/pkg/middleware"
)

type nopProcessor struct{}

func (nopProcessor) HandleNotification(context.Context, *event.Notification) ([]*processor.Result, error) {
	return nil, nil
}

func TestRouterHealthAndMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "thumbnailer_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	r := NewRouter(zerolog.Nop(), handler.NewHandler(nopProcessor{}), reg)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "thumbnailer_test_total 1")
}

func TestRouterWithoutMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(zerolog.Nop(), handler.NewHandler(nopProcessor{}), nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouterAuthGuardsWebhookOnly(t *testing.T) {
	gin.SetMode(gin.TestMode)
	manager, err := jwt.NewManager("s3cr3t", "thumbnail-service")
	require.NoError(t, err)
	r := NewRouter(zerolog.Nop(), handler.NewHandler(nopProcessor{}), nil,
		middleware.NewAuthMiddleware(manager).RequireAuth())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	body := `{"Records":[]}`
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(body)))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := manager.GenerateToken("minio", 0)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
