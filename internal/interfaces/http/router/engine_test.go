package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/propledger/backend/internal/infrastructure/config"
	"github.com/propledger/backend/internal/infrastructure/telemetry"
	"github.com/propledger/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngine_PublicEndpoints(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := telemetry.NewHTTPMetrics("ledger_test", reg, reg)
	require.NoError(t, err)

	engine := NewEngine(EngineConfig{
		HTTP:    config.HTTPConfig{MaxBodySize: 1024},
		Metrics: metrics,
		Health:  func(c *gin.Context) { c.String(http.StatusOK, "healthy") },
	})
	NewRouter(engine).
		Register(NewDomainGroup("accounts", "/accounts").GET("", text("accounts"))).
		Setup()

	w := serve(engine, http.MethodGet, HealthPath)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", w.Body.String())
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	serve(engine, http.MethodGet, "/api/v1/accounts")
	w = serve(engine, http.MethodGet, MetricsPath)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ledger_test_")
}

func TestNewEngine_NoRoute(t *testing.T) {
	engine := NewEngine(EngineConfig{})

	w := serve(engine, http.MethodGet, "/api/v1/nowhere")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"NOT_FOUND"`)
	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, MetricsPath).Code)
}

func TestNewEngine_BodyLimit(t *testing.T) {
	engine := NewEngine(EngineConfig{HTTP: config.HTTPConfig{MaxBodySize: 16}})
	engine.POST("/echo", func(c *gin.Context) {
		var body map[string]any
		if err := c.ShouldBindJSON(&body); err != nil {
			if !c.IsAborted() {
				c.Status(http.StatusBadRequest)
			}
			return
		}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"notes":"`+strings.Repeat("x", 64)+`"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestNewEngine_RecoversPanics(t *testing.T) {
	engine := NewEngine(EngineConfig{})
	engine.GET("/boom", func(*gin.Context) { panic("boom") })

	w := serve(engine, http.MethodGet, "/boom")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
