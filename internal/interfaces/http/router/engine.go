package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/propledger/backend/internal/infrastructure/config"
	"github.com/propledger/backend/internal/infrastructure/logger"
	"github.com/propledger/backend/internal/infrastructure/telemetry"
	"github.com/propledger/backend/internal/interfaces/http/dto"
	"github.com/propledger/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// Public paths served outside the API prefix
const (
	HealthPath  = "/health"
	MetricsPath = "/metrics"
)

// EngineConfig holds everything NewEngine wires into the global middleware chain
type EngineConfig struct {
	HTTP    config.HTTPConfig
	Tracing middleware.TracingConfig
	Logger  *zap.Logger

	// Metrics is optional; when set its middleware is installed and MetricsPath is served
	Metrics *telemetry.HTTPMetrics

	// Health is served at HealthPath when set
	Health gin.HandlerFunc
}

// NewEngine builds a gin engine with the global middleware stack:
// request ID, panic recovery, access log, tracing, metrics, security headers,
// CORS and the body size limit.
func NewEngine(cfg EngineConfig) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Tracing(cfg.Tracing)...)
	if cfg.Metrics != nil {
		engine.Use(cfg.Metrics.Middleware())
	}
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORS(middleware.CORSConfigFrom(cfg.HTTP)))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.Health != nil {
		engine.GET(HealthPath, cfg.Health)
	}
	if cfg.Metrics != nil {
		engine.GET(MetricsPath, gin.WrapH(cfg.Metrics.Handler()))
	}

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeNotFound, "Route not found", c.GetString(middleware.RequestIDKey)))
	})
	return engine
}
