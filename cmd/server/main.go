package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	financeapp "github.com/propledger/backend/internal/application/finance"
	identityapp "github.com/propledger/backend/internal/application/identity"
	"github.com/propledger/backend/internal/domain/finance"
	"github.com/propledger/backend/internal/infrastructure/auth"
	"github.com/propledger/backend/internal/infrastructure/cache"
	"github.com/propledger/backend/internal/infrastructure/config"
	"github.com/propledger/backend/internal/infrastructure/logger"
	"github.com/propledger/backend/internal/infrastructure/persistence"
	"github.com/propledger/backend/internal/infrastructure/persistence/models"
	"github.com/propledger/backend/internal/infrastructure/scheduler"
	"github.com/propledger/backend/internal/infrastructure/telemetry"
	"github.com/propledger/backend/internal/interfaces/http/dto"
	"github.com/propledger/backend/internal/interfaces/http/handler"
	"github.com/propledger/backend/internal/interfaces/http/middleware"
	"github.com/propledger/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// version is stamped at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	ctx := context.Background()

	// OTLP pipelines first so the logger can tee into the log bridge
	otelProviders, err := telemetry.Setup(ctx, telemetry.ExportConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
	})
	if err != nil {
		panic("Failed to initialize telemetry: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}, otelProviders.ZapCore(logger.ParseLevel(cfg.Log.Level)))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting property ledger",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := otelProviders.Shutdown(shutdownCtx); err != nil {
			log.Warn("Telemetry shutdown failed", zap.Error(err))
		}
	}()
	log.Info("Telemetry configured", zap.Bool("otlp_enabled", otelProviders.Enabled()))

	ledgerMetrics, err := telemetry.NewLedgerMetrics(otelProviders.Meter("propledger/ledger"))
	if err != nil {
		log.Warn("Ledger metrics unavailable, continuing without them", zap.Error(err))
		ledgerMetrics = telemetry.NewNoopLedgerMetrics()
	}

	finance.OverpaymentTolerance = cfg.Ledger.PaymentOverpayTolerance

	// Database
	dbOpts := []persistence.DatabaseOption{
		persistence.WithLogger(log.Named("gorm"), logger.MapGormLogLevel(cfg.Log.Level)),
	}
	if cfg.Telemetry.DBTraceEnabled {
		tracingCfg := telemetry.DefaultDBTracingConfig()
		tracingCfg.Enabled = true
		tracingCfg.LogFullSQL = cfg.Telemetry.DBLogFullSQL
		if cfg.Telemetry.DBSlowQueryThresh > 0 {
			tracingCfg.SlowQueryThresh = cfg.Telemetry.DBSlowQueryThresh
		}
		if cfg.Database.Driver == "sqlite" {
			tracingCfg.DBSystem = "sqlite"
		}
		dbOpts = append(dbOpts, persistence.WithTracing(tracingCfg))
	}
	if cfg.HTTP.MetricsEnabled {
		dbOpts = append(dbOpts, persistence.WithPrometheusStats(cfg.Database.DBName))
	}
	db, err := persistence.NewDatabase(&cfg.Database, dbOpts...)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	// Postgres is migrated out of band by cmd/migrate
	if cfg.Database.Driver == "sqlite" {
		if err := db.DB.AutoMigrate(models.All()...); err != nil {
			log.Fatal("Failed to migrate sqlite schema", zap.Error(err))
		}
	}

	// Document numbering
	sequences := cache.NewSequenceBackendFactory(cfg.Ledger, cfg.Redis, cache.WithLogger(log))
	repoOpts, closeSequences, err := sequences.RepositoryOptions(ctx, db.DB)
	if err != nil {
		log.Fatal("Failed to initialize sequence backend", zap.Error(err))
	}
	defer func() {
		if err := closeSequences(); err != nil {
			log.Error("Error closing sequence backend", zap.Error(err))
		}
	}()

	// Application services
	services := financeapp.NewServices(financeapp.Dependencies{
		Repos:   persistence.NewGormLedgerRepositories(db.DB, repoOpts...),
		Scope:   persistence.NewGormLedgerTransactionScope(db.DB, repoOpts...),
		Metrics: ledgerMetrics,
		Logger:  log.Named("ledger"),
	})
	userService := identityapp.NewUserService(
		persistence.NewGormAccountOpeningRepositories(db.DB),
		persistence.NewGormAccountOpeningScope(db.DB),
		log.Named("users"),
	)

	if seeded, err := services.ChargeTypes.SeedDefaults(ctx); err != nil {
		log.Warn("Failed to seed default charge types", zap.Error(err))
	} else if seeded > 0 {
		log.Info("Seeded default charge types", zap.Int("count", seeded))
	}

	if cfg.Scheduler.Enabled {
		cron, err := scheduler.NewBillingCron(scheduler.BillingCronConfigFrom(cfg.Scheduler), services.BillingPeriods, services.Invoices, log)
		if err != nil {
			log.Fatal("Invalid scheduler configuration", zap.Error(err))
		}
		if err := cron.Start(ctx); err != nil {
			log.Fatal("Failed to start billing cron", zap.Error(err))
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), cfg.Scheduler.JobTimeout)
			defer cancel()
			if err := cron.Stop(stopCtx); err != nil {
				log.Error("Error stopping billing cron", zap.Error(err))
			}
		}()
	}

	money, err := dto.NewMoneyFormatter(cfg.Ledger.Currency, language.English)
	if err != nil {
		log.Fatal("Invalid ledger currency", zap.String("currency", cfg.Ledger.Currency), zap.Error(err))
	}

	// HTTP
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	var httpMetrics *telemetry.HTTPMetrics
	if cfg.HTTP.MetricsEnabled {
		httpMetrics, err = telemetry.NewHTTPMetrics("propledger", prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
		if err != nil {
			log.Fatal("Failed to register HTTP metrics", zap.Error(err))
		}
	}

	system := handler.NewSystemHandler(cfg.App.Name, version).
		AddCheck("database", db.Ping)

	engine := router.NewEngine(router.EngineConfig{
		HTTP:    cfg.HTTP,
		Logger:  log,
		Metrics: httpMetrics,
		Health:  system.Health,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		},
	})

	jwtService := auth.NewJWTService(cfg.JWT)
	r := router.NewRouter(engine,
		router.WithAPIVersion("v1"),
		router.WithAPIMiddleware(middleware.Authenticate(middleware.AuthConfig{
			Validator: jwtService,
			SkipPaths: []string{"/api/v1/system/ping"},
			Logger:    log,
		})),
	)
	r.Register(handler.LedgerRegistrars(services, userService, money)...).
		Register(system)
	r.Setup()
	log.Info("Routes registered", zap.Int("count", len(r.Routes())))

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exited gracefully")
}
