package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig controls the GORM query spans
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool // bound variables end up in span attributes
	SlowQueryThresh time.Duration
	DBSystem        string
}

// DefaultDBTracingConfig is disabled, postgres, with a 200ms slow query mark
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		SlowQueryThresh: 200 * time.Millisecond,
		DBSystem:        "postgresql",
	}
}

// QueryTracer is a gorm.Plugin that installs otelgorm and then annotates each
// statement span with its table, row count, failure status and slow-query flag.
type QueryTracer struct {
	cfg    DBTracingConfig
	logger *zap.Logger
}

var _ gorm.Plugin = (*QueryTracer)(nil)

// NewQueryTracer returns a plugin for db.Use
func NewQueryTracer(cfg DBTracingConfig, logger *zap.Logger) *QueryTracer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryTracer{cfg: cfg, logger: logger}
}

// Name implements gorm.Plugin
func (q *QueryTracer) Name() string { return "ledger:query_tracer" }

// Initialize implements gorm.Plugin. A disabled tracer registers nothing.
func (q *QueryTracer) Initialize(db *gorm.DB) error {
	if !q.cfg.Enabled {
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(q.cfg.DBSystem)}
	if !q.cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	cb := db.Callback()
	for _, err := range []error{
		cb.Create().Before("gorm:create").Register("ledger:start_create", q.stamp),
		cb.Create().After("gorm:create").Register("ledger:annotate_create", q.annotate),
		cb.Query().Before("gorm:query").Register("ledger:start_query", q.stamp),
		cb.Query().After("gorm:query").Register("ledger:annotate_query", q.annotate),
		cb.Update().Before("gorm:update").Register("ledger:start_update", q.stamp),
		cb.Update().After("gorm:update").Register("ledger:annotate_update", q.annotate),
		cb.Delete().Before("gorm:delete").Register("ledger:start_delete", q.stamp),
		cb.Delete().After("gorm:delete").Register("ledger:annotate_delete", q.annotate),
		cb.Row().Before("gorm:row").Register("ledger:start_row", q.stamp),
		cb.Row().After("gorm:row").Register("ledger:annotate_row", q.annotate),
		cb.Raw().Before("gorm:raw").Register("ledger:start_raw", q.stamp),
		cb.Raw().After("gorm:raw").Register("ledger:annotate_raw", q.annotate),
	} {
		if err != nil {
			return err
		}
	}

	q.logger.Info("Database tracing enabled",
		zap.String("db_system", q.cfg.DBSystem),
		zap.Bool("log_full_sql", q.cfg.LogFullSQL),
		zap.Duration("slow_query_threshold", q.cfg.SlowQueryThresh),
	)
	return nil
}

type queryStartKey struct{}

func (q *QueryTracer) stamp(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey{}, time.Now())
	}
}

func (q *QueryTracer) annotate(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	attrs := []attribute.KeyValue{attribute.Int64("db.rows_affected", db.Statement.RowsAffected)}
	if db.Statement.Table != "" {
		attrs = append(attrs, attribute.String("db.sql.table", db.Statement.Table))
	}
	span.SetAttributes(attrs...)

	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.RecordError(db.Error)
		span.SetStatus(codes.Error, db.Error.Error())
	}

	started, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok || q.cfg.SlowQueryThresh <= 0 {
		return
	}
	if elapsed := time.Since(started); elapsed > q.cfg.SlowQueryThresh {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
	}
}
