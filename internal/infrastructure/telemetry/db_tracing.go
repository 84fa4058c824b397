package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool // include bound variables in spans; never in production
	SlowQueryThresh time.Duration
	DBSystem        string
}

type contextKey string

const queryStartKey contextKey = "otel_query_start"

// RegisterDBTracing installs otelgorm on db plus a callback that flags
// statements slower than the configured threshold.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBSystem)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	cb := db.Callback()
	registrations := []struct {
		before, after func() error
	}{
		{
			func() error { return cb.Create().Before("gorm:create").Register("slow_query:before_create", markStart) },
			func() error { return cb.Create().After("gorm:create").Register("slow_query:after_create", flagSlow(cfg.SlowQueryThresh)) },
		},
		{
			func() error { return cb.Query().Before("gorm:query").Register("slow_query:before_query", markStart) },
			func() error { return cb.Query().After("gorm:query").Register("slow_query:after_query", flagSlow(cfg.SlowQueryThresh)) },
		},
		{
			func() error { return cb.Update().Before("gorm:update").Register("slow_query:before_update", markStart) },
			func() error { return cb.Update().After("gorm:update").Register("slow_query:after_update", flagSlow(cfg.SlowQueryThresh)) },
		},
		{
			func() error { return cb.Raw().Before("gorm:raw").Register("slow_query:before_raw", markStart) },
			func() error { return cb.Raw().After("gorm:raw").Register("slow_query:after_raw", flagSlow(cfg.SlowQueryThresh)) },
		},
	}
	for _, r := range registrations {
		if err := r.before(); err != nil {
			return err
		}
		if err := r.after(); err != nil {
			return err
		}
	}

	logger.Info("database tracing enabled",
		zap.Bool("log_full_sql", cfg.LogFullSQL),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThresh),
	)
	return nil
}

func markStart(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey, time.Now())
	}
}

func flagSlow(threshold time.Duration) func(*gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			return
		}
		span := trace.SpanFromContext(ctx)
		if !span.IsRecording() {
			return
		}
		if db.Statement.Table != "" {
			span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
		}
		if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
			span.RecordError(db.Error)
		}
		start, ok := ctx.Value(queryStartKey).(time.Time)
		if !ok || threshold <= 0 {
			return
		}
		if elapsed := time.Since(start); elapsed > threshold {
			span.SetAttributes(
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
			)
		}
	}
}
