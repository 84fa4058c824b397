// Command server runs the Mosaico order API.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	apporder "github.com/mosaico/backend/internal/application/order"
	"github.com/mosaico/backend/internal/domain/order"
	"github.com/mosaico/backend/internal/domain/shared"
	"github.com/mosaico/backend/internal/infrastructure/cache"
	"github.com/mosaico/backend/internal/infrastructure/config"
	"github.com/mosaico/backend/internal/infrastructure/event"
	"github.com/mosaico/backend/internal/infrastructure/logger"
	"github.com/mosaico/backend/internal/infrastructure/metrics"
	"github.com/mosaico/backend/internal/infrastructure/migration"
	"github.com/mosaico/backend/internal/infrastructure/persistence"
	"github.com/mosaico/backend/internal/infrastructure/telemetry"
	"github.com/mosaico/backend/internal/interfaces/http/handler"
	"github.com/mosaico/backend/internal/interfaces/http/middleware"
	"github.com/mosaico/backend/internal/interfaces/http/router"
	"github.com/mosaico/backend/migrations"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting mosaico backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", version),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited with error", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
	log.Info("server exited gracefully")
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Warn("tracer shutdown failed", zap.Error(err))
		}
	}()

	db, err := openDatabase(cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	stores, err := cache.NewStores(ctx, cfg.Redis,
		cache.WithLogger(log.Named("cache")),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	)
	if err != nil {
		return fmt.Errorf("init stores: %w", err)
	}
	defer func() { _ = stores.Close() }()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New("mosaico")
	}

	bus := event.NewInMemoryEventBus(log.Named("events"))
	bus.Subscribe(event.NewAuditLogHandler(log))
	if m != nil {
		bus.Subscribe(m)
	}
	if err := bus.Start(ctx); err != nil {
		return fmt.Errorf("start event bus: %w", err)
	}
	defer func() { _ = bus.Stop(context.Background()) }()

	services, err := newServices(cfg, db, stores, bus, m, log)
	if err != nil {
		return err
	}

	engine := newEngine(cfg, log, m)
	system := handler.NewSystemHandler(version, map[string]handler.HealthCheck{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		"redis": stores.Ping,
	})
	opts := []router.RouterOption{router.WithHealth(system.Health)}
	if m != nil {
		opts = append(opts, router.WithMetrics(cfg.Metrics.Path, m.Handler()))
	}
	router.NewRouter(engine, opts...).
		Register(handler.NewOrderHandler(services.creation, services.lifecycle, services.queries)).
		Register(handler.NewPaymentHandler(services.payments)).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func openDatabase(cfg *config.Config, log *zap.Logger) (*persistence.Database, error) {
	gormLevel := "warn"
	if cfg.Telemetry.DBLogFullSQL {
		gormLevel = "debug"
	}
	db, err := persistence.NewDatabase(&cfg.Database, persistence.Options{
		Logger:        log.Named("gorm"),
		LogLevel:      gormLevel,
		SlowThreshold: cfg.Telemetry.DBSlowQueryThresh,
	})
	if err != nil {
		return nil, err
	}

	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        cfg.Database.Driver,
	}, log); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("register db tracing: %w", err)
	}

	if err := migrateSchema(cfg, db, log); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// migrateSchema brings the schema up to date. sqlite gets the schema from the
// models; postgres runs the embedded SQL migrations on their own connection,
// since the migrator closes the connection it is given.
func migrateSchema(cfg *config.Config, db *persistence.Database, log *zap.Logger) error {
	if cfg.Database.Driver == "sqlite" {
		if err := db.AutoMigrate(); err != nil {
			return fmt.Errorf("auto-migrate sqlite schema: %w", err)
		}
		return nil
	}

	sqlDB, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	m, err := migration.NewFromFS(sqlDB, migrations.FS, log.Named("migrate"))
	if err != nil {
		_ = sqlDB.Close()
		return fmt.Errorf("init migrator: %w", err)
	}
	defer func() { _ = m.Close() }()
	if err := m.Up(); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

type services struct {
	creation  *apporder.CreationService
	lifecycle *apporder.LifecycleService
	queries   *apporder.QueryService
	payments  *apporder.PaymentNotificationService
}

func newServices(
	cfg *config.Config,
	db *persistence.Database,
	stores *cache.Stores,
	bus shared.EventPublisher,
	m *metrics.Metrics,
	log *zap.Logger,
) (*services, error) {
	loc, err := cfg.Order.Location()
	if err != nil {
		return nil, fmt.Errorf("order timezone: %w", err)
	}

	scope := persistence.NewGormTransactionScope(db.DB)
	orders := persistence.NewGormOrderRepository(db.DB)
	if seq, ok := stores.Sequence.(*cache.RedisOrderSequence); ok {
		seq.SetFloor(orders, cfg.Order.NumberPrefix)
	}
	numbers := order.NewNumberGenerator(cfg.Order.NumberPrefix, loc, stores.Sequence)

	creation := apporder.NewCreationService(scope, numbers,
		apporder.FlatRateShipping{Rate: cfg.Order.ShippingFlatRate, FreeThreshold: cfg.Order.FreeShippingThreshold},
		apporder.PercentageTax{Rate: cfg.Order.TaxRate},
		apporder.CreationConfig{Currency: cfg.Order.Currency, MaxNumberAttempts: cfg.Order.NumberMaxAttempts},
		log.Named("order"),
	)
	lifecycle := apporder.NewLifecycleService(scope, log.Named("order"))
	creation.SetEventPublisher(bus)
	lifecycle.SetEventPublisher(bus)
	if m != nil {
		creation.SetRecorder(m)
		lifecycle.SetRecorder(m)
	}

	payments := apporder.NewPaymentNotificationService(orders, lifecycle, stores.Idempotency,
		shared.IdempotencyConfig{
			Enabled:  cfg.Payment.IdempotencyEnabled,
			TTL:      cfg.Payment.IdempotencyTTL,
			ClaimTTL: cfg.Payment.IdempotencyClaimTTL,
		},
		log.Named("payment"),
	)

	return &services{
		creation:  creation,
		lifecycle: lifecycle,
		queries:   apporder.NewQueryService(orders, persistence.NewGormMovementRepository(db.DB)),
		payments:  payments,
	}, nil
}

func newEngine(cfg *config.Config, log *zap.Logger, m *metrics.Metrics) *gin.Engine {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Warn("invalid trusted proxies, trusting none", zap.Error(err))
		_ = engine.SetTrustedProxies(nil)
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders

	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		middleware.Tracing(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		}),
		middleware.SpanAttributes(),
		logger.GinMiddleware(log),
		middleware.Secure(),
		middleware.CORSWithConfig(cors),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
		middleware.Timeout(cfg.HTTP.RequestTimeout),
	)
	if m != nil {
		engine.Use(m.GinMiddleware())
	}
	return engine
}
