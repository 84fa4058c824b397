package persistence

import (
	"fmt"
	"time"

	"github.com/mosaico/backend/internal/infrastructure/config"
	"github.com/mosaico/backend/internal/infrastructure/logger"
	"github.com/mosaico/backend/internal/infrastructure/persistence/models"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Database holds the database connection and provides methods for database operations
type Database struct {
	DB *gorm.DB
}

// Options tune the gorm session
type Options struct {
	Logger        *zap.Logger
	LogLevel      string // silent, error, warn, debug
	SlowThreshold time.Duration
}

// NewDatabase opens the configured driver. TranslateError is always on so
// unique violations surface as gorm.ErrDuplicatedKey on both drivers.
func NewDatabase(cfg *config.DatabaseConfig, opts Options) (*Database, error) {
	zapLogger := opts.Logger
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}
	gormCfg := &gorm.Config{
		Logger:                 logger.NewGormLogger(zapLogger, logger.GormLevel(opts.LogLevel), opts.SlowThreshold),
		SkipDefaultTransaction: true,
		TranslateError:         true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(sqliteDSN(cfg.SQLitePath))
	default:
		dialector = postgres.Open(cfg.DSN())
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if cfg.Driver == "sqlite" {
		// A single long-lived connection: sqlite serializes writers anyway,
		// and an in-memory database lives only as long as its connection.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
		sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{DB: db}, nil
}

func sqliteDSN(path string) string {
	if path == ":memory:" {
		return path
	}
	return path + "?_foreign_keys=on&_busy_timeout=5000"
}

// AutoMigrate creates the schema from the models. Used for sqlite, where the
// SQL migrations (written for postgres) do not apply.
func (d *Database) AutoMigrate() error {
	return d.DB.AutoMigrate(models.AllModels()...)
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks if the database connection is alive
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Ping()
}
