package main

import (
	"database/sql"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/mosaico/backend/internal/infrastructure/config"
	"github.com/mosaico/backend/internal/infrastructure/logger"
	"github.com/mosaico/backend/internal/infrastructure/migration"
	"github.com/mosaico/backend/migrations"
)

func main() {
	var (
		migrationsPath string
		logLevel       string
		confirm        bool
	)
	flag.StringVar(&migrationsPath, "path", "", "Migrations directory (default: the migrations bundled in the binary)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.BoolVar(&confirm, "confirm", false, "Confirm destructive commands (down)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	log, err := logger.New(logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load configuration", zap.Error(err))
	}
	if migrationsPath == "" {
		migrationsPath = cfg.Database.MigrationsPath
	}

	var source fs.FS = migrations.FS
	if migrationsPath != "" {
		source = os.DirFS(migrationsPath)
	}

	// commands that only touch files
	switch command {
	case "create":
		if len(args) < 2 {
			log.Fatal("migration name required: migrate create <name>")
		}
		dir := migrationsPath
		if dir == "" {
			dir = "migrations"
		}
		mf, err := migration.CreateMigration(dir, args[1])
		if err != nil {
			log.Fatal("failed to create migration", zap.Error(err))
		}
		log.Info("migration created",
			zap.Uint("version", mf.Version),
			zap.String("up_file", mf.UpPath),
			zap.String("down_file", mf.DownPath),
		)
		return
	case "list":
		entries, err := migration.ListMigrations(source)
		if err != nil {
			log.Fatal("failed to list migrations", zap.Error(err))
		}
		for _, e := range entries {
			fmt.Printf("%s  up=%t down=%t\n", e.BaseName(), e.HasUp, e.HasDown)
		}
		return
	case "check":
		if err := migration.CheckPairs(source); err != nil {
			log.Fatal("migration files are inconsistent", zap.Error(err))
		}
		log.Info("migration files are consistent")
		return
	}

	if cfg.Database.Driver != "postgres" {
		log.Fatal("migrations run against postgres only; sqlite schemas are created on startup",
			zap.String("driver", cfg.Database.Driver))
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatal("failed to reach database", zap.Error(err))
	}

	var m *migration.Migrator
	if migrationsPath != "" {
		m, err = migration.New(db, migrationsPath, log)
	} else {
		m, err = migration.NewFromFS(db, migrations.FS, log)
	}
	if err != nil {
		log.Fatal("failed to create migrator", zap.Error(err))
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("failed to close migrator", zap.Error(err))
		}
	}()

	if err := run(m, command, args[1:], confirm, log); err != nil {
		log.Fatal("migration command failed", zap.String("command", command), zap.Error(err))
	}
}

func run(m *migration.Migrator, command string, args []string, confirm bool, log *zap.Logger) error {
	switch command {
	case "up":
		return m.Up()
	case "down":
		if !confirm {
			return fmt.Errorf("down drops every table; rerun with -confirm")
		}
		return m.Down()
	case "step":
		n, err := intArg(args, "step")
		if err != nil {
			return err
		}
		return m.Steps(n)
	case "force":
		v, err := intArg(args, "force")
		if err != nil {
			return err
		}
		return m.Force(v)
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		log.Info("current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func intArg(args []string, command string) (int, error) {
	if len(args) < 1 {
		return 0, fmt.Errorf("%s requires a number argument", command)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("%s: invalid number %q: %w", command, args[0], err)
	}
	return n, nil
}

func printUsage() {
	fmt.Println(`Mosaico database migrations

Usage:
  migrate [flags] <command> [args]

Commands:
  up              Apply all pending migrations
  down            Roll back all migrations (requires -confirm before the command)
  step N          Apply N migrations (negative N rolls back)
  force V         Record version V without running it (fixes a dirty state)
  version         Show the applied version
  create NAME     Create the next numbered up/down pair
  list            List migration files
  check           Verify every version has an up and a down file

Flags:`)
	flag.PrintDefaults()
}
