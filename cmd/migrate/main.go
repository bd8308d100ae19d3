package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
)

type options struct {
	cmd     string
	dir     string
	name    string
	version string
}

func main() {
	var opts options
	flag.StringVar(&opts.cmd, "cmd", "up", "migration command: up|down|status|version|create|validate")
	flag.StringVar(&opts.dir, "dir", migrate.DefaultDir, "goose migrations directory")
	flag.StringVar(&opts.name, "name", "", "migration name (for create)")
	flag.StringVar(&opts.version, "version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	// file-only commands never touch config or the database
	switch opts.cmd {
	case "create":
		if opts.name == "" {
			fail(errors.New("missing -name for create"))
		}
		path, err := migrate.CreateSQLMigration(opts.dir, opts.name, time.Now())
		if err != nil {
			fail(err)
		}
		fmt.Println("created migration:", path)
		return
	case "validate":
		if err := migrate.ValidateDir(opts.dir); err != nil {
			fail(err)
		}
		fmt.Println("migration validation passed")
		return
	}

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		fail(err)
	}
	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
		"cmd": opts.cmd,
		"dir": opts.dir,
	})

	if err := run(ctx, cfg, logg, opts); err != nil {
		logg.Error(ctx, "migration failed", err)
		os.Exit(1)
	}
	logg.Info(ctx, "migration command complete")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger, opts options) (err error) {
	if cfg.DB.Driver == config.DriverSQLite {
		return errors.New("goose migrations target postgres; sqlite databases are built with STOREFRONT_AUTO_MIGRATE")
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		return fmt.Errorf("sql handle: %w", err)
	}
	return execute(ctx, sqlDB, opts)
}

func execute(ctx context.Context, sqlDB *sql.DB, opts options) error {
	switch opts.cmd {
	case "up", "down", "status":
		return migrate.Run(ctx, sqlDB, opts.dir, opts.cmd)
	case "version":
		if opts.version == "" {
			return errors.New("missing -version for version command")
		}
		return migrate.MigrateToVersion(ctx, sqlDB, opts.dir, opts.version)
	default:
		return fmt.Errorf("unknown -cmd value %q", opts.cmd)
	}
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
