package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-backend/internal/cron"
	"github.com/angelmondragon/storefront-backend/internal/notifications"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/instance"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	pkgredis "github.com/angelmondragon/storefront-backend/pkg/redis"
)

const lockKeyFormat = "storefront:cron-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(context.Background(), "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	instanceID := instance.GetID()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": "cron-worker",
		"instance":    instanceID,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	var lock cron.Lock = cron.NoopLock{}
	if cfg.Redis.URL != "" || cfg.Redis.Address != "" {
		var redisClient *pkgredis.Client
		redisClient, err = pkgredis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		defer func() { err = multierr.Append(err, redisClient.Close()) }()
		lock, err = cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), instanceID, 0)
		if err != nil {
			return err
		}
	} else {
		logg.Warn(ctx, "redis not configured, running without a cron lock")
	}

	conn := dbClient.DB()
	emitter := outbox.NewService(outbox.NewRepository(conn), logg)
	ordersRepo := orders.NewRepository(conn)
	ordersSvc, err := orders.NewService(orders.ServiceParams{
		TX:     dbClient,
		Repo:   ordersRepo,
		Outbox: emitter,
		Sink:   notifications.NewLogSink(logg),
	})
	if err != nil {
		return err
	}

	expiry, err := cron.NewOrderExpiryJob(cron.OrderExpiryJobParams{
		Logger:    logg,
		Reader:    ordersRepo,
		Orders:    ordersSvc,
		TTL:       cfg.Cron.UnpaidOrderTTL,
		BatchSize: cfg.Cron.BatchSize,
	})
	if err != nil {
		return err
	}
	retention, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:        logg,
		DB:            dbClient,
		Repository:    outbox.NewRepository(conn),
		RetentionDays: cfg.Cron.OutboxRetentionDays,
	})
	if err != nil {
		return err
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(expiry, retention),
		Lock:     lock,
		Metrics:  metrics.NewJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		return err
	}

	logg.Info(ctx, "starting cron worker")
	err = service.Run(ctx)
	logg.Info(ctx, "cron worker shutting down")
	return err
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
