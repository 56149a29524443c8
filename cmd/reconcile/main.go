// Package main is the entry point for the reconcile CLI.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/ledger-recon/backend/config"
	"github.com/ledger-recon/backend/internal/cli"
	"github.com/ledger-recon/backend/internal/infra/cache"
	"github.com/ledger-recon/backend/internal/infra/db"
	"github.com/ledger-recon/backend/internal/infra/dependency"
	"github.com/ledger-recon/backend/internal/integration/entrypoint/controller"
)

func main() {
	_ = godotenv.Load()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := cli.Execute(ctx, open(config.Load()))
	stop()
	os.Exit(code)
}

func open(cfg *config.Config) cli.OpenFunc {
	return func(ctx context.Context) (*controller.ReconciliationUseCases, func(), error) {
		database, err := db.Open(&cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		closers := []func(){func() { _ = database.Close() }}
		cleanup := func() {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}

		if cfg.Database.AutoMigrate {
			if err := database.AutoMigrate(); err != nil {
				cleanup()
				return nil, nil, err
			}
		}

		var redisClient *redis.Client
		if cfg.Redis.URL != "" {
			if redisClient, err = cache.NewRedisClient(&cfg.Redis); err != nil {
				cleanup()
				return nil, nil, err
			}
			closers = append(closers, func() { _ = redisClient.Close() })
		}

		injector, err := dependency.NewInjector(cfg, database.DB(), dependency.Options{Redis: redisClient})
		if err != nil {
			cleanup()
			return nil, nil, err
		}

		return &injector.UseCases, cleanup, nil
	}
}
