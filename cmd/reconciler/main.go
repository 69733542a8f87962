package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/villagereg/landregistry/cmd/reconciler/worker"
	"github.com/villagereg/landregistry/cmd/registry/repository"
	"github.com/villagereg/landregistry/common/bootstrap"
	rediscommon "github.com/villagereg/landregistry/common/redis"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bootstrap service components. The reconciler only needs the database
	// and the event stream; no queue, cache or HTTP surface.
	components, err := bootstrap.Setup(ctx, "reconciler",
		bootstrap.WithoutQueue(),
		bootstrap.WithoutCache(),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to setup service: %v\n", err)
		os.Exit(1)
	}
	defer components.Shutdown(ctx)

	components.Logger.Info("reconciler starting")

	// Redis is optional: without it only the periodic sweep runs
	var redisClient *rediscommon.Client
	if components.Config.Redis.Enabled {
		raw := redis.NewClient(&redis.Options{
			Addr:     components.Config.RedisAddr(),
			Password: components.Config.Redis.Password,
			DB:       components.Config.Redis.DB,
		})
		if err := raw.Ping(ctx).Err(); err != nil {
			components.Logger.Error("failed to ping Redis", "error", err)
			os.Exit(1)
		}
		redisClient = rediscommon.NewClient(raw, components.Logger)
		components.Logger.Info("connected to Redis")
	} else {
		components.Logger.Warn("Redis disabled, running sweep-only")
	}

	parcelRepo := repository.NewParcelRepository(components.DB)
	transferRepo := repository.NewTransferRepository(components.DB)

	reconciler := worker.NewReconciler(
		redisClient,
		parcelRepo,
		transferRepo,
		components.Logger,
		components.Config.Redis.Stream,
		components.Config.Ledger.ReconcileInterval,
	)

	errChan := make(chan error, 1)
	go func() {
		if err := reconciler.Start(ctx); err != nil && err != context.Canceled {
			errChan <- fmt.Errorf("reconciler error: %w", err)
		}
	}()

	components.Logger.Info("reconciler started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		components.Logger.Error("reconciler failed", "error", err)
		os.Exit(1)
	case sig := <-sigChan:
		components.Logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}

	components.Logger.Info("reconciler shutting down gracefully")
}
