package container

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/villagereg/landregistry/cmd/registry/repository"
	"github.com/villagereg/landregistry/cmd/registry/service"
	"github.com/villagereg/landregistry/common/bootstrap"
	"github.com/villagereg/landregistry/common/cache"
	rediscommon "github.com/villagereg/landregistry/common/redis"
)

// Container holds all initialized services and repositories (singleton pattern)
type Container struct {
	// Components
	Components *bootstrap.Components
	Redis      *rediscommon.Client

	// Repositories
	OwnerRepo    *repository.OwnerRepository
	ParcelRepo   *repository.ParcelRepository
	TransferRepo *repository.TransferRepository
	AuditRepo    *repository.AuditRepository
	LedgerRepo   *repository.LedgerRepository

	// Services
	OwnerService     *service.OwnerService
	ParcelService    *service.ParcelService
	TransferService  *service.TransferService
	DashboardService *service.DashboardService
	AuditWorker      *service.AuditWorker
}

// NewContainer initializes all services and repositories once
func NewContainer(ctx context.Context, components *bootstrap.Components) (*Container, error) {
	cfg := components.Config

	// Redis is optional: without it the event stream is skipped and the
	// memory cache from bootstrap stays in place.
	var redisClient *rediscommon.Client
	if cfg.Redis.Enabled {
		raw := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := raw.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		redisClient = rediscommon.NewClient(raw, components.Logger)

		if cfg.Cache.Backend == "redis" {
			components.Cache = cache.NewRedisCache(redisClient)
			components.Logger.Info("using redis cache backend", "addr", cfg.RedisAddr())
		}
	}

	// Initialize repositories
	ownerRepo := repository.NewOwnerRepository(components.DB)
	parcelRepo := repository.NewParcelRepository(components.DB)
	transferRepo := repository.NewTransferRepository(components.DB)
	auditRepo := repository.NewAuditRepository(components.DB)
	ledgerRepo := repository.NewLedgerRepository(components.DB, parcelRepo, transferRepo)

	// Initialize services (bottom-up: dependencies first)
	events := service.NewEventPublisher(components.Queue, redisClient, cfg.Redis.Stream, components.Logger)

	ownerService := service.NewOwnerService(ownerRepo, components.Logger)
	parcelService := service.NewParcelService(
		ledgerRepo,
		parcelRepo,
		transferRepo,
		ownerRepo,
		components.Cache,
		cfg,
		events,
		components.Logger,
	)
	transferService := service.NewTransferService(
		ledgerRepo,
		parcelRepo,
		transferRepo,
		ownerRepo,
		components.Cache,
		cfg,
		events,
		components.Logger,
	)
	dashboardService := service.NewDashboardService(parcelRepo, ownerRepo, transferRepo, components.Logger)

	auditWorker := service.NewAuditWorker(components.Queue, auditRepo, components.Logger)
	if err := auditWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start audit worker: %w", err)
	}

	return &Container{
		Components:       components,
		Redis:            redisClient,
		OwnerRepo:        ownerRepo,
		ParcelRepo:       parcelRepo,
		TransferRepo:     transferRepo,
		AuditRepo:        auditRepo,
		LedgerRepo:       ledgerRepo,
		OwnerService:     ownerService,
		ParcelService:    parcelService,
		TransferService:  transferService,
		DashboardService: dashboardService,
		AuditWorker:      auditWorker,
	}, nil
}
