package router

import (
	"estate-admin/internal/client"
	"estate-admin/internal/config"
	"estate-admin/internal/importer"
	"estate-admin/internal/repository"
	"estate-admin/internal/service"

	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Dependencies are the long-lived collaborators shared by all routes.
type Dependencies struct {
	DB          *sqlx.DB
	Redis       *redis.Client
	Imports     *service.ImportService
	Templates   *importer.TemplateGenerator
	asynqClient *asynq.Client
}

// BuildDependencies wires the import pipeline. db and redis may be nil, in
// which case history, snapshot caching and catalog refresh are disabled.
func BuildDependencies(db *sqlx.DB, redisClient *redis.Client, cfg *config.Config, logger *logrus.Logger) *Dependencies {
	backend := client.NewBackend(client.Options{
		BaseURL:         cfg.BackendURL,
		Token:           cfg.BackendToken,
		TemplateTimeout: cfg.TemplateTimeout,
		Logger:          logger,
	})

	deps := &Dependencies{
		DB:        db,
		Redis:     redisClient,
		Templates: importer.NewTemplateGenerator(backend),
	}

	// nil interfaces, not typed nil pointers, when a backing store is missing
	var (
		store   service.SessionStore
		cache   service.SnapshotCache
		refresh service.RefreshQueue
	)
	if db != nil {
		store = repository.NewImportSessionRepository(db)
	}
	if redisClient != nil {
		cache = service.NewRedisSnapshotCache(redisClient, cfg.ImportSnapshotTTL)
		deps.asynqClient = asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.AsynqRedisAddr,
			Password: cfg.AsynqRedisPassword,
			DB:       cfg.AsynqRedisDB,
		})
		refresh = service.NewAsynqRefreshQueue(deps.asynqClient)
	}

	deps.Imports = service.NewImportService(backend, store, cache, refresh, service.ImportOptions{
		MaxRows:             cfg.ImportMaxRows,
		MaxFileBytes:        int64(cfg.UploadMaxSize),
		UploadTimeout:       cfg.ImportUploadTimeout,
		LargeBatchThreshold: cfg.ImportLargeBatch,
		CoercionPolicy:      importer.ParseCoercionPolicy(cfg.ImportCoercionPolicy),
		SessionTTL:          cfg.ImportSessionTTL,
	}, logger)

	return deps
}

func (d *Dependencies) Close() error {
	if d.asynqClient != nil {
		return d.asynqClient.Close()
	}
	return nil
}
