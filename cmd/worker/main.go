package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"estate-admin/internal/config"
	"estate-admin/internal/database"
	"estate-admin/internal/utils"
	"estate-admin/internal/worker"

	"github.com/hibiken/asynq"
)

func main() {
	logger := utils.GetLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Catalog keys live in the cache Redis, tasks in the asynq one
	redisClient, err := database.NewRedis(cfg)
	if err != nil {
		logger.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.AsynqRedisAddr,
			Password: cfg.AsynqRedisPassword,
			DB:       cfg.AsynqRedisDB,
		},
		asynq.Config{
			Concurrency: cfg.WorkerConcurrency,
			Queues:          worker.Queues,
			ShutdownTimeout: 30 * time.Second,
			Logger:          logger,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.WithField("task", task.Type()).Errorf("Error processing task: %v", err)
			}),
		},
	)

	mux := asynq.NewServeMux()
	worker.RegisterHandlers(mux, redisClient, logger)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		logger.Info("Gracefully shutting down worker...")
		srv.Shutdown()
	}()

	logger.Infof("Worker starting with concurrency: %d", cfg.WorkerConcurrency)
	if err := srv.Run(mux); err != nil {
		logger.Fatalf("Failed to start worker: %v", err)
	}

	logger.Info("Worker exited")
}
