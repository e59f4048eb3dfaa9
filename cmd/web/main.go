package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"estate-admin/internal/config"
	"estate-admin/internal/database"
	"estate-admin/internal/router"
	"estate-admin/internal/utils"
)

func main() {
	logger := utils.GetLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Database holds the import history only; imports still work without it
	db, err := database.NewMySQL(cfg)
	if err != nil {
		logger.Warnf("Failed to connect to database: %v", err)
		logger.Warn("Application will continue without import history")
		db = nil
	} else {
		defer db.Close()
	}

	redisClient, err := database.NewRedis(cfg)
	if err != nil {
		logger.Warnf("Failed to connect to Redis: %v", err)
		logger.Warn("Application will continue without snapshot caching and catalog refresh")
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	deps := router.BuildDependencies(db, redisClient, cfg, logger)
	defer deps.Close()

	app := router.NewApp(cfg, deps)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go deps.Imports.RunJanitor(ctx)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		logger.Info("Gracefully shutting down...")
		stop()
		_ = app.Shutdown()
	}()

	port := fmt.Sprintf(":%s", cfg.AppPort)
	logger.WithField("backend", cfg.BackendURL).Infof("Server starting on %s", port)
	if err := app.Listen(port); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}

	logger.Info("Server exited")
}
