package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/betslib/feedsync/internal/api/v1/handlers"
	"github.com/betslib/feedsync/internal/app"
	"github.com/betslib/feedsync/internal/config"
	"github.com/betslib/feedsync/internal/db"
	"github.com/betslib/feedsync/internal/db/repos"
	"github.com/betslib/feedsync/internal/feeds"
	"github.com/betslib/feedsync/internal/logger"
	"github.com/betslib/feedsync/internal/services"
)

func main() {
	_ = godotenv.Load()
	logger.InitializeAndConfigure()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	database, err := db.New(db.Options{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
	})
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	jobRepo := repos.NewJobRepository(database)
	integrationRepo := repos.NewIntegrationRepository(database)

	dispatcher := services.NewDispatcher(jobRepo)
	jobService := services.NewJobService(jobRepo)
	healthService := services.NewHealthService(integrationRepo, cfg.Providers, cfg.Features)
	quota := services.NewQuotaGuard(cfg.Quotas)

	// Domain packages register their job handlers here
	registry := services.HandlerRegistry{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go services.LaunchWorker(ctx, &wg, jobService, dispatcher, registry, cfg.WorkerPollInterval)

	var workers []*services.SyncWorker
	for _, provider := range cfg.Providers {
		if !provider.Enabled {
			logger.Infof("Provider %s is disabled, skipping worker", provider.Name)
			continue
		}
		syncer := feeds.NewHTTPSyncer(provider.Name, provider.FeedURL)
		workers = append(workers, services.NewSyncWorker(syncer, provider, healthService, quota, dispatcher))
	}
	manager := services.NewManager(workers...)
	manager.Start(ctx)

	jobHandler := handlers.NewJobHandler(jobService, dispatcher)
	integrationHandler := handlers.NewIntegrationHandler(healthService)
	server := app.NewApp(cfg.RateLimit, jobHandler, integrationHandler)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("Shutdown signal received")
		cancel()
		manager.Stop()
		wg.Wait()
		_ = server.Shutdown()
	}()

	if err := server.Listen(":" + cfg.Port); err != nil {
		logger.Fatalf("Server stopped: %v", err)
	}
	logger.Info("Server shut down cleanly")
}
