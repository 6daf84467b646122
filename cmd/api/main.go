package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Couks/projeto-tfc-sub000/docs"
	"github.com/Couks/projeto-tfc-sub000/internal/config"
	"github.com/Couks/projeto-tfc-sub000/internal/handler"
	"github.com/Couks/projeto-tfc-sub000/internal/logger"
	"github.com/Couks/projeto-tfc-sub000/internal/queue/sqs"
	"github.com/Couks/projeto-tfc-sub000/internal/repository/clickhouse"
	"github.com/Couks/projeto-tfc-sub000/internal/repository/postgres"
	"github.com/Couks/projeto-tfc-sub000/internal/repository/sitecache"
	"github.com/Couks/projeto-tfc-sub000/internal/service"
)

// @title Real Estate Analytics API
// @version 1.0
// @description Event ingestion and analytics read API for multi-tenant real estate sites
// @host localhost:8080
// @BasePath /
// @schemes http https
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	log, err := logger.New(cfg.Service.Environment)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer func(log *zap.Logger) {
		err := log.Sync()
		if err != nil {
			log.Error("Failed to sync logger", zap.Error(err))
		}
	}(log)

	log.Info("Starting API service",
		zap.String("environment", cfg.Service.Environment),
		zap.String("port", cfg.Service.APIPort))

	// Configure Swagger host dynamically
	docs.SwaggerInfo.Host = cfg.Service.Host

	ctx := context.Background()

	// Initialize SQS client
	sqsClient, err := sqs.NewClient(ctx, cfg.SQS, log)
	if err != nil {
		log.Fatal("Failed to create SQS client", zap.Error(err))
	}

	// Initialize ClickHouse client
	clickhouseClient, err := clickhouse.NewClient(ctx, &cfg.ClickHouse, log)
	if err != nil {
		log.Fatal("Failed to create ClickHouse client", zap.Error(err))
	}
	defer func(clickhouseClient *clickhouse.Client) {
		if err := clickhouseClient.Close(); err != nil {
			log.Error("Failed to close ClickHouse client", zap.Error(err))
		}
	}(clickhouseClient)

	// Initialize site registry with Redis cache in front
	db, err := postgres.Connect(cfg.Postgres.DSN, log)
	if err != nil {
		log.Fatal("Failed to connect to Postgres", zap.Error(err))
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
	})
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error("Failed to close Redis client", zap.Error(err))
		}
	}()

	sites := sitecache.New(
		postgres.NewSiteRepository(db, log),
		rdb,
		time.Duration(cfg.Redis.SiteCacheTTLSec)*time.Second,
		log,
	)

	// Initialize repositories
	events := clickhouse.NewRepository(clickhouseClient, log)
	rollups := clickhouse.NewRollupRepository(clickhouseClient, log)

	// Initialize services
	ingestService := service.NewIngestService(sqsClient, sites, log)
	analyticsService := service.NewAnalyticsService(events, rollups, sites, log)
	rollupService := service.NewRollupService(rollups, log)

	// Initialize handler
	h := handler.NewHandler(ingestService, analyticsService, rollupService, log)

	addr := fmt.Sprintf(":%s", cfg.Service.APIPort)
	server := &http.Server{
		Addr:    addr,
		Handler: h,
	}

	go func() {
		log.Info("API server starting", zap.String("address", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start API server", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down API server gracefully")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("API server shutdown failed", zap.Error(err))
	}
}
