package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/imagekit/internal/config"
	infradatabase "github.com/yokitheyo/imagekit/internal/infrastructure/database"
	"github.com/yokitheyo/imagekit/internal/infrastructure/kafka"
	"github.com/yokitheyo/imagekit/internal/logger"
	"github.com/yokitheyo/imagekit/internal/repository/postgres"
	"github.com/yokitheyo/imagekit/internal/retry"
	"github.com/yokitheyo/imagekit/internal/worker"
)

func main() {
	zlog.Init()
	zlog.Logger.Info().Msg("Starting ImageKit Catalog Worker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := config.Load(os.Getenv("IMAGEKIT_CONFIG"))
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := config.ValidateCatalog(cfg); err != nil {
		zlog.Logger.Fatal().Err(err).Msg("catalog worker config is incomplete")
	}

	logCloser, err := logger.Setup(cfg.Logging)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to set up logging")
	}
	defer logCloser.Close()

	database, err := infradatabase.Connect(cfg.Database)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to connect to database after all retries")
	}
	defer infradatabase.Close(database)

	// Run migrations
	zlog.Logger.Info().Msg("Running database migrations...")
	if err := infradatabase.RunMigrations(database, cfg.Migrations.Path); err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Migrations failed")
	}

	repo := postgres.NewCatalogRepository(database, retry.DefaultStrategy)
	catalogWorker := worker.NewCatalogWorker(repo)

	// Kafka Consumer
	kafkaConsumer, err := kafka.NewConsumer(&cfg.Kafka, retry.KafkaStrategy, catalogWorker.HandleEvent)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Failed to initialize Kafka consumer")
	}
	defer kafkaConsumer.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := kafkaConsumer.Start(ctx); err != nil {
			zlog.Logger.Error().Err(err).Msg("Kafka consumer error")
		}
	}()

	<-ctx.Done()
	zlog.Logger.Info().Msg("Shutdown signal received")
	<-done

	zlog.Logger.Info().Msg("Worker shutdown complete")
}
