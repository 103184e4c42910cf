package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/imagekit/internal/config"
	httpHandler "github.com/yokitheyo/imagekit/internal/handler/http"
	"github.com/yokitheyo/imagekit/internal/handler/middleware"
	infradatabase "github.com/yokitheyo/imagekit/internal/infrastructure/database"
	"github.com/yokitheyo/imagekit/internal/infrastructure/kafka"
	"github.com/yokitheyo/imagekit/internal/infrastructure/storage"
	"github.com/yokitheyo/imagekit/internal/logger"
	"github.com/yokitheyo/imagekit/internal/repository/postgres"
	"github.com/yokitheyo/imagekit/internal/retry"
	"github.com/yokitheyo/imagekit/internal/usecase"
)

func main() {
	zlog.Init()
	zlog.Logger.Info().Msg("Starting ImageKit API Server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := config.Load(os.Getenv("IMAGEKIT_CONFIG"))
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to load config")
	}

	logCloser, err := logger.Setup(cfg.Logging)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to set up logging")
	}
	defer logCloser.Close()

	zlog.Logger.Info().
		Int("max_upload_size_mb", cfg.Server.MaxUploadSizeMB).
		Msg("Loaded server config")

	// Setup Storage
	storageManager, err := storage.New(&cfg.Storage, cfg.ImageKit.Disk)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Failed to initialize storage")
	}

	kit, err := usecase.New(cfg.ImageKit, cfg.Storage, storageManager)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Failed to initialize imagekit")
	}

	// Kafka Producer
	if cfg.Kafka.Enabled() {
		kafkaProducer := kafka.NewProducer(&cfg.Kafka, retry.KafkaStrategy)
		defer kafkaProducer.Close()
		if err := kafkaProducer.Subscribe(kit.Events()); err != nil {
			zlog.Logger.Fatal().Err(err).Msg("Failed to subscribe kafka producer to image events")
		}
	} else {
		zlog.Logger.Info().Msg("Kafka brokers not configured, image events stay in-process")
	}

	// Catalog database (optional)
	var database *dbpg.DB
	if cfg.Database.DSN != "" {
		database, err = infradatabase.Connect(cfg.Database)
		if err != nil {
			zlog.Logger.Fatal().Err(err).Msg("failed to connect to database after all retries")
		}
		zlog.Logger.Info().Msg("Running database migrations...")
		if err := infradatabase.RunMigrations(database, cfg.Migrations.Path); err != nil {
			zlog.Logger.Fatal().Err(err).Msg("Migrations failed")
		}
	}

	// Gin engine + middleware
	engine := ginext.New(cfg.Server.GinMode)
	engine.Use(
		middleware.ErrorHandlerMiddleware(),
		middleware.LoggerMiddleware(),
		middleware.CORSMiddleware(),
	)

	engine.GET("/health", func(c *ginext.Context) {
		c.JSON(http.StatusOK, ginext.H{"status": "ok", "disks": storageManager.Names()})
	})
	engine.GET("/metrics", func(c *ginext.Context) {
		promhttp.Handler().ServeHTTP(c.Writer, c.Request)
	})

	httpHandler.NewImageHandler(kit, cfg.Server.MaxUploadSizeMB).RegisterRoutes(engine)
	if database != nil {
		repo := postgres.NewCatalogRepository(database, retry.DefaultStrategy)
		httpHandler.NewCatalogHandler(repo).RegisterRoutes(engine)
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      engine,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSec) * time.Second,
	}

	go func() {
		zlog.Logger.Info().Str("addr", cfg.Server.Addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Logger.Fatal().Err(err).Msg("Failed to start API server")
		}
	}()

	<-ctx.Done()
	zlog.Logger.Info().Msg("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Logger.Error().Err(err).Msg("HTTP server shutdown failed")
	} else {
		zlog.Logger.Info().Msg("HTTP server stopped gracefully")
	}

	infradatabase.Close(database)

	zlog.Logger.Info().Msg("API shutdown complete")
}
