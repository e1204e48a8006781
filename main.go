package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/Rishabh-k-Paliwal/astrologix/cmd"
	"github.com/Rishabh-k-Paliwal/astrologix/internal/data/repository"
	"github.com/Rishabh-k-Paliwal/astrologix/internal/gateway"
	"github.com/Rishabh-k-Paliwal/astrologix/internal/metrics"
	"github.com/Rishabh-k-Paliwal/astrologix/internal/storage"
	"github.com/Rishabh-k-Paliwal/astrologix/internal/notify"
	"github.com/Rishabh-k-Paliwal/astrologix/internal/task"
	"github.com/Rishabh-k-Paliwal/astrologix/internal/usecase"
	"github.com/Rishabh-k-Paliwal/astrologix/internal/video"
	"github.com/Rishabh-k-Paliwal/astrologix/internal/wire"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/catalog"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/database"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/schedule"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/utils"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Name, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	if config.Database.AutoMigrate {
		if err := database.Migrate(config.Database, logger); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
	}

	// Connect to database
	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	rdb, err := database.InitRedis(config.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Initialize all repositories
	repos := repository.NewRepository(db, rdb, logger)

	services := catalog.Default()
	if config.App.CatalogPath != "" {
		if services, err = catalog.Load(config.App.CatalogPath); err != nil {
			logger.Fatal("Failed to load service catalog", zap.Error(err), zap.String("path", config.App.CatalogPath))
		}
	}

	payments, err := gateway.New(config.Payment, logger)
	if err != nil {
		logger.Fatal("Failed to init payment gateway", zap.Error(err))
	}

	rooms, tokens, err := video.New(config.Video, logger)
	if err != nil {
		logger.Fatal("Failed to init video provider", zap.Error(err))
	}

	avatars, err := storage.New(config.Storage, logger)
	if err != nil {
		logger.Fatal("Failed to init avatar storage", zap.Error(err))
	}

	queue := asynq.NewClient(task.RedisOpt(config.Redis))
	defer queue.Close()

	m := metrics.New(prometheus.DefaultRegisterer)

	ext := usecase.External{
		Catalog:  services,
		Calendar: schedule.NewCalendar(config.Booking.Timezone, config.Booking.HorizonDays),
		Gateway:  payments,
		Video:    rooms,
		Tokens:   tokens,
		Tasks:    task.NewEnqueuer(queue, logger),
		Metrics:  m,
		Avatars:  avatars,
	}

	// Wire all dependencies
	app := wire.Wiring(repos, config, ext, prometheus.DefaultGatherer, logger)

	// Background jobs: emails and the pending-appointment expiry
	handlers := task.NewHandlers(repos, notify.NewSender(config.Email, logger), config, m, logger)
	worker, err := task.NewWorker(config, handlers, logger)
	if err != nil {
		logger.Fatal("Failed to init worker", zap.Error(err))
	}
	if err := worker.Start(); err != nil {
		logger.Fatal("Failed to start worker", zap.Error(err))
	}
	defer worker.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start server
	if err := cmd.APIServer(ctx, app.Router, config.App.Port, logger); err != nil {
		logger.Error("HTTP server stopped", zap.Error(err))
	}
}
