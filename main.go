package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"clothing-store/cmd"
	"clothing-store/internal/data/repository"
	"clothing-store/internal/wire"
	"clothing-store/pkg/broker"
	"clothing-store/pkg/cache"
	"clothing-store/pkg/database"
	"clothing-store/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	if config.Database.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			logger.Fatal("Failed to apply schema", zap.Error(err))
		}
	}

	redis, err := cache.InitRedis(config.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to redis", zap.Error(err))
	}
	defer redis.Close()

	events, err := broker.New(config.RabbitMQ, logger)
	if err != nil {
		logger.Fatal("Failed to connect to rabbitmq", zap.Error(err))
	}
	defer events.Close()

	repos := repository.NewRepository(db, logger,
		repository.WithTransactions(config.Database.TxEnabled,
			database.WithTxAttempts(config.Database.TxAttempts),
			database.WithTxTimeout(config.Database.TxTimeout),
		),
	)

	// Wire all dependencies
	app := wire.Wiring(repos, db, config, cache.NewTokenCache(redis), events, logger)

	if err := app.Service.User.EnsureAdmin(ctx, config.Admin); err != nil {
		logger.Fatal("Failed to bootstrap admin", zap.Error(err))
	}

	if err := cmd.APIServer(ctx, app.Router, config.App.Port, logger); err != nil {
		logger.Error("Server stopped", zap.Error(err))
		return
	}
	logger.Info("Server stopped")
}
