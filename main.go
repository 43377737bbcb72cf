package main

import (
	"context"
	"log"

	"lesson-pix/cmd"
	"lesson-pix/internal/data/repository"
	"lesson-pix/internal/wire"
	"lesson-pix/pkg/database"
	"lesson-pix/pkg/qrcode"
	"lesson-pix/pkg/utils"

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

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.String("storage", config.App.StorageDriver),
		zap.Bool("debug", config.App.Debug),
	)

	// Storage
	var repos *repository.Repository
	switch config.App.StorageDriver {
	case "memory":
		logger.Warn("Using in-memory storage, charges are lost on restart")
		repos = repository.NewMemoryRepository(logger)
	default:
		db, err := database.InitDB(config.Database)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		if err := database.RunMigrations(context.Background(), db); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}

		logger.Info("Database connected successfully")
		repos = repository.NewRepository(db, logger)
	}

	renderer := qrcode.NewFileRenderer(config.Pix.QRDir, config.Pix.QRBaseURL)

	// Wire all dependencies
	app := wire.Wiring(repos, renderer, config, logger)

	if err := app.Sweeper.Start(config.Pix.SweepSchedule); err != nil {
		logger.Fatal("Failed to start expiry sweeper", zap.Error(err))
	}
	defer app.Sweeper.Stop()

	if err := cmd.APIServer(app.Router, config.App.Port, logger); err != nil {
		logger.Error("Server error", zap.Error(err))
	}
}
