package main

import (
	"context"

	"go.uber.org/zap"

	"dashboard/backend/internal/config"
	"dashboard/backend/internal/db"
	"dashboard/backend/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	database, dialect, err := db.Open(context.Background(), cfg)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	defer database.Close()

	if err := db.RunMigrations(database, dialect, cfg.MigrationsDir); err != nil {
		logger.Fatal("run migrations", zap.Error(err))
	}

	logger.Info("migrations applied successfully", zap.String("driver", cfg.DBDriver))
}
