package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/gurkanbulca/taskboard/internal/config"
	"github.com/gurkanbulca/taskboard/internal/database"
	"github.com/gurkanbulca/taskboard/internal/logging"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(os.Stderr, cfg.Server.LogLevel, cfg.IsDevelopment())
	slog.SetDefault(logger)
	if envErr != nil {
		logger.Debug("no .env file found")
	}

	db, err := database.Open(database.Config{
		Driver:   cfg.Database.Driver,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
		Path:     cfg.Database.Path,
	})
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	logger.Info("Running database migrations...", "driver", cfg.Database.Driver)
	if err := database.Migrate(context.Background(), db); err != nil {
		return err
	}

	logger.Info("Migrations completed successfully")
	return nil
}
