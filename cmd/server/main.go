// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/gurkanbulca/taskboard/internal/api"
	"github.com/gurkanbulca/taskboard/internal/config"
	"github.com/gurkanbulca/taskboard/internal/database"
	"github.com/gurkanbulca/taskboard/internal/logging"
	"github.com/gurkanbulca/taskboard/internal/service"
	"github.com/gurkanbulca/taskboard/pkg/auth"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
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

	if err := cfg.ValidateConfig(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
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

	if cfg.Server.AutoMigrate {
		if err := database.Migrate(context.Background(), db); err != nil {
			_ = db.Close()
			return fmt.Errorf("run auto migration: %w", err)
		}
	}

	// Media storage
	osFs := afero.NewOsFs()
	if err := osFs.MkdirAll(cfg.Media.Root, 0o755); err != nil {
		_ = db.Close()
		return fmt.Errorf("create media root: %w", err)
	}
	media := afero.NewBasePathFs(osFs, cfg.Media.Root)

	tokenManager := auth.NewTokenManager(
		cfg.JWT.AccessSecret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenDuration,
		cfg.JWT.RefreshTokenDuration,
	)
	securityLogger := service.NewSecurityLogger(logger)

	taskService := service.NewTaskService(db, securityLogger, cfg.Tasks.PageSize)
	accountService := service.NewAccountService(db, tokenManager, auth.NewPasswordManager(), securityLogger)
	profileService := service.NewProfileService(db, media, cfg.Media.ProfileImageMax, logger)

	httpServer := api.New(api.Config{
		Location:  loc,
		Media:     media,
		Logger:    logger,
		AccessLog: os.Stdout,
	}, taskService, accountService, profileService, tokenManager)

	// gRPC carries only the health probe
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	if cfg.Server.EnableReflection {
		reflection.Register(grpcServer)
		logger.Info("gRPC reflection enabled (disable in production)")
	}

	listener, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.Server.GRPCPort))
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("listen on gRPC port: %w", err)
	}

	go func() {
		logger.Info("gRPC health server listening", "port", cfg.Server.GRPCPort)
		if err := grpcServer.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			logger.Error("gRPC server error", "error", err)
		}
	}()

	go func() {
		if err := httpServer.Listen(":" + cfg.Server.HTTPPort); err != nil {
			logger.Error("HTTP server error", "error", err)
			healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
		}
	}()
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.Server.ShutdownTimeout,
		shutdownOperations(httpServer, grpcServer, healthServer, db),
	)

	exitCode := <-wait
	logger.Info("server shutdown complete", "exit_code", exitCode)
	if exitCode != 0 {
		return fmt.Errorf("shutdown exited with code %d", exitCode)
	}
	return nil
}
