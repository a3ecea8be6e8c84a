package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/exousia/storefront/internal/api"
	"github.com/exousia/storefront/internal/config"
	"github.com/exousia/storefront/internal/identity"
	"github.com/exousia/storefront/internal/paystack"
	"github.com/exousia/storefront/internal/repository"
	"github.com/exousia/storefront/internal/repository/memory"
	"github.com/exousia/storefront/internal/repository/postgres"
	"github.com/exousia/storefront/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	var repos *repository.Repositories
	switch cfg.Database.Driver {
	case "memory":
		logger.Warn("Using in-memory order storage, orders are lost on restart")
		repos = memory.NewRepositories()
	default:
		var db *sql.DB
		db, err = postgres.NewConnection(cfg.Database)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()
		repos = postgres.NewRepositories(db, logger)
	}

	if cfg.Auth.JWTSecret == "" {
		logger.Warn("AUTH_JWT_SECRET is not set, every caller is treated as a guest")
	}

	reconciler := service.NewReconcileService(repos, logger)
	payments := service.NewPaymentService(cfg, paystack.NewClient(cfg.Paystack, logger), repos, reconciler, logger)

	router := api.NewRouter(cfg, api.Dependencies{
		Repos:      repos,
		Payments:   payments,
		Reconciler: reconciler,
		Verifier:   identity.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer),
	}, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Port), zap.String("environment", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shut down", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zcfg := zap.NewDevelopmentConfig()
	if cfg.Environment == "production" {
		zcfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	return zcfg.Build()
}
