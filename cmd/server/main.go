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

	"github.com/anonto42/inkwell/backend/internal/handlers"
	"github.com/anonto42/inkwell/backend/internal/logger"
	"github.com/anonto42/inkwell/backend/internal/realtime"
	"github.com/anonto42/inkwell/backend/internal/repositories"
	"github.com/anonto42/inkwell/backend/internal/router"
	"github.com/anonto42/inkwell/backend/internal/validators"
	"github.com/anonto42/inkwell/backend/pkg/config"
	"github.com/anonto42/inkwell/backend/pkg/firebase"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database connections
	db, err := config.InitDB(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize databases: %w", err)
	}
	defer db.CloseDB()

	deps := router.Dependencies{
		Postgres:       db.Postgres,
		Articles:       repositories.NewMongoArticleRepository(db.MongoDB),
		JWTSecret:      cfg.JWTSecret,
		AdminTimeout:   cfg.AdminCheckTimeout,
		AllowedOrigins: cfg.AllowedOrigins(),
	}

	if cfg.FirebaseCredentialsPath != "" {
		firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
		if err != nil {
			return fmt.Errorf("failed to initialize Firebase: %w", err)
		}
		deps.Verifier = firebaseApp
	} else {
		logger.Log.Info("FIREBASE_CREDENTIALS_PATH not set, firebase login disabled")
	}

	hub := realtime.NewHub()
	go hub.Run(ctx)
	deps.Hub = hub

	if db.Redis != nil {
		relay := realtime.NewRedisRelay(db.Redis, hub, realtime.DefaultChannel)
		deps.Publisher = relay
		go func() {
			if err := relay.Run(ctx); err != nil {
				logger.ErrorWithFields("redis relay stopped", err)
			}
		}()
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handlers.HTTPErrorHandler
	e.Validator = validators.NewValidator()

	config.SetupMiddleware(e, cfg)

	dispatcher, err := router.SetupRoutes(e, deps)
	if err != nil {
		return err
	}

	metricsServer := &http.Server{
		Addr:              ":" + cfg.MetricsPort,
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Log.Info("metrics server listening", zap.String("port", cfg.MetricsPort))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorWithFields("metrics server failed", err)
		}
	}()

	serverErr := make(chan error, 1)
	go func() {
		logger.Log.Info("server listening", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.ErrorWithFields("server shutdown failed", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.ErrorWithFields("metrics shutdown failed", err)
	}
	dispatcher.Wait()
	return nil
}
