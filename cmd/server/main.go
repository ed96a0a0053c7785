package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"

	"github.com/rtg123uk/storyai/internal/app"
	"github.com/rtg123uk/storyai/internal/config"
	"github.com/rtg123uk/storyai/internal/handler"
	"github.com/rtg123uk/storyai/internal/logger"
	"github.com/rtg123uk/storyai/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()
	zap.ReplaceGlobals(zapLogger)

	zapLogger.Info("Starting story server",
		zap.String("env", cfg.AppEnv),
		zap.String("aiProvider", cfg.AI.Provider),
		zap.String("titleHistory", cfg.Story.TitleHistoryBackend),
		zap.String("store", cfg.Story.Store),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zapLogger); err != nil {
		zapLogger.Fatal("Server stopped with error", zap.Error(err))
	}
	zapLogger.Info("Server exiting")
}

func run(ctx context.Context, cfg *config.Config, zapLogger *zap.Logger) error {
	if cfg.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	verifier, err := session.NewJWTVerifier(cfg.Auth.JWTSecret, zapLogger)
	if err != nil {
		return err
	}

	a, err := app.New(ctx, cfg, app.Options{WithEvents: true, WatchPresets: true}, zapLogger)
	if err != nil {
		return fmt.Errorf("wire application: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			zapLogger.Error("Error releasing resources", zap.Error(err))
		}
	}()

	gin.SetMode(gin.ReleaseMode)
	if cfg.AppEnv == "development" {
		gin.SetMode(gin.DebugMode)
	}

	h := handler.NewStoryHandler(a.Service, verifier, cfg.CORS.AllowedOrigins, zapLogger)
	router := handler.NewRouter(h, cfg.CORS.AllowedOrigins, zapLogger)

	// registers GET /metrics with the default registry, routes first
	p := ginprometheus.NewPrometheus("gin")
	p.Use(router)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.AI.Timeout + 2*time.Minute, // eager generation with assets
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zapLogger.Info("Starting HTTP server", zap.Int("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	zapLogger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("HTTP server forced to shutdown", zap.Error(err))
	}
	return nil
}
