package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SAP-F-2025/offline-quiz/internal/config"
	"github.com/SAP-F-2025/offline-quiz/internal/handlers"
	"github.com/SAP-F-2025/offline-quiz/internal/services"
	"github.com/SAP-F-2025/offline-quiz/internal/store"
	"github.com/SAP-F-2025/offline-quiz/internal/utils"
	"github.com/SAP-F-2025/offline-quiz/internal/validator"
	"github.com/SAP-F-2025/offline-quiz/pkg"
	"github.com/gin-gonic/gin"
)

func main() {
	// ===== Configuration =====
	cfg, err := config.LoadConfig()
	if err != nil {
		utils.NewLogger(false, os.Stderr).LogError(err, "Failed to load configuration")
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.IsProduction(), os.Stdout)
	logger.Info("Starting quiz runner",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"store", cfg.StoreBackend)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// ===== Content store =====
	var contentStore store.Store
	switch cfg.StoreBackend {
	case config.StoreBackendRedis:
		client, err := pkg.NewRedisClient(cfg)
		if err != nil {
			logger.LogError(err, "Failed to connect to Redis", "url", cfg.RedisURL)
			os.Exit(1)
		}
		defer client.Close()
		contentStore = store.NewRedisStore(client, cfg.StoreNamespace, logger.Slog())
	default:
		contentStore = store.NewMemoryStore()
	}

	// ===== Events =====
	publisher, err := cfg.Events.CreateEventPublisher(logger.Slog())
	if err != nil {
		logger.LogError(err, "Failed to create event publisher")
		os.Exit(1)
	}
	defer publisher.Close()

	// ===== Session =====
	session := services.NewSession(contentStore, validator.New(), publisher, logger.Slog(), services.SessionOptions{
		MaxArchiveBytes: cfg.MaxArchiveBytes,
		TickInterval:    cfg.TickInterval,
		RSAKeyBits:      cfg.RSAKeyBits,
	})
	defer session.Close()

	restoreCtx, restoreCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := session.Restore(restoreCtx); err != nil {
		logger.Warn("Cached quiz package could not be restored", "error", err)
	}
	restoreCancel()

	// ===== Router =====
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.RequestIDMiddleware())
	router.Use(utils.LoggerMiddleware(logger))

	handlers.NewHandlerManager(session, cfg.MaxArchiveBytes, logger).SetupRoutes(router)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.LogError(err, "Server error")
			os.Exit(1)
		}
	}()

	// ===== Graceful shutdown =====
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("Shutting down gracefully", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.LogError(err, "HTTP server shutdown error")
	}

	logger.Info("Server stopped")
}
