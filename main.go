package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"videotranscriber/config"
	"videotranscriber/internal/extractor"
	"videotranscriber/internal/handler"
	"videotranscriber/internal/model"
	"videotranscriber/internal/service"
	"videotranscriber/internal/storage"
	"videotranscriber/pkg/logger"
	"videotranscriber/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	if err := logger.Init(&cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting Video Transcriber Server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.String("extractor", cfg.Extractor.Binary),
	)

	storageManager := storage.NewManager(&cfg.Storage)
	if err := storageManager.Start(); err != nil {
		logger.Logger.Fatal("Failed to prepare scratch storage", zap.Error(err))
	}
	defer storageManager.Stop()

	runner := extractor.NewRunner(&cfg.Extractor)
	videoService := service.NewVideoService(runner)
	transcriptService := service.NewTranscriptService(runner, storageManager)
	downloadService := service.NewDownloadService(runner, storageManager, cfg.Downloads.EnabledQualities)

	quotaService := service.NewQuotaService(&cfg.Quota)
	defer quotaService.Stop()

	rateLimitService := service.NewRateLimitService(&cfg.RateLimit)
	defer rateLimitService.Stop()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.GinLogger())

	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimitMiddleware(rateLimitService))
		logger.Logger.Info("Rate limiting enabled", zap.Int("requests_per_minute", cfg.RateLimit.RequestsPerMinute))
	}

	var retrieval []gin.HandlerFunc
	if cfg.Quota.Enabled {
		retrieval = append(retrieval, middleware.QuotaCheckMiddleware(quotaService))
		logger.Logger.Info("Quota limiting enabled", zap.Int64("daily_limit_mb", cfg.Quota.DailyLimitMB), zap.Int("reset_hour", cfg.Quota.ResetHour))
	}

	handler.RegisterRoutes(router,
		handler.NewVideoHandler(videoService, downloadService),
		handler.NewTranscriptHandler(transcriptService),
		handler.NewDownloadHandler(downloadService, quotaService),
		retrieval...,
	)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	serveFrontend(router, &cfg.Frontend)

	// No write timeout: progress streams stay open for the whole download.
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Duration(cfg.Server.Timeout) * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Logger.Info("Server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Logger.Fatal("Server error", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Logger.Info("Server stopped")
}

// serveFrontend mounts the static UI when its directory exists
func serveFrontend(router *gin.Engine, cfg *model.FrontendConfig) {
	indexPath := filepath.Join(cfg.Dir, "index.html")
	if _, err := os.Stat(indexPath); err != nil {
		logger.Logger.Info("Frontend not found, serving API only", zap.String("dir", cfg.Dir))
		return
	}

	router.StaticFile("/", indexPath)
	staticPath := filepath.Join(cfg.Dir, "static")
	if _, err := os.Stat(staticPath); err == nil {
		router.Static("/static", staticPath)
	}
	logger.Logger.Info("Frontend enabled", zap.String("index", indexPath))
}
