package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alimgiray/gitprofile/internal/cache"
	"github.com/alimgiray/gitprofile/internal/handlers"
	"github.com/alimgiray/gitprofile/internal/middleware"
	"github.com/alimgiray/gitprofile/internal/services"
	"github.com/alimgiray/gitprofile/pkg/config"
	"github.com/alimgiray/gitprofile/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	logger.Init()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Viewer.Generated {
		logger.Warnf("VIEWER_SECRET is not set, using a random per-process secret")
	}

	gin.SetMode(cfg.Server.Mode)

	// Initialize dependencies
	responseCache, err := cache.New(cfg.Cache)
	if err != nil {
		logger.Fatalf("Failed to initialize response cache: %v", err)
	}
	defer responseCache.Close()

	githubService, err := services.NewGitHubService(cfg.GitHub, responseCache)
	if err != nil {
		logger.Fatalf("Failed to initialize GitHub client: %v", err)
	}
	languageService := services.NewLanguageService(githubService, cfg.GitHub.LanguageConcurrency)
	activityService := services.NewActivityService(time.Now)
	profileService := services.NewProfileService(githubService, languageService, activityService)
	widgetService := services.NewWidgetService(githubService, languageService)
	exportService := services.NewExportService()

	// Initialize router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.ViewerMiddleware(cfg.Viewer.Secret))

	setupRoutes(router, cfg, profileService, widgetService, exportService)

	// Setup server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		logger.Infof("Server starting on :%s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shut down: %v", err)
	}
	logger.Info("Server stopped")
}

func setupRoutes(router *gin.Engine, cfg *config.Config, profileService *services.ProfileService, widgetService *services.WidgetService, exportService *services.ExportService) {
	// Initialize handlers
	profileHandler := handlers.NewProfileHandler(profileService, exportService)
	widgetHandler := handlers.NewWidgetHandler(widgetService)
	healthHandler := handlers.NewHealthHandler()
	notFoundHandler := handlers.NewNotFoundHandler()

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	api := router.Group("/api")
	api.Use(limiter.Limit())
	{
		api.GET("/github/:username", profileHandler.Raw)
		api.GET("/profile/:username", profileHandler.Dashboard)
		api.GET("/profile/:username/export.xlsx", profileHandler.Export)
		api.GET("/widgets/:type", widgetHandler.Widget)
	}

	// Health check and metrics endpoints
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.NoRoute(notFoundHandler.NotFound)
}
