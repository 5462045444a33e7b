package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"

	"storyboard-server/internal/ai"
	"storyboard-server/internal/compositor"
	"storyboard-server/internal/config"
	"storyboard-server/internal/export"
	"storyboard-server/internal/handler"
	"storyboard-server/internal/logger"
	"storyboard-server/internal/middleware"
	"storyboard-server/internal/service"
	"storyboard-server/internal/session"
)

func main() {
	cfg := config.Load()

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.LogLevel,
		Encoding: cfg.LogEncoding,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()
	zapLogger.Info("Logger initialized", zap.String("logLevel", cfg.LogLevel))

	textClient, err := ai.NewTextClient(cfg.AI)
	if err != nil {
		zapLogger.Fatal("Failed to create text client", zap.Error(err))
	}
	imageClient, err := ai.NewImageClient(cfg.AI)
	if err != nil {
		zapLogger.Fatal("Failed to create image client", zap.Error(err))
	}

	comp, err := compositor.New()
	if err != nil {
		zapLogger.Fatal("Failed to create compositor", zap.Error(err))
	}

	storyService := service.NewStoryService(textClient, cfg.AI.TextModel, cfg.AI.MaxIdeaTokens, zapLogger)
	imageService := service.NewImageService(imageClient, zapLogger)
	regenService := service.NewRegenerationService(textClient, imageClient, zapLogger)

	generator := session.NewGenerator(storyService, imageService, zapLogger)
	pipeline := export.NewPipeline(comp, func() (export.FrameEncoder, error) {
		return export.NewFFmpegEncoder(cfg.Export.FFmpegPath, zapLogger)
	}, zapLogger)

	hub := handler.NewHub(zapLogger)
	manager := session.NewManager(generator, regenService, pipeline, comp, hub, zapLogger)

	h := handler.NewStoryboardHandler(storyService, imageService, regenService, manager, hub, zapLogger)

	gin.SetMode(gin.ReleaseMode)
	if cfg.AppEnv == "development" {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(middleware.ZapLoggingMiddlewareForGin(zapLogger))
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Accept"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	h.RegisterRoutes(router)

	p := ginprometheus.NewPrometheus("gin")
	p.Use(router)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zapLogger.Info("Storyboard server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutdown signal received, stopping server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shut down", zap.Error(err))
	}

	zapLogger.Info("Server stopped")
}
