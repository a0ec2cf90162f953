package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SergeiKhy/qr-tracker/internal/config"
	"github.com/SergeiKhy/qr-tracker/internal/geo"
	"github.com/SergeiKhy/qr-tracker/internal/handler"
	"github.com/SergeiKhy/qr-tracker/internal/middleware"
	"github.com/SergeiKhy/qr-tracker/internal/qr"
	"github.com/SergeiKhy/qr-tracker/internal/repository"
	"github.com/SergeiKhy/qr-tracker/internal/service"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	db, err := repository.NewPostgresDB(cfg.DB)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL")

	redis, err := repository.NewRedisClient(cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redis.Close()
	logger.Info("Connected to Redis")

	qrRepo := repository.NewQRCodeRepository(db)
	cacheRepo := repository.NewCacheRepository(redis)
	statsRepo := repository.NewStatsRepository(db)
	scanLogRepo := repository.NewScanLogRepository(db)
	userRepo := repository.NewUserRepository(db)

	renderer := qr.NewFileRenderer(cfg.QR.OutputDir, cfg.App.BaseURL, cfg.QR.ImageSize, cfg.QR.LogoScale, logger)
	geoLookup := geo.NewHTTPLookup(cfg.Geo.APIURL, cfg.Geo.Timeout, logger)

	qrService := service.NewQRCodeService(qrRepo, cacheRepo, renderer, cfg.App.BaseURL, logger)
	statsService := service.NewStatsService(qrRepo, statsRepo, scanLogRepo, logger)
	authService := service.NewAuthService(userRepo, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	scanRecorder := service.NewScanRecorder(statsRepo, scanLogRepo, geoLookup, logger)
	scanRecorder.Start()
	defer scanRecorder.Stop()

	scanService := service.NewScanService(qrRepo, cacheRepo, scanRecorder, logger)

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		BurstSize:         cfg.RateLimit.BurstSize,
		CleanupInterval:   time.Minute,
	})

	router := handler.NewRouter(handler.RouterConfig{
		QRCodeService: qrService,
		ScanService:   scanService,
		StatsService:  statsService,
		AuthService:   authService,
		Renderer:      renderer,
		RateLimiter:   rateLimiter,
		StaticDir:     cfg.QR.OutputDir,
		Logger:        logger,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
