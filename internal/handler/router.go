package handler

import (
	"net/http"

	"github.com/SergeiKhy/qr-tracker/internal/middleware"
	"github.com/SergeiKhy/qr-tracker/internal/qr"
	"github.com/SergeiKhy/qr-tracker/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RouterConfig struct {
	QRCodeService service.QRCodeService
	ScanService   service.ScanService
	StatsService  service.StatsService
	AuthService   service.AuthService
	Renderer      qr.Renderer
	RateLimiter   *middleware.RateLimiter
	StaticDir     string
	Logger        *zap.Logger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	logger := cfg.Logger
	router.Use(func(c *gin.Context) {
		logger.Info("Request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("ip", c.ClientIP()),
		)
		c.Next()
	})

	if cfg.RateLimiter != nil {
		router.Use(cfg.RateLimiter.Middleware())
	}

	qrHandler := NewQRCodeHandler(cfg.QRCodeService, cfg.StatsService, cfg.Renderer, logger)
	scanHandler := NewScanHandler(cfg.ScanService, logger)
	authHandler := NewAuthHandler(cfg.AuthService, logger)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", HealthCheck)

		v1.POST("/auth/register", authHandler.Register)
		v1.POST("/auth/login", authHandler.Login)

		protected := v1.Group("")
		protected.Use(middleware.RequireAuth(cfg.AuthService))
		{
			protected.POST("/qrcodes", qrHandler.Create)
			protected.GET("/qrcodes", qrHandler.ListByOwner)
			protected.GET("/qrcodes/:id", qrHandler.GetByID)
			protected.PATCH("/qrcodes/:id", qrHandler.Update)
			protected.DELETE("/qrcodes/:id", qrHandler.Delete)
			protected.GET("/qrcodes/:id/stats", qrHandler.GetStats)
		}
	}

	// Public surface: the scan redirect and the rendered images.
	router.GET("/s/:id", scanHandler.Scan)
	router.GET("/qrcodes/:id/image", qrHandler.Image)
	if cfg.StaticDir != "" {
		router.Static("/static/qrcodes", cfg.StaticDir)
	}

	return router
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "qr-tracker",
	})
}
