package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/exousia/storefront/internal/api/handlers"
	"github.com/exousia/storefront/internal/api/middleware"
	"github.com/exousia/storefront/internal/config"
	"github.com/exousia/storefront/internal/repository"
)

// Dependencies are the collaborators the handlers need
type Dependencies struct {
	Repos      *repository.Repositories
	Payments   handlers.PaymentService
	Reconciler handlers.Reconciler
	Verifier   middleware.TokenVerifier
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, deps Dependencies, logger *zap.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(logger))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes
	v1 := router.Group("/v1")
	{
		// Gateway callbacks authenticate by signature, not by token
		v1.POST("/webhooks/paystack", handlers.HandlePaystackWebhook(cfg.Paystack.SecretKey, deps.Reconciler, logger))

		// Storefront routes (guests allowed, bearer token optional)
		shopRoutes := v1.Group("")
		shopRoutes.Use(middleware.AuthMiddleware(deps.Verifier, logger))
		{
			shopRoutes.POST("/checkout/quote", handlers.HandleQuote(logger))
			shopRoutes.POST("/payment/initialize", handlers.HandleInitializePayment(deps.Payments, logger))
			shopRoutes.GET("/payment/verify/:reference", handlers.HandleVerifyPayment(deps.Payments, logger))
			shopRoutes.GET("/orders/:id", handlers.HandleGetOrder(deps.Repos, logger))
		}

		// Admin routes
		adminRoutes := v1.Group("/admin")
		adminRoutes.Use(middleware.AdminMiddleware(cfg.Admin.APIKeyHash, logger))
		{
			adminRoutes.GET("/orders", handlers.HandleListOrders(deps.Repos, logger))
			adminRoutes.POST("/orders/:id/status", handlers.HandleUpdateOrderStatus(deps.Repos, logger))
		}
	}

	return router
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
