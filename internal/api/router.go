package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/EgehanKilicarslan/sellerhub/backend-go/internal/database/service"
	"github.com/EgehanKilicarslan/sellerhub/backend-go/internal/handler"
	"github.com/EgehanKilicarslan/sellerhub/backend-go/internal/middleware"
)

// HealthCheck reports whether the service's dependencies are reachable.
type HealthCheck func() error

func SetupRouter(
	authHandler *handler.AuthHandler,
	productHandler *handler.ProductHandler,
	uploadHandler *handler.UploadHandler,
	authMiddleware *middleware.AuthMiddleware,
	authRateLimit gin.HandlerFunc,
	uploadDir string,
	health HealthCheck,
) *gin.Engine {
	r := gin.Default()
	r.SetTrustedProxies(nil)
	r.Use(middleware.CORS())

	// Public routes
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Hello backend")
	})

	r.GET("/api/health", func(c *gin.Context) {
		if health != nil {
			if err := health(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Uploaded files
	r.Static(service.UploadRoute, uploadDir)

	// Auth routes (Public)
	authGroup := r.Group("/api/auth")
	if authRateLimit != nil {
		authGroup.Use(authRateLimit)
	}
	{
		authGroup.GET("/test", func(c *gin.Context) {
			c.String(http.StatusOK, "Auth router OK")
		})
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
	}

	r.POST("/api/upload", uploadHandler.Upload)

	// Protected product routes
	products := r.Group("/api/products")
	products.Use(authMiddleware.RequireAuth())
	{
		products.GET("", productHandler.List)
		products.POST("", productHandler.Create)
		products.GET("/:id", productHandler.Get)
		products.PUT("/:id", productHandler.Update)
		products.DELETE("/:id", productHandler.Delete)
	}

	return r
}
