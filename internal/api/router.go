package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/dropshipapi/internal/api/handlers"
	"github.com/jafarshop/dropshipapi/internal/api/middleware"
	"github.com/jafarshop/dropshipapi/internal/config"
	"github.com/jafarshop/dropshipapi/internal/repository"
	"github.com/jafarshop/dropshipapi/internal/supplierclient"
)

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, repos *repository.Repositories, client supplierclient.Client, logger *zap.Logger) *gin.Engine {
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
	v1.Use(middleware.AuthMiddleware(repos, logger))
	{
		// Suppliers
		suppliers := v1.Group("/suppliers")
		suppliers.Use(middleware.RequirePermission("suppliers"))
		{
			suppliers.POST("", handlers.HandleCreateSupplier(repos, logger))
			suppliers.GET("", handlers.HandleListSuppliers(repos, logger))
			suppliers.GET("/:id", handlers.HandleGetSupplier(repos, logger))
			suppliers.PATCH("/:id", handlers.HandleUpdateSupplier(repos, logger))
			suppliers.DELETE("/:id", handlers.HandleDeleteSupplier(repos, logger))
			suppliers.GET("/:id/integrations", handlers.HandleListSupplierIntegrations(repos, logger))
			suppliers.GET("/:id/products", handlers.HandleListSupplierProducts(repos, logger))
		}

		// Integrations
		integrations := v1.Group("/integrations")
		integrations.Use(middleware.RequirePermission("integrations"))
		{
			integrations.POST("", handlers.HandleCreateIntegration(repos, client, logger))
			integrations.GET("/:id", handlers.HandleGetIntegration(repos, logger))
			integrations.DELETE("/:id", handlers.HandleDeleteIntegration(repos, client, logger))
			integrations.POST("/:id/enable", handlers.HandleEnableIntegration(repos, client, logger))
			integrations.POST("/:id/disable", handlers.HandleDisableIntegration(repos, client, logger))
			integrations.POST("/:id/test", handlers.HandleTestIntegration(repos, client, logger))
			integrations.POST("/:id/reset-failures", handlers.HandleResetIntegrationFailures(repos, client, logger))
			integrations.GET("/:id/health", handlers.HandleIntegrationHealth(repos, client, logger))
			integrations.POST("/:id/sync", handlers.HandleSyncIntegration(repos, client, logger))
		}

		// Supplier catalog
		supplierProducts := v1.Group("/supplier-products")
		supplierProducts.Use(middleware.RequirePermission("catalog"))
		{
			supplierProducts.POST("", handlers.HandleCreateSupplierProduct(repos, logger))
			supplierProducts.GET("/:id", handlers.HandleGetSupplierProduct(repos, logger))
			supplierProducts.DELETE("/:id", handlers.HandleDeleteSupplierProduct(repos, logger))
			supplierProducts.POST("/bulk-stock", handlers.HandleBulkUpdateStock(repos, client, logger))
			supplierProducts.POST("/bulk-prices", handlers.HandleBulkUpdatePrices(repos, client, logger))
			supplierProducts.POST("/:id/create-product", handlers.HandleCreateMappedProduct(repos, logger))
		}

		// Product-supplier mappings
		mappings := v1.Group("/mappings")
		mappings.Use(middleware.RequirePermission("catalog"))
		{
			mappings.POST("", handlers.HandleCreateMapping(repos, logger))
			mappings.GET("/:id", handlers.HandleGetMapping(repos, logger))
			mappings.DELETE("/:id", handlers.HandleDeleteMapping(repos, logger))
			mappings.POST("/:id/make-primary", handlers.HandleMakeMappingPrimary(repos, logger))
			mappings.POST("/:id/activate", handlers.HandleActivateMapping(repos, logger))
			mappings.POST("/:id/deactivate", handlers.HandleDeactivateMapping(repos, logger))
			mappings.POST("/:id/update-pricing", handlers.HandleUpdateMappingPricing(repos, logger))
		}

		products := v1.Group("/products")
		products.Use(middleware.RequirePermission("catalog"))
		{
			products.GET("/:id/mappings", handlers.HandleListProductMappings(repos, logger))
		}

		// Dropship orders
		orders := v1.Group("/dropship-orders")
		orders.Use(middleware.RequirePermission("orders"))
		orders.Use(middleware.IdempotencyMiddleware(repos, logger))
		{
			orders.POST("", handlers.HandleCreateDropshipOrder(repos, client, logger))
			orders.GET("", handlers.HandleListDropshipOrders(repos, logger))
			orders.GET("/:id", handlers.HandleGetDropshipOrder(repos, logger))
			orders.DELETE("/:id", handlers.HandleDeleteDropshipOrder(repos, client, logger))
			orders.GET("/:id/events", handlers.HandleGetDropshipOrderEvents(repos, logger))
			orders.POST("/:id/send", handlers.HandleSendDropshipOrder(repos, client, logger))
			orders.POST("/:id/confirm", handlers.HandleConfirmDropshipOrder(repos, client, logger))
			orders.POST("/:id/ship", handlers.HandleShipDropshipOrder(repos, client, logger))
			orders.POST("/:id/deliver", handlers.HandleDeliverDropshipOrder(repos, client, logger))
			orders.POST("/:id/cancel", handlers.HandleCancelDropshipOrder(repos, client, logger))
			orders.POST("/:id/retry", handlers.HandleRetryDropshipOrder(repos, client, logger))
			orders.POST("/bulk-status", handlers.HandleBulkUpdateOrderStatus(repos, client, logger))
		}
	}

	return router
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
		)
	}
}
