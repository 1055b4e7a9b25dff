package routes

import (
	"github.com/gin-gonic/gin"

	coreport "github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/port/core"
	"github.com/amirhossein-jamali/crowdfunding-payments/internal/infrastructure/adapter/api/handler"
	"github.com/amirhossein-jamali/crowdfunding-payments/internal/infrastructure/adapter/api/middleware"
)

// SetupRoutes configures all the routes for the API
func SetupRoutes(router *gin.Engine, paymentHandler *handler.PaymentHandler, healthHandler *handler.HealthHandler) {
	router.HandleMethodNotAllowed = true
	router.NoMethod(middleware.MethodNotAllowed())

	if healthHandler != nil {
		router.GET("/health", healthHandler.Check)
	}

	api := router.Group("/api/v1")

	projectRoutes := api.Group("/projects/:projectId/payments/pesapal")
	{
		// POST /api/v1/projects/:projectId/payments/pesapal
		projectRoutes.POST("", paymentHandler.PreparePayment)

		// GET /api/v1/projects/:projectId/payments/pesapal/return
		projectRoutes.GET("/return", paymentHandler.CompleteCheckout)
	}

	paymentRoutes := api.Group("/payments")
	{
		// GET /api/v1/payments/pesapal/notify
		paymentRoutes.GET("/pesapal/notify", paymentHandler.Notify)

		// GET /api/v1/payments/transactions/:txnId
		paymentRoutes.GET("/transactions/:txnId", paymentHandler.GetTransaction)
	}
}

// SetupMiddlewares configures global middlewares for the API
func SetupMiddlewares(router *gin.Engine, logger coreport.Logger, allowedOrigins []string) {
	router.Use(middleware.RequestID())
	router.Use(middleware.ErrorHandler(logger))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.CORS(allowedOrigins))
}
