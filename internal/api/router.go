package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/laala-payout-service/internal/api/handler"
	"github.com/laala-payout-service/internal/api/middleware"
	"github.com/laala-payout-service/internal/config"
	"github.com/laala-payout-service/internal/domain/user"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	jwtCfg *config.JWTConfig,
	authHandler *handler.AuthHandler,
	balanceHandler *handler.BalanceHandler,
	withdrawalHandler *handler.WithdrawalHandler,
	ledgerHandler *handler.LedgerHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		// Public auth operations
		authRoutes := v1.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
		}

		// Everything below requires a valid access token
		protected := v1.Group("")
		protected.Use(middleware.AuthRequired(jwtCfg))
		{
			balanceRoutes := protected.Group("/balance")
			{
				balanceRoutes.GET("", balanceHandler.Get)
				balanceRoutes.POST("/credit", middleware.RequireRole(string(user.RoleCoManager)), balanceHandler.Credit)
			}

			withdrawalRoutes := protected.Group("/withdrawals")
			{
				withdrawalRoutes.POST("", withdrawalHandler.Create)
				withdrawalRoutes.GET("", withdrawalHandler.List)
				withdrawalRoutes.PUT("/:id", withdrawalHandler.Update)
				withdrawalRoutes.DELETE("/:id", withdrawalHandler.Delete)
				withdrawalRoutes.POST("/:id/reject", middleware.RequireRole(string(user.RoleCoManager)), withdrawalHandler.Reject)
				withdrawalRoutes.POST("/process", withdrawalHandler.Process)
			}

			protected.GET("/ledger", ledgerHandler.GetHistory)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
