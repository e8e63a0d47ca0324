package api

import (
	"net/http"

	"avencrm-mailer/internal/auth/delivery"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, h *Handler) {
	authHandler := delivery.NewAuthHandler(h.authUsecase)

	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Company bootstrap: Register requires an existing company id, so
		// this stays outside the auth middleware.
		api.POST("/companies", authHandler.CreateCompany)

		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/register", authHandler.Register)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", delivery.AuthMiddleware(h.authUsecase), authHandler.Me)
		}

		// Mail account routes (protected)
		accounts := api.Group("/mail/accounts")
		accounts.Use(delivery.AuthMiddleware(h.authUsecase))
		{
			accounts.POST("/connect", h.accountHandler.ConnectAccount)
			accounts.GET("", h.accountHandler.ListAccounts)
			accounts.DELETE("/:id", h.accountHandler.DisconnectAccount)
		}

		// Recipient routes (protected)
		recipients := api.Group("/recipients")
		recipients.Use(delivery.AuthMiddleware(h.authUsecase))
		{
			recipients.POST("", h.recipientHandler.CreateRecipient)
			recipients.GET("", h.recipientHandler.ListRecipients)
			recipients.GET("/search", h.recipientHandler.SearchRecipients)
			recipients.GET("/:id", h.recipientHandler.GetRecipient)
			recipients.DELETE("/:id", h.recipientHandler.DeleteRecipient)
		}

		// Campaign routes (protected)
		campaigns := api.Group("/campaigns")
		campaigns.Use(delivery.AuthMiddleware(h.authUsecase))
		{
			campaigns.POST("", h.campaignHandler.CreateCampaign)
			campaigns.GET("", h.campaignHandler.ListCampaigns)
			campaigns.GET("/:id", h.campaignHandler.GetCampaign)
			campaigns.POST("/:id/cancel", h.campaignHandler.CancelCampaign)
		}
	}
}
