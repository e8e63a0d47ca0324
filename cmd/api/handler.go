package api

import (
	authUsecase "avencrm-mailer/internal/auth/usecase"
	campaignDelivery "avencrm-mailer/internal/campaign/delivery"
	campaignUsecasePkg "avencrm-mailer/internal/campaign/usecase"
	accountDelivery "avencrm-mailer/internal/mailaccount/delivery"
	accountUsecasePkg "avencrm-mailer/internal/mailaccount/usecase"
	recipientDelivery "avencrm-mailer/internal/recipient/delivery"
	recipientUsecasePkg "avencrm-mailer/internal/recipient/usecase"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	authUsecase      authUsecase.AuthUsecase
	accountHandler   *accountDelivery.AccountHandler
	recipientHandler *recipientDelivery.RecipientHandler
	campaignHandler  *campaignDelivery.CampaignHandler
}

func NewHandler(
	authUc authUsecase.AuthUsecase,
	accountUc accountUsecasePkg.AccountUsecase,
	recipientUc recipientUsecasePkg.RecipientUsecase,
	campaignUc campaignUsecasePkg.CampaignUsecase,
) *Handler {
	return &Handler{
		authUsecase:      authUc,
		accountHandler:   accountDelivery.NewAccountHandler(accountUc),
		recipientHandler: recipientDelivery.NewRecipientHandler(recipientUc),
		campaignHandler:  campaignDelivery.NewCampaignHandler(campaignUc),
	}
}

func (h *Handler) Start(addr string) error {
	r := gin.Default()
	gin.SetMode(gin.ReleaseMode)

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	SetupRoutes(r, h)

	return r.Run(addr)
}
