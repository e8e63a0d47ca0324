package delivery

import (
	"errors"
	"net/http"

	accountdomain "avencrm-mailer/internal/mailaccount/domain"
	"avencrm-mailer/internal/mailaccount/usecase"
	"avencrm-mailer/pkg/mailer"

	"github.com/gin-gonic/gin"
)

// AccountHandler handles mail account HTTP requests
type AccountHandler struct {
	accountUsecase usecase.AccountUsecase
}

func NewAccountHandler(accountUsecase usecase.AccountUsecase) *AccountHandler {
	return &AccountHandler{accountUsecase: accountUsecase}
}

type ConnectAccountRequest struct {
	Provider string `json:"provider" binding:"required"`
	Code     string `json:"code" binding:"required"`
}

// POST /api/mail/accounts/connect
func (h *AccountHandler) ConnectAccount(c *gin.Context) {
	userID := c.GetString("userID")

	var req ConnectAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account, err := h.accountUsecase.ConnectEmailAccount(c.Request.Context(), userID, accountdomain.MailProvider(req.Provider), req.Code)
	if err != nil {
		switch {
		case errors.Is(err, mailer.ErrUnsupportedProvider):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, mailer.ErrNotImplemented):
			c.JSON(http.StatusNotImplemented, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, account)
}

// GET /api/mail/accounts
func (h *AccountHandler) ListAccounts(c *gin.Context) {
	userID := c.GetString("userID")

	accounts, err := h.accountUsecase.ListAccounts(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"accounts": accounts})
}

// DELETE /api/mail/accounts/:id
func (h *AccountHandler) DisconnectAccount(c *gin.Context) {
	userID := c.GetString("userID")
	accountID := c.Param("id")

	if err := h.accountUsecase.DisconnectAccount(userID, accountID); err != nil {
		if err.Error() == "email account not found" {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "account disconnected"})
}
