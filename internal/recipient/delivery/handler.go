package delivery

import (
	"net/http"
	"strconv"

	"avencrm-mailer/internal/recipient/usecase"

	"github.com/gin-gonic/gin"
)

// RecipientHandler handles recipient HTTP requests
type RecipientHandler struct {
	recipientUsecase usecase.RecipientUsecase
}

func NewRecipientHandler(recipientUsecase usecase.RecipientUsecase) *RecipientHandler {
	return &RecipientHandler{recipientUsecase: recipientUsecase}
}

type CreateRecipientRequest struct {
	Email     string            `json:"email" binding:"required,email"`
	Name      string            `json:"name"`
	Variables map[string]string `json:"variables"`
}

// POST /api/recipients
func (h *RecipientHandler) CreateRecipient(c *gin.Context) {
	companyID := c.GetString("companyID")

	var req CreateRecipientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	recipient, err := h.recipientUsecase.CreateRecipient(companyID, req.Email, req.Name, req.Variables)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, recipient)
}

// GET /api/recipients?limit=50&offset=0
func (h *RecipientHandler) ListRecipients(c *gin.Context) {
	companyID := c.GetString("companyID")

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	recipients, total, err := h.recipientUsecase.ListRecipients(companyID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"recipients": recipients,
		"total":      total,
	})
}

// GET /api/recipients/search?q=smith&limit=20
func (h *RecipientHandler) SearchRecipients(c *gin.Context) {
	companyID := c.GetString("companyID")

	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	recipients, err := h.recipientUsecase.SearchRecipients(companyID, query, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"recipients": recipients})
}

// GET /api/recipients/:id
func (h *RecipientHandler) GetRecipient(c *gin.Context) {
	companyID := c.GetString("companyID")

	recipient, err := h.recipientUsecase.GetRecipient(companyID, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, recipient)
}

// DELETE /api/recipients/:id
func (h *RecipientHandler) DeleteRecipient(c *gin.Context) {
	companyID := c.GetString("companyID")

	if err := h.recipientUsecase.DeleteRecipient(companyID, c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "recipient deleted"})
}
