package delivery

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"avencrm-mailer/internal/campaign/usecase"

	"github.com/gin-gonic/gin"
)

// CampaignHandler handles campaign HTTP requests
type CampaignHandler struct {
	campaignUsecase usecase.CampaignUsecase
}

func NewCampaignHandler(campaignUsecase usecase.CampaignUsecase) *CampaignHandler {
	return &CampaignHandler{campaignUsecase: campaignUsecase}
}

type CreateCampaignRequest struct {
	Title        string   `json:"title" binding:"required"`
	Subject      string   `json:"subject" binding:"required"`
	Content      string   `json:"content" binding:"required"`
	RecipientIDs []string `json:"recipient_ids" binding:"required,min=1"`
	// ScheduledAt is RFC3339; omitted means send immediately.
	ScheduledAt string `json:"scheduled_at"`
}

// POST /api/campaigns
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	userID := c.GetString("userID")

	var req CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in := usecase.CreateCampaignInput{
		Title:        req.Title,
		Subject:      req.Subject,
		Content:      req.Content,
		RecipientIDs: req.RecipientIDs,
	}
	if req.ScheduledAt != "" {
		t, err := time.Parse(time.RFC3339, req.ScheduledAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "scheduled_at must be RFC3339"})
			return
		}
		in.ScheduledAt = &t
	}

	result, err := h.campaignUsecase.CreateCampaign(c.Request.Context(), userID, in)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrAgentNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, usecase.ErrNoActiveAccounts), errors.Is(err, usecase.ErrNoRecipients):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, result)
}

// GET /api/campaigns?limit=20&offset=0
func (h *CampaignHandler) ListCampaigns(c *gin.Context) {
	companyID := c.GetString("companyID")

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	campaigns, total, err := h.campaignUsecase.ListCampaigns(companyID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"campaigns": campaigns,
		"total":     total,
	})
}

// GET /api/campaigns/:id
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	companyID := c.GetString("companyID")

	details, err := h.campaignUsecase.GetCampaign(companyID, c.Param("id"))
	if err != nil {
		if errors.Is(err, usecase.ErrCampaignNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, details)
}

// POST /api/campaigns/:id/cancel
func (h *CampaignHandler) CancelCampaign(c *gin.Context) {
	companyID := c.GetString("companyID")

	err := h.campaignUsecase.CancelCampaign(c.Request.Context(), companyID, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrCampaignNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, usecase.ErrCampaignInDelivery):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "campaign cancelled"})
}
