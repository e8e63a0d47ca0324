package usecase

import (
	"context"
	"time"

	campaigndomain "avencrm-mailer/internal/campaign/domain"
	"avencrm-mailer/pkg/queue"
)

// CampaignUsecase orchestrates campaign creation and delivery scheduling.
type CampaignUsecase interface {
	CreateCampaign(ctx context.Context, userID string, in CreateCampaignInput) (*CreateCampaignResult, error)
	// ScheduleEmail enqueues one delivery job and returns the queue-assigned
	// job id. The recipient list must be non-empty.
	ScheduleEmail(in ScheduleEmailInput) (string, error)
	CancelCampaign(ctx context.Context, companyID, campaignID string) error
	ListCampaigns(companyID string, limit, offset int) ([]*campaigndomain.Campaign, int64, error)
	GetCampaign(companyID, campaignID string) (*CampaignDetails, error)
}

type CreateCampaignInput struct {
	Title        string
	Subject      string
	Content      string
	RecipientIDs []string
	ScheduledAt  *time.Time
}

// CreateCampaignResult reports what was actually created. Recipient ids
// that did not resolve are listed in SkippedRecipientIDs so callers can
// detect partial matches instead of discovering them via count mismatch.
type CreateCampaignResult struct {
	CampaignID          string   `json:"campaign_id"`
	JobID               string   `json:"job_id"`
	RecipientCount      int      `json:"recipient_count"`
	SkippedRecipientIDs []string `json:"skipped_recipient_ids,omitempty"`
}

type ScheduleEmailInput struct {
	CampaignID   string
	AccountID    string
	RecipientIDs []string
	Subject      string
	Content      string
	ScheduledFor *time.Time
}

// CampaignDetails is a campaign plus its per-recipient delivery stats.
type CampaignDetails struct {
	*campaigndomain.Campaign
	Stats map[campaigndomain.DeliveryStatus]int64 `json:"stats"`
}

// DeliveryQueue is the producer-side queue contract. *queue.Queue
// satisfies it.
type DeliveryQueue interface {
	Add(name string, payload any, opts queue.Options) (*queue.Job, error)
	Remove(jobID string) error
}
