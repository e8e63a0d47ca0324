package domain

import (
	"time"

	recipientdomain "avencrm-mailer/internal/recipient/domain"
)

// CampaignStatus represents the lifecycle state of a campaign.
type CampaignStatus string

const (
	// StatusPendingSchedule is the initial state: the row exists but no
	// delivery job has been accepted by the queue yet. It flips to
	// SCHEDULED only after the enqueue succeeds, so a SCHEDULED campaign
	// always has a backing job.
	StatusPendingSchedule CampaignStatus = "PENDING_SCHEDULE"
	StatusScheduled       CampaignStatus = "SCHEDULED"
	StatusSending         CampaignStatus = "SENDING"
	StatusCompleted       CampaignStatus = "COMPLETED"
	StatusFailed          CampaignStatus = "FAILED"
	StatusCancelled       CampaignStatus = "CANCELLED"
)

// Campaign is an email blast addressed to a set of recipients.
type Campaign struct {
	ID          string                         `json:"id" gorm:"primaryKey"`
	Title       string                         `json:"title" gorm:"not null"`
	Subject     string                         `json:"subject" gorm:"not null"`
	Content     string                         `json:"content" gorm:"type:text"`
	Status      CampaignStatus                 `json:"status" gorm:"index;default:PENDING_SCHEDULE"`
	ScheduledAt *time.Time                     `json:"scheduled_at,omitempty"`
	JobID       string                         `json:"job_id,omitempty"`
	CreatedByID string                         `json:"created_by_id" gorm:"index;not null"`
	CompanyID   string                         `json:"company_id" gorm:"index;not null"`
	Recipients  []recipientdomain.Recipient    `json:"recipients,omitempty" gorm:"many2many:campaign_recipients;"`
	CreatedAt   time.Time                      `json:"created_at"`
	UpdatedAt   time.Time                      `json:"updated_at"`
}

// Cancellable reports whether the campaign is still pending and may be
// cancelled. Once a worker has picked it up it cannot be reclaimed.
func (c *Campaign) Cancellable() bool {
	return c.Status == StatusPendingSchedule || c.Status == StatusScheduled
}

// DeliveryStatus tracks the outcome of one recipient within a campaign.
type DeliveryStatus string

const (
	DeliveryPending DeliveryStatus = "pending"
	DeliverySent    DeliveryStatus = "sent"
	DeliveryFailed  DeliveryStatus = "failed"
)

// CampaignDelivery records the per-recipient send outcome.
type CampaignDelivery struct {
	ID          string         `json:"id" gorm:"primaryKey"`
	CampaignID  string         `json:"campaign_id" gorm:"index;not null"`
	RecipientID string         `json:"recipient_id" gorm:"index;not null"`
	AccountID   string         `json:"account_id"`
	Status      DeliveryStatus `json:"status" gorm:"default:pending"`
	LastError   string         `json:"last_error,omitempty"`
	SentAt      *time.Time     `json:"sent_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Queue job kinds for campaign delivery. The bulk kind exists so a worker
// can apply different batching or rate limiting per kind; the scheduling
// contract is identical for both.
const (
	JobSingleSend = "email:send"
	JobBulkSend   = "email:send-bulk"
)

// DeliveryJob is the payload enqueued for a campaign send.
type DeliveryJob struct {
	CampaignID   string   `json:"campaign_id"`
	AccountID    string   `json:"account_id"`
	RecipientIDs []string `json:"recipient_ids"`
	Subject      string   `json:"subject"`
	Content      string   `json:"content"`
}
