package repository

import (
	campaigndomain "avencrm-mailer/internal/campaign/domain"
	recipientdomain "avencrm-mailer/internal/recipient/domain"
)

// CampaignRepository persists campaigns and their per-recipient delivery
// outcomes.
type CampaignRepository interface {
	// CreateWithRecipients persists the campaign and its recipient links in
	// one transaction.
	CreateWithRecipients(campaign *campaigndomain.Campaign, recipients []*recipientdomain.Recipient) error
	FindByID(id string) (*campaigndomain.Campaign, error)
	FindByCompany(companyID string, limit, offset int) ([]*campaigndomain.Campaign, int64, error)
	UpdateStatus(id string, status campaigndomain.CampaignStatus) error
	// MarkScheduled records the accepted queue job and flips the campaign
	// out of PENDING_SCHEDULE.
	MarkScheduled(id, jobID string) error

	CreateDelivery(delivery *campaigndomain.CampaignDelivery) error
	DeliveryStats(campaignID string) (map[campaigndomain.DeliveryStatus]int64, error)
}
