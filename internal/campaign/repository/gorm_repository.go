package repository

import (
	"errors"
	"time"

	campaigndomain "avencrm-mailer/internal/campaign/domain"
	recipientdomain "avencrm-mailer/internal/recipient/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// gormCampaignRepository implements CampaignRepository using GORM
type gormCampaignRepository struct {
	db *gorm.DB
}

func NewCampaignRepository(db *gorm.DB) CampaignRepository {
	return &gormCampaignRepository{db: db}
}

func (r *gormCampaignRepository) CreateWithRecipients(campaign *campaigndomain.Campaign, recipients []*recipientdomain.Recipient) error {
	if campaign.ID == "" {
		campaign.ID = uuid.New().String()
	}
	campaign.CreatedAt = time.Now()
	campaign.UpdatedAt = time.Now()

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Recipients").Create(campaign).Error; err != nil {
			return err
		}
		if len(recipients) > 0 {
			if err := tx.Model(campaign).Association("Recipients").Append(recipients); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *gormCampaignRepository) FindByID(id string) (*campaigndomain.Campaign, error) {
	var campaign campaigndomain.Campaign
	err := r.db.Preload("Recipients").Where("id = ?", id).First(&campaign).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &campaign, nil
}

func (r *gormCampaignRepository) FindByCompany(companyID string, limit, offset int) ([]*campaigndomain.Campaign, int64, error) {
	var campaigns []*campaigndomain.Campaign
	var total int64

	query := r.db.Model(&campaigndomain.Campaign{}).Where("company_id = ?", companyID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&campaigns).Error
	return campaigns, total, err
}

func (r *gormCampaignRepository) UpdateStatus(id string, status campaigndomain.CampaignStatus) error {
	return r.db.Model(&campaigndomain.Campaign{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).Error
}

func (r *gormCampaignRepository) MarkScheduled(id, jobID string) error {
	return r.db.Model(&campaigndomain.Campaign{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     campaigndomain.StatusScheduled,
			"job_id":     jobID,
			"updated_at": time.Now(),
		}).Error
}

func (r *gormCampaignRepository) CreateDelivery(delivery *campaigndomain.CampaignDelivery) error {
	if delivery.ID == "" {
		delivery.ID = uuid.New().String()
	}
	delivery.CreatedAt = time.Now()
	delivery.UpdatedAt = time.Now()
	return r.db.Create(delivery).Error
}

func (r *gormCampaignRepository) DeliveryStats(campaignID string) (map[campaigndomain.DeliveryStatus]int64, error) {
	type row struct {
		Status campaigndomain.DeliveryStatus
		Count  int64
	}

	var rows []row
	err := r.db.Model(&campaigndomain.CampaignDelivery{}).
		Select("status, count(*) as count").
		Where("campaign_id = ?", campaignID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	stats := map[campaigndomain.DeliveryStatus]int64{
		campaigndomain.DeliveryPending: 0,
		campaigndomain.DeliverySent:    0,
		campaigndomain.DeliveryFailed:  0,
	}
	for _, r := range rows {
		stats[r.Status] = r.Count
	}
	return stats, nil
}
