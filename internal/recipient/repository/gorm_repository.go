package repository

import (
	"errors"
	"time"

	recipientdomain "avencrm-mailer/internal/recipient/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// gormRecipientRepository implements RecipientRepository using GORM
type gormRecipientRepository struct {
	db *gorm.DB
}

func NewRecipientRepository(db *gorm.DB) RecipientRepository {
	return &gormRecipientRepository{db: db}
}

func (r *gormRecipientRepository) Create(recipient *recipientdomain.Recipient) error {
	if recipient.ID == "" {
		recipient.ID = uuid.New().String()
	}
	recipient.CreatedAt = time.Now()
	recipient.UpdatedAt = time.Now()
	return r.db.Create(recipient).Error
}

func (r *gormRecipientRepository) FindByID(id string) (*recipientdomain.Recipient, error) {
	var recipient recipientdomain.Recipient
	err := r.db.Where("id = ?", id).First(&recipient).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &recipient, nil
}

func (r *gormRecipientRepository) FindByIDs(ids []string) ([]*recipientdomain.Recipient, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var recipients []*recipientdomain.Recipient
	err := r.db.Where("id IN ?", ids).Find(&recipients).Error
	return recipients, err
}

func (r *gormRecipientRepository) FindByIDsForCompany(companyID string, ids []string) ([]*recipientdomain.Recipient, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var recipients []*recipientdomain.Recipient
	err := r.db.Where("company_id = ? AND id IN ?", companyID, ids).Find(&recipients).Error
	return recipients, err
}

func (r *gormRecipientRepository) FindByCompany(companyID string, limit, offset int) ([]*recipientdomain.Recipient, int64, error) {
	var recipients []*recipientdomain.Recipient
	var total int64

	query := r.db.Model(&recipientdomain.Recipient{}).Where("company_id = ?", companyID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&recipients).Error
	return recipients, total, err
}

func (r *gormRecipientRepository) Update(recipient *recipientdomain.Recipient) error {
	recipient.UpdatedAt = time.Now()
	return r.db.Save(recipient).Error
}

func (r *gormRecipientRepository) Delete(id string) error {
	return r.db.Delete(&recipientdomain.Recipient{}, "id = ?", id).Error
}
