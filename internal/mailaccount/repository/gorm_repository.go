package repository

import (
	"errors"
	"time"

	accountdomain "avencrm-mailer/internal/mailaccount/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// gormAccountRepository implements AccountRepository using GORM
type gormAccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &gormAccountRepository{db: db}
}

func (r *gormAccountRepository) Create(account *accountdomain.MailAccount) error {
	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	account.CreatedAt = time.Now()
	account.UpdatedAt = time.Now()
	return r.db.Create(account).Error
}

func (r *gormAccountRepository) FindByID(id string) (*accountdomain.MailAccount, error) {
	var account accountdomain.MailAccount
	err := r.db.Where("id = ?", id).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *gormAccountRepository) FindByUser(userID string) ([]*accountdomain.MailAccount, error) {
	var accounts []*accountdomain.MailAccount
	err := r.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&accounts).Error
	return accounts, err
}

func (r *gormAccountRepository) FindActiveByUser(userID string) ([]*accountdomain.MailAccount, error) {
	var accounts []*accountdomain.MailAccount
	err := r.db.Where("user_id = ? AND is_active = ? AND status = ?",
		userID, true, accountdomain.AccountStatusActive).
		Order("created_at ASC").Find(&accounts).Error
	return accounts, err
}

func (r *gormAccountRepository) UpdateTokens(id string, tokens *accountdomain.Tokens) error {
	updates := map[string]interface{}{
		"access_token": tokens.AccessToken,
		"expires_at":   tokens.ExpiresAt,
		"updated_at":   time.Now(),
	}
	if tokens.RefreshToken != "" {
		updates["refresh_token"] = tokens.RefreshToken
	}
	return r.db.Model(&accountdomain.MailAccount{}).Where("id = ?", id).Updates(updates).Error
}

func (r *gormAccountRepository) UpdateStatus(id string, status accountdomain.AccountStatus, lastError string) error {
	return r.db.Model(&accountdomain.MailAccount{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"last_error": lastError,
			"updated_at": time.Now(),
		}).Error
}

func (r *gormAccountRepository) Deactivate(id string) error {
	return r.db.Model(&accountdomain.MailAccount{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": time.Now(),
		}).Error
}
