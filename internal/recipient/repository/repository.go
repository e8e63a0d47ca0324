package repository

import recipientdomain "avencrm-mailer/internal/recipient/domain"

// RecipientRepository persists campaign recipients.
type RecipientRepository interface {
	Create(recipient *recipientdomain.Recipient) error
	FindByID(id string) (*recipientdomain.Recipient, error)
	// FindByIDs returns the subset of recipients that exist; unknown ids
	// are simply absent from the result.
	FindByIDs(ids []string) ([]*recipientdomain.Recipient, error)
	// FindByIDsForCompany is FindByIDs restricted to one company. Ids owned
	// by another company are absent from the result, same as unknown ids.
	FindByIDsForCompany(companyID string, ids []string) ([]*recipientdomain.Recipient, error)
	FindByCompany(companyID string, limit, offset int) ([]*recipientdomain.Recipient, int64, error)
	Update(recipient *recipientdomain.Recipient) error
	Delete(id string) error
}
