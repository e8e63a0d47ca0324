package repository

import accountdomain "avencrm-mailer/internal/mailaccount/domain"

// AccountRepository persists connected mail accounts.
type AccountRepository interface {
	Create(account *accountdomain.MailAccount) error
	FindByID(id string) (*accountdomain.MailAccount, error)
	FindByUser(userID string) ([]*accountdomain.MailAccount, error)
	FindActiveByUser(userID string) ([]*accountdomain.MailAccount, error)
	UpdateTokens(id string, tokens *accountdomain.Tokens) error
	UpdateStatus(id string, status accountdomain.AccountStatus, lastError string) error
	Deactivate(id string) error
}
