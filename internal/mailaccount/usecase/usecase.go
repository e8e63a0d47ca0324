package usecase

import (
	"context"

	accountdomain "avencrm-mailer/internal/mailaccount/domain"
	"avencrm-mailer/pkg/mailer"
)

// AccountUsecase manages connected external mail accounts.
type AccountUsecase interface {
	// ConnectEmailAccount exchanges an OAuth authorization code for tokens,
	// resolves the authenticated email address and persists the account.
	// Nothing is persisted unless both steps succeed.
	ConnectEmailAccount(ctx context.Context, userID string, provider accountdomain.MailProvider, code string) (*accountdomain.MailAccount, error)

	ListAccounts(userID string) ([]*accountdomain.MailAccount, error)
	DisconnectAccount(userID, accountID string) error

	// MarkAccountError flips an account to ERROR after a failed send.
	MarkAccountError(accountID, message string) error
}

// ProviderResolver looks up the capability implementation for a provider
// value. *mailer.Registry satisfies it.
type ProviderResolver interface {
	ForProvider(p accountdomain.MailProvider) (mailer.Provider, error)
}
