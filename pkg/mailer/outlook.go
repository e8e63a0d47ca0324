package mailer

import (
	"context"
	"fmt"

	accountdomain "avencrm-mailer/internal/mailaccount/domain"
)

// outlookProvider is a declared-but-unbuilt provider. Every capability
// fails with ErrNotImplemented so callers treat Outlook as unsupported
// instead of silently degraded.
type outlookProvider struct{}

func (p *outlookProvider) ExchangeCode(ctx context.Context, code string) (*accountdomain.Tokens, error) {
	return nil, fmt.Errorf("outlook integration %w yet", ErrNotImplemented)
}

func (p *outlookProvider) FetchIdentity(ctx context.Context, tokens *accountdomain.Tokens) (string, error) {
	return "", fmt.Errorf("outlook integration %w yet", ErrNotImplemented)
}

func (p *outlookProvider) NewTransport(ctx context.Context, account *accountdomain.MailAccount, onTokenRefresh accountdomain.TokenUpdateFunc) (Transport, error) {
	return nil, fmt.Errorf("outlook integration %w yet", ErrNotImplemented)
}
