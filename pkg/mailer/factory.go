package mailer

import (
	"context"
	"errors"
	"fmt"

	accountdomain "avencrm-mailer/internal/mailaccount/domain"
	"avencrm-mailer/pkg/gmail"
)

// Config holds the OAuth client configuration for all providers.
type Config struct {
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string
}

// Registry resolves a Provider implementation per MailProvider value.
type Registry struct {
	providers map[accountdomain.MailProvider]Provider
}

// NewRegistry wires one Provider per supported MailProvider. A missing
// OAuth client configuration is a startup error: the mail subsystem must
// refuse to initialize rather than run partially configured.
func NewRegistry(cfg Config) (*Registry, error) {
	if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" || cfg.GoogleRedirectURI == "" {
		return nil, errors.New("google oauth client is not configured (GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET, GOOGLE_REDIRECT_URI)")
	}

	return &Registry{
		providers: map[accountdomain.MailProvider]Provider{
			accountdomain.ProviderGmail:   &gmailProvider{svc: gmail.NewService(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURI)},
			accountdomain.ProviderOutlook: &outlookProvider{},
		},
	}, nil
}

// ForProvider returns the Provider registered for p.
func (r *Registry) ForProvider(p accountdomain.MailProvider) (Provider, error) {
	provider, ok := r.providers[p]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, p)
	}
	return provider, nil
}

// gmailProvider adapts pkg/gmail to the Provider interface.
type gmailProvider struct {
	svc *gmail.Service
}

func (p *gmailProvider) ExchangeCode(ctx context.Context, code string) (*accountdomain.Tokens, error) {
	return p.svc.ExchangeCode(ctx, code)
}

func (p *gmailProvider) FetchIdentity(ctx context.Context, tokens *accountdomain.Tokens) (string, error) {
	return p.svc.FetchIdentity(ctx, tokens)
}

func (p *gmailProvider) NewTransport(ctx context.Context, account *accountdomain.MailAccount, onTokenRefresh accountdomain.TokenUpdateFunc) (Transport, error) {
	return p.svc.NewTransport(ctx, account, onTokenRefresh)
}
