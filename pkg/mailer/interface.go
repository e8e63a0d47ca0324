package mailer

import (
	"context"
	"errors"

	accountdomain "avencrm-mailer/internal/mailaccount/domain"
)

var (
	// ErrUnsupportedProvider is returned for provider values outside the
	// known set.
	ErrUnsupportedProvider = errors.New("unsupported email provider")

	// ErrNotImplemented marks providers that are declared but not built.
	// It is a permanent condition, not a transient failure: callers must
	// not retry.
	ErrNotImplemented = errors.New("not implemented")
)

// Transport is a ready-to-send channel bound to one mail account's
// credentials.
type Transport interface {
	Send(ctx context.Context, msg *accountdomain.OutgoingMessage) error
}

// Provider is the capability set each mail provider implements: exchange an
// authorization code, resolve the authenticated identity, and build a send
// channel. Adding a provider means one registration in NewRegistry.
type Provider interface {
	ExchangeCode(ctx context.Context, code string) (*accountdomain.Tokens, error)
	FetchIdentity(ctx context.Context, tokens *accountdomain.Tokens) (string, error)
	NewTransport(ctx context.Context, account *accountdomain.MailAccount, onTokenRefresh accountdomain.TokenUpdateFunc) (Transport, error)
}
