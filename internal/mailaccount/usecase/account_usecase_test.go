package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	accountdomain "avencrm-mailer/internal/mailaccount/domain"
	"avencrm-mailer/pkg/mailer"
)

// fakeAccountRepo stores accounts in memory
type fakeAccountRepo struct {
	accounts map[string]*accountdomain.MailAccount
	creates  int
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[string]*accountdomain.MailAccount)}
}

func (f *fakeAccountRepo) Create(account *accountdomain.MailAccount) error {
	f.creates++
	if account.ID == "" {
		account.ID = "acct-1"
	}
	f.accounts[account.ID] = account
	return nil
}

func (f *fakeAccountRepo) FindByID(id string) (*accountdomain.MailAccount, error) {
	return f.accounts[id], nil
}

func (f *fakeAccountRepo) FindByUser(userID string) ([]*accountdomain.MailAccount, error) {
	var out []*accountdomain.MailAccount
	for _, a := range f.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAccountRepo) FindActiveByUser(userID string) ([]*accountdomain.MailAccount, error) {
	var out []*accountdomain.MailAccount
	for _, a := range f.accounts {
		if a.UserID == userID && a.IsActive && a.Status == accountdomain.AccountStatusActive {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAccountRepo) UpdateTokens(id string, tokens *accountdomain.Tokens) error {
	if a, ok := f.accounts[id]; ok {
		a.AccessToken = tokens.AccessToken
	}
	return nil
}

func (f *fakeAccountRepo) UpdateStatus(id string, status accountdomain.AccountStatus, lastError string) error {
	if a, ok := f.accounts[id]; ok {
		a.Status = status
		a.LastError = lastError
	}
	return nil
}

func (f *fakeAccountRepo) Deactivate(id string) error {
	if a, ok := f.accounts[id]; ok {
		a.IsActive = false
	}
	return nil
}

// fakeProvider returns canned results
type fakeProvider struct {
	tokens      *accountdomain.Tokens
	identity    string
	exchangeErr error
	identityErr error
}

func (p *fakeProvider) ExchangeCode(ctx context.Context, code string) (*accountdomain.Tokens, error) {
	if p.exchangeErr != nil {
		return nil, p.exchangeErr
	}
	return p.tokens, nil
}

func (p *fakeProvider) FetchIdentity(ctx context.Context, tokens *accountdomain.Tokens) (string, error) {
	if p.identityErr != nil {
		return "", p.identityErr
	}
	return p.identity, nil
}

func (p *fakeProvider) NewTransport(ctx context.Context, account *accountdomain.MailAccount, onTokenRefresh accountdomain.TokenUpdateFunc) (mailer.Transport, error) {
	return nil, errors.New("not used in tests")
}

type fakeResolver struct {
	providers map[accountdomain.MailProvider]mailer.Provider
}

func (r *fakeResolver) ForProvider(p accountdomain.MailProvider) (mailer.Provider, error) {
	provider, ok := r.providers[p]
	if !ok {
		return nil, mailer.ErrUnsupportedProvider
	}
	return provider, nil
}

func TestConnectEmailAccountHappyPath(t *testing.T) {
	repo := newFakeAccountRepo()
	resolver := &fakeResolver{providers: map[accountdomain.MailProvider]mailer.Provider{
		accountdomain.ProviderGmail: &fakeProvider{
			tokens: &accountdomain.Tokens{
				AccessToken:  "at",
				RefreshToken: "rt",
				ExpiresAt:    time.Now().Add(time.Hour),
			},
			identity: "agent@example.com",
		},
	}}
	uc := NewAccountUsecase(repo, resolver)

	account, err := uc.ConnectEmailAccount(context.Background(), "u1", accountdomain.ProviderGmail, "auth-code")
	if err != nil {
		t.Fatal(err)
	}

	if account.Email != "agent@example.com" {
		t.Errorf("expected resolved identity, got %q", account.Email)
	}
	if account.Status != accountdomain.AccountStatusActive || !account.IsActive {
		t.Errorf("expected active account, got status=%s isActive=%v", account.Status, account.IsActive)
	}
	if repo.creates != 1 {
		t.Errorf("expected exactly one persisted row, got %d", repo.creates)
	}
}

func TestConnectEmailAccountNoPartialRowOnIdentityFailure(t *testing.T) {
	repo := newFakeAccountRepo()
	resolver := &fakeResolver{providers: map[accountdomain.MailProvider]mailer.Provider{
		accountdomain.ProviderGmail: &fakeProvider{
			tokens:      &accountdomain.Tokens{AccessToken: "at"},
			identityErr: errors.New("profile lookup failed"),
		},
	}}
	uc := NewAccountUsecase(repo, resolver)

	if _, err := uc.ConnectEmailAccount(context.Background(), "u1", accountdomain.ProviderGmail, "code"); err == nil {
		t.Fatal("expected error")
	}
	if repo.creates != 0 {
		t.Errorf("expected no persisted row on failure, got %d", repo.creates)
	}
}

func TestConnectEmailAccountOutlookAlwaysRejects(t *testing.T) {
	// Use the real registry so the Outlook stub is exercised end to end.
	registry, err := mailer.NewRegistry(mailer.Config{
		GoogleClientID:     "id",
		GoogleClientSecret: "secret",
		GoogleRedirectURI:  "http://localhost/callback",
	})
	if err != nil {
		t.Fatal(err)
	}

	repo := newFakeAccountRepo()
	uc := NewAccountUsecase(repo, registry)

	for _, code := range []string{"", "whatever", "valid-looking-code"} {
		_, err := uc.ConnectEmailAccount(context.Background(), "u1", accountdomain.ProviderOutlook, code)
		if err == nil {
			t.Fatal("expected outlook connect to fail")
		}
		if !errors.Is(err, mailer.ErrNotImplemented) {
			t.Errorf("expected ErrNotImplemented, got %v", err)
		}
		if !strings.Contains(err.Error(), "outlook integration not implemented yet") {
			t.Errorf("unexpected message: %q", err.Error())
		}
	}
	if repo.creates != 0 {
		t.Errorf("expected no persisted rows, got %d", repo.creates)
	}
}

func TestConnectEmailAccountUnknownProvider(t *testing.T) {
	registry, err := mailer.NewRegistry(mailer.Config{
		GoogleClientID:     "id",
		GoogleClientSecret: "secret",
		GoogleRedirectURI:  "http://localhost/callback",
	})
	if err != nil {
		t.Fatal(err)
	}

	uc := NewAccountUsecase(newFakeAccountRepo(), registry)

	_, err = uc.ConnectEmailAccount(context.Background(), "u1", accountdomain.MailProvider("YAHOO"), "code")
	if !errors.Is(err, mailer.ErrUnsupportedProvider) {
		t.Errorf("expected ErrUnsupportedProvider, got %v", err)
	}
}

func TestRegistryRefusesMissingOAuthConfig(t *testing.T) {
	if _, err := mailer.NewRegistry(mailer.Config{}); err == nil {
		t.Fatal("expected registry construction to fail without oauth config")
	}
}

func TestDisconnectAccountChecksOwnership(t *testing.T) {
	repo := newFakeAccountRepo()
	repo.accounts["acct-1"] = &accountdomain.MailAccount{ID: "acct-1", UserID: "owner", IsActive: true}

	uc := NewAccountUsecase(repo, &fakeResolver{})

	if err := uc.DisconnectAccount("intruder", "acct-1"); err == nil {
		t.Error("expected disconnect by non-owner to fail")
	}
	if err := uc.DisconnectAccount("owner", "acct-1"); err != nil {
		t.Errorf("owner disconnect failed: %v", err)
	}
	if repo.accounts["acct-1"].IsActive {
		t.Error("expected account soft-disabled")
	}
}
