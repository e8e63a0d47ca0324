package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"

	accountdomain "avencrm-mailer/internal/mailaccount/domain"
	"avencrm-mailer/internal/mailaccount/repository"
)

// accountUsecase implements AccountUsecase
type accountUsecase struct {
	accountRepo repository.AccountRepository
	providers   ProviderResolver
}

func NewAccountUsecase(accountRepo repository.AccountRepository, providers ProviderResolver) AccountUsecase {
	return &accountUsecase{
		accountRepo: accountRepo,
		providers:   providers,
	}
}

func (u *accountUsecase) ConnectEmailAccount(ctx context.Context, userID string, provider accountdomain.MailProvider, code string) (*accountdomain.MailAccount, error) {
	impl, err := u.providers.ForProvider(provider)
	if err != nil {
		return nil, err
	}

	tokens, err := impl.ExchangeCode(ctx, code)
	if err != nil {
		log.Printf("[MailAccount] Token exchange failed for provider %s: %v", provider, err)
		return nil, err
	}

	email, err := impl.FetchIdentity(ctx, tokens)
	if err != nil {
		log.Printf("[MailAccount] Identity lookup failed for provider %s: %v", provider, err)
		return nil, err
	}

	account := &accountdomain.MailAccount{
		UserID:       userID,
		Provider:     provider,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		Email:        email,
		IsActive:     true,
		Status:       accountdomain.AccountStatusActive,
	}
	if !tokens.ExpiresAt.IsZero() {
		expiresAt := tokens.ExpiresAt
		account.ExpiresAt = &expiresAt
	}

	if err := u.accountRepo.Create(account); err != nil {
		log.Printf("[MailAccount] Failed to persist account for user %s: %v", userID, err)
		return nil, fmt.Errorf("failed to save email account: %w", err)
	}

	return account, nil
}

func (u *accountUsecase) ListAccounts(userID string) ([]*accountdomain.MailAccount, error) {
	return u.accountRepo.FindByUser(userID)
}

func (u *accountUsecase) DisconnectAccount(userID, accountID string) error {
	account, err := u.accountRepo.FindByID(accountID)
	if err != nil {
		return err
	}
	if account == nil {
		return errors.New("email account not found")
	}
	if account.UserID != userID {
		return errors.New("email account not found")
	}

	return u.accountRepo.Deactivate(accountID)
}

func (u *accountUsecase) MarkAccountError(accountID, message string) error {
	return u.accountRepo.UpdateStatus(accountID, accountdomain.AccountStatusError, message)
}
