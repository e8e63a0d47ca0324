package usecase

import (
	"errors"
	"sort"

	recipientdomain "avencrm-mailer/internal/recipient/domain"
	"avencrm-mailer/internal/recipient/repository"
	"avencrm-mailer/pkg/fuzzy"
)

// RecipientUsecase manages the company's recipient list.
type RecipientUsecase interface {
	CreateRecipient(companyID, email, name string, variables map[string]string) (*recipientdomain.Recipient, error)
	GetRecipient(companyID, recipientID string) (*recipientdomain.Recipient, error)
	ListRecipients(companyID string, limit, offset int) ([]*recipientdomain.Recipient, int64, error)
	// SearchRecipients fuzzy-matches the query against recipient names and
	// addresses, most relevant first.
	SearchRecipients(companyID, query string, limit int) ([]*recipientdomain.Recipient, error)
	DeleteRecipient(companyID, recipientID string) error
}

type recipientUsecase struct {
	recipientRepo repository.RecipientRepository
}

func NewRecipientUsecase(recipientRepo repository.RecipientRepository) RecipientUsecase {
	return &recipientUsecase{recipientRepo: recipientRepo}
}

func (u *recipientUsecase) CreateRecipient(companyID, email, name string, variables map[string]string) (*recipientdomain.Recipient, error) {
	if email == "" {
		return nil, errors.New("recipient email is required")
	}

	recipient := &recipientdomain.Recipient{
		CompanyID: companyID,
		Email:     email,
		Name:      name,
		Variables: variables,
	}
	if err := u.recipientRepo.Create(recipient); err != nil {
		return nil, err
	}
	return recipient, nil
}

func (u *recipientUsecase) GetRecipient(companyID, recipientID string) (*recipientdomain.Recipient, error) {
	recipient, err := u.recipientRepo.FindByID(recipientID)
	if err != nil {
		return nil, err
	}
	if recipient == nil || recipient.CompanyID != companyID {
		return nil, errors.New("recipient not found")
	}
	return recipient, nil
}

func (u *recipientUsecase) ListRecipients(companyID string, limit, offset int) ([]*recipientdomain.Recipient, int64, error) {
	if limit < 1 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	return u.recipientRepo.FindByCompany(companyID, limit, offset)
}

func (u *recipientUsecase) SearchRecipients(companyID, query string, limit int) ([]*recipientdomain.Recipient, error) {
	if query == "" {
		return nil, errors.New("search query is required")
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}

	// Search walks the whole company list in pages; recipient lists are
	// bounded per company so this stays cheap.
	const pageSize = 200
	var matched []*recipientdomain.Recipient
	for offset := 0; ; offset += pageSize {
		page, _, err := u.recipientRepo.FindByCompany(companyID, pageSize, offset)
		if err != nil {
			return nil, err
		}
		for _, r := range page {
			if fuzzy.MatchContact(query, r.Name, r.Email) {
				matched = append(matched, r)
			}
		}
		if len(page) < pageSize {
			break
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return fuzzy.ScoreContact(query, matched[i].Name, matched[i].Email) >
			fuzzy.ScoreContact(query, matched[j].Name, matched[j].Email)
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (u *recipientUsecase) DeleteRecipient(companyID, recipientID string) error {
	recipient, err := u.recipientRepo.FindByID(recipientID)
	if err != nil {
		return err
	}
	if recipient == nil || recipient.CompanyID != companyID {
		return errors.New("recipient not found")
	}
	return u.recipientRepo.Delete(recipientID)
}
