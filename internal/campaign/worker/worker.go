package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	authrepo "avencrm-mailer/internal/auth/repository"
	campaigndomain "avencrm-mailer/internal/campaign/domain"
	"avencrm-mailer/internal/campaign/repository"
	accountdomain "avencrm-mailer/internal/mailaccount/domain"
	accountrepo "avencrm-mailer/internal/mailaccount/repository"
	recipientrepo "avencrm-mailer/internal/recipient/repository"
	"avencrm-mailer/pkg/mailer"
	"avencrm-mailer/pkg/queue"
	"avencrm-mailer/pkg/template"
)

// ProviderResolver resolves a connected account's provider to its
// capability set. *mailer.Registry satisfies it.
type ProviderResolver interface {
	ForProvider(p accountdomain.MailProvider) (mailer.Provider, error)
}

// DeliveryWorker consumes campaign delivery jobs: it renders the campaign
// template per recipient and sends through the owning account's transport,
// recording one delivery row per recipient.
type DeliveryWorker struct {
	campaignRepo  repository.CampaignRepository
	recipientRepo recipientrepo.RecipientRepository
	accountRepo   accountrepo.AccountRepository
	userRepo      authrepo.UserRepository
	providers     ProviderResolver
}

func NewDeliveryWorker(
	campaignRepo repository.CampaignRepository,
	recipientRepo recipientrepo.RecipientRepository,
	accountRepo accountrepo.AccountRepository,
	userRepo authrepo.UserRepository,
	providers ProviderResolver,
) *DeliveryWorker {
	return &DeliveryWorker{
		campaignRepo:  campaignRepo,
		recipientRepo: recipientRepo,
		accountRepo:   accountRepo,
		userRepo:      userRepo,
		providers:     providers,
	}
}

// Register wires the worker's handler into the queue for both delivery job
// kinds. Single and bulk sends run the same loop; the kinds exist so rate
// limiting can diverge later.
func (w *DeliveryWorker) Register(q *queue.Queue) {
	q.Process(campaigndomain.JobSingleSend, w.handleDelivery)
	q.Process(campaigndomain.JobBulkSend, w.handleDelivery)
}

func (w *DeliveryWorker) handleDelivery(ctx context.Context, payload any) error {
	job, ok := payload.(campaigndomain.DeliveryJob)
	if !ok {
		return fmt.Errorf("unexpected delivery payload type %T", payload)
	}

	campaign, err := w.campaignRepo.FindByID(job.CampaignID)
	if err != nil {
		return fmt.Errorf("load campaign %s: %w", job.CampaignID, err)
	}
	if campaign == nil {
		log.Printf("[Delivery] Campaign %s no longer exists, dropping job", job.CampaignID)
		return nil
	}
	// A cancel can race the scheduled fire; a cancelled campaign is
	// silently dropped rather than failed.
	if campaign.Status == campaigndomain.StatusCancelled {
		log.Printf("[Delivery] Campaign %s was cancelled, dropping job", campaign.ID)
		return nil
	}

	if err := w.campaignRepo.UpdateStatus(campaign.ID, campaigndomain.StatusSending); err != nil {
		return fmt.Errorf("mark campaign %s sending: %w", campaign.ID, err)
	}

	account, err := w.accountRepo.FindByID(job.AccountID)
	if err != nil {
		w.failCampaign(campaign.ID, err.Error())
		return fmt.Errorf("load mail account %s: %w", job.AccountID, err)
	}
	if account == nil {
		w.failCampaign(campaign.ID, fmt.Sprintf("mail account %s not found", job.AccountID))
		return fmt.Errorf("mail account %s not found", job.AccountID)
	}

	transport, err := w.openTransport(ctx, account)
	if err != nil {
		w.failCampaign(campaign.ID, err.Error())
		w.markAccountError(account.ID, err.Error())
		return err
	}

	recipients, err := w.recipientRepo.FindByIDs(job.RecipientIDs)
	if err != nil {
		w.failCampaign(campaign.ID, err.Error())
		return fmt.Errorf("load recipients: %w", err)
	}
	if len(recipients) == 0 {
		w.failCampaign(campaign.ID, "no recipients resolved at delivery time")
		return nil
	}

	fromName := w.senderName(account)

	sent := 0
	var lastSendErr error
	for _, r := range recipients {
		vars := r.TemplateVariables()
		msg := &accountdomain.OutgoingMessage{
			FromName: fromName,
			From:     account.Email,
			ToName:   r.Name,
			To:       r.Email,
			Subject:  template.Render(job.Subject, vars),
			HTMLBody: template.Render(job.Content, vars),
		}

		delivery := &campaigndomain.CampaignDelivery{
			CampaignID:  campaign.ID,
			RecipientID: r.ID,
			AccountID:   account.ID,
		}
		if err := transport.Send(ctx, msg); err != nil {
			log.Printf("[Delivery] Send to %s failed for campaign %s: %v", r.Email, campaign.ID, err)
			delivery.Status = campaigndomain.DeliveryFailed
			delivery.LastError = err.Error()
			lastSendErr = err
		} else {
			now := time.Now()
			delivery.Status = campaigndomain.DeliverySent
			delivery.SentAt = &now
			sent++
		}
		if err := w.campaignRepo.CreateDelivery(delivery); err != nil {
			log.Printf("[Delivery] Failed to record delivery for campaign %s recipient %s: %v", campaign.ID, r.ID, err)
		}
	}

	if sent == 0 {
		w.failCampaign(campaign.ID, lastSendErr.Error())
		w.markAccountError(account.ID, lastSendErr.Error())
		return fmt.Errorf("campaign %s: all %d sends failed: %w", campaign.ID, len(recipients), lastSendErr)
	}

	if err := w.campaignRepo.UpdateStatus(campaign.ID, campaigndomain.StatusCompleted); err != nil {
		return fmt.Errorf("mark campaign %s completed: %w", campaign.ID, err)
	}
	log.Printf("[Delivery] Campaign %s completed: %d/%d sent", campaign.ID, sent, len(recipients))
	return nil
}

// openTransport builds a send channel for the account. Tokens the provider
// refreshes mid-send are persisted so the next delivery starts from current
// credentials.
func (w *DeliveryWorker) openTransport(ctx context.Context, account *accountdomain.MailAccount) (mailer.Transport, error) {
	provider, err := w.providers.ForProvider(account.Provider)
	if err != nil {
		return nil, err
	}
	return provider.NewTransport(ctx, account, func(tokens *accountdomain.Tokens) error {
		if err := w.accountRepo.UpdateTokens(account.ID, tokens); err != nil {
			log.Printf("[Delivery] Failed to persist refreshed tokens for account %s: %v", account.ID, err)
			return err
		}
		return nil
	})
}

func (w *DeliveryWorker) senderName(account *accountdomain.MailAccount) string {
	user, err := w.userRepo.FindByID(account.UserID)
	if err != nil || user == nil {
		return ""
	}
	return user.Name
}

func (w *DeliveryWorker) failCampaign(campaignID, reason string) {
	log.Printf("[Delivery] Campaign %s failed: %s", campaignID, reason)
	if err := w.campaignRepo.UpdateStatus(campaignID, campaigndomain.StatusFailed); err != nil {
		log.Printf("[Delivery] Failed to mark campaign %s failed: %v", campaignID, err)
	}
}

func (w *DeliveryWorker) markAccountError(accountID, lastError string) {
	if err := w.accountRepo.UpdateStatus(accountID, accountdomain.AccountStatusError, lastError); err != nil {
		log.Printf("[Delivery] Failed to mark account %s errored: %v", accountID, err)
	}
}
