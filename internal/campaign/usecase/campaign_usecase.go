package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	authrepo "avencrm-mailer/internal/auth/repository"
	campaigndomain "avencrm-mailer/internal/campaign/domain"
	"avencrm-mailer/internal/campaign/repository"
	accountrepo "avencrm-mailer/internal/mailaccount/repository"
	recipientrepo "avencrm-mailer/internal/recipient/repository"
	"avencrm-mailer/pkg/queue"
)

// deliveryAttempts is 1 on purpose: the scheduler fires each campaign job
// once. The exponential backoff below is inert until this is raised above
// 1; it is kept configured so raising attempts is a one-line change.
const deliveryAttempts = 1

const deliveryBackoffBase = time.Second

var (
	ErrAgentNotFound      = errors.New("agent not found")
	ErrNoActiveAccounts   = errors.New("no active email accounts found")
	ErrNoRecipients       = errors.New("no matching recipients found")
	ErrCampaignNotFound   = errors.New("campaign not found")
	ErrCampaignInDelivery = errors.New("campaign already picked up for delivery")
)

// campaignUsecase implements CampaignUsecase
type campaignUsecase struct {
	campaignRepo  repository.CampaignRepository
	recipientRepo recipientrepo.RecipientRepository
	accountRepo   accountrepo.AccountRepository
	userRepo      authrepo.UserRepository
	queue         DeliveryQueue
}

func NewCampaignUsecase(
	campaignRepo repository.CampaignRepository,
	recipientRepo recipientrepo.RecipientRepository,
	accountRepo accountrepo.AccountRepository,
	userRepo authrepo.UserRepository,
	deliveryQueue DeliveryQueue,
) CampaignUsecase {
	return &campaignUsecase{
		campaignRepo:  campaignRepo,
		recipientRepo: recipientRepo,
		accountRepo:   accountRepo,
		userRepo:      userRepo,
		queue:         deliveryQueue,
	}
}

func (u *campaignUsecase) CreateCampaign(ctx context.Context, userID string, in CreateCampaignInput) (*CreateCampaignResult, error) {
	user, err := u.userRepo.FindByID(userID)
	if err != nil {
		log.Printf("[Campaign] User lookup failed for %s: %v", userID, err)
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}
	if user == nil {
		return nil, ErrAgentNotFound
	}

	// Availability is checked before anything is persisted: a user with no
	// working send identity must not end up with an orphaned campaign row.
	accounts, err := u.accountRepo.FindActiveByUser(userID)
	if err != nil {
		log.Printf("[Campaign] Account lookup failed for %s: %v", userID, err)
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}
	if len(accounts) == 0 {
		return nil, ErrNoActiveAccounts
	}

	// Ids owned by another company resolve the same as unknown ids: they
	// end up in the skipped list, never on the campaign.
	recipients, err := u.recipientRepo.FindByIDsForCompany(user.CompanyID, in.RecipientIDs)
	if err != nil {
		log.Printf("[Campaign] Recipient lookup failed: %v", err)
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}
	if len(recipients) == 0 {
		return nil, ErrNoRecipients
	}

	resolved := make(map[string]bool, len(recipients))
	resolvedIDs := make([]string, 0, len(recipients))
	for _, r := range recipients {
		resolved[r.ID] = true
		resolvedIDs = append(resolvedIDs, r.ID)
	}
	var skipped []string
	for _, id := range in.RecipientIDs {
		if !resolved[id] {
			skipped = append(skipped, id)
		}
	}

	campaign := &campaigndomain.Campaign{
		Title:       in.Title,
		Subject:     in.Subject,
		Content:     in.Content,
		Status:      campaigndomain.StatusPendingSchedule,
		ScheduledAt: in.ScheduledAt,
		CreatedByID: user.ID,
		CompanyID:   user.CompanyID,
	}
	if err := u.campaignRepo.CreateWithRecipients(campaign, recipients); err != nil {
		log.Printf("[Campaign] Persist failed: %v", err)
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}

	// First active account wins; there is no balancing across accounts.
	jobID, err := u.ScheduleEmail(ScheduleEmailInput{
		CampaignID:   campaign.ID,
		AccountID:    accounts[0].ID,
		RecipientIDs: resolvedIDs,
		Subject:      in.Subject,
		Content:      in.Content,
		ScheduledFor: in.ScheduledAt,
	})
	if err != nil {
		log.Printf("[Campaign] Enqueue failed for campaign %s: %v", campaign.ID, err)
		if markErr := u.campaignRepo.UpdateStatus(campaign.ID, campaigndomain.StatusFailed); markErr != nil {
			log.Printf("[Campaign] Failed to mark campaign %s failed: %v", campaign.ID, markErr)
		}
		return nil, fmt.Errorf("failed to schedule campaign delivery: %w", err)
	}

	// The campaign only becomes SCHEDULED once a job was accepted, so a
	// SCHEDULED row always has a backing job.
	if err := u.campaignRepo.MarkScheduled(campaign.ID, jobID); err != nil {
		log.Printf("[Campaign] Failed to mark campaign %s scheduled: %v", campaign.ID, err)
		// The job was accepted but the row could not record it; pull the
		// job back so it cannot fire against a PENDING_SCHEDULE campaign.
		if removeErr := u.queue.Remove(jobID); removeErr != nil {
			log.Printf("[Campaign] Failed to remove job %s for campaign %s: %v", jobID, campaign.ID, removeErr)
		}
		if markErr := u.campaignRepo.UpdateStatus(campaign.ID, campaigndomain.StatusFailed); markErr != nil {
			log.Printf("[Campaign] Failed to mark campaign %s failed: %v", campaign.ID, markErr)
		}
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}

	return &CreateCampaignResult{
		CampaignID:          campaign.ID,
		JobID:               jobID,
		RecipientCount:      len(recipients),
		SkippedRecipientIDs: skipped,
	}, nil
}

func (u *campaignUsecase) ScheduleEmail(in ScheduleEmailInput) (string, error) {
	if len(in.RecipientIDs) == 0 {
		return "", errors.New("recipient list must not be empty")
	}

	var delay time.Duration
	if in.ScheduledFor != nil {
		if d := time.Until(*in.ScheduledFor); d > 0 {
			delay = d
		}
	}

	jobName := campaigndomain.JobSingleSend
	if len(in.RecipientIDs) > 1 {
		jobName = campaigndomain.JobBulkSend
	}

	job, err := u.queue.Add(jobName, campaigndomain.DeliveryJob{
		CampaignID:   in.CampaignID,
		AccountID:    in.AccountID,
		RecipientIDs: in.RecipientIDs,
		Subject:      in.Subject,
		Content:      in.Content,
	}, queue.Options{
		Delay:            delay,
		Attempts:         deliveryAttempts,
		Backoff:          queue.BackoffOptions{Type: "exponential", Delay: deliveryBackoffBase},
		RemoveOnComplete: true,
		RemoveOnFail:     false,
	})
	if err != nil {
		return "", err
	}
	if job == nil {
		return "", nil
	}
	return job.ID, nil
}

func (u *campaignUsecase) CancelCampaign(ctx context.Context, companyID, campaignID string) error {
	campaign, err := u.campaignRepo.FindByID(campaignID)
	if err != nil {
		return fmt.Errorf("failed to cancel campaign: %w", err)
	}
	if campaign == nil || campaign.CompanyID != companyID {
		return ErrCampaignNotFound
	}

	// Cancelling twice is a no-op.
	if campaign.Status == campaigndomain.StatusCancelled {
		return nil
	}
	if !campaign.Cancellable() {
		return ErrCampaignInDelivery
	}

	if campaign.JobID != "" {
		if err := u.queue.Remove(campaign.JobID); err != nil {
			if errors.Is(err, queue.ErrJobActive) {
				return ErrCampaignInDelivery
			}
			return fmt.Errorf("failed to cancel campaign: %w", err)
		}
	}

	if err := u.campaignRepo.UpdateStatus(campaignID, campaigndomain.StatusCancelled); err != nil {
		return fmt.Errorf("failed to cancel campaign: %w", err)
	}
	return nil
}

func (u *campaignUsecase) ListCampaigns(companyID string, limit, offset int) ([]*campaigndomain.Campaign, int64, error) {
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return u.campaignRepo.FindByCompany(companyID, limit, offset)
}

func (u *campaignUsecase) GetCampaign(companyID, campaignID string) (*CampaignDetails, error) {
	campaign, err := u.campaignRepo.FindByID(campaignID)
	if err != nil {
		return nil, err
	}
	if campaign == nil || campaign.CompanyID != companyID {
		return nil, ErrCampaignNotFound
	}

	stats, err := u.campaignRepo.DeliveryStats(campaignID)
	if err != nil {
		return nil, err
	}

	return &CampaignDetails{Campaign: campaign, Stats: stats}, nil
}
