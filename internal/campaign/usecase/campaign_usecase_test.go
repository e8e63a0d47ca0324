package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	authdomain "avencrm-mailer/internal/auth/domain"
	campaigndomain "avencrm-mailer/internal/campaign/domain"
	accountdomain "avencrm-mailer/internal/mailaccount/domain"
	recipientdomain "avencrm-mailer/internal/recipient/domain"
	"avencrm-mailer/pkg/queue"
)

// ---- fakes ----

type fakeUserRepo struct {
	users map[string]*authdomain.User
}

func (f *fakeUserRepo) Create(*authdomain.User) error  { return nil }
func (f *fakeUserRepo) Update(*authdomain.User) error  { return nil }
func (f *fakeUserRepo) FindByEmail(string) (*authdomain.User, error) {
	return nil, nil
}
func (f *fakeUserRepo) FindByID(id string) (*authdomain.User, error) {
	return f.users[id], nil
}
func (f *fakeUserRepo) CreateCompany(*authdomain.Company) error { return nil }
func (f *fakeUserRepo) FindCompanyByID(string) (*authdomain.Company, error) {
	return nil, nil
}
func (f *fakeUserRepo) SaveRefreshToken(*authdomain.RefreshToken) error { return nil }
func (f *fakeUserRepo) FindRefreshToken(string) (*authdomain.RefreshToken, error) {
	return nil, nil
}
func (f *fakeUserRepo) DeleteRefreshToken(string) error { return nil }

type fakeAccountRepo struct {
	active map[string][]*accountdomain.MailAccount
}

func (f *fakeAccountRepo) Create(*accountdomain.MailAccount) error { return nil }
func (f *fakeAccountRepo) FindByID(string) (*accountdomain.MailAccount, error) {
	return nil, nil
}
func (f *fakeAccountRepo) FindByUser(string) ([]*accountdomain.MailAccount, error) {
	return nil, nil
}
func (f *fakeAccountRepo) FindActiveByUser(userID string) ([]*accountdomain.MailAccount, error) {
	return f.active[userID], nil
}
func (f *fakeAccountRepo) UpdateTokens(string, *accountdomain.Tokens) error { return nil }
func (f *fakeAccountRepo) UpdateStatus(string, accountdomain.AccountStatus, string) error {
	return nil
}
func (f *fakeAccountRepo) Deactivate(string) error { return nil }

type fakeRecipientRepo struct {
	recipients map[string]*recipientdomain.Recipient
}

func (f *fakeRecipientRepo) Create(*recipientdomain.Recipient) error { return nil }
func (f *fakeRecipientRepo) FindByID(id string) (*recipientdomain.Recipient, error) {
	return f.recipients[id], nil
}
func (f *fakeRecipientRepo) FindByIDs(ids []string) ([]*recipientdomain.Recipient, error) {
	var out []*recipientdomain.Recipient
	for _, id := range ids {
		if r, ok := f.recipients[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}
func (f *fakeRecipientRepo) FindByIDsForCompany(companyID string, ids []string) ([]*recipientdomain.Recipient, error) {
	var out []*recipientdomain.Recipient
	for _, id := range ids {
		if r, ok := f.recipients[id]; ok && r.CompanyID == companyID {
			out = append(out, r)
		}
	}
	return out, nil
}
func (f *fakeRecipientRepo) FindByCompany(string, int, int) ([]*recipientdomain.Recipient, int64, error) {
	return nil, 0, nil
}
func (f *fakeRecipientRepo) Update(*recipientdomain.Recipient) error { return nil }
func (f *fakeRecipientRepo) Delete(string) error                     { return nil }

type fakeCampaignRepo struct {
	campaigns        map[string]*campaigndomain.Campaign
	creates          int
	markScheduledErr error
}

func newFakeCampaignRepo() *fakeCampaignRepo {
	return &fakeCampaignRepo{campaigns: make(map[string]*campaigndomain.Campaign)}
}

func (f *fakeCampaignRepo) CreateWithRecipients(c *campaigndomain.Campaign, recipients []*recipientdomain.Recipient) error {
	f.creates++
	if c.ID == "" {
		c.ID = "camp-1"
	}
	for _, r := range recipients {
		c.Recipients = append(c.Recipients, *r)
	}
	f.campaigns[c.ID] = c
	return nil
}

func (f *fakeCampaignRepo) FindByID(id string) (*campaigndomain.Campaign, error) {
	return f.campaigns[id], nil
}

func (f *fakeCampaignRepo) FindByCompany(string, int, int) ([]*campaigndomain.Campaign, int64, error) {
	return nil, 0, nil
}

func (f *fakeCampaignRepo) UpdateStatus(id string, status campaigndomain.CampaignStatus) error {
	if c, ok := f.campaigns[id]; ok {
		c.Status = status
	}
	return nil
}

func (f *fakeCampaignRepo) MarkScheduled(id, jobID string) error {
	if f.markScheduledErr != nil {
		return f.markScheduledErr
	}
	if c, ok := f.campaigns[id]; ok {
		c.Status = campaigndomain.StatusScheduled
		c.JobID = jobID
	}
	return nil
}

func (f *fakeCampaignRepo) CreateDelivery(*campaigndomain.CampaignDelivery) error { return nil }
func (f *fakeCampaignRepo) DeliveryStats(string) (map[campaigndomain.DeliveryStatus]int64, error) {
	return nil, nil
}

type addedJob struct {
	name string
	opts queue.Options
	job  campaigndomain.DeliveryJob
}

type fakeQueue struct {
	added     []addedJob
	addErr    error
	removeErr error
	removed   []string
}

func (f *fakeQueue) Add(name string, payload any, opts queue.Options) (*queue.Job, error) {
	if f.addErr != nil {
		return nil, f.addErr
	}
	f.added = append(f.added, addedJob{name: name, opts: opts, job: payload.(campaigndomain.DeliveryJob)})
	return &queue.Job{ID: "job-1", Name: name, Payload: payload, Opts: opts}, nil
}

func (f *fakeQueue) Remove(jobID string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	f.removed = append(f.removed, jobID)
	return nil
}

func fixtureUsecase(q DeliveryQueue) (*fakeCampaignRepo, CampaignUsecase) {
	campaignRepo := newFakeCampaignRepo()
	users := &fakeUserRepo{users: map[string]*authdomain.User{
		"u1": {ID: "u1", CompanyID: "co1", Role: authdomain.RoleAgent},
	}}
	accounts := &fakeAccountRepo{active: map[string][]*accountdomain.MailAccount{
		"u1": {
			{ID: "acct-1", UserID: "u1", Email: "first@gmail.com", IsActive: true, Status: accountdomain.AccountStatusActive},
			{ID: "acct-2", UserID: "u1", Email: "second@gmail.com", IsActive: true, Status: accountdomain.AccountStatusActive},
		},
	}}
	recipients := &fakeRecipientRepo{recipients: map[string]*recipientdomain.Recipient{
		"r1": {ID: "r1", CompanyID: "co1", Email: "r1@example.com", Name: "One"},
		"r2": {ID: "r2", CompanyID: "co1", Email: "r2@example.com", Name: "Two"},
	}}

	uc := NewCampaignUsecase(campaignRepo, recipients, accounts, users, q)
	return campaignRepo, uc
}

// ---- tests ----

func TestCreateCampaignHappyPath(t *testing.T) {
	q := &fakeQueue{}
	repo, uc := fixtureUsecase(q)

	result, err := uc.CreateCampaign(context.Background(), "u1", CreateCampaignInput{
		Title:        "Promo",
		Subject:      "Subject",
		Content:      "Hi {{name}}",
		RecipientIDs: []string{"r1", "r2"},
	})
	if err != nil {
		t.Fatal(err)
	}

	campaign := repo.campaigns[result.CampaignID]
	if campaign == nil {
		t.Fatal("campaign not persisted")
	}
	if campaign.Status != campaigndomain.StatusScheduled {
		t.Errorf("expected SCHEDULED after enqueue, got %s", campaign.Status)
	}
	if len(campaign.Recipients) != 2 {
		t.Errorf("expected 2 linked recipients, got %d", len(campaign.Recipients))
	}
	if result.RecipientCount != 2 || len(result.SkippedRecipientIDs) != 0 {
		t.Errorf("unexpected result: %+v", result)
	}

	if len(q.added) != 1 {
		t.Fatalf("expected exactly one queue job, got %d", len(q.added))
	}
	added := q.added[0]
	if added.name != campaigndomain.JobBulkSend {
		t.Errorf("expected bulk job kind for 2 recipients, got %s", added.name)
	}
	if added.opts.Delay != 0 {
		t.Errorf("expected delay 0 with no schedule, got %v", added.opts.Delay)
	}
	if added.opts.Attempts != 1 {
		t.Errorf("expected attempts=1, got %d", added.opts.Attempts)
	}
	if added.opts.RemoveOnFail {
		t.Error("failed jobs must be retained for inspection")
	}
	if added.job.AccountID != "acct-1" {
		t.Errorf("expected first active account, got %s", added.job.AccountID)
	}
	if result.JobID != campaign.JobID {
		t.Errorf("campaign job id %q does not match result %q", campaign.JobID, result.JobID)
	}
}

func TestCreateCampaignNoActiveAccountsFailsFast(t *testing.T) {
	q := &fakeQueue{}
	campaignRepo := newFakeCampaignRepo()
	users := &fakeUserRepo{users: map[string]*authdomain.User{
		"u1": {ID: "u1", CompanyID: "co1"},
	}}
	accounts := &fakeAccountRepo{active: map[string][]*accountdomain.MailAccount{}}
	recipients := &fakeRecipientRepo{recipients: map[string]*recipientdomain.Recipient{
		"r1": {ID: "r1", CompanyID: "co1", Email: "r1@example.com"},
	}}
	uc := NewCampaignUsecase(campaignRepo, recipients, accounts, users, q)

	_, err := uc.CreateCampaign(context.Background(), "u1", CreateCampaignInput{
		Title: "Promo", Subject: "S", Content: "C", RecipientIDs: []string{"r1"},
	})
	if !errors.Is(err, ErrNoActiveAccounts) {
		t.Fatalf("expected ErrNoActiveAccounts, got %v", err)
	}
	if campaignRepo.creates != 0 {
		t.Error("no campaign row may be persisted when the user cannot send")
	}
	if len(q.added) != 0 {
		t.Error("no job may be enqueued")
	}
}

func TestCreateCampaignUnknownUser(t *testing.T) {
	q := &fakeQueue{}
	_, uc := fixtureUsecase(q)

	_, err := uc.CreateCampaign(context.Background(), "ghost", CreateCampaignInput{
		Title: "Promo", Subject: "S", Content: "C", RecipientIDs: []string{"r1"},
	})
	if !errors.Is(err, ErrAgentNotFound) {
		t.Fatalf("expected ErrAgentNotFound, got %v", err)
	}
}

func TestCreateCampaignPartialRecipientMatch(t *testing.T) {
	q := &fakeQueue{}
	repo, uc := fixtureUsecase(q)

	result, err := uc.CreateCampaign(context.Background(), "u1", CreateCampaignInput{
		Title: "Promo", Subject: "S", Content: "C",
		RecipientIDs: []string{"r1", "nonexistent"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if result.RecipientCount != 1 {
		t.Errorf("expected 1 resolved recipient, got %d", result.RecipientCount)
	}
	if len(result.SkippedRecipientIDs) != 1 || result.SkippedRecipientIDs[0] != "nonexistent" {
		t.Errorf("expected skipped id reported, got %v", result.SkippedRecipientIDs)
	}
	if got := len(repo.campaigns[result.CampaignID].Recipients); got != 1 {
		t.Errorf("expected 1 linked recipient, got %d", got)
	}
	if q.added[0].name != campaigndomain.JobSingleSend {
		t.Errorf("expected single-send kind for 1 recipient, got %s", q.added[0].name)
	}
}

func TestCreateCampaignSkipsForeignCompanyRecipients(t *testing.T) {
	q := &fakeQueue{}
	campaignRepo := newFakeCampaignRepo()
	users := &fakeUserRepo{users: map[string]*authdomain.User{
		"u1": {ID: "u1", CompanyID: "co1"},
	}}
	accounts := &fakeAccountRepo{active: map[string][]*accountdomain.MailAccount{
		"u1": {{ID: "acct-1", UserID: "u1", Email: "agent@gmail.com", IsActive: true, Status: accountdomain.AccountStatusActive}},
	}}
	recipients := &fakeRecipientRepo{recipients: map[string]*recipientdomain.Recipient{
		"r1":      {ID: "r1", CompanyID: "co1", Email: "ours@example.com"},
		"foreign": {ID: "foreign", CompanyID: "other-co", Email: "theirs@example.com"},
	}}
	uc := NewCampaignUsecase(campaignRepo, recipients, accounts, users, q)

	result, err := uc.CreateCampaign(context.Background(), "u1", CreateCampaignInput{
		Title: "Promo", Subject: "S", Content: "C",
		RecipientIDs: []string{"r1", "foreign"},
	})
	if err != nil {
		t.Fatal(err)
	}

	// A recipient owned by another company behaves like an unknown id.
	if result.RecipientCount != 1 {
		t.Errorf("expected 1 resolved recipient, got %d", result.RecipientCount)
	}
	if len(result.SkippedRecipientIDs) != 1 || result.SkippedRecipientIDs[0] != "foreign" {
		t.Errorf("foreign recipient must be reported skipped, got %v", result.SkippedRecipientIDs)
	}
	campaign := campaignRepo.campaigns[result.CampaignID]
	for _, r := range campaign.Recipients {
		if r.CompanyID != "co1" {
			t.Errorf("campaign linked to foreign recipient %s", r.ID)
		}
	}
	if got := q.added[0].job.RecipientIDs; len(got) != 1 || got[0] != "r1" {
		t.Errorf("job must only carry the company's recipients, got %v", got)
	}

	// All-foreign lists resolve to nothing at all.
	_, err = uc.CreateCampaign(context.Background(), "u1", CreateCampaignInput{
		Title: "Promo", Subject: "S", Content: "C",
		RecipientIDs: []string{"foreign"},
	})
	if !errors.Is(err, ErrNoRecipients) {
		t.Fatalf("expected ErrNoRecipients for all-foreign list, got %v", err)
	}
}

func TestCreateCampaignNoResolvedRecipients(t *testing.T) {
	q := &fakeQueue{}
	repo, uc := fixtureUsecase(q)

	_, err := uc.CreateCampaign(context.Background(), "u1", CreateCampaignInput{
		Title: "Promo", Subject: "S", Content: "C",
		RecipientIDs: []string{"nope-1", "nope-2"},
	})
	if !errors.Is(err, ErrNoRecipients) {
		t.Fatalf("expected ErrNoRecipients, got %v", err)
	}
	if repo.creates != 0 {
		t.Error("campaign must not be created without recipients")
	}
}

func TestCreateCampaignEnqueueFailureMarksFailed(t *testing.T) {
	q := &fakeQueue{addErr: errors.New("queue unavailable")}
	repo, uc := fixtureUsecase(q)

	_, err := uc.CreateCampaign(context.Background(), "u1", CreateCampaignInput{
		Title: "Promo", Subject: "S", Content: "C", RecipientIDs: []string{"r1"},
	})
	if err == nil {
		t.Fatal("expected error")
	}

	// The row exists but is visibly FAILED, never SCHEDULED-without-a-job.
	if repo.creates != 1 {
		t.Fatalf("expected a persisted campaign, got %d", repo.creates)
	}
	for _, c := range repo.campaigns {
		if c.Status != campaigndomain.StatusFailed {
			t.Errorf("expected FAILED status, got %s", c.Status)
		}
	}
}

func TestCreateCampaignMarkScheduledFailureReclaimsJob(t *testing.T) {
	q := &fakeQueue{}
	repo, uc := fixtureUsecase(q)
	repo.markScheduledErr = errors.New("db connection lost")

	_, err := uc.CreateCampaign(context.Background(), "u1", CreateCampaignInput{
		Title: "Promo", Subject: "S", Content: "C", RecipientIDs: []string{"r1"},
	})
	if err == nil {
		t.Fatal("expected error")
	}

	// The accepted job must not stay live against a row that never
	// recorded it.
	if len(q.removed) != 1 || q.removed[0] != "job-1" {
		t.Errorf("expected the enqueued job removed, got %v", q.removed)
	}
	for _, c := range repo.campaigns {
		if c.Status != campaigndomain.StatusFailed {
			t.Errorf("expected FAILED status, got %s", c.Status)
		}
	}
}

func TestScheduleEmailDelayComputation(t *testing.T) {
	q := &fakeQueue{}
	_, uc := fixtureUsecase(q)

	future := time.Now().Add(10 * time.Minute)
	if _, err := uc.ScheduleEmail(ScheduleEmailInput{
		AccountID: "acct-1", RecipientIDs: []string{"r1"}, ScheduledFor: &future,
	}); err != nil {
		t.Fatal(err)
	}

	delay := q.added[0].opts.Delay
	if delay < 9*time.Minute+59*time.Second || delay > 10*time.Minute {
		t.Errorf("expected ~10m delay, got %v", delay)
	}

	past := time.Now().Add(-time.Minute)
	if _, err := uc.ScheduleEmail(ScheduleEmailInput{
		AccountID: "acct-1", RecipientIDs: []string{"r1"}, ScheduledFor: &past,
	}); err != nil {
		t.Fatal(err)
	}
	if got := q.added[1].opts.Delay; got != 0 {
		t.Errorf("past schedule must yield delay 0, got %v", got)
	}

	if _, err := uc.ScheduleEmail(ScheduleEmailInput{
		AccountID: "acct-1", RecipientIDs: []string{"r1"},
	}); err != nil {
		t.Fatal(err)
	}
	if got := q.added[2].opts.Delay; got != 0 {
		t.Errorf("omitted schedule must yield delay 0, got %v", got)
	}
}

func TestScheduleEmailRejectsEmptyRecipientList(t *testing.T) {
	q := &fakeQueue{}
	_, uc := fixtureUsecase(q)

	if _, err := uc.ScheduleEmail(ScheduleEmailInput{AccountID: "acct-1"}); err == nil {
		t.Fatal("expected error for empty recipient list")
	}
	if len(q.added) != 0 {
		t.Error("nothing may be enqueued")
	}
}

func TestCancelCampaignIsIdempotent(t *testing.T) {
	q := &fakeQueue{}
	repo, uc := fixtureUsecase(q)

	result, err := uc.CreateCampaign(context.Background(), "u1", CreateCampaignInput{
		Title: "Promo", Subject: "S", Content: "C", RecipientIDs: []string{"r1"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := uc.CancelCampaign(context.Background(), "co1", result.CampaignID); err != nil {
		t.Fatalf("first cancel: %v", err)
	}
	if repo.campaigns[result.CampaignID].Status != campaigndomain.StatusCancelled {
		t.Error("expected CANCELLED status")
	}
	if len(q.removed) != 1 || q.removed[0] != result.JobID {
		t.Errorf("expected queue job removed, got %v", q.removed)
	}

	if err := uc.CancelCampaign(context.Background(), "co1", result.CampaignID); err != nil {
		t.Fatalf("second cancel must be a no-op, got %v", err)
	}
}

func TestCancelCampaignAlreadyPickedUp(t *testing.T) {
	q := &fakeQueue{removeErr: queue.ErrJobActive}
	repo, uc := fixtureUsecase(q)

	result, err := uc.CreateCampaign(context.Background(), "u1", CreateCampaignInput{
		Title: "Promo", Subject: "S", Content: "C", RecipientIDs: []string{"r1"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := uc.CancelCampaign(context.Background(), "co1", result.CampaignID); !errors.Is(err, ErrCampaignInDelivery) {
		t.Fatalf("expected ErrCampaignInDelivery, got %v", err)
	}
	if repo.campaigns[result.CampaignID].Status == campaigndomain.StatusCancelled {
		t.Error("a picked-up campaign must not be reactivated as cancelled")
	}

	repo.campaigns[result.CampaignID].Status = campaigndomain.StatusSending
	if err := uc.CancelCampaign(context.Background(), "co1", result.CampaignID); !errors.Is(err, ErrCampaignInDelivery) {
		t.Fatalf("expected ErrCampaignInDelivery for SENDING campaign, got %v", err)
	}
}

func TestCancelCampaignWrongCompany(t *testing.T) {
	q := &fakeQueue{}
	_, uc := fixtureUsecase(q)

	result, err := uc.CreateCampaign(context.Background(), "u1", CreateCampaignInput{
		Title: "Promo", Subject: "S", Content: "C", RecipientIDs: []string{"r1"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := uc.CancelCampaign(context.Background(), "other-co", result.CampaignID); !errors.Is(err, ErrCampaignNotFound) {
		t.Fatalf("expected ErrCampaignNotFound, got %v", err)
	}
}
