package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"portal_backend/internal/conversion/domain"
	"portal_backend/internal/conversion/ports"
	"portal_backend/internal/events"
	"portal_backend/platform/logger"
	"portal_backend/platform/validator"

	"github.com/google/uuid"
)

type fakeRecords struct {
	mu          sync.Mutex
	leads       map[uuid.UUID]domain.Lead
	customers   []domain.Customer
	engagements []domain.Engagement

	customerErr   error
	engagementErr error
	deleteErr     error
	deleteCalls   int

	// block, when set, is received from inside InsertCustomer.
	block chan struct{}
}

func newFakeRecords(leads ...domain.Lead) *fakeRecords {
	r := &fakeRecords{leads: make(map[uuid.UUID]domain.Lead)}
	for _, l := range leads {
		r.leads[l.ID] = l
	}
	return r
}

func (r *fakeRecords) InsertCustomer(_ context.Context, c domain.NewCustomer) (domain.Customer, error) {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.customerErr != nil {
		return domain.Customer{}, r.customerErr
	}
	created := domain.Customer{
		ID:        uuid.New(),
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Company:   c.Company,
		City:      c.City,
		CreatedAt: time.Now(),
	}
	r.customers = append(r.customers, created)
	return created, nil
}

func (r *fakeRecords) InsertEngagement(_ context.Context, e domain.NewEngagement) (domain.Engagement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.engagementErr != nil {
		return domain.Engagement{}, r.engagementErr
	}
	created := domain.Engagement{
		ID:            uuid.New(),
		CustomerID:    e.CustomerID,
		Title:         e.Title,
		Description:   e.Description,
		Status:        e.Status,
		StartDate:     e.StartDate,
		TargetEndDate: e.TargetEndDate,
		BudgetCents:   e.BudgetCents,
		CreatedAt:     time.Now(),
	}
	r.engagements = append(r.engagements, created)
	return created, nil
}

func (r *fakeRecords) DeleteLead(_ context.Context, leadID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleteCalls++
	if r.deleteErr != nil {
		return r.deleteErr
	}
	if _, ok := r.leads[leadID]; !ok {
		return ports.ErrLeadNotFound
	}
	delete(r.leads, leadID)
	return nil
}

func (r *fakeRecords) GetLead(_ context.Context, leadID uuid.UUID) (domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lead, ok := r.leads[leadID]
	if !ok {
		return domain.Lead{}, ports.ErrLeadNotFound
	}
	return lead, nil
}

func (r *fakeRecords) hasLead(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.leads[id]
	return ok
}

type fakeCredentials struct {
	mu          sync.Mutex
	byEmail     map[string]domain.Credential
	secrets     map[string]string
	err         error
	createCalls int

	// block, when set, is received from inside CreateCredential.
	block chan struct{}
}

func newFakeCredentials() *fakeCredentials {
	return &fakeCredentials{byEmail: make(map[string]domain.Credential), secrets: make(map[string]string)}
}

func (c *fakeCredentials) CreateCredential(_ context.Context, email, secret string, grant domain.Grant) (domain.Credential, error) {
	if c.block != nil {
		<-c.block
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.createCalls++
	if c.err != nil {
		return domain.Credential{}, c.err
	}
	if _, exists := c.byEmail[email]; exists {
		return domain.Credential{}, ports.ErrEmailAlreadyRegistered
	}
	cred := domain.Credential{ID: uuid.New(), Email: email, Grant: grant, CreatedAt: time.Now()}
	c.byEmail[email] = cred
	c.secrets[email] = secret
	return cred, nil
}

type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBus) PublishSync(ctx context.Context, event events.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func (b *recordingBus) named(name string) []events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []events.Event
	for _, e := range b.events {
		if e.EventName() == name {
			out = append(out, e)
		}
	}
	return out
}

// slowLeads delays every lead read so concurrent starts overlap.
type slowLeads struct {
	*fakeRecords
	delay time.Duration
}

func (l slowLeads) GetLead(ctx context.Context, leadID uuid.UUID) (domain.Lead, error) {
	time.Sleep(l.delay)
	return l.fakeRecords.GetLead(ctx, leadID)
}

type fakeLocker struct {
	mu      sync.Mutex
	holders map[uuid.UUID]string
	err     error
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{holders: make(map[uuid.UUID]string)}
}

func (l *fakeLocker) Acquire(_ context.Context, leadID uuid.UUID, owner string, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return false, l.err
	}
	if _, held := l.holders[leadID]; held {
		return false, nil
	}
	l.holders[leadID] = owner
	return true, nil
}

func (l *fakeLocker) Refresh(context.Context, uuid.UUID, string, time.Duration) error { return nil }

func (l *fakeLocker) Release(_ context.Context, leadID uuid.UUID, owner string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.holders[leadID] == owner {
		delete(l.holders, leadID)
	}
	return nil
}

func (l *fakeLocker) held(leadID uuid.UUID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.holders[leadID]
	return ok
}

type testConversionConfig struct{ ttl time.Duration }

func (c testConversionConfig) GetConversionSessionTTL() time.Duration { return c.ttl }
func (testConversionConfig) GetConversionPasswordMinLength() int      { return 8 }

var errStoreDown = errors.New("store down")

func strPtr(s string) *string { return &s }

func testLead() domain.Lead {
	return domain.Lead{
		ID:              uuid.New(),
		FirstName:       "Ada",
		LastName:        strPtr("Lovelace"),
		Email:           "a@b.com",
		Company:         strPtr("Acme"),
		ServiceCategory: "web_design",
		Description:     strPtr("Rebuild the marketing site"),
		Status:          "qualified",
	}
}

func validEngagement() domain.EngagementInput {
	start := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	return domain.EngagementInput{
		Title:         "Web Design – Acme",
		Description:   "Rebuild the marketing site",
		StartDate:     start,
		TargetEndDate: start.AddDate(0, 2, 0),
	}
}

const testPassword = "Xk9#mQ2pLz8!"

func validCredential() domain.CredentialInput {
	return domain.CredentialInput{Email: "a@b.com", Password: testPassword, PasswordConfirmation: testPassword}
}

// waitInFlight blocks until the session reports a submission in progress.
func waitInFlight(t *testing.T, orch *Orchestrator, session *Session) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !orch.GetState(session).Busy {
		if time.Now().After(deadline) {
			t.Fatal("submission never became in flight")
		}
		time.Sleep(time.Millisecond)
	}
}

func newTestOrchestrator(records *fakeRecords, creds *fakeCredentials, bus *recordingBus) *Orchestrator {
	return NewOrchestrator(records, creds, bus, validator.New(), logger.Discard(), 8)
}
