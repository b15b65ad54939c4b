package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"portal_backend/internal/conversion/domain"
	"portal_backend/internal/conversion/lock"
	"portal_backend/internal/conversion/ports"
	"portal_backend/internal/conversion/service"
	"portal_backend/internal/conversion/transport"
	"portal_backend/internal/events"
	"portal_backend/platform/httpkit"
	"portal_backend/platform/logger"
	"portal_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const testJWTSecret = "test-secret"

type testJWTConfig struct{}

func (testJWTConfig) GetJWTAccessSecret() string { return testJWTSecret }

type testConversionConfig struct{}

func (testConversionConfig) GetConversionSessionTTL() time.Duration { return time.Hour }
func (testConversionConfig) GetConversionPasswordMinLength() int    { return 8 }

type memoryStore struct {
	leads     map[uuid.UUID]domain.Lead
	emails    map[string]bool
	deleteErr error
	// block, when set, is received from inside CreateCredential.
	block chan struct{}
}

func (m *memoryStore) GetLead(_ context.Context, id uuid.UUID) (domain.Lead, error) {
	lead, ok := m.leads[id]
	if !ok {
		return domain.Lead{}, ports.ErrLeadNotFound
	}
	return lead, nil
}

func (m *memoryStore) InsertCustomer(_ context.Context, c domain.NewCustomer) (domain.Customer, error) {
	return domain.Customer{ID: uuid.New(), Name: c.Name, Email: c.Email}, nil
}

func (m *memoryStore) InsertEngagement(_ context.Context, e domain.NewEngagement) (domain.Engagement, error) {
	return domain.Engagement{
		ID:            uuid.New(),
		CustomerID:    e.CustomerID,
		Title:         e.Title,
		Description:   e.Description,
		Status:        e.Status,
		StartDate:     e.StartDate,
		TargetEndDate: e.TargetEndDate,
	}, nil
}

func (m *memoryStore) DeleteLead(_ context.Context, id uuid.UUID) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.leads, id)
	return nil
}

func (m *memoryStore) CreateCredential(_ context.Context, email, _ string, grant domain.Grant) (domain.Credential, error) {
	if m.block != nil {
		<-m.block
	}
	if m.emails[email] {
		return domain.Credential{}, ports.ErrEmailAlreadyRegistered
	}
	m.emails[email] = true
	return domain.Credential{ID: uuid.New(), Email: email, Grant: grant}, nil
}

type testEnv struct {
	engine *gin.Engine
	store  *memoryStore
	leadID uuid.UUID
	token  string
}

func newTestEnv(t *testing.T, roles ...string) testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	company := "Acme"
	description := "Rebuild the marketing site"
	lead := domain.Lead{
		ID:              uuid.New(),
		FirstName:       "Ada",
		Email:           "a@b.com",
		Company:         &company,
		ServiceCategory: "web_design",
		Description:     &description,
		Status:          "qualified",
	}
	store := &memoryStore{leads: map[uuid.UUID]domain.Lead{lead.ID: lead}, emails: map[string]bool{}}

	log := logger.Discard()
	val := validator.New()
	bus := events.NewInMemoryBus(log)
	orch := service.NewOrchestrator(store, store, bus, val, log, 8)
	svc := service.New(orch, service.NewRegistry(), store, lock.Noop{}, testConversionConfig{}, log)

	engine := gin.New()
	group := engine.Group("/api/v1/conversions", httpkit.AuthRequired(testJWTConfig{}), httpkit.RequireRole("operator"))
	New(svc, val).RegisterRoutes(group)

	return testEnv{engine: engine, store: store, leadID: lead.ID, token: signToken(t, roles)}
}

func signToken(t *testing.T, roles []string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   uuid.NewString(),
		"type":  "access",
		"roles": roles,
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func (e testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.token)
	rec := httptest.NewRecorder()
	e.engine.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestWizardOverHTTP(t *testing.T) {
	env := newTestEnv(t, "operator")

	rec := env.do(t, http.MethodPost, "/api/v1/conversions", transport.StartConversionRequest{LeadID: env.leadID.String()})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	session := decode[transport.SessionResponse](t, rec)
	if session.Defaults.Title != "Web Design – Acme" || session.DefaultLoginEmail != "a@b.com" {
		t.Fatalf("unexpected defaults: %+v", session)
	}
	base := "/api/v1/conversions/" + session.ID

	rec = env.do(t, http.MethodPost, base+"/engagement", transport.SubmitEngagementRequest{
		Title:         session.Defaults.Title,
		Description:   session.Defaults.Description,
		StartDate:     "2026-11-01",
		TargetEndDate: "2027-01-01",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	session = decode[transport.SessionResponse](t, rec)
	if session.State != string(domain.StateCollectingCredential) || session.Engagement.StartDate != "2026-11-01" {
		t.Fatalf("unexpected session after engagement: %+v", session)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/conversions/generated-secret", nil)
	secret := decode[transport.GeneratedSecretResponse](t, rec)
	if len(secret.Password) != domain.SecretLength {
		t.Fatalf("expected generated secret, got %q", secret.Password)
	}

	rec = env.do(t, http.MethodPost, base+"/credential", transport.SubmitCredentialRequest{
		Email:                "a@b.com",
		Password:             secret.Password,
		PasswordConfirmation: secret.Password,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	session = decode[transport.SessionResponse](t, rec)
	if session.IssuedCredential == nil || session.IssuedCredential.Password != secret.Password {
		t.Fatalf("expected one-time credential, got %+v", session.IssuedCredential)
	}

	rec = env.do(t, http.MethodPost, base+"/close", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	closed := decode[transport.CloseResponse](t, rec)
	if closed.CustomerID != session.Customer.ID || closed.Session.IssuedCredential != nil {
		t.Fatalf("unexpected close response: %+v", closed)
	}

	rec = env.do(t, http.MethodGet, base, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected closed session to be gone, got %d", rec.Code)
	}
}

func TestAbandonDuringSubmissionIsConflict(t *testing.T) {
	env := newTestEnv(t, "operator")

	rec := env.do(t, http.MethodPost, "/api/v1/conversions", transport.StartConversionRequest{LeadID: env.leadID.String()})
	session := decode[transport.SessionResponse](t, rec)
	base := "/api/v1/conversions/" + session.ID
	rec = env.do(t, http.MethodPost, base+"/engagement", transport.SubmitEngagementRequest{
		Title:         session.Defaults.Title,
		Description:   session.Defaults.Description,
		StartDate:     "2026-11-01",
		TargetEndDate: "2027-01-01",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	env.store.block = make(chan struct{})
	body, err := json.Marshal(transport.SubmitCredentialRequest{Email: "a@b.com", Password: "Xk9#mQ2pLz8!", PasswordConfirmation: "Xk9#mQ2pLz8!"})
	if err != nil {
		t.Fatalf("encode body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, base+"/credential", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+env.token)
	submitted := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		env.engine.ServeHTTP(submitted, req)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for !decode[transport.SessionResponse](t, env.do(t, http.MethodGet, base, nil)).Busy {
		if time.Now().After(deadline) {
			t.Fatal("credential submission never became in flight")
		}
		time.Sleep(time.Millisecond)
	}

	rec = env.do(t, http.MethodDelete, base, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := decode[conversionErrorBody](t, rec).Details.Kind; got != string(domain.KindBusy) {
		t.Fatalf("expected busy kind, got %q", got)
	}

	close(env.store.block)
	<-done
	if submitted.Code != http.StatusOK {
		t.Fatalf("expected submission to finish, got %d: %s", submitted.Code, submitted.Body.String())
	}
	rec = env.do(t, http.MethodDelete, base, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 once idle, got %d: %s", rec.Code, rec.Body.String())
	}
}

type conversionErrorBody struct {
	Error   string                           `json:"error"`
	Details transport.ConversionErrorDetails `json:"details"`
}

func TestValidationErrorCarriesFieldsAndSession(t *testing.T) {
	env := newTestEnv(t, "operator")

	rec := env.do(t, http.MethodPost, "/api/v1/conversions", transport.StartConversionRequest{LeadID: env.leadID.String()})
	session := decode[transport.SessionResponse](t, rec)

	rec = env.do(t, http.MethodPost, "/api/v1/conversions/"+session.ID+"/engagement", transport.SubmitEngagementRequest{
		Title:       "abc",
		Description: "long enough description",
		StartDate:   "2026-11-01",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}

	body := decode[conversionErrorBody](t, rec)
	if body.Details.Kind != string(domain.KindValidation) {
		t.Fatalf("expected validation kind, got %+v", body.Details)
	}
	if body.Details.Fields["title"] != "min=5" || body.Details.Fields["targetEndDate"] != "required" {
		t.Fatalf("unexpected field errors: %v", body.Details.Fields)
	}
	if body.Details.Session == nil || body.Details.Session.State != string(domain.StateCollectingEngagement) {
		t.Fatal("expected session to be returned with the error")
	}
}

func TestLeadRetirementFailureIsDistinctOverHTTP(t *testing.T) {
	env := newTestEnv(t, "operator")
	env.store.deleteErr = context.DeadlineExceeded

	rec := env.do(t, http.MethodPost, "/api/v1/conversions", transport.StartConversionRequest{LeadID: env.leadID.String()})
	session := decode[transport.SessionResponse](t, rec)
	base := "/api/v1/conversions/" + session.ID

	env.do(t, http.MethodPost, base+"/engagement", transport.SubmitEngagementRequest{
		Title:         "Web Design – Acme",
		Description:   "Rebuild the marketing site",
		StartDate:     "2026-11-01",
		TargetEndDate: "2027-01-01",
	})
	rec = env.do(t, http.MethodPost, base+"/credential", transport.SubmitCredentialRequest{
		Email:                "a@b.com",
		Password:             "Xk9#mQ2pLz8!",
		PasswordConfirmation: "Xk9#mQ2pLz8!",
	})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decode[httpkit.ErrorResponse](t, rec)
	details, _ := body.Details.(map[string]any)
	if details["kind"] != string(domain.KindLeadRetirementFailed) || details["severity"] != string(domain.SeverityHigh) {
		t.Fatalf("unexpected details: %v", body.Details)
	}
}

func TestOperatorRoleRequired(t *testing.T) {
	env := newTestEnv(t, "customer")

	rec := env.do(t, http.MethodPost, "/api/v1/conversions", transport.StartConversionRequest{LeadID: env.leadID.String()})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestUnknownLeadIsNotFound(t *testing.T) {
	env := newTestEnv(t, "operator")

	rec := env.do(t, http.MethodPost, "/api/v1/conversions", transport.StartConversionRequest{LeadID: uuid.NewString()})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
