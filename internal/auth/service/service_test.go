package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"portal_backend/internal/auth/repository"
	"portal_backend/platform/logger"

	"github.com/google/uuid"
)

type memoryCredentials struct {
	byEmail map[string]repository.Credential
}

func (m *memoryCredentials) CreateCredential(_ context.Context, params repository.CreateCredentialParams) (repository.Credential, error) {
	key := strings.ToLower(params.Email)
	if _, ok := m.byEmail[key]; ok {
		return repository.Credential{}, repository.ErrEmailTaken
	}
	credential := repository.Credential{
		ID:           uuid.New(),
		Email:        key,
		PasswordHash: params.PasswordHash,
		Role:         params.Role,
		CustomerID:   params.CustomerID,
		CreatedAt:    time.Now(),
	}
	m.byEmail[key] = credential
	return credential, nil
}

func (m *memoryCredentials) GetCredentialByEmail(_ context.Context, email string) (repository.Credential, error) {
	credential, ok := m.byEmail[strings.ToLower(email)]
	if !ok {
		return repository.Credential{}, repository.ErrNotFound
	}
	return credential, nil
}

func newTestService() (*Service, *memoryCredentials) {
	store := &memoryCredentials{byEmail: make(map[string]repository.Credential)}
	return New(store, logger.Discard()), store
}

func TestProvisionCredentialStoresHashAndGrant(t *testing.T) {
	svc, store := newTestService()
	customerID := uuid.New()

	credential, err := svc.ProvisionCredential(context.Background(), " Jane@Example.com ", "Xk9#mQ2pLz8!", "customer", customerID)
	if err != nil {
		t.Fatalf("ProvisionCredential returned error: %v", err)
	}
	if credential.Email != "jane@example.com" || credential.CustomerID != customerID || credential.Role != "customer" {
		t.Fatalf("unexpected credential: %+v", credential)
	}
	if stored := store.byEmail["jane@example.com"]; stored.PasswordHash == "Xk9#mQ2pLz8!" {
		t.Fatal("plain secret must never be stored")
	}

	if _, err := svc.Verify(context.Background(), "JANE@example.com", "Xk9#mQ2pLz8!"); err != nil {
		t.Fatalf("expected issued secret to verify, got %v", err)
	}
	if _, err := svc.Verify(context.Background(), "jane@example.com", "nope"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestProvisionCredentialEmailTaken(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.ProvisionCredential(ctx, "jane@example.com", "Xk9#mQ2pLz8!", "customer", uuid.New()); err != nil {
		t.Fatalf("first provision failed: %v", err)
	}
	_, err := svc.ProvisionCredential(ctx, "Jane@Example.com", "Other#Secret9", "customer", uuid.New())
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}
