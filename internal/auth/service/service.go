package service

import (
	"context"
	"errors"
	"strings"

	"portal_backend/internal/auth/password"
	"portal_backend/internal/auth/repository"
	"portal_backend/platform/logger"

	"github.com/google/uuid"
)

// ErrEmailTaken is returned when a login already exists for the email.
var ErrEmailTaken = errors.New("email already registered")

var ErrInvalidCredentials = errors.New("invalid credentials")

type Service struct {
	repo repository.CredentialRepository
	log  *logger.Logger
}

func New(repo repository.CredentialRepository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// ProvisionCredential creates a portal login scoped to one customer. Only the
// bcrypt hash of secret reaches the store.
func (s *Service) ProvisionCredential(ctx context.Context, email, secret, role string, customerID uuid.UUID) (repository.Credential, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	hash, err := password.Hash(secret)
	if err != nil {
		return repository.Credential{}, err
	}

	credential, err := s.repo.CreateCredential(ctx, repository.CreateCredentialParams{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CustomerID:   customerID,
	})
	if errors.Is(err, repository.ErrEmailTaken) {
		s.log.WithContext(ctx).AuthEvent("credential_provisioned", email, false, "email taken")
		return repository.Credential{}, ErrEmailTaken
	}
	if err != nil {
		s.log.WithContext(ctx).DatabaseError("create_credential", err)
		return repository.Credential{}, err
	}

	s.log.WithContext(ctx).AuthEvent("credential_provisioned", email, true, "")
	return credential, nil
}

// Verify checks that secret matches the stored hash for email. No sign-in
// route exists in this service; tests use it to confirm an issued secret works.
func (s *Service) Verify(ctx context.Context, email, secret string) (repository.Credential, error) {
	credential, err := s.repo.GetCredentialByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return repository.Credential{}, ErrInvalidCredentials
	}
	if err := password.Compare(credential.PasswordHash, secret); err != nil {
		return repository.Credential{}, ErrInvalidCredentials
	}
	return credential, nil
}
