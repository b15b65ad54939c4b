package adapters

import (
	"context"
	"errors"

	authrepo "portal_backend/internal/auth/repository"
	authsvc "portal_backend/internal/auth/service"
	"portal_backend/internal/conversion/domain"
	"portal_backend/internal/conversion/ports"

	"github.com/google/uuid"
)

// CredentialProvisioner is the narrow interface onto the auth service.
type CredentialProvisioner interface {
	ProvisionCredential(ctx context.Context, email, secret, role string, customerID uuid.UUID) (authrepo.Credential, error)
}

// ConversionCredentialStore adapts the auth service to conversion/ports.CredentialStore.
type ConversionCredentialStore struct {
	auth CredentialProvisioner
}

// NewConversionCredentialStore creates a new credential store adapter.
func NewConversionCredentialStore(auth CredentialProvisioner) *ConversionCredentialStore {
	return &ConversionCredentialStore{auth: auth}
}

func (a *ConversionCredentialStore) CreateCredential(ctx context.Context, email, secret string, grant domain.Grant) (domain.Credential, error) {
	credential, err := a.auth.ProvisionCredential(ctx, email, secret, grant.Role, grant.CustomerID)
	if errors.Is(err, authsvc.ErrEmailTaken) {
		return domain.Credential{}, ports.ErrEmailAlreadyRegistered
	}
	if err != nil {
		return domain.Credential{}, err
	}

	return domain.Credential{
		ID:    credential.ID,
		Email: credential.Email,
		Grant: domain.Grant{
			Role:       credential.Role,
			CustomerID: credential.CustomerID,
		},
		CreatedAt: credential.CreatedAt,
	}, nil
}

var _ ports.CredentialStore = (*ConversionCredentialStore)(nil)
