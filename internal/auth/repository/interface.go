package repository

import "context"

// CredentialRepository stores portal logins keyed by email.
type CredentialRepository interface {
	CreateCredential(ctx context.Context, params CreateCredentialParams) (Credential, error)
	GetCredentialByEmail(ctx context.Context, email string) (Credential, error)
}

// Ensure Repository implements CredentialRepository
var _ CredentialRepository = (*Repository)(nil)
