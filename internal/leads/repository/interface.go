package repository

import (
	"context"

	"github.com/google/uuid"
)

// LeadReader provides read-only access to lead data.
type LeadReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (Lead, error)
	List(ctx context.Context, params ListParams) ([]Lead, int, error)
}

// LeadWriter provides write operations for lead management.
type LeadWriter interface {
	Create(ctx context.Context, params CreateLeadParams) (Lead, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (Lead, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// LeadsRepository combines all lead operations.
type LeadsRepository interface {
	LeadReader
	LeadWriter
}

// Ensure Repository implements LeadsRepository
var _ LeadsRepository = (*Repository)(nil)
