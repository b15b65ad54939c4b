package repository

import (
	"context"

	"github.com/google/uuid"
)

// CustomerReader provides read-only access to customers and their engagements.
type CustomerReader interface {
	GetCustomer(ctx context.Context, id uuid.UUID) (Customer, error)
	ListEngagements(ctx context.Context, customerID uuid.UUID) ([]Engagement, error)
}

// CustomerWriter creates customers and engagements.
type CustomerWriter interface {
	InsertCustomer(ctx context.Context, params CreateCustomerParams) (Customer, error)
	InsertEngagement(ctx context.Context, params CreateEngagementParams) (Engagement, error)
}

// CustomersRepository combines all customer operations.
type CustomersRepository interface {
	CustomerReader
	CustomerWriter
}

// Ensure Repository implements CustomersRepository
var _ CustomersRepository = (*Repository)(nil)
