package adapters

import (
	"context"
	"errors"
	"fmt"

	"portal_backend/internal/conversion/domain"
	"portal_backend/internal/conversion/ports"
	customersrepo "portal_backend/internal/customers/repository"
	leadsrepo "portal_backend/internal/leads/repository"

	"github.com/google/uuid"
)

// LeadDeleter is the narrow interface for retiring a converted lead.
type LeadDeleter interface {
	Delete(ctx context.Context, id uuid.UUID) error
}

// ConversionRecordStore adapts the customers and leads repositories to
// conversion/ports.RecordStore. Each call is its own write; nothing spans a
// transaction.
type ConversionRecordStore struct {
	customers customersrepo.CustomerWriter
	leads     LeadDeleter
}

// NewConversionRecordStore creates a new record store adapter.
func NewConversionRecordStore(customers customersrepo.CustomerWriter, leads LeadDeleter) *ConversionRecordStore {
	return &ConversionRecordStore{customers: customers, leads: leads}
}

func (a *ConversionRecordStore) InsertCustomer(ctx context.Context, customer domain.NewCustomer) (domain.Customer, error) {
	created, err := a.customers.InsertCustomer(ctx, customersrepo.CreateCustomerParams{
		Name:    customer.Name,
		Email:   customer.Email,
		Phone:   customer.Phone,
		Company: customer.Company,
		City:    customer.City,
	})
	if err != nil {
		return domain.Customer{}, fmt.Errorf("insert customer: %w", err)
	}

	return domain.Customer{
		ID:        created.ID,
		Name:      created.Name,
		Email:     created.Email,
		Phone:     created.Phone,
		Company:   created.Company,
		City:      created.City,
		CreatedAt: created.CreatedAt,
	}, nil
}

func (a *ConversionRecordStore) InsertEngagement(ctx context.Context, engagement domain.NewEngagement) (domain.Engagement, error) {
	created, err := a.customers.InsertEngagement(ctx, customersrepo.CreateEngagementParams{
		CustomerID:    engagement.CustomerID,
		Title:         engagement.Title,
		Description:   engagement.Description,
		Status:        engagement.Status,
		StartDate:     engagement.StartDate,
		TargetEndDate: engagement.TargetEndDate,
		BudgetCents:   engagement.BudgetCents,
	})
	if err != nil {
		return domain.Engagement{}, fmt.Errorf("insert engagement: %w", err)
	}

	return domain.Engagement{
		ID:            created.ID,
		CustomerID:    created.CustomerID,
		Title:         created.Title,
		Description:   created.Description,
		Status:        created.Status,
		StartDate:     created.StartDate,
		TargetEndDate: created.TargetEndDate,
		BudgetCents:   created.BudgetCents,
		CreatedAt:     created.CreatedAt,
	}, nil
}

func (a *ConversionRecordStore) DeleteLead(ctx context.Context, leadID uuid.UUID) error {
	err := a.leads.Delete(ctx, leadID)
	if errors.Is(err, leadsrepo.ErrNotFound) {
		return ports.ErrLeadNotFound
	}
	if err != nil {
		return fmt.Errorf("delete lead: %w", err)
	}
	return nil
}

// ConversionLeadReader adapts the leads repository to conversion/ports.LeadReader.
type ConversionLeadReader struct {
	leads leadsrepo.LeadReader
}

// NewConversionLeadReader creates a new lead reader adapter.
func NewConversionLeadReader(leads leadsrepo.LeadReader) *ConversionLeadReader {
	return &ConversionLeadReader{leads: leads}
}

func (a *ConversionLeadReader) GetLead(ctx context.Context, leadID uuid.UUID) (domain.Lead, error) {
	lead, err := a.leads.GetByID(ctx, leadID)
	if errors.Is(err, leadsrepo.ErrNotFound) {
		return domain.Lead{}, ports.ErrLeadNotFound
	}
	if err != nil {
		return domain.Lead{}, fmt.Errorf("look up lead for conversion: %w", err)
	}

	return domain.Lead{
		ID:              lead.ID,
		FirstName:       lead.FirstName,
		LastName:        lead.LastName,
		Email:           lead.Email,
		Phone:           lead.Phone,
		Company:         lead.Company,
		City:            lead.City,
		ServiceCategory: lead.ServiceCategory,
		Description:     lead.Description,
		Status:          lead.Status,
	}, nil
}

var (
	_ ports.RecordStore = (*ConversionRecordStore)(nil)
	_ ports.LeadReader  = (*ConversionLeadReader)(nil)
)
