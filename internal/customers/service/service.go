package service

import (
	"context"
	"errors"

	"portal_backend/internal/customers/repository"
	"portal_backend/internal/customers/transport"
	"portal_backend/platform/apperr"

	"github.com/google/uuid"
)

const (
	dateLayout          = "2006-01-02"
	msgCustomerNotFound = "customer not found"
)

type Service struct {
	repo repository.CustomerReader
}

func New(repo repository.CustomerReader) *Service {
	return &Service{repo: repo}
}

// GetWithEngagements is the navigation target after a conversion is closed.
func (s *Service) GetWithEngagements(ctx context.Context, id uuid.UUID) (transport.CustomerResponse, error) {
	customer, err := s.repo.GetCustomer(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return transport.CustomerResponse{}, apperr.NotFound(msgCustomerNotFound)
	}
	if err != nil {
		return transport.CustomerResponse{}, err
	}

	engagements, err := s.repo.ListEngagements(ctx, id)
	if err != nil {
		return transport.CustomerResponse{}, err
	}

	resp := transport.CustomerResponse{
		ID:          customer.ID.String(),
		Name:        customer.Name,
		Email:       customer.Email,
		Phone:       customer.Phone,
		Company:     customer.Company,
		City:        customer.City,
		CreatedAt:   customer.CreatedAt,
		Engagements: make([]transport.EngagementResponse, 0, len(engagements)),
	}
	for _, e := range engagements {
		resp.Engagements = append(resp.Engagements, transport.EngagementResponse{
			ID:            e.ID.String(),
			CustomerID:    e.CustomerID.String(),
			Title:         e.Title,
			Description:   e.Description,
			Status:        e.Status,
			StartDate:     e.StartDate.Format(dateLayout),
			TargetEndDate: e.TargetEndDate.Format(dateLayout),
			BudgetCents:   e.BudgetCents,
			CreatedAt:     e.CreatedAt,
		})
	}
	return resp, nil
}
