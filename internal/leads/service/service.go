package service

import (
	"context"
	"errors"
	"strings"

	"portal_backend/internal/events"
	"portal_backend/internal/leads/repository"
	"portal_backend/internal/leads/transport"
	"portal_backend/platform/apperr"
	"portal_backend/platform/phone"
	"portal_backend/platform/sanitize"

	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	msgLeadNotFound = "lead not found"
)

type Service struct {
	repo     repository.LeadsRepository
	eventBus events.Bus
}

func New(repo repository.LeadsRepository, eventBus events.Bus) *Service {
	return &Service{repo: repo, eventBus: eventBus}
}

func (s *Service) Create(ctx context.Context, req transport.CreateLeadRequest) (transport.LeadResponse, error) {
	params := repository.CreateLeadParams{
		FirstName:       sanitize.Text(req.FirstName),
		LastName:        sanitize.OptionalText(req.LastName),
		Email:           strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:           phone.NormalizeOptional(req.Phone),
		Company:         sanitize.OptionalText(req.Company),
		City:            sanitize.OptionalText(req.City),
		ServiceCategory: sanitize.Text(req.ServiceCategory),
		Description:     sanitize.OptionalText(req.Description),
		InternalNotes:   sanitize.OptionalText(req.InternalNotes),
	}
	if params.FirstName == "" {
		return transport.LeadResponse{}, apperr.Validation("first name is required")
	}

	lead, err := s.repo.Create(ctx, params)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.LeadCreated{
			BaseEvent:       events.NewBaseEvent(),
			LeadID:          lead.ID,
			Name:            fullName(lead),
			Email:           lead.Email,
			ServiceCategory: lead.ServiceCategory,
		})
	}

	return ToLeadResponse(lead), nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.LeadResponse, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.LeadResponse{}, mapNotFound(err)
	}
	return ToLeadResponse(lead), nil
}

func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, req transport.UpdateLeadStatusRequest) (transport.LeadResponse, error) {
	lead, err := s.repo.UpdateStatus(ctx, id, string(req.Status))
	if err != nil {
		return transport.LeadResponse{}, mapNotFound(err)
	}
	return ToLeadResponse(lead), nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return mapNotFound(s.repo.Delete(ctx, id))
}

func (s *Service) List(ctx context.Context, req transport.ListLeadsRequest) (transport.LeadListResponse, error) {
	page := max(req.Page, 1)
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}

	params := repository.ListParams{
		Search:   req.Search,
		Offset:   (page - 1) * pageSize,
		Limit:    pageSize,
		SortDesc: req.SortDesc,
	}
	if req.Status != "" {
		status := req.Status
		params.Status = &status
	}

	leads, total, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.LeadListResponse{}, err
	}

	items := make([]transport.LeadResponse, 0, len(leads))
	for _, lead := range leads {
		items = append(items, ToLeadResponse(lead))
	}

	return transport.LeadListResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	}, nil
}

func fullName(lead repository.Lead) string {
	if lead.LastName == nil || *lead.LastName == "" {
		return lead.FirstName
	}
	return lead.FirstName + " " + *lead.LastName
}

func mapNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(msgLeadNotFound)
	}
	return err
}

func ToLeadResponse(lead repository.Lead) transport.LeadResponse {
	return transport.LeadResponse{
		ID:              lead.ID.String(),
		FirstName:       lead.FirstName,
		LastName:        lead.LastName,
		Email:           lead.Email,
		Phone:           lead.Phone,
		Company:         lead.Company,
		City:            lead.City,
		ServiceCategory: lead.ServiceCategory,
		Description:     lead.Description,
		Status:          lead.Status,
		InternalNotes:   lead.InternalNotes,
		CreatedAt:       lead.CreatedAt,
		UpdatedAt:       lead.UpdatedAt,
	}
}
