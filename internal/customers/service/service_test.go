package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"portal_backend/internal/customers/repository"
	"portal_backend/platform/apperr"

	"github.com/google/uuid"
)

type fakeReader struct {
	customers   map[uuid.UUID]repository.Customer
	engagements map[uuid.UUID][]repository.Engagement
}

func (f fakeReader) GetCustomer(_ context.Context, id uuid.UUID) (repository.Customer, error) {
	c, ok := f.customers[id]
	if !ok {
		return repository.Customer{}, repository.ErrNotFound
	}
	return c, nil
}

func (f fakeReader) ListEngagements(_ context.Context, customerID uuid.UUID) ([]repository.Engagement, error) {
	return f.engagements[customerID], nil
}

func TestGetWithEngagements(t *testing.T) {
	customerID := uuid.New()
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	reader := fakeReader{
		customers: map[uuid.UUID]repository.Customer{
			customerID: {ID: customerID, Name: "Jane Doe", Email: "jane@example.com"},
		},
		engagements: map[uuid.UUID][]repository.Engagement{
			customerID: {{
				ID:            uuid.New(),
				CustomerID:    customerID,
				Title:         "Web Design – Acme",
				Status:        "pending",
				StartDate:     start,
				TargetEndDate: start.AddDate(0, 2, 0),
			}},
		},
	}

	resp, err := New(reader).GetWithEngagements(context.Background(), customerID)
	if err != nil {
		t.Fatalf("GetWithEngagements returned error: %v", err)
	}
	if len(resp.Engagements) != 1 {
		t.Fatalf("expected one engagement, got %d", len(resp.Engagements))
	}
	if got := resp.Engagements[0]; got.StartDate != "2026-03-01" || got.TargetEndDate != "2026-05-01" {
		t.Fatalf("unexpected dates: %+v", got)
	}
}

func TestGetWithEngagementsNotFound(t *testing.T) {
	_, err := New(fakeReader{}).GetWithEngagements(context.Background(), uuid.New())
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
