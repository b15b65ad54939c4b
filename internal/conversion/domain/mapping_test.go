package domain

import (
	"testing"

	"github.com/google/uuid"
)

func strPtr(s string) *string { return &s }

func TestDefaultEngagementFieldsPrefersCompany(t *testing.T) {
	lead := Lead{
		ID:              uuid.New(),
		FirstName:       "Ada",
		LastName:        strPtr("Lovelace"),
		Email:           "a@b.com",
		Company:         strPtr("Acme"),
		ServiceCategory: "web_design",
		Description:     strPtr("Rebuild the marketing site"),
	}

	got := DefaultEngagementFields(lead)
	if got.Title != "Web Design – Acme" {
		t.Fatalf("unexpected title %q", got.Title)
	}
	if got.Description != "Rebuild the marketing site" {
		t.Fatalf("expected description to be copied verbatim, got %q", got.Description)
	}
}

func TestDefaultEngagementFieldsFallsBackToFullName(t *testing.T) {
	tests := []struct {
		name    string
		company *string
	}{
		{name: "nil company", company: nil},
		{name: "blank company", company: strPtr("   ")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lead := Lead{FirstName: "Ada", LastName: strPtr("Lovelace"), Company: tt.company, ServiceCategory: "seo"}
			got := DefaultEngagementFields(lead)
			if got.Title != "SEO – Ada Lovelace" {
				t.Fatalf("unexpected title %q", got.Title)
			}
		})
	}
}

func TestDefaultEngagementFieldsIsTotal(t *testing.T) {
	got := DefaultEngagementFields(Lead{})
	if got.Title != "" || got.Description != "" {
		t.Fatalf("expected empty defaults for an empty lead, got %+v", got)
	}

	got = DefaultEngagementFields(Lead{ServiceCategory: "solar_panel-install"})
	if got.Title != "Solar Panel Install" {
		t.Fatalf("expected humanised unknown category, got %q", got.Title)
	}
}

func TestCustomerFromLeadCopiesIdentityAndNullsBlanks(t *testing.T) {
	lead := Lead{
		FirstName: "Ada",
		Email:     "a@b.com",
		Phone:     strPtr(""),
		Company:   strPtr("Acme"),
		City:      nil,
	}

	got := CustomerFromLead(lead)
	if got.Name != "Ada" || got.Email != "a@b.com" {
		t.Fatalf("unexpected identity fields: %+v", got)
	}
	if got.Phone != nil {
		t.Fatalf("expected blank phone to become nil, got %q", *got.Phone)
	}
	if got.City != nil {
		t.Fatal("expected missing city to stay nil")
	}
	if got.Company == nil || *got.Company != "Acme" {
		t.Fatalf("expected company to be copied, got %v", got.Company)
	}
	if got.Company == lead.Company {
		t.Fatal("expected company pointer to be copied, not shared")
	}
}
