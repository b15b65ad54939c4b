package repository

import (
	"strings"
	"testing"
)

func TestInsertEngagementQueryWritesCustomerID(t *testing.T) {
	query := strings.ToLower(insertEngagementQuery)
	if !strings.Contains(query, "insert into engagements (customer_id,") {
		t.Fatalf("expected customer_id as first insert column, got %q", insertEngagementQuery)
	}
	if !strings.Contains(query, "returning "+engagementColumns) {
		t.Fatalf("expected insert to return full engagement row, got %q", insertEngagementQuery)
	}
}

func TestListEngagementsQueryIsScopedByCustomer(t *testing.T) {
	if !strings.Contains(listEngagementsQuery, "WHERE customer_id = $1") {
		t.Fatalf("expected customer scope, got %q", listEngagementsQuery)
	}
}

func TestCustomerQueriesNeverReferenceLeads(t *testing.T) {
	for _, query := range []string{insertCustomerQuery, getCustomerQuery} {
		if strings.Contains(strings.ToLower(query), "lead") {
			t.Fatalf("customer query must not reference leads: %q", query)
		}
	}
}
