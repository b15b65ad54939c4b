package repository

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestInsertCredentialQueryStoresHashOnly(t *testing.T) {
	query := strings.ToLower(insertCredentialQuery)

	requiredFragments := []string{
		"insert into portal_credentials (email, password_hash, role, customer_id)",
		"values (lower($1), $2, $3, $4)",
	}

	for _, fragment := range requiredFragments {
		if !strings.Contains(query, fragment) {
			t.Fatalf("expected credential query fragment %q to be present", fragment)
		}
	}
	if strings.Contains(query, "password,") {
		t.Fatal("credential insert must not have a plain password column")
	}
}

func TestGetCredentialByEmailIsCaseInsensitive(t *testing.T) {
	if !strings.Contains(getCredentialByEmailQuery, "lower(email) = lower($1)") {
		t.Fatalf("expected case-insensitive lookup, got %q", getCredentialByEmailQuery)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	wrapped := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	if !isUniqueViolation(wrapped) {
		t.Fatal("expected wrapped 23505 to be detected")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatal("foreign key violation is not a unique violation")
	}
	if isUniqueViolation(errors.New("boom")) {
		t.Fatal("plain error is not a unique violation")
	}
}
