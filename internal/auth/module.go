// Package auth provides the portal credential bounded context module.
// Operators authenticate with JWTs issued elsewhere; this module only owns
// customer portal logins.
package auth

import (
	"portal_backend/internal/auth/repository"
	"portal_backend/internal/auth/service"
	"portal_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the auth bounded context module.
type Module struct {
	service *service.Service
}

// NewModule creates and initializes the auth module with all its dependencies.
func NewModule(pool *pgxpool.Pool, log *logger.Logger) *Module {
	repo := repository.New(pool)
	return &Module{service: service.New(repo, log)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "auth"
}

// Service returns the auth service for use by adapters.
func (m *Module) Service() *service.Service {
	return m.service
}
