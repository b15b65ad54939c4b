// Package leads provides the lead management bounded context module.
// This file defines the module that encapsulates all leads setup and route registration.
package leads

import (
	"portal_backend/internal/events"
	apphttp "portal_backend/internal/http"
	"portal_backend/internal/leads/handler"
	"portal_backend/internal/leads/repository"
	"portal_backend/internal/leads/service"
	"portal_backend/platform/logger"
	"portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates and initializes the leads module with all its dependencies.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, eventBus)

	log.Debug("leads module initialized")

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the leads service for use by other modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository exposes the lead store so the conversion pipeline can read and
// retire leads through an adapter.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts leads routes on the operator group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Operator.Group("/leads"), ctx.WriteRateLimiter.RateLimit())
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
