// Package conversion provides the lead-to-customer conversion bounded context.
// This file defines the module that wires the orchestrator, the session
// registry and the HTTP handler.
package conversion

import (
	"portal_backend/internal/conversion/handler"
	"portal_backend/internal/conversion/ports"
	"portal_backend/internal/conversion/service"
	"portal_backend/internal/events"
	apphttp "portal_backend/internal/http"
	"portal_backend/platform/config"
	"portal_backend/platform/logger"
	"portal_backend/platform/validator"
)

// Dependencies are the collaborators the conversion pipeline consumes.
type Dependencies struct {
	Records     ports.RecordStore
	Leads       ports.LeadReader
	Credentials ports.CredentialStore
	Locker      ports.LeadLocker
}

// Module is the conversion bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the conversion module.
func NewModule(deps Dependencies, eventBus events.Bus, val *validator.Validator, cfg config.ConversionConfig, log *logger.Logger) *Module {
	orch := service.NewOrchestrator(deps.Records, deps.Credentials, eventBus, val, log, cfg.GetConversionPasswordMinLength())
	svc := service.New(orch, service.NewRegistry(), deps.Leads, deps.Locker, cfg, log)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "conversion"
}

// Service returns the conversion service, used by main to run the session janitor.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts conversion routes on the operator group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Operator.Group("/conversions"), ctx.WriteRateLimiter.RateLimit())
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
