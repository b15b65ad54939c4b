// Package customers provides the customer record bounded context.
package customers

import (
	"portal_backend/internal/customers/handler"
	"portal_backend/internal/customers/repository"
	"portal_backend/internal/customers/service"
	apphttp "portal_backend/internal/http"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the customers bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	repo    *repository.Repository
}

func NewModule(pool *pgxpool.Pool) *Module {
	repo := repository.New(pool)
	return &Module{
		handler: handler.New(service.New(repo)),
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "customers"
}

// Repository exposes the customer store to the conversion adapters.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts customer routes on the operator group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Operator.Group("/customers"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
