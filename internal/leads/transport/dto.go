package transport

import (
	"time"
)

type LeadStatus string

const (
	LeadStatusNew         LeadStatus = "new"
	LeadStatusContacted   LeadStatus = "contacted"
	LeadStatusQualified   LeadStatus = "qualified"
	LeadStatusNegotiating LeadStatus = "negotiating"
	LeadStatusConverted   LeadStatus = "converted"
	LeadStatusLost        LeadStatus = "lost"
	LeadStatusArchived    LeadStatus = "archived"
)

// Request DTOs
type CreateLeadRequest struct {
	FirstName       string  `json:"firstName" validate:"required,min=1,max=100"`
	LastName        *string `json:"lastName,omitempty" validate:"omitempty,max=100"`
	Email           string  `json:"email" validate:"required,email"`
	Phone           *string `json:"phone,omitempty" validate:"omitempty,min=5,max=20"`
	Company         *string `json:"company,omitempty" validate:"omitempty,max=200"`
	City            *string `json:"city,omitempty" validate:"omitempty,max=100"`
	ServiceCategory string  `json:"serviceCategory" validate:"required,max=100"`
	Description     *string `json:"description,omitempty" validate:"omitempty,max=5000"`
	InternalNotes   *string `json:"internalNotes,omitempty" validate:"omitempty,max=5000"`
}

// Converted is not accepted here: a lead only leaves the pipeline by being
// converted and deleted.
type UpdateLeadStatusRequest struct {
	Status LeadStatus `json:"status" validate:"required,oneof=new contacted qualified negotiating lost archived"`
}

type ListLeadsRequest struct {
	Status   string `form:"status" validate:"omitempty,oneof=new contacted qualified negotiating converted lost archived"`
	Search   string `form:"search" validate:"omitempty,max=100"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
	SortDesc bool   `form:"sortDesc"`
}

// Response DTOs
type LeadResponse struct {
	ID              string    `json:"id"`
	FirstName       string    `json:"firstName"`
	LastName        *string   `json:"lastName,omitempty"`
	Email           string    `json:"email"`
	Phone           *string   `json:"phone,omitempty"`
	Company         *string   `json:"company,omitempty"`
	City            *string   `json:"city,omitempty"`
	ServiceCategory string    `json:"serviceCategory"`
	Description     *string   `json:"description,omitempty"`
	Status          string    `json:"status"`
	InternalNotes   *string   `json:"internalNotes,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type LeadListResponse struct {
	Items      []LeadResponse `json:"items"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalPages int            `json:"totalPages"`
}
