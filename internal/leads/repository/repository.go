package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("not found")

// Lead statuses. A converted lead is deleted rather than kept as converted.
const (
	StatusNew         = "new"
	StatusContacted   = "contacted"
	StatusQualified   = "qualified"
	StatusNegotiating = "negotiating"
	StatusConverted   = "converted"
	StatusLost        = "lost"
	StatusArchived    = "archived"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Lead struct {
	ID              uuid.UUID
	FirstName       string
	LastName        *string
	Email           string
	Phone           *string
	Company         *string
	City            *string
	ServiceCategory string
	Description     *string
	Status          string
	InternalNotes   *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type CreateLeadParams struct {
	FirstName       string
	LastName        *string
	Email           string
	Phone           *string
	Company         *string
	City            *string
	ServiceCategory string
	Description     *string
	InternalNotes   *string
}

type ListParams struct {
	Status   *string
	Search   string
	Offset   int
	Limit    int
	SortDesc bool
}

const leadColumns = `id, first_name, last_name, email, phone, company, city, service_category, description, status, internal_notes, created_at, updated_at`

const insertLeadQuery = `
	INSERT INTO leads (first_name, last_name, email, phone, company, city, service_category, description, internal_notes)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING ` + leadColumns

const getLeadQuery = `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`

const updateLeadStatusQuery = `
	UPDATE leads SET status = $2, updated_at = now()
	WHERE id = $1
	RETURNING ` + leadColumns

const deleteLeadQuery = `DELETE FROM leads WHERE id = $1`

func (r *Repository) Create(ctx context.Context, params CreateLeadParams) (Lead, error) {
	row := r.pool.QueryRow(ctx, insertLeadQuery,
		params.FirstName,
		params.LastName,
		params.Email,
		params.Phone,
		params.Company,
		params.City,
		params.ServiceCategory,
		params.Description,
		params.InternalNotes,
	)
	return scanLead(row)
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, getLeadQuery, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, updateLeadStatusQuery, id, status))
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

// Delete removes a lead. It returns ErrNotFound when no row was deleted.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, deleteLeadQuery, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) List(ctx context.Context, params ListParams) ([]Lead, int, error) {
	where, args := buildListFilter(params)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM leads`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order := "ASC"
	if params.SortDesc {
		order = "DESC"
	}
	args = append(args, params.Limit, params.Offset)
	query := fmt.Sprintf(`SELECT %s FROM leads%s ORDER BY created_at %s LIMIT $%d OFFSET $%d`,
		leadColumns, where, order, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, 0, err
		}
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return leads, total, nil
}

func buildListFilter(params ListParams) (string, []any) {
	var clauses []string
	var args []any

	if params.Status != nil {
		args = append(args, *params.Status)
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if search := strings.TrimSpace(params.Search); search != "" {
		args = append(args, "%"+search+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf("(first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d OR company ILIKE $%d)", n, n, n, n))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanLead(row pgx.Row) (Lead, error) {
	var lead Lead
	err := row.Scan(
		&lead.ID,
		&lead.FirstName,
		&lead.LastName,
		&lead.Email,
		&lead.Phone,
		&lead.Company,
		&lead.City,
		&lead.ServiceCategory,
		&lead.Description,
		&lead.Status,
		&lead.InternalNotes,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)
	return lead, err
}
