package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Customer struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Phone     *string
	Company   *string
	City      *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type CreateCustomerParams struct {
	Name    string
	Email   string
	Phone   *string
	Company *string
	City    *string
}

type Engagement struct {
	ID            uuid.UUID
	CustomerID    uuid.UUID
	Title         string
	Description   string
	Status        string
	StartDate     time.Time
	TargetEndDate time.Time
	BudgetCents   *int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type CreateEngagementParams struct {
	CustomerID    uuid.UUID
	Title         string
	Description   string
	Status        string
	StartDate     time.Time
	TargetEndDate time.Time
	BudgetCents   *int64
}

const customerColumns = `id, name, email, phone, company, city, created_at, updated_at`

const engagementColumns = `id, customer_id, title, description, status, start_date, target_end_date, budget_cents, created_at, updated_at`

const insertCustomerQuery = `
	INSERT INTO customers (name, email, phone, company, city)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING ` + customerColumns

const getCustomerQuery = `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`

// customer_id is only ever written here; engagements never move between customers.
const insertEngagementQuery = `
	INSERT INTO engagements (customer_id, title, description, status, start_date, target_end_date, budget_cents)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING ` + engagementColumns

const listEngagementsQuery = `SELECT ` + engagementColumns + ` FROM engagements WHERE customer_id = $1 ORDER BY created_at ASC`

func (r *Repository) InsertCustomer(ctx context.Context, params CreateCustomerParams) (Customer, error) {
	row := r.pool.QueryRow(ctx, insertCustomerQuery,
		params.Name,
		params.Email,
		params.Phone,
		params.Company,
		params.City,
	)
	return scanCustomer(row)
}

func (r *Repository) GetCustomer(ctx context.Context, id uuid.UUID) (Customer, error) {
	customer, err := scanCustomer(r.pool.QueryRow(ctx, getCustomerQuery, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, ErrNotFound
	}
	return customer, err
}

func (r *Repository) InsertEngagement(ctx context.Context, params CreateEngagementParams) (Engagement, error) {
	row := r.pool.QueryRow(ctx, insertEngagementQuery,
		params.CustomerID,
		params.Title,
		params.Description,
		params.Status,
		params.StartDate,
		params.TargetEndDate,
		params.BudgetCents,
	)
	return scanEngagement(row)
}

func (r *Repository) ListEngagements(ctx context.Context, customerID uuid.UUID) ([]Engagement, error) {
	rows, err := r.pool.Query(ctx, listEngagementsQuery, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	engagements := make([]Engagement, 0)
	for rows.Next() {
		engagement, err := scanEngagement(rows)
		if err != nil {
			return nil, err
		}
		engagements = append(engagements, engagement)
	}
	return engagements, rows.Err()
}

func scanCustomer(row pgx.Row) (Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Company, &c.City, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func scanEngagement(row pgx.Row) (Engagement, error) {
	var e Engagement
	err := row.Scan(
		&e.ID,
		&e.CustomerID,
		&e.Title,
		&e.Description,
		&e.Status,
		&e.StartDate,
		&e.TargetEndDate,
		&e.BudgetCents,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	return e, err
}
