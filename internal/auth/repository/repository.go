package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("not found")

// ErrEmailTaken is returned when a credential already exists for the email.
var ErrEmailTaken = errors.New("email already registered")

const uniqueViolationCode = "23505"

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Credential is a stored portal login. The secret is only kept as a hash.
type Credential struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Role         string
	CustomerID   uuid.UUID
	CreatedAt    time.Time
}

type CreateCredentialParams struct {
	Email        string
	PasswordHash string
	Role         string
	CustomerID   uuid.UUID
}

const credentialColumns = `id, email, password_hash, role, customer_id, created_at`

const insertCredentialQuery = `
	INSERT INTO portal_credentials (email, password_hash, role, customer_id)
	VALUES (lower($1), $2, $3, $4)
	RETURNING ` + credentialColumns

const getCredentialByEmailQuery = `SELECT ` + credentialColumns + ` FROM portal_credentials WHERE lower(email) = lower($1)`

func (r *Repository) CreateCredential(ctx context.Context, params CreateCredentialParams) (Credential, error) {
	row := r.pool.QueryRow(ctx, insertCredentialQuery,
		params.Email,
		params.PasswordHash,
		params.Role,
		params.CustomerID,
	)
	credential, err := scanCredential(row)
	if isUniqueViolation(err) {
		return Credential{}, ErrEmailTaken
	}
	return credential, err
}

func (r *Repository) GetCredentialByEmail(ctx context.Context, email string) (Credential, error) {
	credential, err := scanCredential(r.pool.QueryRow(ctx, getCredentialByEmailQuery, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return Credential{}, ErrNotFound
	}
	return credential, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

func scanCredential(row pgx.Row) (Credential, error) {
	var c Credential
	err := row.Scan(&c.ID, &c.Email, &c.PasswordHash, &c.Role, &c.CustomerID, &c.CreatedAt)
	return c, err
}
