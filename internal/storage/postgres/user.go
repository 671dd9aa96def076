package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/andiko/storefront/internal/domain/user"
)

const (
	createUserSQL = `INSERT INTO users (id, email, password_hash, name, phone, address, admin)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	findUserByEmailSQL = `SELECT id, email, password_hash, name, phone, address, admin
		FROM users WHERE email = $1`

	listUserEmailsSQL = `SELECT email FROM users`
)

var _ user.Repository = (*UserRepository)(nil)

// UserRepository implements user.Repository backed by PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a UserRepository that uses the given pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create persists a new user record. A unique-violation on email is mapped to
// user.ErrEmailTaken, which backs the service's duplicate check under races.
func (r *UserRepository) Create(ctx context.Context, rec *user.Record) error {
	_, err := r.pool.Exec(ctx, createUserSQL,
		rec.ID, rec.Email, rec.PasswordHash, rec.Name, rec.Phone, rec.Address, rec.Admin,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return user.ErrEmailTaken
		}
		return fmt.Errorf("creating user %q: %w", rec.Email, err)
	}
	return nil
}

// FindByEmail returns the user record for the given normalized email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*user.Record, error) {
	rows, err := r.pool.Query(ctx, findUserByEmailSQL, email)
	if err != nil {
		return nil, fmt.Errorf("finding user %q: %w", email, err)
	}

	rec, err := pgx.CollectExactlyOneRow(rows, scanUser)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("finding user %q: %w", email, err)
	}
	return &rec, nil
}

// ListEmails returns all registered emails, used to warm the duplicate filter.
func (r *UserRepository) ListEmails(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, listUserEmailsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing user emails: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (string, error) {
		var email string
		err := row.Scan(&email)
		return email, err
	})
}

func scanUser(row pgx.CollectableRow) (user.Record, error) {
	var rec user.Record
	err := row.Scan(
		&rec.ID, &rec.Email, &rec.PasswordHash,
		&rec.Name, &rec.Phone, &rec.Address, &rec.Admin,
	)
	return rec, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
