package user

import (
	"context"

	"github.com/go-faster/errors"
)

// Sentinel errors for identity operations.
var (
	// ErrNotFound is returned by repositories when no user matches.
	ErrNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when registering an already-registered email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials is returned on login failure. It deliberately does
	// not distinguish an unknown email from a wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrMissingFields is returned when a registration profile is incomplete.
	ErrMissingFields = errors.New("name, email, password and address are required")
)

// User is the authenticated identity attached to a session. The Admin flag
// only gates the client-facing sales report; it is a UI convenience, not a
// security boundary.
type User struct {
	ID      string
	Email   string
	Name    string
	Phone   string
	Address string
	Admin   bool
}

// Profile is the registration input.
type Profile struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Address  string
}

// Record is the stored form of a user, including the password hash.
type Record struct {
	User
	PasswordHash string
}

// Repository defines persistence operations for user records.
type Repository interface {
	Create(ctx context.Context, rec *Record) error
	FindByEmail(ctx context.Context, email string) (*Record, error)
	ListEmails(ctx context.Context) ([]string, error)
}
