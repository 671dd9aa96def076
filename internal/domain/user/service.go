package user

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

const (
	bloomCapacity = 100_000
	bloomFPR      = 0.01
)

// Service implements registration and login against the user repository.
// Passwords are hashed with HMAC-SHA256 under a deployment-wide pepper and
// compared in constant time.
type Service struct {
	repo       Repository
	pepper     []byte
	adminEmail string

	// seen tracks registered emails. A definite-negative answer lets Register
	// skip the duplicate lookup; positives are confirmed against the
	// repository, and the unique constraint there is the final arbiter.
	mu   sync.Mutex
	seen *bloom.BloomFilter
}

// NewService creates an identity Service. Accounts registered with adminEmail
// receive the admin flag.
func NewService(repo Repository, pepper []byte, adminEmail string) *Service {
	return &Service{
		repo:       repo,
		pepper:     pepper,
		adminEmail: normalizeEmail(adminEmail),
		seen:       bloom.NewWithEstimates(bloomCapacity, bloomFPR),
	}
}

// WarmEmailFilter preloads the email filter with all registered emails.
// Called once at startup; failures leave the filter empty, which only costs
// extra duplicate lookups.
func (s *Service) WarmEmailFilter(ctx context.Context) error {
	emails, err := s.repo.ListEmails(ctx)
	if err != nil {
		return errors.Wrap(err, "list emails")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range emails {
		s.seen.AddString(e)
	}
	return nil
}

// Register validates the profile, rejects duplicate emails, and stores a new
// user record. The returned user carries the generated id and admin flag.
func (s *Service) Register(ctx context.Context, p Profile) (*User, error) {
	email := normalizeEmail(p.Email)
	if p.Name == "" || email == "" || p.Password == "" || p.Address == "" {
		return nil, ErrMissingFields
	}

	if s.mightExist(email) {
		_, err := s.repo.FindByEmail(ctx, email)
		switch {
		case err == nil:
			return nil, ErrEmailTaken
		case !errors.Is(err, ErrNotFound):
			return nil, errors.Wrap(err, "check existing email")
		}
	}

	rec := &Record{
		User: User{
			ID:      uuid.New().String(),
			Email:   email,
			Name:    p.Name,
			Phone:   p.Phone,
			Address: p.Address,
			Admin:   email == s.adminEmail,
		},
		PasswordHash: s.hashPassword(p.Password),
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, errors.Wrap(err, "create user")
	}

	s.mu.Lock()
	s.seen.AddString(email)
	s.mu.Unlock()

	u := rec.User
	return &u, nil
}

// Login authenticates the given credentials and returns the user profile.
func (s *Service) Login(ctx context.Context, email, password string) (*User, error) {
	rec, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, "find user")
	}

	stored, err := hex.DecodeString(rec.PasswordHash)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	mac := hmac.New(sha256.New, s.pepper)
	mac.Write([]byte(password))
	if subtle.ConstantTimeCompare(mac.Sum(nil), stored) != 1 {
		return nil, ErrInvalidCredentials
	}

	u := rec.User
	return &u, nil
}

func (s *Service) mightExist(email string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen.TestString(email)
}

func (s *Service) hashPassword(pw string) string {
	mac := hmac.New(sha256.New, s.pepper)
	mac.Write([]byte(pw))
	return hex.EncodeToString(mac.Sum(nil))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
