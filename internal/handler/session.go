package handler

import (
	"net/http"
	"strings"
	"sync"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/andiko/storefront/internal/domain/user"
)

// errNoSession is returned when a request carries no valid session token.
var errNoSession = errors.New("missing or invalid session token")

// sessionRegistry maps opaque bearer tokens to authenticated users. Tokens
// are issued on login and revoked on logout; they are process-local, matching
// the session-scoped cart model.
type sessionRegistry struct {
	mu    sync.RWMutex
	users map[string]*user.User
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{users: make(map[string]*user.User)}
}

// issue creates a new token bound to the given user.
func (s *sessionRegistry) issue(u *user.User) string {
	token := uuid.New().String()
	s.mu.Lock()
	s.users[token] = u
	s.mu.Unlock()
	return token
}

// lookup resolves a token to its user.
func (s *sessionRegistry) lookup(token string) (*user.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[token]
	return u, ok
}

// revoke invalidates a token.
func (s *sessionRegistry) revoke(token string) {
	s.mu.Lock()
	delete(s.users, token)
	s.mu.Unlock()
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}
	return strings.TrimSpace(auth[len(prefix):])
}

// requireUser resolves the request's session. The returned token keys the
// session's cart in the cart store.
func (h *Handler) requireUser(r *http.Request) (*user.User, string, error) {
	token := bearerToken(r)
	if token == "" {
		return nil, "", errNoSession
	}
	u, ok := h.sessions.lookup(token)
	if !ok {
		return nil, "", errNoSession
	}
	return u, token, nil
}
