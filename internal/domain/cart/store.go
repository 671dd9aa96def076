package cart

import (
	"sync"
	"sync/atomic"
)

// Session is the single logical owner of one cart. All mutations go through
// With, which serializes interleaved actions so two rapid taps (increase then
// decrease) apply strictly in the order issued.
type Session struct {
	mu   sync.Mutex
	cart *Cart

	// submitting guards against re-entrant checkout: while one submission is
	// in flight a second one is refused rather than queued.
	submitting atomic.Bool
}

// NewSession returns a session owning a fresh empty cart.
func NewSession() *Session {
	return &Session{cart: New()}
}

// With runs fn with exclusive access to the session's cart.
func (s *Session) With(fn func(c *Cart) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.cart)
}

// BeginSubmit marks a submission as in flight. It returns false when another
// submission already holds the flag.
func (s *Session) BeginSubmit() bool {
	return s.submitting.CompareAndSwap(false, true)
}

// EndSubmit releases the in-flight submission flag.
func (s *Session) EndSubmit() {
	s.submitting.Store(false)
}

// Store maps opaque session tokens to their cart sessions. Carts are created
// lazily on first access and live until Drop is called (logout) or the
// process exits; nothing is shared between sessions.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewStore returns an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Get returns the session for the given token, creating it when absent.
func (s *Store) Get(token string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok {
		sess = NewSession()
		s.sessions[token] = sess
	}
	return sess
}

// Drop removes the session for the given token, discarding its cart.
func (s *Store) Drop(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}
