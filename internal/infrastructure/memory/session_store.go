package memory

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"

	"github.com/baechuer/eprocure-portal/internal/domain"
)

type tokenEntry struct {
	userID    string
	gen       int64
	expiresAt time.Time
}

// SessionStore is the single-process fallback for the Redis store, with the
// same generation semantics for RevokeAll.
type SessionStore struct {
	mu     sync.Mutex
	tokens map[string]tokenEntry
	gens   map[string]int64
	now    func() time.Time
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		tokens: make(map[string]tokenEntry),
		gens:   make(map[string]int64),
		now:    time.Now,
	}
}

func (s *SessionStore) CreateRefreshToken(ctx context.Context, userID string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", domain.ErrMissingField("user_id")
	}
	tok, err := newOpaqueToken(32)
	if err != nil {
		return "", domain.ErrRandomFailed(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[tok] = tokenEntry{userID: userID, gen: s.gens[userID], expiresAt: s.now().Add(ttl)}
	return tok, nil
}

// lookup must be called with mu held.
func (s *SessionStore) lookup(token string) (tokenEntry, bool) {
	e, ok := s.tokens[token]
	if !ok {
		return tokenEntry{}, false
	}
	if !s.now().Before(e.expiresAt) || e.gen != s.gens[e.userID] {
		delete(s.tokens, token)
		return tokenEntry{}, false
	}
	return e, true
}

func (s *SessionStore) GetUserIDByRefreshToken(ctx context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookup(token)
	if !ok {
		return "", domain.ErrRefreshTokenInvalid()
	}
	return e.userID, nil
}

func (s *SessionStore) RotateRefreshToken(ctx context.Context, oldToken string, ttl time.Duration) (string, error) {
	tok, err := newOpaqueToken(32)
	if err != nil {
		return "", domain.ErrRandomFailed(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookup(oldToken)
	if !ok {
		return "", domain.ErrRefreshTokenInvalid()
	}
	delete(s.tokens, oldToken)
	e.expiresAt = s.now().Add(ttl)
	s.tokens[tok] = e
	return tok, nil
}

func (s *SessionStore) RevokeRefreshToken(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
	return nil
}

func (s *SessionStore) RevokeAll(ctx context.Context, userID string) error {
	if userID == "" {
		return domain.ErrMissingField("user_id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gens[userID]++
	return nil
}

func newOpaqueToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
